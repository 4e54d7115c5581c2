package storage

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
)

// RunMode records how a run was driven.
type RunMode string

const (
	ModeFull RunMode = "full"
	ModeStep RunMode = "step"
)

// Fixed width so created_at columns sort lexically.
const isoLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nowISO() string {
	return time.Now().UTC().Format(isoLayout)
}

// Dataset is a generated point set kept for later reference.
type Dataset struct {
	ID        string `json:"id"`
	NumPoints int    `json:"num_points"`
	Dim       int    `json:"dim"`
	Seed      *int64 `json:"seed,omitempty"`
	CreatedAt string `json:"created_at"`
}

func NewDataset(id string, seed *int64) Dataset {
	return Dataset{ID: id, Seed: seed, CreatedAt: nowISO()}
}

// Run is the summary of a clustering run that reached a terminal state.
type Run struct {
	ID            string  `json:"id"`
	SessionID     *string `json:"session_id,omitempty"`
	DatasetID     *string `json:"dataset_id,omitempty"`
	Mode          RunMode `json:"mode"`
	NumPoints     int     `json:"num_points"`
	K             int     `json:"k"`
	InitMethod    string  `json:"init_method"`
	Iterations    int     `json:"iterations"`
	Converged     bool    `json:"converged"`
	Exhausted     bool    `json:"exhausted"`
	Inertia       float64 `json:"inertia"`
	CentroidsJSON string  `json:"-"`
	CreatedAt     string  `json:"created_at"`
}

// NewRun summarizes a session result.
func NewRun(id string, mode RunMode, numPoints, k int, method kmeans.InitMethod, res kmeans.Result) Run {
	b, err := json.Marshal(res.Centroids)
	if err != nil {
		slog.Warn("Failed to encode run centroids", "run", id, "error", err)
		b = []byte("[]")
	}
	return Run{
		ID:            id,
		Mode:          mode,
		NumPoints:     numPoints,
		K:             k,
		InitMethod:    string(method),
		Iterations:    res.Iteration,
		Converged:     res.Converged,
		Exhausted:     res.Exhausted,
		Inertia:       res.Inertia,
		CentroidsJSON: string(b),
		CreatedAt:     nowISO(),
	}
}

// Centroids decodes the stored final centroids.
func (r Run) Centroids() ([]kmeans.Point, error) {
	var c []kmeans.Point
	err := json.Unmarshal([]byte(r.CentroidsJSON), &c)
	return c, err
}
