package server

import (
	"encoding/json"
	"net/http"

	"github.com/qtccc/qtc-assignment-2/internal/config"
	"github.com/qtccc/qtc-assignment-2/internal/session"
	"github.com/qtccc/qtc-assignment-2/internal/storage"
)

type HealthResponse struct {
	Status        string `json:"status"`
	DB            string `json:"db"`
	Sessions      int    `json:"sessions"`
	Datasets      int    `json:"datasets"`
	Runs          int    `json:"runs"`
	DataDir       string `json:"data_dir"`
	Port          int    `json:"port"`
	MaxIterations int    `json:"max_iterations"`
}

// HealthHandler returns a handler for GET /health.
func HealthHandler(cfg config.Config, db *storage.Database, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:        "ok",
			DB:            "unavailable",
			Sessions:      sessions.Len(),
			DataDir:       cfg.DataDir,
			Port:          cfg.Port,
			MaxIterations: cfg.Clustering.MaxIterations,
		}
		if db != nil && db.Ping() == nil {
			resp.DB = "connected"
			resp.Datasets, _ = db.CountDatasets()
			resp.Runs, _ = db.CountRuns()
		} else {
			resp.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
