package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
	"github.com/qtccc/qtc-assignment-2/internal/storage"
)

var errDatasetNotFound = errors.New("dataset not found")

type generateRequest struct {
	NumPoints flexInt `json:"num_points"`
	Seed      *int64  `json:"seed"`
}

type clusterRequest struct {
	Data       []kmeans.Point `json:"data"`
	DatasetID  string         `json:"dataset_id"`
	NClusters  flexInt        `json:"n_clusters"`
	InitMethod string         `json:"init_method"`
	Centroids  []kmeans.Point `json:"centroids"`
	MaxIters   *flexInt       `json:"max_iters"`
	Seed       *int64         `json:"seed"`
}

type stepRequest struct {
	clusterRequest
	SessionID string `json:"session_id"`
}

type clusterResponse struct {
	Centroids  []kmeans.Point `json:"centroids"`
	Labels     []int          `json:"labels"`
	Converged  bool           `json:"converged"`
	Exhausted  bool           `json:"exhausted"`
	Iterations int            `json:"iterations"`
	Inertia    float64        `json:"inertia"`
	RunID      string         `json:"run_id,omitempty"`
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Centroids []kmeans.Point `json:"centroids"`
	Labels    []int          `json:"labels"`
	Converged bool           `json:"converged"`
	Exhausted bool           `json:"exhausted"`
	Iteration int            `json:"iteration"`
	Inertia   float64        `json:"inertia"`
}

func newSessionResponse(id string, res kmeans.Result) sessionResponse {
	resp := sessionResponse{
		SessionID: id,
		State:     res.State.String(),
		Centroids: res.Centroids,
		Labels:    res.Labels,
		Converged: res.Converged,
		Exhausted: res.Exhausted,
		Iteration: res.Iteration,
		Inertia:   res.Inertia,
	}
	if resp.Centroids == nil {
		resp.Centroids = []kmeans.Point{}
	}
	if resp.Labels == nil {
		resp.Labels = []int{}
	}
	return resp
}

// Mount registers the clustering endpoints on r, using the paths the
// browser client posts to.
func Mount(r chi.Router, d Deps) {
	r.Post("/generate_data", d.generateData)
	r.Post("/cluster", d.cluster)
	r.Post("/step_kmeans", d.stepKMeans)
	r.Post("/reset", d.reset)
	r.Mount("/sessions", SessionsRouter(d))
	r.Mount("/datasets", DatasetsRouter(d))
	r.Mount("/runs", RunsRouter(d))
}

func (d Deps) generateData(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if n := int(req.NumPoints); d.Clustering.MaxPoints > 0 && n > d.Clustering.MaxPoints {
		writeError(w, fmt.Errorf("%w: num_points %d exceeds the limit of %d", kmeans.ErrInvalidConfig, n, d.Clustering.MaxPoints))
		return
	}

	ps, err := kmeans.Generate(int(req.NumPoints), req.Seed)
	if err != nil {
		writeError(w, err)
		return
	}

	if d.DB != nil {
		ds := storage.NewDataset(uuid.NewString(), req.Seed)
		if err := d.DB.InsertDataset(ds, ps); err != nil {
			slog.Warn("Failed to store dataset", "error", err)
		} else {
			w.Header().Set(datasetHeader, ds.ID)
		}
	}
	d.Metrics.ObserveDataset()

	writeJSON(w, ps.Points())
}

// points resolves the request's dataset, inline data taking precedence
// over a stored dataset id.
func (d Deps) points(req clusterRequest) (*kmeans.PointSet, *string, error) {
	if len(req.Data) > 0 || req.DatasetID == "" {
		if d.Clustering.MaxPoints > 0 && len(req.Data) > d.Clustering.MaxPoints {
			return nil, nil, fmt.Errorf("%w: %d points exceed the limit of %d", kmeans.ErrInvalidConfig, len(req.Data), d.Clustering.MaxPoints)
		}
		ps, err := kmeans.NewPointSet(req.Data)
		return ps, nil, err
	}
	if d.DB == nil {
		return nil, nil, fmt.Errorf("%w: %s", errDatasetNotFound, req.DatasetID)
	}
	_, ps, err := d.DB.GetDataset(req.DatasetID)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	if ps == nil {
		return nil, nil, fmt.Errorf("%w: %s", errDatasetNotFound, req.DatasetID)
	}
	id := req.DatasetID
	return ps, &id, nil
}

func (req clusterRequest) initSpec() (kmeans.InitSpec, error) {
	name := req.InitMethod
	if name == "" {
		name = string(kmeans.InitRandom)
	}
	method, err := kmeans.ParseInitMethod(name)
	if err != nil {
		return kmeans.InitSpec{}, err
	}
	return kmeans.InitSpec{Method: method, Seed: req.Seed, Centroids: req.Centroids}, nil
}

func (d Deps) sessionOptions(maxIters *flexInt) []kmeans.Option {
	var opts []kmeans.Option
	if d.Clustering.Tolerance > 0 {
		opts = append(opts, kmeans.WithTolerance(d.Clustering.Tolerance))
	}
	limit := d.Clustering.MaxIterations
	switch {
	case maxIters != nil:
		n := int(*maxIters)
		if limit > 0 && n > limit {
			n = limit
		}
		opts = append(opts, kmeans.WithMaxIterations(n))
	case limit > 0:
		opts = append(opts, kmeans.WithMaxIterations(limit))
	}
	return opts
}

func (d Deps) cluster(w http.ResponseWriter, r *http.Request) {
	var req clusterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ps, datasetID, err := d.points(req)
	if err != nil {
		writeError(w, err)
		return
	}
	spec, err := req.initSpec()
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := kmeans.NewSession(d.sessionOptions(req.MaxIters)...)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := sess.Start(ps, int(req.NClusters), spec); err != nil {
		writeError(w, err)
		return
	}
	res, err := sess.RunToConvergence()
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("Clustering finished",
		"points", ps.Len(), "k", sess.K(), "init", spec.Method,
		"iterations", res.Iteration, "converged", res.Converged)

	run := storage.NewRun(uuid.NewString(), storage.ModeFull, ps.Len(), sess.K(), spec.Method, res)
	run.DatasetID = datasetID
	runID := d.recordRun(run)
	d.Metrics.ObserveRun(string(storage.ModeFull), spec.Method, res)

	writeJSON(w, clusterResponse{
		Centroids:  res.Centroids,
		Labels:     res.Labels,
		Converged:  res.Converged,
		Exhausted:  res.Exhausted,
		Iterations: res.Iteration,
		Inertia:    res.Inertia,
		RunID:      runID,
	})
}

// recordRun stores run history. Failures are logged, not surfaced: the
// clustering result is still valid.
func (d Deps) recordRun(run storage.Run) string {
	if d.DB == nil {
		return ""
	}
	if err := d.DB.InsertRun(run); err != nil {
		slog.Warn("Failed to record run", "run", run.ID, "error", err)
		return ""
	}
	return run.ID
}

func (d Deps) stepKMeans(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ps, datasetID, err := d.points(req.clusterRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	spec, err := req.initSpec()
	if err != nil {
		writeError(w, err)
		return
	}
	k := int(req.NClusters)

	var res kmeans.Result
	var finished bool
	id, err := d.Sessions.Do(sessionID(r, req.SessionID), true, func(s *kmeans.Session) error {
		if needsRestart(s, ps, k, spec) {
			if _, err := s.Start(ps, k, spec); err != nil {
				return err
			}
		}
		wasTerminal := s.State().Terminal()
		var err error
		res, err = s.Step()
		finished = !wasTerminal && res.State.Terminal()
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	d.Metrics.ObserveStep()

	if finished {
		sid := id
		run := storage.NewRun(uuid.NewString(), storage.ModeStep, ps.Len(), k, spec.Method, res)
		run.SessionID = &sid
		run.DatasetID = datasetID
		d.recordRun(run)
		d.Metrics.ObserveRun(string(storage.ModeStep), spec.Method, res)
		slog.Info("Stepwise clustering finished", "session", id, "iterations", res.Iteration, "converged", res.Converged)
	}

	setSessionID(w, id)
	writeJSON(w, newSessionResponse(id, res))
}

// needsRestart reports whether a step request describes a different run
// than the one the session holds. Manual runs also differ when the chosen
// centroids do.
func needsRestart(s *kmeans.Session, ps *kmeans.PointSet, k int, spec kmeans.InitSpec) bool {
	if s.State() == kmeans.Uninitialized ||
		s.K() != k ||
		s.Method() != spec.Method ||
		!s.PointSet().Equal(ps) {
		return true
	}
	return spec.Method == kmeans.InitManual && !kmeans.PointsEqual(s.InitialCentroids(), spec.Centroids)
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

func (d Deps) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	var res kmeans.Result
	id, err := d.Sessions.Do(sessionID(r, req.SessionID), false, func(s *kmeans.Session) error {
		s.Reset()
		res = s.Result()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("Session reset", "session", id)
	writeJSON(w, newSessionResponse(id, res))
}
