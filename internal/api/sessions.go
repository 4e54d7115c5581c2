package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
	"github.com/qtccc/qtc-assignment-2/internal/storage"
)

func SessionsRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		var res kmeans.Result
		id, err := d.Sessions.Do(chi.URLParam(r, "id"), false, func(s *kmeans.Session) error {
			res = s.Result()
			return nil
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, newSessionResponse(id, res))
	})

	r.Get("/{id}/runs", func(w http.ResponseWriter, r *http.Request) {
		if d.DB == nil {
			writeJSON(w, []runResponse{})
			return
		}
		runs, err := d.DB.GetRunsForSession(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, toRunResponses(runs))
	})

	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !d.Sessions.Delete(id) {
			http.Error(w, "session not found: "+id, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted", "session_id": id})
	})

	return r
}

type datasetResponse struct {
	storage.Dataset
	Points []kmeans.Point `json:"points"`
}

func DatasetsRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if d.DB == nil {
			writeError(w, fmt.Errorf("%w: %s", errDatasetNotFound, id))
			return
		}
		ds, ps, err := d.DB.GetDataset(id)
		if err != nil {
			writeError(w, err)
			return
		}
		if ds == nil {
			writeError(w, fmt.Errorf("%w: %s", errDatasetNotFound, id))
			return
		}
		writeJSON(w, datasetResponse{Dataset: *ds, Points: ps.Points()})
	})

	return r
}

type runResponse struct {
	storage.Run
	Centroids []kmeans.Point `json:"centroids"`
}

func toRunResponses(runs []storage.Run) []runResponse {
	resp := make([]runResponse, len(runs))
	for i, run := range runs {
		centroids, err := run.Centroids()
		if err != nil {
			slog.Warn("Failed to decode run centroids", "run", run.ID, "error", err)
			centroids = nil
		}
		if centroids == nil {
			centroids = []kmeans.Point{}
		}
		resp[i] = runResponse{Run: run, Centroids: centroids}
	}
	return resp
}

const defaultRunLimit = 50

func RunsRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRunLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = v
		}
		if d.DB == nil {
			writeJSON(w, []runResponse{})
			return
		}
		runs, err := d.DB.GetRecentRuns(limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, toRunResponses(runs))
	})

	return r
}
