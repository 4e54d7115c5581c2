package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/qtccc/qtc-assignment-2/internal/config"
	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
	"github.com/qtccc/qtc-assignment-2/internal/server"
	"github.com/qtccc/qtc-assignment-2/internal/session"
	"github.com/qtccc/qtc-assignment-2/internal/storage"
)

// Deps are the collaborators shared by the routers. DB and Metrics may be nil.
type Deps struct {
	Sessions   *session.Manager
	DB         *storage.Database
	Metrics    *server.Metrics
	Clustering config.ClusteringConfig
}

const (
	sessionHeader = "X-Session-ID"
	datasetHeader = "X-Dataset-ID"
	sessionCookie = "kmeans_session"
)

// flexInt accepts both 3 and "3"; the UI posts form values as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", b)
	}
	*f = flexInt(v)
	return nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode request: %w", kmeans.ErrInvalidConfig, err)
	}
	return nil
}

// writeJSON encodes v before touching the response so an unencodable value
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

// writeError maps engine and session errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, kmeans.ErrInvalidConfig), errors.Is(err, kmeans.ErrEmptyDataset):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound), errors.Is(err, errDatasetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, kmeans.ErrNotStarted):
		status = http.StatusConflict
	case errors.Is(err, session.ErrTooManySessions):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

// sessionID picks the caller's session id from the body, the X-Session-ID
// header or the session cookie, in that order.
func sessionID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if h := r.Header.Get(sessionHeader); h != "" {
		return h
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func setSessionID(w http.ResponseWriter, id string) {
	w.Header().Set(sessionHeader, id)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
