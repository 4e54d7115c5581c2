package kmeans

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a parameter violates a clustering
	// constraint: k out of range, manual centroid count or dimensionality
	// mismatch, non-positive point count, bad tolerance or iteration cap.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrEmptyDataset is returned when an operation needs points and has none.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrNotStarted is returned by Step and RunToConvergence on a session
	// that has not been started, or was reset.
	ErrNotStarted = errors.New("session not started")
)

// ConfigError describes which constraint was violated.
//
// It unwraps to ErrInvalidConfig, so errors.Is(err, ErrInvalidConfig) holds.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
