package kmeans

import "github.com/qtccc/qtc-assignment-2/internal/mathutil"

const (
	// DefaultTolerance bounds the per-coordinate centroid displacement
	// below which iteration is considered converged.
	DefaultTolerance = 1e-4

	// DefaultMaxIterations caps the number of steps a session will take.
	DefaultMaxIterations = 300
)

// HasConverged reports whether every centroid moved by at most tol along
// every coordinate. Centroids are matched by index; a length mismatch or a
// NaN displacement is never converged.
func HasConverged(old, next []Point, tol float64) bool {
	if len(old) != len(next) {
		return false
	}
	for i := range old {
		if len(old[i]) != len(next[i]) {
			return false
		}
		if d := mathutil.MaxAbsDiff(old[i], next[i]); !(d <= tol) {
			return false
		}
	}
	return true
}
