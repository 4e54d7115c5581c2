package kmeans

import (
	"math"

	"github.com/qtccc/qtc-assignment-2/internal/mathutil"
)

// MaxMagnitude bounds the absolute value of accepted coordinates so that
// cluster sums and squared distances stay finite.
const MaxMagnitude = 1e100

// Point is an ordered sequence of coordinates.
type Point []float64

// Clone returns an independent copy of p.
func (p Point) Clone() Point {
	return Point(mathutil.Clone(p))
}

// PointSet is an immutable collection of points sharing one dimensionality.
type PointSet struct {
	points []Point
	dim    int
}

// NewPointSet validates and copies points into a PointSet.
// An empty input yields ErrEmptyDataset. Zero or mixed dimensionality, and
// coordinates that are non-finite or beyond MaxMagnitude, yield a *ConfigError.
func NewPointSet(points []Point) (*PointSet, error) {
	if len(points) == 0 {
		return nil, ErrEmptyDataset
	}
	dim := len(points[0])
	if dim == 0 {
		return nil, invalid("points", "must have at least one dimension")
	}
	owned := make([]Point, len(points))
	for i, p := range points {
		if len(p) != dim {
			return nil, invalid("points", "point %d has dimension %d, expected %d", i, len(p), dim)
		}
		if !mathutil.AllFinite(p) {
			return nil, invalid("points", "point %d has a non-finite coordinate", i)
		}
		if !bounded(p) {
			return nil, invalid("points", "point %d has a coordinate beyond %g in magnitude", i, MaxMagnitude)
		}
		owned[i] = p.Clone()
	}
	return &PointSet{points: owned, dim: dim}, nil
}

// Len returns the number of points.
func (ps *PointSet) Len() int { return len(ps.points) }

// Dim returns the dimensionality shared by every point.
func (ps *PointSet) Dim() int { return ps.dim }

// At returns a copy of point i.
func (ps *PointSet) At(i int) Point { return ps.points[i].Clone() }

// Points returns a deep copy of all points.
func (ps *PointSet) Points() []Point {
	return clonePoints(ps.points)
}

// Equal reports whether both sets hold the same points in the same order.
func (ps *PointSet) Equal(other *PointSet) bool {
	if ps == other {
		return true
	}
	if ps == nil || other == nil || ps.dim != other.dim || len(ps.points) != len(other.points) {
		return false
	}
	return PointsEqual(ps.points, other.points)
}

// PointsEqual reports whether a and b hold the same coordinates in the same
// order.
func PointsEqual(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func bounded(p Point) bool {
	for _, v := range p {
		if math.Abs(v) > MaxMagnitude {
			return false
		}
	}
	return true
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}
