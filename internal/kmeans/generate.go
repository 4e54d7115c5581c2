package kmeans

import (
	"math"
	"math/rand"
	"time"
)

// Bounds of the square sampled by Generate.
const (
	DefaultLow  = -10.0
	DefaultHigh = 10.0
)

// Generate draws numPoints 2-D points uniformly from
// [DefaultLow, DefaultHigh) x [DefaultLow, DefaultHigh).
// The same seed always yields the same points; a nil seed uses the clock.
func Generate(numPoints int, seed *int64) (*PointSet, error) {
	return GenerateInBounds(numPoints, 2, DefaultLow, DefaultHigh, seed)
}

// GenerateInBounds draws numPoints points of the given dimensionality with
// every coordinate uniform in [lo, hi). Both bounds must lie within
// MaxMagnitude.
func GenerateInBounds(numPoints, dim int, lo, hi float64, seed *int64) (*PointSet, error) {
	if numPoints <= 0 {
		return nil, invalid("num_points", "must be positive, got %d", numPoints)
	}
	if dim <= 0 {
		return nil, invalid("dim", "must be positive, got %d", dim)
	}
	if !(lo < hi) {
		return nil, invalid("bounds", "low %g must be below high %g", lo, hi)
	}
	if math.Abs(lo) > MaxMagnitude || math.Abs(hi) > MaxMagnitude {
		return nil, invalid("bounds", "low %g and high %g must lie within %g in magnitude", lo, hi, MaxMagnitude)
	}

	r := newRand(seed)
	span := hi - lo
	points := make([]Point, numPoints)
	for i := range points {
		p := make(Point, dim)
		for j := range p {
			p[j] = lo + r.Float64()*span
		}
		points[i] = p
	}
	return &PointSet{points: points, dim: dim}, nil
}

// Seed returns a pointer to v, for the optional seed parameters.
func Seed(v int64) *int64 { return &v }

func newRand(seed *int64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(*seed))
}
