package mathutil

import "math"

// SquaredDistance computes the squared Euclidean distance between two vectors.
func SquaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// MaxAbsDiff returns the largest coordinate-wise absolute difference, or NaN
// as soon as a difference is undefined (for example Inf - Inf).
func MaxAbsDiff(a, b []float64) float64 {
	var m float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if math.IsNaN(d) {
			return d
		}
		if d > m {
			m = d
		}
	}
	return m
}

// AddInto adds src to dst coordinate-wise.
func AddInto(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Scale multiplies every coordinate of v by s in place.
func Scale(v []float64, s float64) {
	for i := range v {
		v[i] *= s
	}
}

// Clone returns a copy of v.
func Clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// AllFinite reports whether every coordinate is neither NaN nor infinite.
func AllFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
