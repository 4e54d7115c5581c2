package kmeans

import (
	"math/rand"

	"github.com/qtccc/qtc-assignment-2/internal/mathutil"
)

// InitMethod names a centroid initialization strategy.
type InitMethod string

const (
	InitRandom         InitMethod = "random"
	InitKMeansPlusPlus InitMethod = "kmeans++"
	InitManual         InitMethod = "manual"
	InitFarthestFirst  InitMethod = "farthest_first"
)

// ParseInitMethod maps the wire name of a strategy to its InitMethod.
func ParseInitMethod(s string) (InitMethod, error) {
	switch m := InitMethod(s); m {
	case InitRandom, InitKMeansPlusPlus, InitManual, InitFarthestFirst:
		return m, nil
	}
	return "", invalid("init_method", "unknown method %q", s)
}

// InitSpec selects how the starting centroids are chosen.
// Seed is used by the sampling strategies; Centroids only by InitManual.
type InitSpec struct {
	Method    InitMethod
	Seed      *int64
	Centroids []Point
}

// Random samples k distinct points uniformly without replacement.
func Random(seed *int64) InitSpec { return InitSpec{Method: InitRandom, Seed: seed} }

// KMeansPlusPlus samples with probability proportional to D(x)^2.
func KMeansPlusPlus(seed *int64) InitSpec { return InitSpec{Method: InitKMeansPlusPlus, Seed: seed} }

// FarthestFirst repeatedly picks the point farthest from the chosen centroids.
func FarthestFirst(seed *int64) InitSpec { return InitSpec{Method: InitFarthestFirst, Seed: seed} }

// Manual uses the given centroids verbatim.
func Manual(centroids []Point) InitSpec { return InitSpec{Method: InitManual, Centroids: centroids} }

// Initialize returns k starting centroids for ps according to spec.
// The returned centroids never alias ps or spec.Centroids.
func Initialize(ps *PointSet, k int, spec InitSpec) ([]Point, error) {
	if ps == nil || ps.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	if k <= 0 {
		return nil, invalid("k", "must be positive, got %d", k)
	}
	if k > ps.Len() {
		return nil, invalid("k", "%d exceeds the number of points %d", k, ps.Len())
	}

	switch spec.Method {
	case InitRandom:
		return randomInit(ps, k, newRand(spec.Seed)), nil
	case InitKMeansPlusPlus:
		return kmeansPlusPlusInit(ps, k, newRand(spec.Seed)), nil
	case InitFarthestFirst:
		return farthestFirstInit(ps, k, newRand(spec.Seed)), nil
	case InitManual:
		return manualInit(ps, k, spec.Centroids)
	default:
		return nil, invalid("init_method", "unknown method %q", spec.Method)
	}
}

func randomInit(ps *PointSet, k int, r *rand.Rand) []Point {
	perm := r.Perm(ps.Len())
	centroids := make([]Point, k)
	for i := range k {
		centroids[i] = ps.points[perm[i]].Clone()
	}
	return centroids
}

// kmeansPlusPlusInit keeps, for every point, the squared distance to its
// nearest chosen centroid and draws the next centroid from that weighting.
func kmeansPlusPlusInit(ps *PointSet, k int, r *rand.Rand) []Point {
	n := ps.Len()
	centroids := make([]Point, 0, k)
	centroids = append(centroids, ps.points[r.Intn(n)].Clone())

	dists := make([]float64, n)
	for j, p := range ps.points {
		dists[j] = mathutil.SquaredDistance(p, centroids[0])
	}

	for len(centroids) < k {
		total := 0.0
		for _, d := range dists {
			total += d
		}

		var chosen int
		if total == 0 {
			// Every point coincides with a chosen centroid.
			chosen = r.Intn(n)
		} else {
			threshold := r.Float64() * total
			cumsum := 0.0
			chosen = -1
			last := 0
			for j, d := range dists {
				if d == 0 {
					continue
				}
				last = j
				cumsum += d
				if cumsum > threshold {
					chosen = j
					break
				}
			}
			if chosen < 0 {
				// Rounding left the cumulative sum short of the threshold.
				chosen = last
			}
		}

		c := ps.points[chosen].Clone()
		centroids = append(centroids, c)
		relax(ps, dists, c)
	}
	return centroids
}

func farthestFirstInit(ps *PointSet, k int, r *rand.Rand) []Point {
	n := ps.Len()
	centroids := make([]Point, 0, k)
	centroids = append(centroids, ps.points[r.Intn(n)].Clone())

	dists := make([]float64, n)
	for j, p := range ps.points {
		dists[j] = mathutil.SquaredDistance(p, centroids[0])
	}

	for len(centroids) < k {
		best := 0
		for j, d := range dists {
			if d > dists[best] {
				best = j
			}
		}
		c := ps.points[best].Clone()
		centroids = append(centroids, c)
		relax(ps, dists, c)
	}
	return centroids
}

// relax lowers dists[j] to the squared distance from point j to c when closer.
func relax(ps *PointSet, dists []float64, c Point) {
	for j, p := range ps.points {
		if d := mathutil.SquaredDistance(p, c); d < dists[j] {
			dists[j] = d
		}
	}
}

func manualInit(ps *PointSet, k int, given []Point) ([]Point, error) {
	if len(given) != k {
		return nil, invalid("centroids", "got %d manual centroids, expected %d", len(given), k)
	}
	centroids := make([]Point, k)
	for i, c := range given {
		if len(c) != ps.Dim() {
			return nil, invalid("centroids", "centroid %d has dimension %d, expected %d", i, len(c), ps.Dim())
		}
		if !mathutil.AllFinite(c) {
			return nil, invalid("centroids", "centroid %d has a non-finite coordinate", i)
		}
		if !bounded(c) {
			return nil, invalid("centroids", "centroid %d has a coordinate beyond %g in magnitude", i, MaxMagnitude)
		}
		centroids[i] = c.Clone()
	}
	return centroids, nil
}
