package kmeans

import "github.com/qtccc/qtc-assignment-2/internal/mathutil"

// Assign labels every point with the index of its nearest centroid by
// squared Euclidean distance. Ties go to the lowest centroid index.
func Assign(ps *PointSet, centroids []Point) []int {
	labels := make([]int, ps.Len())
	for i, p := range ps.points {
		bestK := 0
		bestDist := mathutil.SquaredDistance(p, centroids[0])
		for ci := 1; ci < len(centroids); ci++ {
			if d := mathutil.SquaredDistance(p, centroids[ci]); d < bestDist {
				bestDist = d
				bestK = ci
			}
		}
		labels[i] = bestK
	}
	return labels
}

// Update recomputes each centroid as the mean of the points labelled with
// its index. A centroid with no points keeps its previous position.
func Update(ps *PointSet, labels []int, previous []Point) []Point {
	k := len(previous)
	counts := make([]int, k)
	sums := make([]Point, k)
	for ci := range k {
		sums[ci] = make(Point, ps.Dim())
	}
	for i, p := range ps.points {
		ci := labels[i]
		counts[ci]++
		mathutil.AddInto(sums[ci], p)
	}

	next := make([]Point, k)
	for ci := range k {
		if counts[ci] == 0 {
			next[ci] = previous[ci].Clone()
			continue
		}
		mathutil.Scale(sums[ci], 1/float64(counts[ci]))
		next[ci] = sums[ci]
	}
	return next
}

// Inertia is the sum of squared distances from each point to the centroid
// it is labelled with.
func Inertia(ps *PointSet, centroids []Point, labels []int) float64 {
	var sum float64
	for i, p := range ps.points {
		sum += mathutil.SquaredDistance(p, centroids[labels[i]])
	}
	return sum
}
