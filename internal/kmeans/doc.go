// Package kmeans implements Lloyd's K-Means over points of any dimensionality.
//
// The pieces compose as in a single iteration of the algorithm: Initialize
// picks starting centroids (uniform sampling, K-Means++, farthest-first or
// caller supplied), Assign labels points by nearest centroid, Update moves
// centroids to the mean of their points, and HasConverged compares successive
// centroid sets. Session strings them together and can be advanced one step
// at a time or run until it converges or hits its iteration cap.
//
// Nothing in this package performs I/O or is safe for concurrent mutation.
package kmeans
