package recon

import (
	"sort"

	"github.com/achilleasa/lightfield/types"
)

// Compute the convex hull of points in counter-clockwise order using
// Andrew's monotone chain. The input slice is sorted in place and the hull
// reuses the storage of out.
func convexHull(points []types.Vec2, out []types.Vec2) []types.Vec2 {
	out = out[:0]
	if len(points) < 3 {
		return append(out, points...)
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i][0] != points[j][0] {
			return points[i][0] < points[j][0]
		}
		return points[i][1] < points[j][1]
	})

	turn := func(o, a, b types.Vec2) float32 {
		return a.Sub(o).Cross(b.Sub(o))
	}

	// Lower hull
	for _, p := range points {
		for len(out) >= 2 && turn(out[len(out)-2], out[len(out)-1], p) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, p)
	}

	// Upper hull
	lowerLen := len(out) + 1
	for i := len(points) - 2; i >= 0; i-- {
		p := points[i]
		for len(out) >= lowerLen && turn(out[len(out)-2], out[len(out)-1], p) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, p)
	}

	// The last point repeats the first one.
	return out[:len(out)-1]
}

// Check whether p lies inside or on a counter-clockwise convex polygon.
func insideConvex(hull []types.Vec2, p types.Vec2) bool {
	if len(hull) < 3 {
		return false
	}
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		if b.Sub(a).Cross(p.Sub(a)) < 0 {
			return false
		}
	}
	return true
}
