package types

import "math"

// A ray with an optional finite length. Dir is expected to be normalized.
type Ray struct {
	Origin Vec3
	Dir    Vec3

	// Rays with Length == Infinite extend without bounds.
	Length float32
}

// The length of an unbounded ray.
const Infinite float32 = math.MaxFloat32

// Create an unbounded ray from an origin and a (not necessarily normalized) direction.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize(), Length: Infinite}
}

// Create a finite ray spanning the segment [from, to].
func NewSegment(from, to Vec3) Ray {
	delta := to.Sub(from)
	return Ray{Origin: from, Dir: delta.Normalize(), Length: delta.Len()}
}

// Return the point at distance t along the ray.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.MulAdd(r.Dir, t)
}

// Returns true if the ray has a finite length.
func (r Ray) IsFinite() bool {
	return r.Length < Infinite
}

// Intersect the ray with the plane through point p with normal n. It returns
// the distance along the ray and false if the ray is parallel to the plane.
func (r Ray) IntersectPlane(p, n Vec3) (float32, bool) {
	denom := n.Dot(r.Dir)
	if denom > -floatCmpEpsilon && denom < floatCmpEpsilon {
		return 0, false
	}
	return n.Dot(p.Sub(r.Origin)) / denom, true
}
