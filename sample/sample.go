package sample

import (
	"math"
	"sync/atomic"

	"github.com/achilleasa/lightfield/types"
)

// A Sample records the termination of one secondary ray.
type Sample struct {
	// Screen position and ray parameter used for motion interpolation.
	Position types.Vec2
	T        float32

	// Radiance carried back along the secondary ray.
	Color types.Vec3

	PrimaryNormal types.Vec3
	PrimaryAlbedo types.Vec3

	// Secondary ray origin, termination point at time T, motion vector and
	// surface normal at the termination point.
	Origin types.Vec3
	Hit    types.Vec3
	Motion types.Vec3
	Normal types.Vec3

	// Optional secondary surface attributes.
	Albedo types.Vec3
	Direct types.Vec3

	// Raw angular bandwidth.
	Bandwidth float32

	// Index of the originating sub-sample in the external buffer.
	Index int32

	// Float32 bits of the splat radius. Accessed atomically.
	radius uint32
}

// Get the hit point at the given time.
func (s *Sample) HitPoint(time float32) types.Vec3 {
	return s.Hit.MulAdd(s.Motion, time-s.T)
}

// Get the tangent plane (xyz: normal, w: -dot(normal, point)) at the given time.
func (s *Sample) TangentPlane(time float32) types.Vec4 {
	p := s.HitPoint(time)
	return s.Normal.Vec4(-s.Normal.Dot(p))
}

// Get the normalized direction of the secondary ray.
func (s *Sample) Direction() types.Vec3 {
	return s.Hit.Sub(s.Origin).Normalize()
}

// Get the secondary ray as a finite segment from its origin to the hit point.
func (s *Sample) Ray() types.Ray {
	return types.NewSegment(s.Origin, s.Hit)
}

// Get the splat radius.
func (s *Sample) Radius() float32 {
	return math.Float32frombits(atomic.LoadUint32(&s.radius))
}

// Set the splat radius.
func (s *Sample) SetRadius(r float32) {
	atomic.StoreUint32(&s.radius, math.Float32bits(r))
}

// Atomically lower the radius to r if r is smaller than the current value.
// It returns true if the radius was changed.
func (s *Sample) ShrinkRadius(r float32) bool {
	newBits := math.Float32bits(r)
	for {
		curBits := atomic.LoadUint32(&s.radius)
		if math.Float32frombits(curBits) <= r {
			return false
		}
		if atomic.CompareAndSwapUint32(&s.radius, curBits, newBits) {
			return true
		}
	}
}

// Get the half extents of the axis aligned box enclosing the splat disk.
func (s *Sample) SplatExtent() types.Vec3 {
	r := s.Radius()
	n := s.Normal
	return types.Vec3{
		r * float32(math.Sqrt(math.Max(0, float64(1-n[0]*n[0])))),
		r * float32(math.Sqrt(math.Max(0, float64(1-n[1]*n[1])))),
		r * float32(math.Sqrt(math.Max(0, float64(1-n[2]*n[2])))),
	}
}

// The vMF-like angular support of this sample for a direction whose cosine
// with the sample direction is cosTheta.
func (s *Sample) AngularSupport(cosTheta float32) float32 {
	bw := 4 * float32(math.Sqrt(math.Max(0, float64(s.Bandwidth))))
	return float32(math.Exp(float64(bw*cosTheta - bw)))
}
