package recon

import (
	"sync/atomic"
	"time"

	"github.com/achilleasa/lightfield/bvh"
	"github.com/achilleasa/lightfield/types"
)

// Trace the secondary ray of every sample against the splats and clamp any
// splat that the ray passes through before reaching its own hit point. The
// clamped radius is the distance from the splat center to the crossing.
//
// Radii only shrink via an atomic minimum so the result does not depend on
// the order in which rays are processed and a second invocation is a no-op.
// It returns the number of radius updates.
func (r *Reconstructor) ShrinkSplats() int64 {
	start := time.Now()
	samples := r.h.Samples

	var updates int64
	r.pool.RunRange(len(samples), r.numPartitions(), func(from, to int) {
		var local int64
		for i := from; i < to; i++ {
			local += r.shrinkAlong(int32(i))
		}
		atomic.AddInt64(&updates, local)
	})

	r.logger.Noticef("shrunk %d splat radii in %d ms", updates, time.Since(start).Nanoseconds()/1000000)
	return updates
}

func (r *Reconstructor) shrinkAlong(i int32) int64 {
	samples := r.h.Samples
	s := &samples[i]
	ray := types.NewSegment(s.Origin, s.HitPoint(s.T))
	if ray.Length <= 2*r.eps {
		return 0
	}

	var updates int64
	r.h.TraverseRay(ray, s.T, func(leaf *bvh.Node) bool {
		for _, j := range r.h.Order[leaf.S0:leaf.S1] {
			if j == i {
				continue
			}

			other := &samples[j]
			center := other.HitPoint(s.T)
			tHit, ok := ray.IntersectPlane(center, other.Normal)
			if !ok || tHit <= r.eps || tHit >= ray.Length-r.eps {
				continue
			}

			dist := ray.At(tHit).Sub(center).Len()
			if other.ShrinkRadius(dist) {
				updates++
			}
		}
		return true
	})
	return updates
}
