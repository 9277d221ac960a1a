package recon

import (
	"sort"
	"sync"

	"github.com/achilleasa/lightfield/bvh"
	"github.com/achilleasa/lightfield/types"
)

// A splat accepted by a query ray.
type candidate struct {
	index int32

	// Distance along the query ray to the splat plane.
	depth float32

	weight   float32
	color    types.Vec3
	backFace bool
}

// A [from, to) range of depth sorted candidates forming one surface.
type run struct {
	from, to int
}

func (r run) len() int {
	return r.to - r.from
}

// Per query scratch buffers.
type queryScratch struct {
	candidates []candidate
	runs       []run
	points     []types.Vec2
	hull       []types.Vec2
}

type scratchPool struct {
	pool sync.Pool
}

func (p *scratchPool) get() *queryScratch {
	if s, ok := p.pool.Get().(*queryScratch); ok {
		return s
	}
	return &queryScratch{}
}

func (p *scratchPool) put(s *queryScratch) {
	p.pool.Put(s)
}

// Filter the splats along a ray at the given time. It returns the
// reconstructed color and the total weight of the contributing surface; a
// zero weight means that no splat supports the ray. It is safe to call
// SampleRadiance concurrently once Prepare has completed.
func (r *Reconstructor) SampleRadiance(ray types.Ray, time float32) (types.Vec3, float32) {
	scratch := r.scratch.get()
	defer r.scratch.put(scratch)

	candidates := r.collect(ray, time, scratch.candidates[:0])
	scratch.candidates = candidates
	if len(candidates) == 0 {
		return types.Vec3{}, 0
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].depth != candidates[j].depth {
			return candidates[i].depth < candidates[j].depth
		}
		return candidates[i].index < candidates[j].index
	})

	scratch.runs = r.segment(ray, time, candidates, scratch.runs[:0])
	if r.cfg.SmallSurfaceMerge {
		scratch.runs = r.mergeSmallRuns(ray, time, candidates, scratch)
	}

	for _, surface := range scratch.runs {
		if color, weight := r.blend(candidates[surface.from:surface.to]); weight > 0 {
			return color, weight
		}
	}
	return types.Vec3{}, 0
}

// Gather the splats intersected by the ray.
func (r *Reconstructor) collect(ray types.Ray, time float32, out []candidate) []candidate {
	samples := r.h.Samples
	limitLength := r.cfg.Mode != AmbientOcclusion && ray.IsFinite()

	r.h.TraverseRay(ray, time, func(leaf *bvh.Node) bool {
		for _, j := range r.h.Order[leaf.S0:leaf.S1] {
			s := &samples[j]
			center := s.HitPoint(time)
			tHit, ok := ray.IntersectPlane(center, s.Normal)
			if !ok || tHit <= r.eps || (limitLength && tHit >= ray.Length) {
				continue
			}

			radius := s.Radius()
			miss := ray.At(tHit).Sub(center).Len()
			if miss >= radius {
				continue
			}

			var weight float32
			if r.cfg.BandwidthFilter {
				falloff := miss / radius
				weight = s.AngularSupport(ray.Dir.Dot(s.Direction())) * (1 - falloff*falloff)
			} else {
				weight = 1 - miss/radius
			}

			cand := candidate{
				index:    j,
				depth:    tHit,
				weight:   weight,
				backFace: s.Normal.Dot(ray.Dir) >= 0,
			}
			if !cand.backFace {
				cand.color = s.Color
			}
			out = append(out, cand)
		}
		return true
	})
	return out
}

// Blend the members of a surface.
func (r *Reconstructor) blend(members []candidate) (types.Vec3, float32) {
	if r.cfg.Mode == NearestSample {
		best := -1
		for i := range members {
			if members[i].weight > 0 && (best < 0 || members[i].weight > members[best].weight) {
				best = i
			}
		}
		if best < 0 {
			return types.Vec3{}, 0
		}
		return members[best].color, members[best].weight
	}

	var (
		sum         types.Vec3
		totalWeight float32
	)
	white := types.XYZ(1, 1, 1)
	for i := range members {
		m := &members[i]
		color := m.color
		if r.cfg.Mode == AmbientOcclusion {
			color = types.Vec3{}
			if m.depth > r.cfg.AOLength {
				color = white
			}
		}
		sum = sum.MulAdd(color, m.weight)
		totalWeight += m.weight
	}

	if totalWeight <= 0 {
		return types.Vec3{}, 0
	}
	return sum.Mul(1 / totalWeight), totalWeight
}
