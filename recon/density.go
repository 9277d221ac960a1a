package recon

import (
	"container/heap"
	"math"
	"sort"
	"time"

	"github.com/achilleasa/lightfield/bvh"
	"github.com/achilleasa/lightfield/types"
)

// A neighbor candidate of the density search.
type neighbor struct {
	index int32

	// Anisotropic, in-plane and Euclidean squared distances to the query.
	anisoSq float32
	planeSq float32
	distSq  float32
}

// A max-heap of neighbors keyed on their anisotropic distance.
type neighborHeap []neighbor

func (h neighborHeap) Len() int            { return len(h) }
func (h neighborHeap) Less(i, j int) bool  { return h[i].anisoSq > h[j].anisoSq }
func (h neighborHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x interface{}) { *h = append(*h, x.(neighbor)) }
func (h *neighborHeap) Pop() interface{} {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}

// Per partition state of the density search.
type densitySearch struct {
	queue     bvh.NearestQueue
	neighbors neighborHeap
}

// Assign a splat radius to every sample from the distance to its nearest
// neighbors. Node bounds must be revalidated before the hierarchy is used for
// ray queries.
func (r *Reconstructor) EstimateDensity() {
	start := time.Now()
	samples := r.h.Samples

	r.pool.RunRange(len(samples), r.numPartitions(), func(from, to int) {
		search := &densitySearch{
			neighbors: make(neighborHeap, 0, r.cfg.K1),
		}
		for i := from; i < to; i++ {
			samples[i].SetRadius(r.estimateRadius(int32(i), search))
		}
	})

	r.logger.Noticef("estimated %d splat radii in %d ms", len(samples), time.Since(start).Nanoseconds()/1000000)
}

// Run the adaptive neighbor search for sample i and return its radius.
func (r *Reconstructor) estimateRadius(i int32, search *densitySearch) float32 {
	s := &r.h.Samples[i]
	p := s.HitPoint(s.T)
	basis := types.NewBasis(s.Normal)
	dir := s.Direction()

	k1 := r.cfg.K1
	budget := densityBudgetFactor * k1
	attempts := 1
	if r.cfg.BandwidthFilter {
		attempts = densityMaxAttempts
	}

	threshold := densityThresholdStart
	for attempt := 0; attempt < attempts; attempt++ {
		lastAttempt := attempt == attempts-1
		search.neighbors = search.neighbors[:0]

		inspected := 0
		aborted := false
		r.h.NearestFirst(&search.queue, p, s.T, func(leaf *bvh.Node, distSq float32) bool {
			// The anisotropic distance never undercuts the Euclidean one.
			if len(search.neighbors) == k1 && distSq > search.neighbors[0].anisoSq {
				return false
			}

			for _, j := range r.h.Order[leaf.S0:leaf.S1] {
				if j == i {
					continue
				}

				inspected++
				if !lastAttempt && inspected > budget {
					aborted = true
					return false
				}

				other := &r.h.Samples[j]
				if r.cfg.BandwidthFilter && s.AngularSupport(dir.Dot(other.Direction())) < threshold {
					continue
				}

				delta := basis.ToLocal(other.HitPoint(s.T).Sub(p))
				planeSq := delta[0]*delta[0] + delta[1]*delta[1]
				normalDist := delta[2] * r.cfg.Anisotropy
				cand := neighbor{
					index:   j,
					anisoSq: planeSq + normalDist*normalDist,
					planeSq: planeSq,
					distSq:  planeSq + delta[2]*delta[2],
				}

				if len(search.neighbors) < k1 {
					heap.Push(&search.neighbors, cand)
				} else if cand.anisoSq < search.neighbors[0].anisoSq {
					search.neighbors[0] = cand
					heap.Fix(&search.neighbors, 0)
				}
			}
			return true
		})

		if !aborted {
			break
		}
		threshold *= densityThresholdDecay
	}

	return r.radiusFromNeighbors(search.neighbors)
}

// Select the splat radius from the accepted neighbor set.
func (r *Reconstructor) radiusFromNeighbors(neighbors neighborHeap) float32 {
	var radius float32
	switch {
	case len(neighbors) == 0:
		radius = isolatedRadiusScale * r.diagonal
	case r.cfg.K2 == r.cfg.K1:
		var maxDistSq float32
		for _, n := range neighbors {
			if n.distSq > maxDistSq {
				maxDistSq = n.distSq
			}
		}
		radius = float32(math.Sqrt(float64(maxDistSq)))
	default:
		sort.Slice(neighbors, func(a, b int) bool {
			if neighbors[a].planeSq != neighbors[b].planeSq {
				return neighbors[a].planeSq < neighbors[b].planeSq
			}
			return neighbors[a].index < neighbors[b].index
		})
		rank := r.cfg.K2
		if rank > len(neighbors) {
			rank = len(neighbors)
		}
		radius = float32(math.Sqrt(float64(neighbors[rank-1].planeSq)))
	}

	if radius < r.eps {
		radius = r.eps
	}
	return radius
}
