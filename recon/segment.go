package recon

import (
	"math"

	"github.com/achilleasa/lightfield/types"
)

// Returns true unless a and b lie clearly on opposite sides of zero.
func signAgree(a, b, eps float32) bool {
	return !(a > eps && b < -eps) && !(a < -eps && b > eps)
}

// Check whether two candidates belong to different surfaces. Splats conflict
// when they do not consistently face the same way and each hit point lies
// further off the other's tangent plane than the smaller radius.
func (r *Reconstructor) conflicts(a, b *candidate, dir types.Vec3, time float32) bool {
	sa, sb := &r.h.Samples[a.index], &r.h.Samples[b.index]
	pa, pb := sa.HitPoint(time), sb.HitPoint(time)

	minRadius := sa.Radius()
	if rb := sb.Radius(); rb < minRadius {
		minRadius = rb
	}

	offA := sa.Normal.Dot(pb.Sub(pa))
	offB := sb.Normal.Dot(pa.Sub(pb))

	consistent := signAgree(sa.Normal.Dot(dir), sb.Normal.Dot(dir), segmentEpsilon) &&
		signAgree(offA/minRadius, offB/minRadius, segmentEpsilon)
	if consistent {
		return false
	}

	return float32(math.Abs(float64(offA))) > minRadius && float32(math.Abs(float64(offB))) > minRadius
}

// Split depth sorted candidates into runs of mutually consistent splats. A
// candidate that conflicts with any member of the current run starts a new run.
func (r *Reconstructor) segment(ray types.Ray, time float32, candidates []candidate, runs []run) []run {
	current := run{from: 0, to: 1}
	for i := 1; i < len(candidates); i++ {
		split := false
		for m := current.from; m < current.to; m++ {
			if r.conflicts(&candidates[m], &candidates[i], ray.Dir, time) {
				split = true
				break
			}
		}

		if split {
			runs = append(runs, current)
			current = run{from: i, to: i + 1}
			continue
		}
		current.to = i + 1
	}
	return append(runs, current)
}

// Merge runs with fewer than smallSurfaceThreshold members into the next
// run while the query ray passes through the projected hull of the merged
// splats.
func (r *Reconstructor) mergeSmallRuns(ray types.Ray, time float32, candidates []candidate, scratch *queryScratch) []run {
	runs := scratch.runs
	basis := types.NewBasis(ray.Dir)

	for i := 0; i < len(runs)-1; {
		if runs[i].len() >= smallSurfaceThreshold {
			i++
			continue
		}

		merged := run{from: runs[i].from, to: runs[i+1].to}
		if !r.rayInsideHull(ray, basis, time, candidates[merged.from:merged.to], scratch) {
			i++
			continue
		}

		runs[i] = merged
		runs = append(runs[:i+1], runs[i+2:]...)
	}
	return runs
}

// Project the member centers onto the plane orthogonal to the ray, bloat
// each into a disk of hullBloat * radius and check whether the ray pierces
// the convex hull of the disks.
func (r *Reconstructor) rayInsideHull(ray types.Ray, basis types.Basis, time float32, members []candidate, scratch *queryScratch) bool {
	points := scratch.points[:0]
	for i := range members {
		s := &r.h.Samples[members[i].index]
		local := basis.ToLocal(s.HitPoint(time).Sub(ray.Origin))
		radius := s.Radius() * hullBloat
		for k := 0; k < hullDiskPoints; k++ {
			angle := 2 * math.Pi * float64(k) / hullDiskPoints
			points = append(points, types.XY(
				local[0]+radius*float32(math.Cos(angle)),
				local[1]+radius*float32(math.Sin(angle)),
			))
		}
	}
	scratch.points = points

	scratch.hull = convexHull(points, scratch.hull[:0])
	return insideConvex(scratch.hull, types.Vec2{})
}
