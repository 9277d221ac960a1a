package bvh

import (
	"bytes"
	"math"
	"testing"

	"github.com/achilleasa/lightfield/types"
)

func TestTraverseRayFindsAllIntersectedLeaves(t *testing.T) {
	h := Build(gridSamples(16, 16, 0.4), 4, false)

	type spec struct {
		ray     types.Ray
		expHits []int32
	}
	specs := []spec{
		// Straight down onto sample (3, 5).
		{types.NewRay(types.XYZ(3, 5, 5), types.XYZ(0, -1, 0)), []int32{5*16 + 3}},
		// Down between samples; a 0.4 radius does not reach 0.5 away.
		{types.NewRay(types.XYZ(3.5, 5, 5.5), types.XYZ(0, -1, 0)), nil},
		// Pointing away from the floor.
		{types.NewRay(types.XYZ(3, 5, 5), types.XYZ(0, 1, 0)), nil},
		// Segment that ends above the floor.
		{types.NewSegment(types.XYZ(3, 5, 5), types.XYZ(3, 1, 5)), nil},
	}

	for index, s := range specs {
		var hits []int32
		h.TraverseRay(s.ray, 0, func(leaf *Node) bool {
			for _, si := range h.Order[leaf.S0:leaf.S1] {
				smp := &h.Samples[si]
				tHit, ok := s.ray.IntersectPlane(smp.Hit, smp.Normal)
				if !ok || tHit < 0 || tHit > s.ray.Length {
					continue
				}
				if s.ray.At(tHit).Sub(smp.Hit).Len() < smp.Radius() {
					hits = append(hits, si)
				}
			}
			return true
		})

		if len(hits) != len(s.expHits) {
			t.Fatalf("[spec %d] expected hits %v; got %v", index, s.expHits, hits)
		}
		for i := range hits {
			if hits[i] != s.expHits[i] {
				t.Fatalf("[spec %d] expected hits %v; got %v", index, s.expHits, hits)
			}
		}
	}
}

func TestTraverseRayMatchesBruteForce(t *testing.T) {
	h := Build(randomSamples(1500, 7, true), 8, true)

	rays := []types.Ray{
		types.NewRay(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1).Normalize()),
		types.NewRay(types.XYZ(5, 20, 5), types.XYZ(0, -1, 0)),
		types.NewRay(types.XYZ(5, 5, -3), types.XYZ(0, 0, 1)),
		types.NewSegment(types.XYZ(1, 2, 3), types.XYZ(8, 7, 6)),
	}

	for index, ray := range rays {
		for _, time := range []float32{0, 0.5, 1} {
			visited := make(map[int32]bool)
			h.TraverseRay(ray, time, func(leaf *Node) bool {
				for _, si := range h.Order[leaf.S0:leaf.S1] {
					visited[si] = true
				}
				return true
			})

			// Every sample whose bounds intersect the ray must be visited.
			invDir := ray.Dir.Inv()
			for i := range h.Samples {
				min, max := h.SampleBounds(int32(i), time)
				if intersectBox(min, max, ray.Origin, invDir, ray.Length) && !visited[int32(i)] {
					t.Fatalf("[ray %d, t=%f] sample %d intersects the ray but was not visited", index, time, i)
				}
			}
		}
	}
}

func TestNearestFirstVisitsInDistanceOrder(t *testing.T) {
	h := Build(randomSamples(1000, 3, false), 8, false)
	p := types.XYZ(5, 5, 5)

	var (
		q       NearestQueue
		last    float32 = -1
		visited int
	)
	h.NearestFirst(&q, p, 0, func(leaf *Node, distSq float32) bool {
		if distSq < last {
			t.Fatalf("leaf visited at distance %f after a leaf at distance %f", distSq, last)
		}
		last = distSq
		visited += leaf.Count()
		return true
	})
	if visited != len(h.Samples) {
		t.Fatalf("expected to visit %d samples; got %d", len(h.Samples), visited)
	}

	// Early termination.
	calls := 0
	h.NearestFirst(&q, p, 0, func(_ *Node, _ float32) bool {
		calls++
		return calls < 3
	})
	if calls != 3 {
		t.Fatalf("expected traversal to stop after 3 leaves; got %d", calls)
	}
}

func TestPointDistanceSq(t *testing.T) {
	node := &Node{Min: types.XYZ(0, 0, 0), Max: types.XYZ(1, 1, 1)}
	h := &Hierarchy{}

	type spec struct {
		p   types.Vec3
		exp float32
	}
	specs := []spec{
		{types.XYZ(0.5, 0.5, 0.5), 0},
		{types.XYZ(2, 0.5, 0.5), 1},
		{types.XYZ(-1, -1, 0.5), 2},
		{types.XYZ(3, 3, 3), 12},
	}
	for index, s := range specs {
		if got := h.PointDistanceSq(node, s.p, 0); math.Abs(float64(got-s.exp)) > 1e-6 {
			t.Fatalf("[spec %d] expected %f; got %f", index, s.exp, got)
		}
	}
}

func TestFlatten(t *testing.T) {
	h := Build(gridSamples(8, 8, 0.5), 4, false)
	f := h.Flatten(16)

	if len(f.Nodes) != len(h.Nodes)*NodeRecordSize {
		t.Fatalf("expected %d node bytes; got %d", len(h.Nodes)*NodeRecordSize, len(f.Nodes))
	}
	if len(f.Samples) != len(h.Samples)*SampleRecordSize || len(f.LeafSamples) != len(f.Samples) {
		t.Fatalf("unexpected sample buffer sizes %d and %d", len(f.Samples), len(f.LeafSamples))
	}
	if len(f.SampleTable) != 16*SampleTableEntrySize {
		t.Fatalf("expected sample table of %d bytes; got %d", 16*SampleTableEntrySize, len(f.SampleTable))
	}

	// The first flattened leaf sample is the first sample in hierarchy order.
	first := h.Order[0]
	if !bytes.Equal(f.LeafSamples[:SampleRecordSize], f.Samples[int(first)*SampleRecordSize:int(first+1)*SampleRecordSize]) {
		t.Fatal("expected flattened leaf samples to follow the hierarchy order")
	}

	var buf bytes.Buffer
	manifest, err := WriteFlattened(&buf, f, PlanBatches(1000, 256))
	if err != nil {
		t.Fatal(err)
	}
	if manifest.RunID == "" || manifest.NumNodes != len(h.Nodes) || len(manifest.Batches) != 4 {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
}

func TestPlanBatches(t *testing.T) {
	type spec struct {
		total, size int
		exp         []Batch
	}
	specs := []spec{
		{0, 10, nil},
		{10, 0, []Batch{{0, 10}}},
		{10, 4, []Batch{{0, 4}, {4, 4}, {8, 2}}},
		{8, 4, []Batch{{0, 4}, {4, 4}}},
	}

	for index, s := range specs {
		got := PlanBatches(s.total, s.size)
		if len(got) != len(s.exp) {
			t.Fatalf("[spec %d] expected %v; got %v", index, s.exp, got)
		}
		for i := range got {
			if got[i] != s.exp[i] {
				t.Fatalf("[spec %d] expected %v; got %v", index, s.exp, got)
			}
		}
	}
}
