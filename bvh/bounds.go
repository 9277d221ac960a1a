package bvh

import (
	"math"
	"time"

	"github.com/achilleasa/lightfield/log"
	"github.com/achilleasa/lightfield/types"
)

var logger = log.New("bvh")

// Get the bloated bounds of sample index at time t: the box enclosing its
// splat disk grown by a small epsilon.
func (h *Hierarchy) SampleBounds(index int32, t float32) (min, max types.Vec3) {
	s := &h.Samples[index]
	ext := s.SplatExtent().Add(types.Vec3{boundsEpsilon, boundsEpsilon, boundsEpsilon})
	p := s.HitPoint(t)
	return p.Sub(ext), p.Add(ext)
}

// Recompute leaf bounds from its samples.
func (h *Hierarchy) refitLeaf(leaf *Node) {
	leaf.Min = types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	leaf.Max = types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	leaf.MinT1, leaf.MaxT1 = leaf.Min, leaf.Max

	for _, index := range h.Order[leaf.S0:leaf.S1] {
		min, max := h.SampleBounds(index, 0)
		leaf.Min = types.MinVec3(leaf.Min, min)
		leaf.Max = types.MaxVec3(leaf.Max, max)

		min, max = h.SampleBounds(index, 1)
		leaf.MinT1 = types.MinVec3(leaf.MinT1, min)
		leaf.MaxT1 = types.MaxVec3(leaf.MaxT1, max)
	}
}

// Recompute all node bounds bottom-up. Must be called after sample radii
// change and must complete before the hierarchy is traversed again.
func (h *Hierarchy) Revalidate() {
	if len(h.Nodes) == 0 {
		return
	}

	start := time.Now()
	h.revalidate(0)
	logger.Infof("revalidated %d node bounds in %d ms", len(h.Nodes), time.Since(start).Nanoseconds()/1000000)
}

func (h *Hierarchy) revalidate(nodeIndex int32) {
	node := &h.Nodes[nodeIndex]
	if node.IsLeaf() {
		h.refitLeaf(node)
		return
	}

	h.revalidate(node.Left)
	h.revalidate(node.Right)

	*node = Node{
		Min:   h.Nodes[node.Left].Min,
		Max:   h.Nodes[node.Left].Max,
		MinT1: h.Nodes[node.Left].MinT1,
		MaxT1: h.Nodes[node.Left].MaxT1,
		Left:  node.Left,
		Right: node.Right,
		S0:    node.S0,
		S1:    node.S1,
	}
	node.union(&h.Nodes[node.Right])
}

// Invoke fn for each leaf in depth-first order.
func (h *Hierarchy) Leaves(fn func(nodeIndex int32, leaf *Node)) {
	if len(h.Nodes) == 0 {
		return
	}
	stack := []int32{0}
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &h.Nodes[nodeIndex]
		if node.IsLeaf() {
			fn(nodeIndex, node)
			continue
		}
		stack = append(stack, node.Right, node.Left)
	}
}
