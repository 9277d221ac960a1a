package bvh

import "github.com/achilleasa/lightfield/types"

// Child index value of leaf nodes.
const InvalidIndex int32 = -1

// A node of the sample hierarchy. Bounds are kept for time 0 and time 1.
//
// Leaves have both child indices set to InvalidIndex and own the sample
// range [S0, S1) of the hierarchy's Morton ordered index list. Internal nodes
// use S0 and S1 to record the range spanned by their subtree.
type Node struct {
	Min   types.Vec3
	Max   types.Vec3
	MinT1 types.Vec3
	MaxT1 types.Vec3

	Left  int32
	Right int32

	S0 int32
	S1 int32
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Left == InvalidIndex && n.Right == InvalidIndex
}

// The number of samples under this node.
func (n *Node) Count() int {
	return int(n.S1 - n.S0)
}

// Get the node bounds at time t; with motion disabled the time 0 bounds are returned.
func (n *Node) Bounds(t float32, motion bool) (min, max types.Vec3) {
	if !motion {
		return n.Min, n.Max
	}
	return types.LerpVec3(n.Min, n.MinT1, t), types.LerpVec3(n.Max, n.MaxT1, t)
}

// Grow the node bounds to include another node's bounds at both time instants.
func (n *Node) union(other *Node) {
	n.Min = types.MinVec3(n.Min, other.Min)
	n.Max = types.MaxVec3(n.Max, other.Max)
	n.MinT1 = types.MinVec3(n.MinT1, other.MinT1)
	n.MaxT1 = types.MaxVec3(n.MaxT1, other.MaxT1)
}
