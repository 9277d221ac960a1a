package bvh

import (
	"container/heap"

	"github.com/achilleasa/lightfield/types"
)

// Initial capacity of the explicit traversal stack.
const traversalStackSize = 64

// Slab test of the ray segment [0, tmax] against a box.
func intersectBox(min, max, origin, invDir types.Vec3, tmax float32) bool {
	tNear, tFar := float32(0), tmax
	for axis := 0; axis < 3; axis++ {
		t1 := (min[axis] - origin[axis]) * invDir[axis]
		t2 := (max[axis] - origin[axis]) * invDir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
		}
		if t2 < tFar {
			tFar = t2
		}
		if tNear > tFar {
			return false
		}
	}
	return true
}

// Visit every leaf whose bounds at time t intersect the ray between its
// origin and its length. The visitor returns false to stop the traversal.
// Traversal only reads the hierarchy so concurrent calls are safe.
func (h *Hierarchy) TraverseRay(ray types.Ray, t float32, visit func(leaf *Node) bool) {
	if len(h.Nodes) == 0 {
		return
	}

	invDir := ray.Dir.Inv()
	var stackData [traversalStackSize]int32
	stack := append(stackData[:0], 0)
	for len(stack) > 0 {
		node := &h.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		min, max := node.Bounds(t, h.Motion)
		if !intersectBox(min, max, ray.Origin, invDir, ray.Length) {
			continue
		}

		if node.IsLeaf() {
			if !visit(node) {
				return
			}
			continue
		}
		stack = append(stack, node.Right, node.Left)
	}
}

// Squared Euclidean distance from p to the node bounds at time t. Points
// inside the box are at distance zero.
func (h *Hierarchy) PointDistanceSq(node *Node, p types.Vec3, t float32) float32 {
	min, max := node.Bounds(t, h.Motion)
	var distSq float32
	for axis := 0; axis < 3; axis++ {
		var d float32
		if p[axis] < min[axis] {
			d = min[axis] - p[axis]
		} else if p[axis] > max[axis] {
			d = p[axis] - max[axis]
		}
		distSq += d * d
	}
	return distSq
}

type queueItem struct {
	nodeIndex int32
	distSq    float32
}

// A min-priority queue of nodes keyed on their distance to a query point.
type nodeQueue []queueItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].distSq < q[j].distSq }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(queueItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

// A NearestQueue holds the reusable state of a best-first traversal. Each
// goroutine needs its own instance.
type NearestQueue struct {
	items nodeQueue
}

// Visit leaves in increasing distance from p at time t. The visitor receives
// each leaf with its squared distance and returns false to stop.
func (h *Hierarchy) NearestFirst(q *NearestQueue, p types.Vec3, t float32, visit func(leaf *Node, distSq float32) bool) {
	if len(h.Nodes) == 0 {
		return
	}

	q.items = q.items[:0]
	heap.Push(&q.items, queueItem{0, h.PointDistanceSq(&h.Nodes[0], p, t)})
	for q.items.Len() > 0 {
		item := heap.Pop(&q.items).(queueItem)
		node := &h.Nodes[item.nodeIndex]

		if node.IsLeaf() {
			if !visit(node, item.distSq) {
				return
			}
			continue
		}

		for _, child := range [2]int32{node.Left, node.Right} {
			heap.Push(&q.items, queueItem{child, h.PointDistanceSq(&h.Nodes[child], p, t)})
		}
	}
}
