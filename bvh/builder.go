package bvh

import (
	"math"
	"sort"
	"time"

	"github.com/achilleasa/lightfield/log"
	"github.com/achilleasa/lightfield/sample"
	"github.com/achilleasa/lightfield/types"
)

const (
	// Default maximum number of samples in a leaf.
	DefaultLeafSize = 8

	// Sample bounds are always bloated by this amount so that slab tests
	// against flat boxes remain stable.
	boundsEpsilon float32 = 1e-4
)

type stats struct {
	nodes           int
	leafs           int
	oversizedLeafs  int
	largestLeaf     int
	maxOctreeLevels int
}

// A Hierarchy is a BVH over a sample collection stored as a flat node
// array with the root at index 0.
type Hierarchy struct {
	Nodes []Node

	// Morton ordered sample indices. Leaves reference ranges of this list.
	Order []int32

	// The indexed samples.
	Samples []sample.Sample

	// True if node bounds should be interpolated over time.
	Motion bool

	LeafSize int
}

type builder struct {
	logger log.Logger

	entries  []SortEntry
	cursor   int
	leafSize int

	h     *Hierarchy
	stats stats
}

// Build a hierarchy over the samples. The samples are Morton sorted and
// grouped by recursively descending an implicit octree over the Morton
// prefixes. The non-empty cells of each octree node are then merged pairwise
// into a binary tree.
func Build(samples []sample.Sample, leafSize int, motion bool) *Hierarchy {
	if leafSize < 1 {
		leafSize = DefaultLeafSize
	}

	h := &Hierarchy{
		Samples:  samples,
		Motion:   motion,
		LeafSize: leafSize,
	}

	b := &builder{
		logger:   log.New("bvh builder"),
		leafSize: leafSize,
		h:        h,
	}

	start := time.Now()
	b.entries = SpatialSort(samples)
	h.Order = make([]int32, len(b.entries))
	for i, entry := range b.entries {
		h.Order[i] = entry.Index
	}
	b.logger.Noticef("sorted %d samples in %d ms", len(samples), time.Since(start).Nanoseconds()/1000000)

	start = time.Now()

	// Reserve the root slot; children are appended as subtrees get merged.
	h.Nodes = make([]Node, 1, 2*len(samples)/leafSize+1)
	root, ok := b.build(0, mortonBits, 0)
	if !ok {
		root = Node{Left: InvalidIndex, Right: InvalidIndex}
		root.Min = types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
		root.Max = types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
		root.MinT1, root.MaxT1 = root.Min, root.Max
	}
	h.Nodes[0] = root
	b.stats.nodes++

	if b.stats.oversizedLeafs != 0 {
		b.logger.Warningf(
			"%d leafs exceed the leaf size threshold of %d (largest: %d samples); too many samples share the same spatial cell",
			b.stats.oversizedLeafs, leafSize, b.stats.largestLeaf,
		)
	}
	b.logger.Noticef("built hierarchy in %d ms", time.Since(start).Nanoseconds()/1000000)
	b.logger.Debugf(
		"hierarchy stats: nodes: %d, leafs: %d, largest leaf: %d, octree levels: %d",
		b.stats.nodes, b.stats.leafs, b.stats.largestLeaf, b.stats.maxOctreeLevels,
	)
	return h
}

// Build the subtree for the octree cell identified by the Morton code prefix
// at bitPos. It returns false if no remaining sample falls in the cell.
func (b *builder) build(prefix uint64, bitPos int, level int) (Node, bool) {
	if level > b.stats.maxOctreeLevels {
		b.stats.maxOctreeLevels = level
	}

	if b.cursor >= len(b.entries) || b.entries[b.cursor].Code>>uint(bitPos) != prefix {
		return Node{}, false
	}

	// Entries are sorted so the cell is a contiguous run starting at the cursor.
	remaining := b.entries[b.cursor:]
	count := sort.Search(len(remaining), func(i int) bool {
		return remaining[i].Code>>uint(bitPos) > prefix
	})

	if count <= b.leafSize || bitPos < 3 {
		return b.createLeaf(count), true
	}

	var (
		children [8]Node
		numChildren int
	)
	for cell := uint64(0); cell < 8; cell++ {
		if child, ok := b.build(prefix<<3|cell, bitPos-3, level+1); ok {
			children[numChildren] = child
			numChildren++
		}
	}

	subtrees := children[:numChildren]
	for len(subtrees) > 1 {
		merged := make([]Node, 0, (len(subtrees)+1)/2)
		for i := 0; i+1 < len(subtrees); i += 2 {
			merged = append(merged, b.merge(subtrees[i], subtrees[i+1]))
		}
		if len(subtrees)%2 == 1 {
			merged = append(merged, subtrees[len(subtrees)-1])
		}
		subtrees = merged
	}

	return subtrees[0], true
}

// Append two subtree roots to the node array and return a parent node for them.
func (b *builder) merge(left, right Node) Node {
	leftIndex := int32(len(b.h.Nodes))
	b.h.Nodes = append(b.h.Nodes, left, right)
	b.stats.nodes += 2

	parent := left
	parent.union(&right)
	parent.Left = leftIndex
	parent.Right = leftIndex + 1
	parent.S0 = left.S0
	parent.S1 = right.S1
	return parent
}

// Consume the next count entries as a leaf.
func (b *builder) createLeaf(count int) Node {
	leaf := Node{
		Left:  InvalidIndex,
		Right: InvalidIndex,
		S0:    int32(b.cursor),
		S1:    int32(b.cursor + count),
	}
	b.cursor += count
	b.h.refitLeaf(&leaf)

	b.stats.leafs++
	if count > b.stats.largestLeaf {
		b.stats.largestLeaf = count
	}
	if count > b.leafSize {
		b.stats.oversizedLeafs++
	}

	return leaf
}
