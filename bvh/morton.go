package bvh

import (
	"math"
	"sort"

	"github.com/achilleasa/lightfield/sample"
	"github.com/achilleasa/lightfield/types"
)

const (
	// Quantization depth per axis; three interleaved axes yield 63-bit codes.
	mortonBitsPerAxis = 21
	mortonBits        = 3 * mortonBitsPerAxis
	mortonAxisMax     = 1<<mortonBitsPerAxis - 1
)

// A (Morton code, sample index) pair.
type SortEntry struct {
	Code  uint64
	Index int32
}

// Spread the low 21 bits of x so that there are two zero bits between each
// original bit.
func part1By2(x uint64) uint64 {
	x &= 0x1fffff
	x = (x | (x << 32)) & 0x1f00000000ffff
	x = (x | (x << 16)) & 0x1f0000ff0000ff
	x = (x | (x << 8)) & 0x100f00f00f00f00f
	x = (x | (x << 4)) & 0x10c30c30c30c30c3
	x = (x | (x << 2)) & 0x1249249249249249
	return x
}

// Interleave three 21-bit coordinates into a 63-bit Morton code.
func MortonCode(x, y, z uint32) uint64 {
	return part1By2(uint64(x)) | part1By2(uint64(y))<<1 | part1By2(uint64(z))<<2
}

func quantize(v, min, scale float32) uint32 {
	q := float64((v - min) * scale)
	if q <= 0 || math.IsNaN(q) {
		return 0
	}
	if q >= mortonAxisMax {
		return mortonAxisMax
	}
	return uint32(q)
}

// Assign a Morton code to every sample using its time-0 hit point normalized
// into the bounding box of all samples and return the entries sorted by code.
// Samples sharing a code keep their relative index order.
func SpatialSort(samples []sample.Sample) []SortEntry {
	if len(samples) == 0 {
		return nil
	}

	min := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := range samples {
		p := samples[i].HitPoint(0)
		min = types.MinVec3(min, p)
		max = types.MaxVec3(max, p)
	}

	var scale types.Vec3
	side := max.Sub(min)
	for axis := 0; axis < 3; axis++ {
		if side[axis] > 0 {
			scale[axis] = mortonAxisMax / side[axis]
		}
	}

	entries := make([]SortEntry, len(samples))
	for i := range samples {
		p := samples[i].HitPoint(0)
		entries[i] = SortEntry{
			Code: MortonCode(
				quantize(p[0], min[0], scale[0]),
				quantize(p[1], min[1], scale[1]),
				quantize(p[2], min[2], scale[2]),
			),
			Index: int32(i),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Code < entries[j].Code
	})
	return entries
}
