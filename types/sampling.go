package types

import "math"

// Map a point in the unit square to a cosine weighted direction in the local
// hemisphere around +Z.
func CosineHemisphere(u, v float32) Vec3 {
	d := ConcentricDisk(u, v)
	z := float32(math.Sqrt(math.Max(0, float64(1-d[0]*d[0]-d[1]*d[1]))))
	return Vec3{d[0], d[1], z}
}

// Map a point in the unit square to the unit disk using Shirley's concentric
// mapping.
func ConcentricDisk(u, v float32) Vec2 {
	ox, oy := 2*u-1, 2*v-1
	if ox == 0 && oy == 0 {
		return Vec2{}
	}

	var r, theta float64
	if math.Abs(float64(ox)) > math.Abs(float64(oy)) {
		r = float64(ox)
		theta = math.Pi / 4 * float64(oy/ox)
	} else {
		r = float64(oy)
		theta = math.Pi/2 - math.Pi/4*float64(ox/oy)
	}

	return Vec2{float32(r * math.Cos(theta)), float32(r * math.Sin(theta))}
}

// The radical inverse of i in the given prime base (van der Corput sequence
// for base 2).
func RadicalInverse(base, i uint32) float32 {
	invBase := 1.0 / float64(base)
	invBi := invBase
	var reversed float64
	for ; i > 0; i /= base {
		reversed += float64(i%base) * invBi
		invBi *= invBase
	}
	if reversed >= 1 {
		return 1 - 1e-7
	}
	return float32(reversed)
}

// Point i of an n point Hammersley set in the unit square.
func Hammersley(i, n uint32) Vec2 {
	return Vec2{(float32(i) + 0.5) / float32(n), RadicalInverse(2, i)}
}

// Apply a Cranley-Patterson rotation: shift x by offset modulo 1.
func Rotate(x, offset float32) float32 {
	x += offset
	if x >= 1 {
		x -= 1
	}
	return x
}
