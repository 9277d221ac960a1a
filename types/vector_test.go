package types

import (
	"math"
	"testing"
)

func TestBasisIsOrthonormal(t *testing.T) {
	normals := []Vec3{
		{0, 0, 1},
		{0, 0, -1},
		{1, 0, 0},
		XYZ(1, 2, 3).Normalize(),
		XYZ(-0.3, 0.1, -0.9).Normalize(),
	}

	for index, n := range normals {
		b := NewBasis(n)
		tangent, bitangent, normal := b.Axes()
		for _, axis := range []Vec3{tangent, bitangent, normal} {
			if l := axis.Len(); math.Abs(float64(l-1)) > 1e-5 {
				t.Fatalf("[normal %d] expected unit length axis; got %f", index, l)
			}
		}
		if d := tangent.Dot(bitangent); math.Abs(float64(d)) > 1e-5 {
			t.Fatalf("[normal %d] expected tangent and bitangent to be orthogonal; dot = %f", index, d)
		}
		if d := tangent.Dot(n); math.Abs(float64(d)) > 1e-5 {
			t.Fatalf("[normal %d] expected tangent to be orthogonal to normal; dot = %f", index, d)
		}

		local := b.ToLocal(n)
		if math.Abs(float64(local[2]-1)) > 1e-5 {
			t.Fatalf("[normal %d] expected normal to map to local z axis; got %v", index, local)
		}

		v := XYZ(0.2, -0.7, 0.4)
		back := b.ToWorld(b.ToLocal(v))
		if back.Sub(v).Len() > 1e-5 {
			t.Fatalf("[normal %d] expected round trip to yield %v; got %v", index, v, back)
		}
	}
}

func TestRayPlaneIntersection(t *testing.T) {
	r := NewRay(XYZ(0, 0, 5), XYZ(0, 0, -2))
	dist, ok := r.IntersectPlane(XYZ(3, 3, 1), XYZ(0, 0, 1))
	if !ok {
		t.Fatal("expected ray to intersect plane")
	}
	if dist != 4 {
		t.Fatalf("expected hit distance 4; got %f", dist)
	}

	if _, ok = r.IntersectPlane(XYZ(0, 0, 0), XYZ(1, 0, 0)); ok {
		t.Fatal("expected parallel ray to miss plane")
	}

	seg := NewSegment(XYZ(0, 0, 0), XYZ(0, 3, 4))
	if seg.Length != 5 || !seg.IsFinite() {
		t.Fatalf("expected finite segment of length 5; got %f", seg.Length)
	}
	if r.IsFinite() {
		t.Fatal("expected unbounded ray")
	}
}

func TestInvKeepsSign(t *testing.T) {
	inv := XYZ(2, 0, float32(math.Copysign(0, -1))).Inv()
	if inv[0] != 0.5 || inv[1] != math.MaxFloat32 || inv[2] != -math.MaxFloat32 {
		t.Fatalf("unexpected reciprocal %v", inv)
	}
}

func TestCosineHemisphereStaysInHemisphere(t *testing.T) {
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			d := CosineHemisphere((float32(i)+0.5)/16, (float32(j)+0.5)/16)
			if d[2] < 0 {
				t.Fatalf("expected direction in +Z hemisphere; got %v", d)
			}
			if l := d.Len(); math.Abs(float64(l-1)) > 1e-4 {
				t.Fatalf("expected unit direction; got length %f", l)
			}
		}
	}
}

func TestRadicalInverse(t *testing.T) {
	type spec struct {
		base, index uint32
		exp         float32
	}
	specs := []spec{
		{2, 0, 0},
		{2, 1, 0.5},
		{2, 2, 0.25},
		{2, 3, 0.75},
		{3, 1, 1.0 / 3.0},
		{3, 4, 4.0 / 9.0},
	}

	for index, s := range specs {
		if got := RadicalInverse(s.base, s.index); math.Abs(float64(got-s.exp)) > 1e-6 {
			t.Fatalf("[spec %d] expected %f; got %f", index, s.exp, got)
		}
	}

	if r := Rotate(0.75, 0.5); math.Abs(float64(r-0.25)) > 1e-6 {
		t.Fatalf("expected rotated value 0.25; got %f", r)
	}
}
