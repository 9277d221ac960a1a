package types

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// An orthonormal basis whose rows are the tangent, bitangent and normal axes.
// Multiplying a world space vector with it yields the local coordinates.
type Basis struct {
	mat mgl32.Mat3
}

// Build an orthonormal basis around a unit normal using the branchless
// construction of Duff et al.
func NewBasis(n Vec3) Basis {
	sign := float32(math.Copysign(1, float64(n[2])))
	a := -1.0 / (sign + n[2])
	b := n[0] * n[1] * a
	tangent := mgl32.Vec3{1 + sign*n[0]*n[0]*a, sign * b, -sign * n[0]}
	bitangent := mgl32.Vec3{b, sign + n[1]*n[1]*a, -n[1]}

	return Basis{
		mat: mgl32.Mat3FromRows(tangent, bitangent, mgl32.Vec3(n)),
	}
}

// Project a world space vector into the basis.
func (b Basis) ToLocal(v Vec3) Vec3 {
	return Vec3(b.mat.Mul3x1(mgl32.Vec3(v)))
}

// Transform local coordinates back to world space.
func (b Basis) ToWorld(v Vec3) Vec3 {
	return Vec3(b.mat.Transpose().Mul3x1(mgl32.Vec3(v)))
}

// Return the tangent, bitangent and normal axes.
func (b Basis) Axes() (tangent, bitangent, normal Vec3) {
	r0, r1, r2 := b.mat.Rows()
	return Vec3(r0), Vec3(r1), Vec3(r2)
}
