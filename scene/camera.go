package scene

import (
	"fmt"

	"github.com/achilleasa/lightfield/asset/samplebuf"
	"github.com/achilleasa/lightfield/types"
	"github.com/go-gl/mathgl/mgl32"
)

// Stores the ray directions at the four corners of the camera frustrum. It
// is used as a shortcut for generating per pixel rays via interpolation of
// the corner rays.
type Frustrum [4]types.Vec3

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// A thin-lens camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	ViewMat  mgl32.Mat4
	ProjMat  mgl32.Mat4
	Frustrum Frustrum

	// Vertical FOV in degrees.
	FOV float32

	// Lens radius and distance to the plane in focus. A zero aperture
	// yields a pinhole camera.
	Aperture      float32
	FocalDistance float32

	// Camera space axes in world space.
	right   types.Vec3
	up      types.Vec3
	forward types.Vec3
}

// Create a camera from a sample buffer camera description.
func NewCamera(desc *samplebuf.Camera) *Camera {
	return &Camera{
		Position:      desc.Position,
		LookAt:        desc.LookAt,
		Up:            desc.Up,
		FOV:           desc.FOV,
		Aperture:      desc.Aperture,
		FocalDistance: desc.FocalDistance,
		ViewMat:       mgl32.Ident4(),
		ProjMat:       mgl32.Ident4(),
	}
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	c.ProjMat = mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, 1, 1000)
	c.Update()
}

// Update the view matrix, camera axes and frustrum corners.
func (c *Camera) Update() {
	c.ViewMat = mgl32.LookAtV(mgl32.Vec3(c.Position), mgl32.Vec3(c.LookAt), mgl32.Vec3(c.Up))

	c.forward = c.LookAt.Sub(c.Position).Normalize()
	c.right = c.forward.Cross(c.Up).Normalize()
	c.up = c.right.Cross(c.forward)

	if c.FocalDistance <= 0 {
		c.FocalDistance = c.LookAt.Sub(c.Position).Len()
	}

	c.updateFrustrum()
}

func (c *Camera) InvViewProjMat() mgl32.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat).Inv()
}

// Generate a ray vector for each corner of the camera frustrum by
// multiplying clip space vectors for each corner with the inv proj/view
// matrix, applying perspective and subtracting the camera eye position.
func (c *Camera) updateFrustrum() {
	invProjViewMat := c.InvViewProjMat()
	corners := [4][2]float32{{-1, 1}, {1, 1}, {-1, -1}, {1, -1}}
	for i, corner := range corners {
		v := invProjViewMat.Mul4x1(mgl32.Vec4{corner[0], corner[1], -1, 1})
		v = v.Mul(1.0 / v[3])
		c.Frustrum[i] = types.Vec3(v.Vec3()).Sub(c.Position)
	}
}

// Generate a ray through the normalized frame coordinates (u, v) where
// (0, 0) is the top-left frame corner. The lens coordinates in [0, 1)^2 pick
// a point on the lens aperture.
func (c *Camera) GenerateRay(u, v, lensU, lensV float32) types.Ray {
	top := types.LerpVec3(c.Frustrum[0], c.Frustrum[1], u)
	bottom := types.LerpVec3(c.Frustrum[2], c.Frustrum[3], u)
	dir := types.LerpVec3(top, bottom, v).Normalize()

	if c.Aperture <= 0 {
		return types.NewRay(c.Position, dir)
	}

	focusPoint := c.Position.MulAdd(dir, c.FocalDistance/dir.Dot(c.forward))
	disk := types.ConcentricDisk(lensU, lensV)
	lensPoint := c.Position.
		MulAdd(c.right, disk[0]*c.Aperture).
		MulAdd(c.up, disk[1]*c.Aperture)
	return types.NewRay(lensPoint, focusPoint.Sub(lensPoint))
}
