package scene

import (
	"math"
	"testing"

	"github.com/achilleasa/lightfield/asset/samplebuf"
	"github.com/achilleasa/lightfield/types"
)

func newTestCamera(aperture float32) *Camera {
	c := NewCamera(&samplebuf.Camera{
		Position:      types.XYZ(0, 0, 0),
		LookAt:        types.XYZ(0, 0, -1),
		Up:            types.XYZ(0, 1, 0),
		FOV:           90,
		Aperture:      aperture,
		FocalDistance: 2,
	})
	c.SetupProjection(1)
	return c
}

func approxEq(a, b types.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(float64(a[i]-b[i])) > 1e-4 {
			return false
		}
	}
	return true
}

func TestPinholeRays(t *testing.T) {
	c := newTestCamera(0)

	type spec struct {
		u, v   float32
		expDir types.Vec3
	}
	specs := []spec{
		{0.5, 0.5, types.XYZ(0, 0, -1)},
		{0, 0, types.XYZ(-1, 1, -1).Normalize()},
		{1, 1, types.XYZ(1, -1, -1).Normalize()},
	}

	for index, s := range specs {
		ray := c.GenerateRay(s.u, s.v, 0.3, 0.7)
		if !approxEq(ray.Origin, c.Position) {
			t.Fatalf("[spec %d] expected ray origin at the camera position; got %v", index, ray.Origin)
		}
		if !approxEq(ray.Dir, s.expDir) {
			t.Fatalf("[spec %d] expected ray dir %v; got %v", index, s.expDir, ray.Dir)
		}
	}
}

func TestThinLensRaysConvergeOnFocalPlane(t *testing.T) {
	c := newTestCamera(0.5)

	pinhole := newTestCamera(0).GenerateRay(0.25, 0.75, 0, 0)
	focus := pinhole.At(2 / -pinhole.Dir[2])

	for _, lens := range [][2]float32{{0.1, 0.2}, {0.9, 0.5}, {0.5, 0.5}, {0.3, 0.95}} {
		ray := c.GenerateRay(0.25, 0.75, lens[0], lens[1])
		if ray.Origin[2] != 0 {
			t.Fatalf("expected lens point on the lens plane; got %v", ray.Origin)
		}
		tFocus := (-2 - ray.Origin[2]) / ray.Dir[2]
		if p := ray.At(tFocus); !approxEq(p, focus) {
			t.Fatalf("expected lens ray to pass through focus point %v; got %v", focus, p)
		}
	}
}
