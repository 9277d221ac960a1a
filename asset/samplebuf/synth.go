package samplebuf

import (
	"math"
	"math/rand"

	"github.com/achilleasa/lightfield/types"
)

// Rays leaving the floor closer to the horizon than this cosine are
// recorded as misses.
const minCeilingCos float32 = 0.1

// Options for the synthetic floor-under-ceiling scene: a white floor at y=0
// facing up and an infinite emissive ceiling at y=CeilingHeight facing down.
// Every indirect ray leaving the floor reaches the ceiling, so the exact
// indirect illumination of the floor is Albedo * Radiance.
type SynthOptions struct {
	Width           int
	Height          int
	SamplesPerPixel int

	// World space size of a pixel footprint on the floor.
	PixelSize float32

	CeilingHeight float32
	Radiance      types.Vec3
	Albedo        types.Vec3

	// Raw bandwidth assigned to every sample.
	Bandwidth float32

	// Ceiling motion per unit of time; zero for static scenes.
	Motion types.Vec3

	Seed int64
}

// Reasonable defaults for the synthetic scene.
func DefaultSynthOptions() SynthOptions {
	return SynthOptions{
		Width:           32,
		Height:          32,
		SamplesPerPixel: 4,
		PixelSize:       0.1,
		CeilingHeight:   1.0,
		Radiance:        types.XYZ(1, 1, 1),
		Albedo:          types.XYZ(0.8, 0.8, 0.8),
		Bandwidth:       1.0,
		Seed:            1,
	}
}

// Generate a sample buffer for the floor-under-ceiling scene. Pixel (x, y)
// covers the floor square starting at (x*PixelSize, 0, y*PixelSize).
func FloorUnderCeiling(opts SynthOptions) *Buffer {
	buf := New(opts.Width, opts.Height, opts.SamplesPerPixel,
		PrimaryNormal, PrimaryAlbedo, SecondaryOrigin, SecondaryHit,
		SecondaryMotion, SecondaryNormal, DirectLight, SecondaryAlbedo, SecondaryDirect,
	)
	chPriNormal, _ := buf.ChannelIndex(PrimaryNormal)
	chPriAlbedo, _ := buf.ChannelIndex(PrimaryAlbedo)
	chOrigin, _ := buf.ChannelIndex(SecondaryOrigin)
	chHit, _ := buf.ChannelIndex(SecondaryHit)
	chMotion, _ := buf.ChannelIndex(SecondaryMotion)
	chNormal, _ := buf.ChannelIndex(SecondaryNormal)
	chSecDirect, _ := buf.ChannelIndex(SecondaryDirect)

	up := types.XYZ(0, 1, 0)
	basis := types.NewBasis(up)
	rng := rand.New(rand.NewSource(opts.Seed))
	noHit := types.XYZ(2*NoHit, 2*NoHit, 2*NoHit)

	for y := 0; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			for s := 0; s < opts.SamplesPerPixel; s++ {
				index := buf.Index(x, y, s)
				jx, jy := rng.Float32(), rng.Float32()
				t := rng.Float32()

				origin := types.XYZ((float32(x)+jx)*opts.PixelSize, 0, (float32(y)+jy)*opts.PixelSize)
				dir := basis.ToWorld(types.CosineHemisphere(rng.Float32(), rng.Float32()))

				buf.Position[index] = types.XY(float32(x)+jx, float32(y)+jy)
				buf.Time[index] = t
				buf.Bandwidth[index] = opts.Bandwidth
				buf.Channels[chPriNormal][index] = up
				buf.Channels[chPriAlbedo][index] = opts.Albedo
				buf.Channels[chOrigin][index] = origin

				// Grazing rays would terminate arbitrarily far away.
				if dir[1] < minCeilingCos {
					buf.Channels[chHit][index] = noHit
					continue
				}

				hit := origin.MulAdd(dir, opts.CeilingHeight/dir[1])
				buf.Channels[chHit][index] = hit.MulAdd(opts.Motion, t)
				buf.Channels[chMotion][index] = opts.Motion
				buf.Channels[chNormal][index] = types.XYZ(0, -1, 0)
				buf.Channels[chSecDirect][index] = opts.Radiance
				buf.Color[index] = opts.Radiance
			}
		}
	}

	return buf
}

// Generate a primary visibility buffer of the floor as seen through a
// pinhole camera hovering above the floor center whose vertical field of
// view spans the floor depth. The buffer carries a
// thin-lens camera description and is meant for defocus/motion
// reconstruction where samples are direct camera ray hits.
func FloorFromCamera(opts SynthOptions) *Buffer {
	buf := New(opts.Width, opts.Height, opts.SamplesPerPixel,
		PrimaryNormal, PrimaryAlbedo, SecondaryOrigin, SecondaryHit, SecondaryMotion, SecondaryNormal,
	)
	chPriNormal, _ := buf.ChannelIndex(PrimaryNormal)
	chPriAlbedo, _ := buf.ChannelIndex(PrimaryAlbedo)
	chOrigin, _ := buf.ChannelIndex(SecondaryOrigin)
	chHit, _ := buf.ChannelIndex(SecondaryHit)
	chNormal, _ := buf.ChannelIndex(SecondaryNormal)

	extentX := float32(opts.Width) * opts.PixelSize
	extentZ := float32(opts.Height) * opts.PixelSize
	eye := types.XYZ(extentX/2, opts.CeilingHeight, extentZ/2)
	buf.Camera = &Camera{
		Position:      eye,
		LookAt:        types.XYZ(extentX/2, 0, extentZ/2),
		Up:            types.XYZ(0, 0, -1),
		FOV:           float32(2 * math.Atan(float64(extentZ/2/opts.CeilingHeight)) * 180 / math.Pi),
		Aperture:      0,
		FocalDistance: opts.CeilingHeight,
	}

	up := types.XYZ(0, 1, 0)
	color := opts.Albedo.MulVec(opts.Radiance)
	rng := rand.New(rand.NewSource(opts.Seed))
	for y := 0; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			for s := 0; s < opts.SamplesPerPixel; s++ {
				index := buf.Index(x, y, s)
				jx, jy := rng.Float32(), rng.Float32()
				hit := types.XYZ((float32(x)+jx)*opts.PixelSize, 0, (float32(y)+jy)*opts.PixelSize)

				buf.Position[index] = types.XY(float32(x)+jx, float32(y)+jy)
				buf.Time[index] = rng.Float32()
				buf.Bandwidth[index] = opts.Bandwidth
				buf.Channels[chPriNormal][index] = up
				buf.Channels[chPriAlbedo][index] = types.XYZ(1, 1, 1)
				buf.Channels[chOrigin][index] = eye
				buf.Channels[chHit][index] = hit
				buf.Channels[chNormal][index] = up
				buf.Color[index] = color
			}
		}
	}

	return buf
}
