package recon

import (
	"errors"
	"math/rand"

	"github.com/achilleasa/lightfield/types"
)

var ErrNoCamera = errors.New("recon: defocus reconstruction requires a camera")

// Radical inverse bases of the lens and time dimensions.
const (
	lensBaseU = 3
	lensBaseV = 5
	timeBase  = 7
)

// The reconstruction result of a single pixel.
type PixelResult struct {
	Color types.Vec3

	// Fraction of reconstruction rays that found support.
	Support float32
}

// Reconstruct pixel (x, y). The generator provides the per pixel
// Cranley-Patterson rotation; callers seed it per scanline and process the
// pixels of a row in order to obtain deterministic images.
func (r *Reconstructor) ReconstructPixel(x, y int, rng *rand.Rand) (PixelResult, error) {
	if r.cfg.Mode == DefocusMotion {
		return r.reconstructCameraPixel(x, y, rng)
	}
	return r.reconstructHemispherePixel(x, y, rng), nil
}

// Gather indirect light over the cosine weighted hemisphere of each primary
// hit seen through the pixel. Supported rays of all hits are pooled into a
// single average, each ray scaled by the albedo of the hit it leaves.
func (r *Reconstructor) reconstructHemispherePixel(x, y int, rng *rand.Rand) PixelResult {
	var (
		res                      PixelResult
		indirect, direct         types.Vec3
		supportedRays, totalRays int
	)
	numRays := uint32(r.cfg.RaysPerHit)
	rotU, rotV := rng.Float32(), rng.Float32()
	useAlbedo := r.cfg.Mode != AmbientOcclusion
	hits := r.store.PixelHits(x, y)

	for hi := range hits {
		hit := &hits[hi]
		basis := types.NewBasis(hit.Normal)

		for k := uint32(0); k < numRays; k++ {
			u := types.Hammersley(k, numRays)
			dir := basis.ToWorld(types.CosineHemisphere(types.Rotate(u[0], rotU), types.Rotate(u[1], rotV)))
			color, weight := r.SampleRadiance(types.NewRay(hit.Origin, dir), hit.T)
			if weight <= 0 {
				continue
			}
			if useAlbedo {
				color = color.MulVec(hit.Albedo)
			}
			indirect = indirect.Add(color)
			supportedRays++
		}

		totalRays += int(numRays)
		direct = direct.Add(hit.Direct)
	}

	if supportedRays > 0 {
		res.Color = indirect.Mul(1 / float32(supportedRays))
	}
	if r.cfg.AddDirect && len(hits) > 0 {
		res.Color = res.Color.Add(direct.Mul(1 / float32(len(hits))))
	}
	if totalRays > 0 {
		res.Support = float32(supportedRays) / float32(totalRays)
	}
	return res
}

// Generate thin-lens camera rays over the pixel footprint, the lens and the
// shutter interval.
func (r *Reconstructor) reconstructCameraPixel(x, y int, rng *rand.Rand) (PixelResult, error) {
	if r.camera == nil {
		return PixelResult{}, ErrNoCamera
	}

	var (
		res       PixelResult
		sum       types.Vec3
		supported int
		rot       [5]float32
	)
	for i := range rot {
		rot[i] = rng.Float32()
	}
	numRays := uint32(r.cfg.RaysPerHit)
	frameW, frameH := float32(r.store.Width), float32(r.store.Height)

	for k := uint32(0); k < numRays; k++ {
		pix := types.Hammersley(k, numRays)
		u := (float32(x) + types.Rotate(pix[0], rot[0])) / frameW
		v := (float32(y) + types.Rotate(pix[1], rot[1])) / frameH
		lensU := types.Rotate(types.RadicalInverse(lensBaseU, k), rot[2])
		lensV := types.Rotate(types.RadicalInverse(lensBaseV, k), rot[3])
		time := types.Rotate(types.RadicalInverse(timeBase, k), rot[4])
		if !r.cfg.Motion {
			time = 0
		}

		color, weight := r.SampleRadiance(r.camera.GenerateRay(u, v, lensU, lensV), time)
		if weight > 0 {
			sum = sum.Add(color)
			supported++
		}
	}

	if supported > 0 {
		res.Color = sum.Mul(1 / float32(supported))
	}
	res.Support = float32(supported) / float32(numRays)
	return res, nil
}
