// Package recon reconstructs dense radiance from sparse path samples: it
// estimates splat radii, clamps them against occluders and filters query
// rays against the resulting splats.
package recon

import (
	"time"

	"github.com/achilleasa/lightfield/bvh"
	"github.com/achilleasa/lightfield/log"
	"github.com/achilleasa/lightfield/sample"
	"github.com/achilleasa/lightfield/scene"
	"github.com/achilleasa/lightfield/tracer"
)

// Number of partitions per pool worker for the per-sample passes.
const partitionsPerWorker = 4

// A Reconstructor owns the sample hierarchy and runs the reconstruction
// passes on a shared worker pool.
type Reconstructor struct {
	logger log.Logger

	cfg   Config
	store *sample.Store
	h     *bvh.Hierarchy
	pool  *tracer.Pool

	// Optional camera for the DefocusMotion mode.
	camera *scene.Camera

	// Scene scale dependent constants.
	diagonal float32
	eps      float32

	scratch scratchPool
}

// Create a reconstructor for the store samples and build the sample
// hierarchy. Sample radii are reset to zero until EstimateDensity runs.
func New(store *sample.Store, cfg Config, leafSize int, pool *tracer.Pool) (*Reconstructor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store.Len() == 0 {
		return nil, sample.ErrNoValidSamples
	}

	r := &Reconstructor{
		logger:   log.New("recon"),
		cfg:      cfg,
		store:    store,
		pool:     pool,
		diagonal: store.Diagonal(),
	}
	r.eps = r.diagonal * rayEpsilonScale
	if r.eps == 0 {
		r.eps = rayEpsilonScale
	}

	store.ResetRadii(0)
	r.h = bvh.Build(store.Samples, leafSize, cfg.Motion)
	return r, nil
}

// Get the reconstruction settings.
func (r *Reconstructor) Config() Config {
	return r.cfg
}

// Get the sample hierarchy.
func (r *Reconstructor) Hierarchy() *bvh.Hierarchy {
	return r.h
}

// Set the camera used for generating rays in DefocusMotion mode.
func (r *Reconstructor) SetCamera(camera *scene.Camera) {
	r.camera = camera
}

// Run the density and shrink passes in order. Bounds are revalidated after
// each pass. If onPass is not nil it receives the name and duration of each
// completed pass.
func (r *Reconstructor) Prepare(onPass func(pass string, elapsed time.Duration)) {
	start := time.Now()
	passStart := start
	endPass := func(pass string) {
		if onPass != nil {
			onPass(pass, time.Since(passStart))
		}
		passStart = time.Now()
	}

	r.EstimateDensity()
	r.h.Revalidate()
	endPass("density")

	if !r.cfg.NoShrink {
		r.ShrinkSplats()
		r.h.Revalidate()
		endPass("shrink")
	}
	r.logger.Noticef("prepared %d splats in %d ms", r.store.Len(), time.Since(start).Nanoseconds()/1000000)
}

func (r *Reconstructor) numPartitions() int {
	return r.pool.NumWorkers() * partitionsPerWorker
}
