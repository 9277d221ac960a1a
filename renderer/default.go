package renderer

import (
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/achilleasa/lightfield/recon"
	"github.com/achilleasa/lightfield/sample"
	"github.com/achilleasa/lightfield/scene"
	"github.com/achilleasa/lightfield/tracer"
	"github.com/achilleasa/lightfield/tracer/cpu"
	"github.com/google/uuid"
)

// Renders rows of the frame buffer by reconstructing each pixel.
type reconKernel struct {
	recon   *recon.Reconstructor
	frame   *FrameBuffer
	scissor image.Rectangle
}

// Reconstruct row y. The row generator is seeded with seed ^ y so the result
// does not depend on which tracer or worker renders the row.
func (k *reconKernel) RenderRow(y, seed uint32) error {
	row := int(y)
	if row < k.scissor.Min.Y || row >= k.scissor.Max.Y {
		return nil
	}

	rng := rand.New(rand.NewSource(int64(seed ^ y)))
	for x := k.scissor.Min.X; x < k.scissor.Max.X; x++ {
		res, err := k.recon.ReconstructPixel(x, row, rng)
		if err != nil {
			return err
		}
		k.frame.Set(x, row, res.Color, res.Support)
	}
	return nil
}

// The default renderer runs the reconstruction passes over a sample store
// and splits the frame rows between a set of cpu tracers.
type defaultRenderer struct {
	options Options

	store *sample.Store
	recon *recon.Reconstructor

	// Pool for the density and shrink passes.
	pool *tracer.Pool

	tracers          []tracer.Tracer
	scheduler        tracer.BlockScheduler
	blockAssignments []uint32

	frame *FrameBuffer
	stats FrameStats
}

// Create a new default renderer for the store samples using the specified
// block scheduler.
func NewDefault(store *sample.Store, scheduler tracer.BlockScheduler, opts Options) (Renderer, error) {
	if store == nil || store.Len() == 0 {
		return nil, ErrNoSamples
	}
	opts.FrameW, opts.FrameH = uint32(store.Width), uint32(store.Height)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := &defaultRenderer{
		options:   opts,
		store:     store,
		scheduler: scheduler,
		frame:     NewFrameBuffer(store.Width, store.Height),
		stats: FrameStats{
			RunID:      uuid.New().String(),
			NumSamples: store.Len(),
		},
	}

	if opts.Recon.Mode == recon.DefocusMotion && store.Camera == nil {
		return nil, ErrNoCamera
	}

	r.pool = tracer.NewPool(opts.WorkersPerTracer * opts.NumTracers)

	start := time.Now()
	var err error
	r.recon, err = recon.New(store, opts.Recon, opts.LeafSize, r.pool)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.stats.addPass("build", start)

	if store.Camera != nil {
		camera := scene.NewCamera(store.Camera)
		camera.SetupProjection(float32(store.Width) / float32(store.Height))
		r.recon.SetCamera(camera)
	}

	for i := 0; i < opts.NumTracers; i++ {
		tr := cpu.NewTracer(fmt.Sprintf("cpu-%d", i), opts.WorkersPerTracer)
		if err = tr.Init(); err != nil {
			r.Close()
			return nil, err
		}
		r.tracers = append(r.tracers, tr)
	}

	return r, nil
}

// Shutdown renderer and attached tracers.
func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil

	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

// Get the rendered frame.
func (r *defaultRenderer) Frame() *FrameBuffer {
	return r.frame
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

// Run the density and shrink passes and reconstruct the frame.
func (r *defaultRenderer) Render() error {
	if len(r.tracers) == 0 {
		return ErrNoTracers
	}
	frameStart := time.Now()
	prepareSplats(r.recon, &r.stats)

	start := time.Now()
	if err := r.renderFrame(); err != nil {
		return err
	}
	r.frame.MarkScissor(r.options.Scissor, r.options.MarkerColor)
	r.stats.addPass("filter", start)

	r.updateCoverage()
	r.stats.RenderTime = time.Since(frameStart)
	logger.Noticef("rendered %dx%d frame in %d ms", r.frame.Width, r.frame.Height, r.stats.RenderTime.Nanoseconds()/1000000)
	return nil
}

// Run the density and shrink passes and record their timings.
func prepareSplats(rc *recon.Reconstructor, stats *FrameStats) {
	rc.Prepare(stats.recordPass)
}

// Split the frame into row blocks, hand each block to a tracer and wait for
// all of them to complete.
func (r *defaultRenderer) renderFrame() error {
	kernel := &reconKernel{
		recon:   r.recon,
		frame:   r.frame,
		scissor: r.options.Scissor,
	}

	frameH := r.options.FrameH
	r.blockAssignments = r.scheduler.Schedule(r.tracers, frameH)

	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))
	var blockY uint32
	pending := 0
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		if blockH == 0 {
			continue
		}

		tr.Update(tracer.UpdateKernel, kernel)
		tr.Enqueue(tracer.BlockRequest{
			BlockY:   blockY,
			BlockH:   blockH,
			Seed:     r.options.Recon.Seed,
			DoneChan: doneChan,
			ErrChan:  errChan,
		})
		blockY += blockH
		pending++
	}

	var err error
	for ; pending > 0; pending-- {
		select {
		case <-doneChan:
		case blockErr := <-errChan:
			if err == nil {
				err = blockErr
			}
		}
	}
	if err != nil {
		return err
	}

	r.stats.Tracers = r.stats.Tracers[:0]
	for idx, tr := range r.tracers {
		trStats := tr.Stats()
		r.stats.Tracers = append(r.stats.Tracers, TracerStat{
			Id:           tr.Id(),
			BlockH:       r.blockAssignments[idx],
			FramePercent: 100.0 * float32(r.blockAssignments[idx]) / float32(frameH),
			RenderTime:   trStats.RenderTime,
		})
	}
	return nil
}

// Count the fraction of scissor pixels that received support.
func (r *defaultRenderer) updateCoverage() {
	scissor := r.options.Scissor
	covered := 0
	for y := scissor.Min.Y; y < scissor.Max.Y; y++ {
		for x := scissor.Min.X; x < scissor.Max.X; x++ {
			if r.frame.Support[y*r.frame.Width+x] > 0 {
				covered++
			}
		}
	}
	r.stats.PixelCoverage = float32(covered) / float32(scissor.Dx()*scissor.Dy())
}
