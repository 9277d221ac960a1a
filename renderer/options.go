package renderer

import (
	"image"
	"runtime"

	"github.com/achilleasa/lightfield/recon"
	"github.com/achilleasa/lightfield/types"
)

// Scissor ring color used when Options.MarkerColor is unset.
var DefaultMarkerColor = types.XYZ(1, 0, 1)

type Options struct {
	// Frame dims. They are derived from the sample buffer or ray dump.
	FrameW uint32
	FrameH uint32

	// Reconstruction settings.
	Recon recon.Config

	// Maximum samples per hierarchy leaf.
	LeafSize int

	// Number of cpu tracers and the worker count of each one. The worker
	// count also sizes the pool used by the density and shrink passes.
	NumTracers       int
	WorkersPerTracer int

	// Number of records decoded per ray dump batch.
	RayDumpBatchSize int

	// Only pixels inside the scissor window are reconstructed. An empty
	// window selects the entire frame.
	Scissor image.Rectangle

	// Color of the pixel ring surrounding a partial scissor window. Unset
	// selects DefaultMarkerColor.
	MarkerColor types.Vec3

	// Exposure and gamma for tonemapping.
	Exposure float32
	Gamma    float32
}

// Validate options and fill unset values with defaults.
func (opts *Options) Validate() error {
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return ErrNoSamples
	}
	if err := opts.Recon.Validate(); err != nil {
		return err
	}

	if opts.NumTracers <= 0 {
		opts.NumTracers = 1
	}
	if opts.WorkersPerTracer <= 0 {
		opts.WorkersPerTracer = runtime.NumCPU() / opts.NumTracers
		if opts.WorkersPerTracer < 1 {
			opts.WorkersPerTracer = 1
		}
	}
	if opts.RayDumpBatchSize <= 0 {
		opts.RayDumpBatchSize = 1 << 16
	}
	if opts.MarkerColor == (types.Vec3{}) {
		opts.MarkerColor = DefaultMarkerColor
	}
	if opts.Exposure == 0 {
		opts.Exposure = 1
	}
	if opts.Gamma == 0 {
		opts.Gamma = 2.2
	}
	if opts.Exposure < 0 || opts.Gamma < 0 {
		return ErrInvalidToneMapping
	}

	frame := image.Rect(0, 0, int(opts.FrameW), int(opts.FrameH))
	if opts.Scissor.Empty() {
		opts.Scissor = frame
	}
	opts.Scissor = opts.Scissor.Intersect(frame)
	if opts.Scissor.Empty() {
		return ErrInvalidScissor
	}
	return nil
}
