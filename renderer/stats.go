package renderer

import "time"

type TracerStat struct {
	// The tracer id.
	Id string

	// The block height and the percentage of total frame area it represents.
	BlockH       uint32
	FramePercent float32

	// Render time for assigned block
	RenderTime time.Duration
}

// Duration of a single pipeline pass.
type PassStat struct {
	Name     string
	Duration time.Duration
}

type FrameStats struct {
	// Unique id of the render run.
	RunID string

	// Individual pass timings in execution order.
	Passes []PassStat

	// Individual tracer stats.
	Tracers []TracerStat

	// Number of splats and the fraction of pixels with support.
	NumSamples    int
	PixelCoverage float32

	// Ray dump counters.
	ProcessedRays uint64
	SupportedRays uint64

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Record the duration of a pass started at start.
func (fs *FrameStats) addPass(name string, start time.Time) {
	fs.recordPass(name, time.Since(start))
}

func (fs *FrameStats) recordPass(name string, elapsed time.Duration) {
	fs.Passes = append(fs.Passes, PassStat{Name: name, Duration: elapsed})
}
