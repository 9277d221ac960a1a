package renderer

import (
	"image"
	"io"
	"sync/atomic"
	"time"

	"github.com/achilleasa/lightfield/asset/raydump"
	"github.com/achilleasa/lightfield/recon"
	"github.com/achilleasa/lightfield/sample"
	"github.com/achilleasa/lightfield/tracer"
	"github.com/achilleasa/lightfield/types"
	"github.com/google/uuid"
)

// The ray dump renderer filters externally supplied rays in nearest sample
// mode and accumulates weight * radiance into the target pixels.
type rayDumpRenderer struct {
	options Options

	reader *raydump.Reader
	recon  *recon.Reconstructor
	pool   *tracer.Pool

	frame *FrameBuffer
	stats FrameStats
}

// Create a renderer for the rays in reader. The frame dimensions are taken
// from the ray dump header.
func NewRayDump(store *sample.Store, reader *raydump.Reader, opts Options) (Renderer, error) {
	if store == nil || store.Len() == 0 {
		return nil, ErrNoSamples
	}
	opts.FrameW, opts.FrameH = reader.Width, reader.Height
	opts.Recon.Mode = recon.NearestSample
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := &rayDumpRenderer{
		options: opts,
		reader:  reader,
		pool:    tracer.NewPool(opts.WorkersPerTracer * opts.NumTracers),
		frame:   NewFrameBuffer(int(reader.Width), int(reader.Height)),
		stats: FrameStats{
			RunID:      uuid.New().String(),
			NumSamples: store.Len(),
		},
	}

	start := time.Now()
	var err error
	if r.recon, err = recon.New(store, opts.Recon, opts.LeafSize, r.pool); err != nil {
		r.Close()
		return nil, err
	}
	r.stats.addPass("build", start)
	return r, nil
}

func (r *rayDumpRenderer) Close() {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

func (r *rayDumpRenderer) Frame() *FrameBuffer {
	return r.frame
}

func (r *rayDumpRenderer) Stats() FrameStats {
	return r.stats
}

// Process the ray dump in batches. Any stream error aborts the render.
func (r *rayDumpRenderer) Render() error {
	frameStart := time.Now()
	prepareSplats(r.recon, &r.stats)

	start := time.Now()
	batch := make([]raydump.Record, r.options.RayDumpBatchSize)
	var lines [][2]int
	for {
		records, err := r.reader.ReadBatch(batch)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		lines = scanlineRanges(records, lines[:0])
		r.pool.Run(len(lines), func(line int) {
			r.filterRecords(records[lines[line][0]:lines[line][1]])
		})
		r.stats.ProcessedRays += uint64(len(records))
	}
	r.frame.MarkScissor(r.options.Scissor, r.options.MarkerColor)
	r.stats.addPass("filter", start)

	r.stats.RenderTime = time.Since(frameStart)
	logger.Noticef(
		"filtered %d rays (%d with support) in %d ms",
		r.stats.ProcessedRays, r.stats.SupportedRays, r.stats.RenderTime.Nanoseconds()/1000000,
	)
	return nil
}

// Split scanline sorted records into [from, to) ranges sharing the same row.
func scanlineRanges(records []raydump.Record, out [][2]int) [][2]int {
	from := 0
	for i := 1; i <= len(records); i++ {
		if i == len(records) || records[i].Y != records[from].Y {
			out = append(out, [2]int{from, i})
			from = i
		}
	}
	return out
}

// Filter records that share a scanline.
func (r *rayDumpRenderer) filterRecords(records []raydump.Record) {
	var supported uint64
	for i := range records {
		rec := &records[i]
		if !image.Pt(int(rec.X), int(rec.Y)).In(r.options.Scissor) {
			continue
		}

		color, weight := r.recon.SampleRadiance(types.NewRay(rec.Origin, rec.Dir), 0)
		if weight <= 0 {
			continue
		}
		r.frame.Add(int(rec.X), int(rec.Y), color.Mul(rec.Weight))
		supported++
	}
	atomic.AddUint64(&r.stats.SupportedRays, supported)
}
