package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/achilleasa/lightfield/asset/samplebuf"
	"github.com/achilleasa/lightfield/recon"
	"github.com/achilleasa/lightfield/renderer"
	"github.com/achilleasa/lightfield/sample"
	"github.com/achilleasa/lightfield/tracer"
	"github.com/achilleasa/lightfield/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

var (
	errBadScissor = errors.New("scissor must be specified as x0,y0,x1,y1")
	errBadMarker  = errors.New("marker color must be specified as r,g,b")
)

// Reconstruct a frame from a sample buffer.
func Reconstruct(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing sample buffer argument")
	}

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	scheduler, err := blockScheduler(ctx.String("scheduler"))
	if err != nil {
		return err
	}

	store, err := loadStore(ctx.Args().First(), opts.Recon.Motion)
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(store, scheduler, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	if err = r.Render(); err != nil {
		return err
	}

	if err = writeOutputs(ctx, r.Frame(), opts); err != nil {
		return err
	}

	displayFrameStats(r.Stats())
	return nil
}

// Read a sample buffer and extract its samples.
func loadStore(path string, motion bool) (*sample.Store, error) {
	buf, err := samplebuf.ReadFile(path)
	if err != nil {
		return nil, err
	}

	store, err := sample.Ingest(buf, sample.IngestOptions{Motion: motion})
	if err != nil {
		return nil, err
	}
	logger.Infof("loaded %d samples and %d primary hits from %s", store.Len(), len(store.Primary), path)
	return store, nil
}

// Populate renderer options from the command flags.
func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	mode, err := recon.ParseMode(ctx.String("mode"))
	if err != nil {
		return renderer.Options{}, err
	}

	scissor, err := parseScissor(ctx.String("scissor"))
	if err != nil {
		return renderer.Options{}, err
	}

	marker, err := parseColor(ctx.String("marker"))
	if err != nil {
		return renderer.Options{}, err
	}

	return renderer.Options{
		Recon: recon.Config{
			Mode:              mode,
			K1:                ctx.Int("k1"),
			K2:                ctx.Int("k2"),
			Anisotropy:        float32(ctx.Float64("anisotropy")),
			BandwidthFilter:   ctx.Bool("bandwidth"),
			AOLength:          float32(ctx.Float64("ao-length")),
			SmallSurfaceMerge: ctx.Bool("small-surface-merge"),
			NoShrink:          ctx.Bool("no-shrink"),
			RaysPerHit:        ctx.Int("rays"),
			AddDirect:         ctx.Bool("direct"),
			Motion:            ctx.Bool("motion"),
			Seed:              uint32(ctx.Int("seed")),
		},
		LeafSize:         ctx.Int("leaf-size"),
		NumTracers:       ctx.Int("tracers"),
		WorkersPerTracer: ctx.Int("workers"),
		RayDumpBatchSize: ctx.Int("batch-size"),
		Scissor:          scissor,
		MarkerColor:      marker,
		Exposure:         float32(ctx.Float64("exposure")),
		Gamma:            float32(ctx.Float64("gamma")),
	}, nil
}

// Parse a "x0,y0,x1,y1" scissor window. An empty value selects the full frame.
func parseScissor(val string) (image.Rectangle, error) {
	if val == "" {
		return image.Rectangle{}, nil
	}

	tokens := strings.Split(val, ",")
	if len(tokens) != 4 {
		return image.Rectangle{}, errBadScissor
	}

	var coords [4]int
	for i, token := range tokens {
		v, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("%w: %s", errBadScissor, err.Error())
		}
		coords[i] = v
	}
	return image.Rect(coords[0], coords[1], coords[2], coords[3]), nil
}

// Parse a "r,g,b" color. An empty value yields black, which selects the
// renderer default.
func parseColor(val string) (types.Vec3, error) {
	var c types.Vec3
	if val == "" {
		return c, nil
	}

	tokens := strings.Split(val, ",")
	if len(tokens) != 3 {
		return c, errBadMarker
	}
	for i, token := range tokens {
		v, err := strconv.ParseFloat(strings.TrimSpace(token), 32)
		if err != nil {
			return c, fmt.Errorf("%w: %s", errBadMarker, err.Error())
		}
		c[i] = float32(v)
	}
	return c, nil
}

func blockScheduler(name string) (tracer.BlockScheduler, error) {
	switch name {
	case "naive":
		return tracer.NaiveScheduler(), nil
	case "perfect":
		return tracer.PerfectScheduler(), nil
	}
	return nil, fmt.Errorf("unknown block scheduler %q", name)
}

// Write the tonemapped frame and the optional support image.
func writeOutputs(ctx *cli.Context, frame *renderer.FrameBuffer, opts renderer.Options) error {
	if err := renderer.WriteImage(ctx.String("out"), frame.Image(opts.Exposure, opts.Gamma)); err != nil {
		return err
	}

	if debugOut := ctx.String("debug-out"); debugOut != "" {
		return renderer.WriteImage(debugOut, frame.SupportImage())
	}
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pass", "Time"})
	for _, pass := range stats.Passes {
		table.Append([]string{pass.Name, pass.Duration.String()})
	}
	table.SetFooter([]string{"TOTAL", stats.RenderTime.String()})
	table.Render()

	if len(stats.Tracers) != 0 {
		buf.WriteByte('\n')
		table = tablewriter.NewWriter(&buf)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"Tracer", "Block height", "% of frame", "Render time"})
		for _, stat := range stats.Tracers {
			table.Append([]string{
				stat.Id,
				fmt.Sprintf("%d", stat.BlockH),
				fmt.Sprintf("%02.1f %%", stat.FramePercent),
				stat.RenderTime.String(),
			})
		}
		table.Render()
	}

	logger.Noticef(
		"frame statistics (run %s, %d splats, %.1f%% pixel coverage)\n%s",
		stats.RunID, stats.NumSamples, 100*stats.PixelCoverage, buf.String(),
	)
	if stats.ProcessedRays != 0 {
		logger.Noticef("ray dump: %d of %d rays found support", stats.SupportedRays, stats.ProcessedRays)
	}
}
