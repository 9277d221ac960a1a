package cmd

import (
	"fmt"

	"github.com/achilleasa/lightfield/asset/samplebuf"
	"github.com/achilleasa/lightfield/types"
	"github.com/urfave/cli"
)

// Generate a sample buffer for one of the synthetic test scenes.
func Synth(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := samplebuf.DefaultSynthOptions()
	opts.Width = ctx.Int("width")
	opts.Height = ctx.Int("height")
	opts.SamplesPerPixel = ctx.Int("spp")
	opts.PixelSize = float32(ctx.Float64("pixel-size"))
	opts.Bandwidth = float32(ctx.Float64("bandwidth"))
	opts.Motion = types.XYZ(float32(ctx.Float64("motion-x")), 0, float32(ctx.Float64("motion-z")))
	opts.Seed = ctx.Int64("seed")

	var buf *samplebuf.Buffer
	switch sceneName := ctx.String("scene"); sceneName {
	case "floor":
		buf = samplebuf.FloorUnderCeiling(opts)
	case "camera":
		buf = samplebuf.FloorFromCamera(opts)
		buf.Camera.Aperture = float32(ctx.Float64("aperture"))
	default:
		return fmt.Errorf("unknown synthetic scene %q", sceneName)
	}

	if err := buf.Validate(); err != nil {
		return err
	}

	out := ctx.String("out")
	if err := samplebuf.WriteFile(buf, out); err != nil {
		return err
	}
	logger.Noticef("wrote %dx%dx%d sample buffer to %s", buf.Width, buf.Height, buf.SamplesPerPixel, out)
	return nil
}
