package cmd

import (
	"errors"

	"github.com/achilleasa/lightfield/asset/raydump"
	"github.com/achilleasa/lightfield/renderer"
	"github.com/urfave/cli"
)

// Filter an external ray dump against a sample buffer.
func FilterRayDump(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 2 {
		return errors.New("expected a sample buffer and a ray dump argument")
	}

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	store, err := loadStore(ctx.Args().Get(0), opts.Recon.Motion)
	if err != nil {
		return err
	}

	reader, err := raydump.Open(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	defer reader.Close()
	logger.Infof("ray dump contains %d rays for a %dx%d frame", reader.Count, reader.Width, reader.Height)

	r, err := renderer.NewRayDump(store, reader, opts)
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
