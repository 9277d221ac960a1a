package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/achilleasa/lightfield/bvh"
	"github.com/achilleasa/lightfield/recon"
	"github.com/achilleasa/lightfield/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Prepare splats for a sample buffer and export the flattened hierarchy
// together with a query batch plan.
func Export(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing sample buffer argument")
	}

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}
	if err = opts.Recon.Validate(); err != nil {
		return err
	}

	store, err := loadStore(ctx.Args().First(), opts.Recon.Motion)
	if err != nil {
		return err
	}

	pool := tracer.NewPool(ctx.Int("workers"))
	defer pool.Close()

	rc, err := recon.New(store, opts.Recon, opts.LeafSize, pool)
	if err != nil {
		return err
	}
	rc.Prepare(nil)

	flat := rc.Hierarchy().Flatten(ctx.Int("table-size"))
	batches := bvh.PlanBatches(len(store.Primary)*opts.Recon.RaysPerHit, ctx.Int("batch-size"))

	out := ctx.String("out")
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	manifest, err := bvh.WriteFlattened(f, flat, batches)
	if err != nil {
		return err
	}

	logger.Noticef("exported hierarchy to %s\n%s", out, manifestStats(manifest))
	return nil
}

func manifestStats(m *bvh.Manifest) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Buffer", "Records", "Record size", "Size"})
	table.AppendBulk([][]string{
		{"nodes", fmt.Sprintf("%d", m.NumNodes), fmt.Sprintf("%d", m.NodeRecordSize), fmt.Sprintf("%d", m.NumNodes*m.NodeRecordSize)},
		{"samples", fmt.Sprintf("%d", m.NumSamples), fmt.Sprintf("%d", m.SampleRecordSize), fmt.Sprintf("%d", m.NumSamples*m.SampleRecordSize)},
		{"sample table", fmt.Sprintf("%d", m.SampleTableSize), fmt.Sprintf("%d", bvh.SampleTableEntrySize), fmt.Sprintf("%d", m.SampleTableSize*bvh.SampleTableEntrySize)},
	})
	table.SetFooter([]string{"", "", "BATCHES", fmt.Sprintf("%d", len(m.Batches))})
	table.Render()
	return fmt.Sprintf("run %s\n%s", m.RunID, buf.String())
}
