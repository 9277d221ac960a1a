package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/achilleasa/lightfield/asset/samplebuf"
	"github.com/achilleasa/lightfield/sample"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display sample buffer info.
func ShowBufferInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing sample buffer argument")
	}

	buf, err := samplebuf.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}

	store, err := sample.Ingest(buf, sample.IngestOptions{Motion: true})
	if err != nil {
		return err
	}

	logger.Noticef("sample buffer information:\n%s", bufferStats(buf, store))
	return nil
}

func bufferStats(buf *samplebuf.Buffer, store *sample.Store) string {
	var out bytes.Buffer
	table := tablewriter.NewWriter(&out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.SetHeader([]string{"Property", "Value"})

	minB, maxB := store.Bounds()
	table.AppendBulk([][]string{
		{"Dimensions", fmt.Sprintf("%dx%d", buf.Width, buf.Height)},
		{"Samples per pixel", fmt.Sprintf("%d", buf.SamplesPerPixel)},
		{"Sub-samples", fmt.Sprintf("%d", buf.Len())},
		{"Valid samples", fmt.Sprintf("%d", store.Len())},
		{"Primary hits", fmt.Sprintf("%d", len(store.Primary))},
		{"Bounds min", fmt.Sprintf("%v", minB)},
		{"Bounds max", fmt.Sprintf("%v", maxB)},
		{"Camera", fmt.Sprintf("%t", buf.Camera != nil)},
	})
	for _, name := range buf.ChannelNames {
		table.Append([]string{"Channel", name})
	}
	table.Render()
	return out.String()
}
