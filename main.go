package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/lightfield/cmd"
	"github.com/urfave/cli"
)

// Flags shared by all commands that reconstruct radiance from a sample buffer.
var reconFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "mode, m",
		Value: "illumination",
		Usage: "reconstruction mode: illumination, ao, nearest or defocus",
	},
	cli.IntFlag{
		Name:  "rays",
		Value: 16,
		Usage: "reconstruction rays per primary hit",
	},
	cli.Float64Flag{
		Name:  "ao-length",
		Usage: "ambient occlusion ray length (required by the ao mode)",
	},
	cli.IntFlag{
		Name:  "k1",
		Value: 16,
		Usage: "neighbors gathered by the density estimator",
	},
	cli.IntFlag{
		Name:  "k2",
		Value: 8,
		Usage: "neighbor rank used to derive splat radii",
	},
	cli.Float64Flag{
		Name:  "anisotropy",
		Value: 4,
		Usage: "scale applied to the normal component of neighbor distances",
	},
	cli.IntFlag{
		Name:  "leaf-size",
		Value: 8,
		Usage: "maximum samples per hierarchy leaf",
	},
	cli.BoolFlag{
		Name:  "bandwidth",
		Usage: "enable angular bandwidth filtering",
	},
	cli.BoolFlag{
		Name:  "no-shrink",
		Usage: "skip the splat shrinking pass",
	},
	cli.BoolFlag{
		Name:  "small-surface-merge",
		Usage: "merge small surface segments along query rays",
	},
	cli.BoolFlag{
		Name:  "motion",
		Usage: "use the motion vectors stored in the sample buffer",
	},
	cli.BoolFlag{
		Name:  "direct",
		Usage: "add the primary hit direct lighting to the reconstructed result",
	},
	cli.IntFlag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed for reconstruction rays",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "workers per tracer (0 uses all cpus)",
	},
	cli.IntFlag{
		Name:  "batch-size",
		Value: 1 << 16,
		Usage: "rays per ray dump or export batch",
	},
}

// Flags for commands that produce an image.
var outputFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "tracers",
		Value: 1,
		Usage: "number of cpu tracers sharing the frame",
	},
	cli.StringFlag{
		Name:  "scheduler",
		Value: "perfect",
		Usage: "block scheduler: naive or perfect",
	},
	cli.StringFlag{
		Name:  "scissor",
		Usage: "only reconstruct pixels inside x0,y0,x1,y1",
	},
	cli.StringFlag{
		Name:  "marker",
		Value: "1,0,1",
		Usage: "r,g,b color of the ring drawn around the scissor window",
	},
	cli.Float64Flag{
		Name:  "exposure",
		Value: 1.0,
		Usage: "camera exposure for tone-mapping",
	},
	cli.Float64Flag{
		Name:  "gamma",
		Value: 2.2,
		Usage: "gamma for tone-mapping",
	},
	cli.StringFlag{
		Name:  "out, o",
		Value: "frame.png",
		Usage: "image filename (.png, .tif or .tiff) for the reconstructed frame",
	},
	cli.StringFlag{
		Name:  "debug-out",
		Usage: "image filename for the per pixel support fraction",
	},
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lightfield"
	app.Usage = "reconstruct indirect illumination from sparse light field samples"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "info",
			Usage:     "display sample buffer information",
			ArgsUsage: "buffer.zip",
			Action:    cmd.ShowBufferInfo,
		},
		{
			Name:  "synth",
			Usage: "generate a sample buffer for a synthetic scene",
			Description: `
Generate a sample buffer for a white floor lit by an emissive ceiling. The
"floor" scene stores one bounce indirect samples whose exact reconstruction is
albedo * radiance. The "camera" scene stores primary visibility samples and a
thin lens camera for defocus reconstruction.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene",
					Value: "floor",
					Usage: "synthetic scene: floor or camera",
				},
				cli.IntFlag{
					Name:  "width",
					Value: 64,
					Usage: "buffer width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 64,
					Usage: "buffer height",
				},
				cli.IntFlag{
					Name:  "spp",
					Value: 4,
					Usage: "samples per pixel",
				},
				cli.Float64Flag{
					Name:  "pixel-size",
					Value: 0.1,
					Usage: "world space size of a pixel footprint",
				},
				cli.Float64Flag{
					Name:  "bandwidth",
					Value: 1.0,
					Usage: "raw bandwidth assigned to every sample",
				},
				cli.Float64Flag{
					Name:  "aperture",
					Usage: "lens radius of the camera scene",
				},
				cli.Float64Flag{
					Name:  "motion-x",
					Usage: "ceiling motion along x per unit of time",
				},
				cli.Float64Flag{
					Name:  "motion-z",
					Usage: "ceiling motion along z per unit of time",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "synth.zip",
					Usage: "output sample buffer",
				},
			},
			Action: cmd.Synth,
		},
		{
			Name:  "reconstruct",
			Usage: "reconstruct a frame from a sample buffer",
			Description: `
Estimate splat radii for the buffer samples, shrink splats that occlude other
samples and reconstruct every pixel by filtering rays against the splats.`,
			ArgsUsage: "buffer.zip",
			Flags:     append(append([]cli.Flag{}, reconFlags...), outputFlags...),
			Action:    cmd.Reconstruct,
		},
		{
			Name:  "raydump",
			Usage: "filter an external ray dump against a sample buffer",
			Description: `
Filter every ray of the dump in nearest sample mode and accumulate
weight * radiance into its target pixel.`,
			ArgsUsage: "buffer.zip rays.bin",
			Flags:     append(append([]cli.Flag{}, reconFlags...), outputFlags...),
			Action:    cmd.FilterRayDump,
		},
		{
			Name:  "export",
			Usage: "export the prepared splat hierarchy for external filtering",
			Description: `
Prepare splats for a sample buffer and write the flattened hierarchy, a
Hammersley sample table and a query batch plan to a zip archive.`,
			ArgsUsage: "buffer.zip",
			Flags: append(append([]cli.Flag{}, reconFlags...),
				cli.IntFlag{
					Name:  "table-size",
					Value: 1024,
					Usage: "entries in the Hammersley sample table",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "hierarchy.zip",
					Usage: "output archive",
				},
			),
			Action: cmd.Export,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
