package cmd

import (
	"github.com/achilleasa/lightfield/log"
	"github.com/urfave/cli"
)

var logger = log.New("lightfield")

func setupLogging(ctx *cli.Context) {
	log.SetLevel(log.LevelFromFlags(ctx.GlobalBool("v"), ctx.GlobalBool("vv")))
}
