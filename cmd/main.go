package main

import (
	"fmt"
	"os"

	"github.com/matteo027/remote-file-system/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var logger = utils.GetLogger("main")

func main() {
	app := &cli.App{
		Name:                 "rfsd",
		Usage:                "remote POSIX-like filesystem server",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only warnings and errors"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored log output"},
		},
		Commands: []*cli.Command{
			serveFlags(),
			checkFlags(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setLoggerLevel(ctx *cli.Context) {
	if ctx.Bool("quiet") {
		utils.SetLogLevel(logrus.WarnLevel)
	} else if ctx.Bool("verbose") {
		utils.SetLogLevel(logrus.DebugLevel)
	} else {
		utils.SetLogLevel(logrus.InfoLevel)
	}
	if ctx.Bool("no-color") {
		utils.DisableLogColor()
	}
}
