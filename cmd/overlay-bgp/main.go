// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.githedgehog.com/fabric-overlay/pkg/config"
	"go.githedgehog.com/fabric-overlay/pkg/overlayctl"
	"go.githedgehog.com/fabric-overlay/pkg/render"
	"go.githedgehog.com/fabric-overlay/pkg/server"
	"go.githedgehog.com/fabric-overlay/pkg/util/logutil"
	"go.githedgehog.com/fabric-overlay/pkg/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var verbose bool
	verboseFlag := &cli.BoolFlag{
		Name:        "verbose",
		Aliases:     []string{"v"},
		Usage:       "verbose output (includes debug)",
		Destination: &verbose,
	}

	var topologyPath string
	topologyFlag := &cli.StringFlag{
		Name:        "topology",
		Aliases:     []string{"t"},
		Usage:       "topology snapshot: yaml file, directory with yaml files or - for stdin",
		Required:    true,
		Destination: &topologyPath,
	}

	routersFlag := &cli.StringSliceFlag{
		Name:    "router",
		Aliases: []string{"r"},
		Usage:   "physical router name (could be repeated), all routers if not set",
	}

	var groupPrefix string
	groupPrefixFlag := &cli.StringFlag{
		Name:        "group-prefix",
		Usage:       "BGP group name prefix",
		Value:       "_overlay_",
		Destination: &groupPrefix,
	}

	outputTypes := []string{}
	for _, t := range render.OutputTypes {
		outputTypes = append(outputTypes, string(t))
	}

	var output string
	outputFlag := &cli.StringFlag{
		Name:        "output",
		Aliases:     []string{"o"},
		Usage:       "output format, one of " + strings.Join(outputTypes, ", "),
		Value:       string(render.OutputTypeText),
		Destination: &output,
	}

	before := func(_ *cli.Context) error {
		logutil.Setup(logutil.Options{Verbose: verbose})

		return nil
	}

	cli.VersionFlag.(*cli.BoolFlag).Aliases = []string{"V"}
	app := &cli.App{
		Name:                   "overlay-bgp",
		Usage:                  "Overlay BGP configuration generator",
		Version:                version.Version,
		Suggest:                true,
		UseShortOptionHandling: true,
		EnableBashCompletion:   true,
		Flags: []cli.Flag{
			verboseFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate overlay BGP config for physical routers",
				Flags: []cli.Flag{
					verboseFlag,
					topologyFlag,
					routersFlag,
					outputFlag,
					groupPrefixFlag,
					&cli.BoolFlag{
						Name:  "show-secrets",
						Usage: "don't mask authentication keys",
					},
				},
				Before: before,
				Action: func(cCtx *cli.Context) error {
					outputType, err := render.ParseOutputType(output)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}

					return errors.Wrapf(overlayctl.Generate(ctx, &overlayctl.GenerateOptions{
						Topology:        topologyPath,
						Routers:         cCtx.StringSlice("router"),
						Output:          outputType,
						GroupNamePrefix: groupPrefix,
						ShowSecrets:     cCtx.Bool("show-secrets"),
					}, os.Stdout), "failed to generate")
				},
			},
			{
				Name:  "diff",
				Usage: "Show changes of the generated config between two topology snapshots",
				Flags: []cli.Flag{
					verboseFlag,
					topologyFlag,
					&cli.StringFlag{
						Name:     "against",
						Aliases:  []string{"a"},
						Usage:    "current topology snapshot to compare with",
						Required: true,
					},
					routersFlag,
					groupPrefixFlag,
					&cli.BoolFlag{
						Name:  "exit-code",
						Usage: "exit with code 2 if there are changes",
					},
				},
				Before: before,
				Action: func(cCtx *cli.Context) error {
					changed, err := overlayctl.Diff(ctx, &overlayctl.DiffOptions{
						Topology:        topologyPath,
						Against:         cCtx.String("against"),
						Routers:         cCtx.StringSlice("router"),
						GroupNamePrefix: groupPrefix,
					}, os.Stdout)
					if err != nil {
						return errors.Wrapf(err, "failed to diff")
					}

					if changed > 0 && cCtx.Bool("exit-code") {
						return cli.Exit(fmt.Sprintf("%d routers changed", changed), 2)
					}

					return nil
				},
			},
			{
				Name:  "serve",
				Usage: "Serve generated config over HTTP",
				Flags: []cli.Flag{
					verboseFlag,
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "service config file or directory with " + config.DefaultFile,
						Required: true,
					},
				},
				Before: before,
				Action: func(cCtx *cli.Context) error {
					cfg, err := config.Load(cCtx.String("config"))
					if err != nil {
						return errors.Wrapf(err, "failed to load config")
					}

					logCloser := logutil.Setup(logutil.Options{
						Verbose: verbose,
						File:    cfg.LogFile,
						Webhook: cfg.LogWebhook,
					})
					defer logCloser.Close()

					slog.Info("Starting", "version", version.Version)

					return errors.Wrapf(server.Run(ctx, cfg), "failed to serve")
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Failed", "err", err.Error())
		os.Exit(1) //nolint:gocritic
	}
}
