// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

// Package overlayctl implements the overlay-bgp CLI commands on top of the topology snapshots.
package overlayctl

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"slices"

	"github.com/pkg/errors"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
	"go.githedgehog.com/fabric-overlay/pkg/overlay"
	"go.githedgehog.com/fabric-overlay/pkg/render"
	"go.githedgehog.com/fabric-overlay/pkg/topology"
	"golang.org/x/sync/errgroup"
)

type GenerateOptions struct {
	Topology        string
	Routers         []string
	Output          render.OutputType
	GroupNamePrefix string
	ShowSecrets     bool
	NoColor         bool
}

func Generate(ctx context.Context, opts *GenerateOptions, w io.Writer) error {
	data, err := topology.LoadDataFrom(opts.Topology)
	if err != nil {
		return errors.Wrapf(err, "error loading topology %s", opts.Topology)
	}

	planner := overlay.NewPlannerFor(data, opts.GroupNamePrefix)

	names, err := selectRouters(data, opts.Routers)
	if err != nil {
		return err
	}

	features, err := planAll(ctx, planner, data, names)
	if err != nil {
		return err
	}

	out := (&render.Routers{Routers: []*render.Router{}}).WithNoColor(opts.NoColor)
	for idx, name := range names {
		out.Add(render.NewRouter(name, features[idx], opts.ShowSecrets))
	}

	output := opts.Output
	if output == render.OutputTypeUndefined {
		output = render.OutputTypeText
	}

	return errors.Wrapf(render.Render(output, w, out), "error rendering features")
}

// selectRouters returns the requested physical routers (or all of them) in the natural order
func selectRouters(data *topology.Data, routers []string) ([]string, error) {
	names := []string{}

	if len(routers) == 0 {
		for _, pr := range data.PhysicalRouters.All() {
			names = append(names, pr.Name)
		}
	} else {
		for _, name := range routers {
			if data.PhysicalRouter(name) == nil {
				return nil, errors.Errorf("physical router %s not found", name)
			}
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}

	slices.SortFunc(names, topology.CompareNames)

	return names, nil
}

// planAll plans physical routers concurrently, result is in the same order as names
func planAll(ctx context.Context, planner *overlay.Planner, data *topology.Data, names []string) ([]*feature.Feature, error) {
	features := make([]*feature.Feature, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for idx, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, "planning %s", name)
			}

			features[idx] = planner.Plan(data.PhysicalRouter(name))
			slog.Debug("Planned", "router", name, "groups", len(features[idx].BGP))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return features, nil
}
