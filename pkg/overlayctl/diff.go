// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlayctl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/pkg/errors"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
	"go.githedgehog.com/fabric-overlay/pkg/overlay"
	"go.githedgehog.com/fabric-overlay/pkg/topology"
)

type DiffOptions struct {
	// Topology is the new snapshot
	Topology string
	// Against is the current snapshot
	Against         string
	Routers         []string
	GroupNamePrefix string
}

// Diff prints unified diff of the features generated from the current and the new snapshot, it returns the number of
// routers with changes
func Diff(ctx context.Context, opts *DiffOptions, w io.Writer) (int, error) {
	desired, err := topology.LoadDataFrom(opts.Topology)
	if err != nil {
		return 0, errors.Wrapf(err, "error loading topology %s", opts.Topology)
	}

	actual, err := topology.LoadDataFrom(opts.Against)
	if err != nil {
		return 0, errors.Wrapf(err, "error loading topology %s", opts.Against)
	}

	names := slices.Clone(opts.Routers)
	if len(names) == 0 {
		for _, data := range []*topology.Data{actual, desired} {
			for _, pr := range data.PhysicalRouters.All() {
				if !slices.Contains(names, pr.Name) {
					names = append(names, pr.Name)
				}
			}
		}
	} else {
		for _, name := range names {
			if actual.PhysicalRouter(name) == nil && desired.PhysicalRouter(name) == nil {
				return 0, errors.Errorf("physical router %s not found", name)
			}
		}
	}
	names = slices.Compact(slices.SortedFunc(slices.Values(names), topology.CompareNames))

	actualFeatures, err := planAll(ctx, overlay.NewPlannerFor(actual, opts.GroupNamePrefix), actual, names)
	if err != nil {
		return 0, err
	}

	desiredFeatures, err := planAll(ctx, overlay.NewPlannerFor(desired, opts.GroupNamePrefix), desired, names)
	if err != nil {
		return 0, err
	}

	changed := 0
	for idx, name := range names {
		diff, err := diffFeatures(actualFeatures[idx], desiredFeatures[idx])
		if err != nil {
			return 0, errors.Wrapf(err, "error diffing %s", name)
		}

		if len(diff) == 0 {
			slog.Debug("No changes", "router", name)

			continue
		}

		changed++
		if _, err := fmt.Fprintf(w, "Router: %s\n%s\n", name, diff); err != nil {
			return 0, errors.Wrapf(err, "error writing diff")
		}
	}

	slog.Info("Diff done", "routers", len(names), "changed", changed)

	return changed, nil
}

func diffFeatures(actual, desired *feature.Feature) ([]byte, error) {
	actualYAML, err := actual.MarshalYAML()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	desiredYAML, err := desired.MarshalYAML()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return feature.TextDiff(actualYAML, desiredYAML) //nolint:wrapcheck
}
