// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"log/slog"

	"github.com/pkg/errors"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
)

// Data is an in-memory topology snapshot, it's never modified by the planner
type Data struct {
	BGPRouters              *Store[*topoapi.BGPRouter]
	PhysicalRouters         *Store[*topoapi.PhysicalRouter]
	DataCenterInterconnects *Store[*topoapi.DataCenterInterconnect]
	RoutingPolicies         *Store[*topoapi.RoutingPolicy]
	GlobalSystemConfigs     *Store[*topoapi.GlobalSystemConfig]
}

func New(objs ...topoapi.Object) (*Data, error) {
	data := &Data{
		BGPRouters:              NewStore[*topoapi.BGPRouter](),
		PhysicalRouters:         NewStore[*topoapi.PhysicalRouter](),
		DataCenterInterconnects: NewStore[*topoapi.DataCenterInterconnect](),
		RoutingPolicies:         NewStore[*topoapi.RoutingPolicy](),
		GlobalSystemConfigs:     NewStore[*topoapi.GlobalSystemConfig](),
	}

	return data, data.Add(objs...)
}

// Add adds objects to the snapshot, objects failing validation are skipped with a warning while missing names and
// duplicates are errors
func (d *Data) Add(objs ...topoapi.Object) error {
	return d.addOrUpdate(false, objs...)
}

func (d *Data) Update(objs ...topoapi.Object) error {
	return d.addOrUpdate(true, objs...)
}

func (d *Data) addOrUpdate(update bool, objs ...topoapi.Object) error {
	for _, obj := range objs {
		obj.Default()

		if prunable, ok := obj.(topoapi.Prunable); ok {
			for _, err := range prunable.Prune() {
				slog.Warn("Dropping invalid entry", "name", obj.GetName(), "err", err)
			}
		}

		// invalid objects are skipped, the rest of the topology is still loaded
		if err := obj.Validate(); err != nil {
			slog.Warn("Skipping invalid object", "name", obj.GetName(), "err", err)

			continue
		}

		var err error
		switch typed := obj.(type) {
		case *topoapi.BGPRouter:
			err = d.BGPRouters.Add(update, typed)
		case *topoapi.PhysicalRouter:
			err = d.PhysicalRouters.Add(update, typed)
		case *topoapi.DataCenterInterconnect:
			err = d.DataCenterInterconnects.Add(update, typed)
		case *topoapi.RoutingPolicy:
			err = d.RoutingPolicies.Add(update, typed)
		case *topoapi.GlobalSystemConfig:
			err = d.GlobalSystemConfigs.Add(update, typed)
		default:
			return errors.Errorf("unrecognized obj type %T", obj)
		}

		if err != nil {
			return errors.Wrap(err, "error adding object")
		}
	}

	return nil
}

func (d *Data) BGPRouter(name string) *topoapi.BGPRouter {
	if name == "" {
		return nil
	}

	return d.BGPRouters.Get(name)
}

func (d *Data) PhysicalRouter(name string) *topoapi.PhysicalRouter {
	if name == "" {
		return nil
	}

	return d.PhysicalRouters.Get(name)
}

func (d *Data) GlobalSystemConfig() *topoapi.GlobalSystemConfig {
	return d.GlobalSystemConfigs.Get(topoapi.GlobalSystemConfigName)
}
