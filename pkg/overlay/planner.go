// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

// Package overlay plans the overlay BGP groups and dynamic tunnels of a physical router from a topology snapshot.
package overlay

import (
	"log/slog"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
	"go.githedgehog.com/fabric-overlay/pkg/topology"
)

const (
	FeatureName            = "overlay-bgp"
	DefaultGroupNamePrefix = "_overlay_"
)

// Topology is the read-only access to the snapshot, nil is returned for missing objects
type Topology interface {
	BGPRouter(name string) *topoapi.BGPRouter
	PhysicalRouter(name string) *topoapi.PhysicalRouter
	GlobalSystemConfig() *topoapi.GlobalSystemConfig
}

// DCIResolver returns the BGP routers reachable from the physical router over DCIs and the policies per DCI name
type DCIResolver interface {
	DCIPeers(pr *topoapi.PhysicalRouter) (*orderedmap.OrderedMap[string, *topology.DCINeighbor], map[string]*topology.DCILinkPolicies)
}

var (
	_ Topology    = (*topology.Data)(nil)
	_ DCIResolver = (*topology.Data)(nil)
)

// Planner has no mutable state and could be used concurrently as long as the snapshot isn't modified
type Planner struct {
	Topology        Topology
	DCI             DCIResolver
	GroupNamePrefix string
}

func NewPlanner(topo Topology, dci DCIResolver, groupNamePrefix string) *Planner {
	return &Planner{
		Topology:        topo,
		DCI:             dci,
		GroupNamePrefix: groupNamePrefix,
	}
}

// NewPlannerFor returns planner using the topology snapshot both for the lookups and for the DCI discovery
func NewPlannerFor(data *topology.Data, groupNamePrefix string) *Planner {
	return NewPlanner(data, data, groupNamePrefix)
}

func (p *Planner) groupNamePrefix() string {
	if p.GroupNamePrefix == "" {
		return DefaultGroupNamePrefix
	}

	return p.GroupNamePrefix
}

// Plan builds the overlay BGP feature for the physical router
func (p *Planner) Plan(pr *topoapi.PhysicalRouter) *feature.Feature {
	f := feature.New(FeatureName)
	if pr == nil {
		return f
	}

	local := p.Topology.BGPRouter(pr.Spec.BGPRouter)

	if _, hasASN := local.EffectiveASN(); local.IsValid() && hasASN {
		p.planBGP(f, pr, local)
	} else {
		slog.Debug("Skipping BGP groups, local router is invalid or has no ASN", "router", pr.Name, "bgpRouter", pr.Spec.BGPRouter)
	}

	buildTunnel(f, pr, local, p.Topology.GlobalSystemConfig())

	return f
}

func (p *Planner) planBGP(f *feature.Feature, pr *topoapi.PhysicalRouter, local *topoapi.BGPRouter) {
	dciGroups, claimed := p.buildDCIGroups(local, pr)
	buckets := p.classifyPeers(local, pr, claimed)

	// internal group is always there, even without peers
	f.AddBGP(p.buildGroup(local, buckets.internal, groupOpts{}))

	if buckets.external.Len() > 0 {
		f.AddBGP(p.buildGroup(local, buckets.external, groupOpts{external: true}))
	}

	if buckets.rr.Len() > 0 {
		f.AddBGP(p.buildGroup(local, buckets.rr, groupOpts{rr: true}))
	}

	for pair := dciGroups.Oldest(); pair != nil; pair = pair.Next() {
		f.AddBGP(p.buildDCIGroup(local, pair.Key, pair.Value))
	}
}
