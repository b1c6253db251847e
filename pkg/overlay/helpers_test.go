// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"testing"

	"github.com/stretchr/testify/require"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
	"go.githedgehog.com/fabric-overlay/pkg/topology"
	"go.githedgehog.com/fabric-overlay/pkg/util/pointer"
)

func bgpRouter(name, address string, asn uint32, pr string, peers ...string) *topoapi.BGPRouter {
	spec := topoapi.BGPRouterSpec{
		Address:        address,
		ASN:            pointer.To(asn),
		PhysicalRouter: pr,
	}
	for _, peer := range peers {
		spec.Peers = append(spec.Peers, topoapi.BGPPeering{Router: peer})
	}

	return topoapi.NewBGPRouter(name, spec)
}

func physicalRouter(name, bgpRouter string, roles ...topoapi.RoutingBridgingRole) *topoapi.PhysicalRouter {
	return topoapi.NewPhysicalRouter(name, topoapi.PhysicalRouterSpec{
		BGPRouter:            bgpRouter,
		RoutingBridgingRoles: roles,
	})
}

func newData(t *testing.T, objs ...topoapi.Object) *topology.Data {
	t.Helper()

	data, err := topology.New(objs...)
	require.NoError(t, err)

	return data
}

func plan(t *testing.T, data *topology.Data, pr string) *feature.Feature {
	t.Helper()

	p := NewPlannerFor(data, "")
	localPR := data.PhysicalRouter(pr)
	require.NotNil(t, localPR)

	return p.Plan(localPR)
}

func groupNames(f *feature.Feature) []string {
	names := []string{}
	for _, group := range f.BGP {
		names = append(names, group.GetName())
	}

	return names
}

func peerAddresses(group *feature.BGP) []string {
	addrs := []string{}
	for _, peer := range group.Peers {
		addrs = append(addrs, *peer.IPAddress)
	}

	return addrs
}

func findGroup(t *testing.T, f *feature.Feature, name string) *feature.BGP {
	t.Helper()

	for _, group := range f.BGP {
		if group.GetName() == name {
			return group
		}
	}

	require.Failf(t, "group not found", "group %s not found in %v", name, groupNames(f))

	return nil
}
