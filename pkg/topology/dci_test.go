// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
)

func dciGW(name, fabric, bgpRouter string) *topoapi.PhysicalRouter {
	return topoapi.NewPhysicalRouter(name, topoapi.PhysicalRouterSpec{
		BGPRouter:            bgpRouter,
		Fabric:               fabric,
		RoutingBridgingRoles: []topoapi.RoutingBridgingRole{topoapi.RoleDCIGateway},
	})
}

func TestDCIPeers(t *testing.T) {
	data, err := New(
		dciGW("pr-a1", "fab-a", "r-a1"),
		dciGW("pr-a2", "fab-a", "r-a2"),
		dciGW("pr-b1", "fab-b", "r-b1"),
		dciGW("pr-c1", "fab-c", "r-c1"),
		dciGW("pr-d1", "fab-d", ""),
		topoapi.NewPhysicalRouter("pr-b2", topoapi.PhysicalRouterSpec{BGPRouter: "r-b2", Fabric: "fab-b"}),
		topoapi.NewRoutingPolicy("rp-1", topoapi.RoutingPolicySpec{}),
		topoapi.NewRoutingPolicy("rp-2", topoapi.RoutingPolicySpec{}),
		topoapi.NewDataCenterInterconnect("dci-ab", topoapi.DataCenterInterconnectSpec{
			Fabrics:        []string{"fab-a", "fab-b"},
			Policies:       map[string][]string{"fab-a": {"rp-2", "rp-missing", "rp-1"}, "fab-b": {"rp-1"}},
			ImportPolicies: map[string][]string{"fab-a": {"imp-1"}},
		}),
		topoapi.NewDataCenterInterconnect("dci-abc", topoapi.DataCenterInterconnectSpec{
			Fabrics: []string{"fab-a", "fab-b", "fab-c", "fab-d"},
		}),
		topoapi.NewDataCenterInterconnect("dci-bc", topoapi.DataCenterInterconnectSpec{
			Fabrics: []string{"fab-b", "fab-c"},
		}),
	)
	require.NoError(t, err)

	neighbors, links := data.DCIPeers(data.PhysicalRouter("pr-a1"))

	keys := []string{}
	for pair := neighbors.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	require.Equal(t, []string{"r-b1", "r-c1"}, keys)

	rb1, _ := neighbors.Get("r-b1")
	require.Equal(t, &DCINeighbor{Fabric: "fab-b", DCINames: []string{"dci-ab", "dci-abc"}}, rb1)
	rc1, _ := neighbors.Get("r-c1")
	require.Equal(t, &DCINeighbor{Fabric: "fab-c", DCINames: []string{"dci-abc"}}, rc1)

	require.Len(t, links, 2)
	require.Contains(t, links, "dci-ab")
	require.Contains(t, links, "dci-abc")
	require.NotContains(t, links, "dci-bc")

	ab := links["dci-ab"]
	require.Len(t, ab.Policies, 2)
	require.Equal(t, "rp-2", ab.Policies[0].Name)
	require.Equal(t, "rp-1", ab.Policies[1].Name)
	require.Equal(t, []string{"imp-1"}, ab.ImportPolicies)
	require.Empty(t, links["dci-abc"].Policies)
}

func TestDCIPeersNotGateway(t *testing.T) {
	data, err := New(
		topoapi.NewPhysicalRouter("pr-a1", topoapi.PhysicalRouterSpec{BGPRouter: "r-a1", Fabric: "fab-a"}),
		dciGW("pr-b1", "fab-b", "r-b1"),
		dciGW("pr-x", "", "r-x"),
		topoapi.NewDataCenterInterconnect("dci-ab", topoapi.DataCenterInterconnectSpec{Fabrics: []string{"fab-a", "fab-b"}}),
	)
	require.NoError(t, err)

	for _, name := range []string{"pr-a1", "pr-x"} {
		neighbors, links := data.DCIPeers(data.PhysicalRouter(name))
		require.Equal(t, 0, neighbors.Len(), name)
		require.Empty(t, links, name)
	}
}
