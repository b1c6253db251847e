// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
	"go.githedgehog.com/fabric-overlay/pkg/topology"
	"go.githedgehog.com/fabric-overlay/pkg/util/pointer"
)

func gatewayPR(name, bgpRouter, fabric string) *topoapi.PhysicalRouter {
	pr := physicalRouter(name, bgpRouter, topoapi.RoleDCIGateway)
	pr.Spec.Fabric = fabric

	return pr
}

func TestPlanScenarios(t *testing.T) {
	for _, tt := range []struct {
		name   string
		objs   []topoapi.Object
		groups []string
		peers  map[string][]string
	}{
		{
			name: "external-peer",
			objs: []topoapi.Object{
				bgpRouter("r1", "10.0.0.1", 100, "pr1", "r2"),
				physicalRouter("pr1", "r1", topoapi.RoleCRBGateway),
				bgpRouter("r2", "10.0.0.2", 200, "pr2"),
				physicalRouter("pr2", "r2", topoapi.RoleCRBGateway),
			},
			groups: []string{"_overlay_asn-100", "_overlay_asn-100-external"},
			peers: map[string][]string{
				"_overlay_asn-100":          {},
				"_overlay_asn-100-external": {"10.0.0.2"},
			},
		},
		{
			name: "route-reflectors",
			objs: []topoapi.Object{
				bgpRouter("r1", "10.0.0.1", 100, "pr1", "r2"),
				physicalRouter("pr1", "r1", topoapi.RoleRouteReflector),
				bgpRouter("r2", "10.0.0.2", 100, "pr2"),
				physicalRouter("pr2", "r2", topoapi.RoleRouteReflector),
			},
			groups: []string{"_overlay_asn-100", "_overlay_asn-100-rr"},
			peers: map[string][]string{
				"_overlay_asn-100":    {},
				"_overlay_asn-100-rr": {"10.0.0.2"},
			},
		},
		{
			name: "lean-peer",
			objs: []topoapi.Object{
				bgpRouter("r1", "10.0.0.1", 100, "pr1", "r2"),
				physicalRouter("pr1", "r1", topoapi.RoleCRBGateway),
				bgpRouter("r2", "10.0.0.2", 100, "pr2"),
				physicalRouter("pr2", "r2", topoapi.RoleLean),
			},
			groups: []string{"_overlay_asn-100"},
			peers: map[string][]string{
				"_overlay_asn-100": {},
			},
		},
		{
			name: "no-peers",
			objs: []topoapi.Object{
				bgpRouter("r1", "10.0.0.1", 100, "pr1"),
				physicalRouter("pr1", "r1"),
			},
			groups: []string{"_overlay_asn-100"},
			peers: map[string][]string{
				"_overlay_asn-100": {},
			},
		},
		{
			name: "all-buckets",
			objs: []topoapi.Object{
				bgpRouter("r1", "10.0.0.1", 100, "pr1", "r5", "r4", "r3", "r2"),
				physicalRouter("pr1", "r1", topoapi.RoleRouteReflector),
				bgpRouter("r2", "10.0.0.2", 100, ""),
				bgpRouter("r3", "10.0.0.3", 300, ""),
				bgpRouter("r4", "10.0.0.4", 100, "pr4"),
				physicalRouter("pr4", "r4", topoapi.RoleRouteReflector),
				bgpRouter("r5", "10.0.0.5", 100, ""),
			},
			groups: []string{"_overlay_asn-100", "_overlay_asn-100-external", "_overlay_asn-100-rr"},
			peers: map[string][]string{
				"_overlay_asn-100":          {"10.0.0.5", "10.0.0.2"},
				"_overlay_asn-100-external": {"10.0.0.3"},
				"_overlay_asn-100-rr":       {"10.0.0.4"},
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := plan(t, newData(t, tt.objs...), "pr1")

			require.Equal(t, FeatureName, f.Name)
			require.Equal(t, tt.groups, groupNames(f))
			for name, addrs := range tt.peers {
				require.Equal(t, addrs, peerAddresses(findGroup(t, f, name)), "group %s", name)
			}
		})
	}
}

func TestPlanExternalPeerDetails(t *testing.T) {
	f := plan(t, newData(t,
		bgpRouter("r1", "10.0.0.1", 100, "pr1", "r2"),
		physicalRouter("pr1", "r1"),
		bgpRouter("r2", "10.0.0.2", 200, ""),
	), "pr1")

	external := findGroup(t, f, "_overlay_asn-100-external")
	require.Equal(t, feature.BGPTypeExternal, *external.Type)
	require.Equal(t, "10.0.0.1", *external.IPAddress)
	require.Equal(t, uint32(100), *external.AutonomousSystem)
	require.Len(t, external.Peers, 1)
	require.Equal(t, uint32(200), *external.Peers[0].AutonomousSystem)
}

func TestPlanPeerFamily(t *testing.T) {
	local := bgpRouter("r1", "10.0.0.1", 100, "pr1")
	local.Spec.Peers = []topoapi.BGPPeering{{
		Router: "r2",
		Attributes: session(
			topoapi.BGPSessionAttributes{BGPRouter: "r1", FamilyAttributes: []topoapi.FamilyAttribute{{AddressFamily: "inet-vpn"}}},
			topoapi.BGPSessionAttributes{FamilyAttributes: []topoapi.FamilyAttribute{{AddressFamily: "e-vpn"}, {AddressFamily: "route-target"}}},
		),
	}}

	f := plan(t, newData(t,
		local,
		physicalRouter("pr1", "r1"),
		bgpRouter("r2", "10.0.0.2", 100, ""),
	), "pr1")

	internal := findGroup(t, f, "_overlay_asn-100")
	require.Len(t, internal.Peers, 1)
	require.Equal(t, []string{"evpn"}, internal.Peers[0].Families)
}

func TestPlanInvalidLocal(t *testing.T) {
	gsc := topoapi.NewGlobalSystemConfig(topoapi.GlobalSystemConfigSpec{
		IPFabricSubnets: []topoapi.Subnet{{IPPrefix: "192.168.0.0", IPPrefixLen: 16}},
	})

	t.Run("no-address-with-dataplane-ip", func(t *testing.T) {
		pr := physicalRouter("pr1", "r1")
		pr.Spec.DataplaneIP = "10.9.9.9"

		f := plan(t, newData(t, bgpRouter("r1", "", 100, "pr1", "r2"), pr, bgpRouter("r2", "10.0.0.2", 200, ""), gsc), "pr1")
		require.Empty(t, f.BGP)
		require.Equal(t, pointer.To("10.9.9.9"), f.TunnelIP)
		require.Equal(t, []*feature.Subnet{{Prefix: "192.168.0.0", PrefixLen: 16}}, f.TunnelDestinationNetworks)
	})

	t.Run("no-asn", func(t *testing.T) {
		f := plan(t, newData(t,
			topoapi.NewBGPRouter("r1", topoapi.BGPRouterSpec{
				Address:        "10.0.0.1",
				PhysicalRouter: "pr1",
				Peers:          []topoapi.BGPPeering{{Router: "r2"}},
			}),
			physicalRouter("pr1", "r1"),
			topoapi.NewBGPRouter("r2", topoapi.BGPRouterSpec{Address: "10.0.0.2"}),
			gsc,
		), "pr1")
		require.Empty(t, f.BGP)
		require.Equal(t, pointer.To("10.0.0.1"), f.TunnelIP)
		require.Len(t, f.TunnelDestinationNetworks, 1)
	})

	t.Run("missing-router", func(t *testing.T) {
		f := plan(t, newData(t, physicalRouter("pr1", "r1"), gsc), "pr1")
		require.Empty(t, f.BGP)
		require.Nil(t, f.TunnelIP)
		require.Nil(t, f.TunnelDestinationNetworks)
	})

	t.Run("nil-physical-router", func(t *testing.T) {
		f := NewPlannerFor(newData(t), "").Plan(nil)
		require.Equal(t, feature.New(FeatureName), f)
	})
}

func TestPlanPeerWithoutASN(t *testing.T) {
	f := plan(t, newData(t,
		bgpRouter("r1", "10.0.0.1", 100, "pr1", "r2", "r3"),
		physicalRouter("pr1", "r1"),
		topoapi.NewBGPRouter("r2", topoapi.BGPRouterSpec{Address: "10.0.0.2"}),
		bgpRouter("r3", "10.0.0.3", 100, ""),
	), "pr1")

	require.Equal(t, []string{"_overlay_asn-100"}, groupNames(f))
	require.Equal(t, []string{"10.0.0.3"}, peerAddresses(f.BGP[0]))
}

const snapshotWithBrokenObjects = `
apiVersion: topology.githedgehog.com/v1beta1
kind: BGPRouter
metadata:
  name: r1
spec:
  address: 10.0.0.1
  asn: 100
  physicalRouter: pr1
  peers:
    - router: r2
    - router: ""
---
apiVersion: topology.githedgehog.com/v1beta1
kind: BGPRouter
metadata:
  name: r2
spec:
  address: 10.0.0.2
  asn: 200
---
apiVersion: topology.githedgehog.com/v1beta1
kind: PhysicalRouter
metadata:
  name: pr1
spec:
  bgpRouter: r1
---
apiVersion: topology.githedgehog.com/v1beta1
kind: DataCenterInterconnect
metadata:
  name: dci-broken
spec:
  fabrics: [fab-a]
`

func TestPlanSnapshotWithBrokenObjects(t *testing.T) {
	data := newData(t)
	require.NoError(t, topology.Load(strings.NewReader(snapshotWithBrokenObjects), data))

	f := plan(t, data, "pr1")
	require.Equal(t, []string{"_overlay_asn-100", "_overlay_asn-100-external"}, groupNames(f))
	require.Equal(t, []string{"10.0.0.2"}, peerAddresses(findGroup(t, f, "_overlay_asn-100-external")))
}

func TestPlanTunnel(t *testing.T) {
	f := plan(t, newData(t,
		bgpRouter("r1", "10.1.1.1", 100, "pr1"),
		physicalRouter("pr1", "r1"),
		topoapi.NewGlobalSystemConfig(topoapi.GlobalSystemConfigSpec{
			IPFabricSubnets: []topoapi.Subnet{{IPPrefix: "192.168.0.0", IPPrefixLen: 16}},
		}),
	), "pr1")

	require.Equal(t, pointer.To("10.1.1.1"), f.TunnelIP)
	require.Equal(t, []*feature.Subnet{{Prefix: "192.168.0.0", PrefixLen: 16}}, f.TunnelDestinationNetworks)
}

func TestPlanDCI(t *testing.T) {
	local := bgpRouter("r-a1", "10.0.0.1", 100, "pr-a1", "r-a2", "r-b1", "r-c1")

	data := newData(t,
		local,
		gatewayPR("pr-a1", "r-a1", "fab-a"),
		bgpRouter("r-a2", "10.0.0.2", 100, ""),
		bgpRouter("r-b1", "10.1.0.1", 200, "pr-b1"),
		gatewayPR("pr-b1", "r-b1", "fab-b"),
		bgpRouter("r-c1", "10.2.0.1", 100, "pr-c1"),
		gatewayPR("pr-c1", "r-c1", "fab-c"),
		bgpRouter("r-d1", "10.3.0.1", 400, "pr-d1"),
		gatewayPR("pr-d1", "r-d1", "fab-d"),
		topoapi.NewDataCenterInterconnect("dci-ab", topoapi.DataCenterInterconnectSpec{
			Fabrics:        []string{"fab-a", "fab-b"},
			Policies:       map[string][]string{"fab-a": {"rp-1", "rp-missing"}, "fab-b": {"rp-2"}},
			ImportPolicies: map[string][]string{"fab-a": {"imp-1"}},
		}),
		topoapi.NewDataCenterInterconnect("dci-ac", topoapi.DataCenterInterconnectSpec{
			Fabrics: []string{"fab-a", "fab-c"},
		}),
		topoapi.NewDataCenterInterconnect("dci-bd", topoapi.DataCenterInterconnectSpec{
			Fabrics: []string{"fab-b", "fab-d"},
		}),
		rp("rp-1"),
		rp("rp-2"),
	)

	f := plan(t, data, "pr-a1")
	require.Equal(t, []string{"_overlay_asn-100", "_overlay_fab-b-e", "_overlay_fab-c-i"}, groupNames(f))
	require.Equal(t, []string{"10.0.0.2"}, peerAddresses(findGroup(t, f, "_overlay_asn-100")))

	fabB := findGroup(t, f, "_overlay_fab-b-e")
	require.Equal(t, feature.BGPTypeExternal, *fabB.Type)
	require.Equal(t, []string{"10.1.0.1"}, peerAddresses(fabB))
	require.Equal(t, []string{"imp-1"}, fabB.ImportPolicy)
	require.Len(t, fabB.Policies, 1)
	require.Equal(t, "rp-1", fabB.Policies[0].Name)

	fabC := findGroup(t, f, "_overlay_fab-c-i")
	require.Equal(t, feature.BGPTypeInternal, *fabC.Type)
	require.Equal(t, []string{"10.2.0.1"}, peerAddresses(fabC))
	require.Nil(t, fabC.ImportPolicy)
	require.Nil(t, fabC.Policies)

	// non-gateway routers don't take part in DCIs
	data.PhysicalRouter("pr-a1").Spec.RoutingBridgingRoles = []topoapi.RoutingBridgingRole{topoapi.RoleCRBGateway}
	f = plan(t, data, "pr-a1")
	require.Equal(t, []string{"_overlay_asn-100", "_overlay_asn-100-external"}, groupNames(f))
	require.Equal(t, []string{"10.0.0.2", "10.2.0.1"}, peerAddresses(findGroup(t, f, "_overlay_asn-100")))
}

func TestPlanCustomPrefix(t *testing.T) {
	data := newData(t,
		bgpRouter("r1", "10.0.0.1", 100, "pr1", "r2"),
		physicalRouter("pr1", "r1"),
		bgpRouter("r2", "10.0.0.2", 200, ""),
	)

	f := NewPlannerFor(data, "dc1_").Plan(data.PhysicalRouter("pr1"))
	require.Equal(t, []string{"dc1_asn-100", "dc1_asn-100-external"}, groupNames(f))
}

func TestPlanDeterministic(t *testing.T) {
	data := newData(t,
		bgpRouter("r1", "10.0.0.1", 100, "pr1", "r5", "r4", "r3", "r2"),
		physicalRouter("pr1", "r1", topoapi.RoleRouteReflector),
		bgpRouter("r2", "10.0.0.2", 100, ""),
		bgpRouter("r3", "10.0.0.3", 300, ""),
		bgpRouter("r4", "10.0.0.4", 100, "pr4"),
		physicalRouter("pr4", "r4", topoapi.RoleRouteReflector),
		bgpRouter("r5", "10.0.0.5", 200, ""),
	)

	first := plan(t, data, "pr1")
	for range 10 {
		require.Equal(t, first, plan(t, data, "pr1"))
	}

	firstYAML, err := first.MarshalYAML()
	require.NoError(t, err)
	nextYAML, err := plan(t, data, "pr1").MarshalYAML()
	require.NoError(t, err)
	require.Equal(t, string(firstYAML), string(nextYAML))
}

func TestPlanConcurrent(t *testing.T) {
	data := newData(t,
		bgpRouter("r1", "10.0.0.1", 100, "pr1", "r2", "r3"),
		physicalRouter("pr1", "r1"),
		bgpRouter("r2", "10.0.0.2", 100, "pr2", "r1"),
		physicalRouter("pr2", "r2"),
		bgpRouter("r3", "10.0.0.3", 200, "pr3", "r1"),
		physicalRouter("pr3", "r3"),
	)
	p := NewPlannerFor(data, "")

	prs := []string{"pr1", "pr2", "pr3"}
	expected := map[string]*feature.Feature{}
	for _, name := range prs {
		expected[name] = p.Plan(data.PhysicalRouter(name))
	}

	const workers = 16
	results := make([]*feature.Feature, workers)

	wg := sync.WaitGroup{}
	for idx := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[idx] = p.Plan(data.PhysicalRouter(prs[idx%len(prs)]))
		}()
	}
	wg.Wait()

	for idx, result := range results {
		require.Equal(t, expected[prs[idx%len(prs)]], result)
	}
}
