// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"log/slog"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
)

// DCINeighbor is a BGP router reachable over one or more DCIs
type DCINeighbor struct {
	// Fabric is the fabric of the neighbor, DCI groups are named after it
	Fabric string
	// DCINames is the names of the DCIs the neighbor is reachable over, in the discovery order
	DCINames []string
}

// DCILinkPolicies is the policies of the local fabric for a single DCI
type DCILinkPolicies struct {
	Policies       []*topoapi.RoutingPolicy
	ImportPolicies []string
}

// DCIPeers returns the BGP routers (by name, in the stable discovery order) reachable from the physical router over
// the DCIs together with the local fabric policies for each DCI (by name). Only DCI gateways take part in DCIs.
func (d *Data) DCIPeers(pr *topoapi.PhysicalRouter) (*orderedmap.OrderedMap[string, *DCINeighbor], map[string]*DCILinkPolicies) {
	neighbors := orderedmap.New[string, *DCINeighbor]()
	links := map[string]*DCILinkPolicies{}

	if !pr.HasRole(topoapi.RoleDCIGateway) || pr.Spec.Fabric == "" {
		return neighbors, links
	}

	fabric := pr.Spec.Fabric
	peerPRs := d.PhysicalRouters.All()

	for _, dci := range d.DataCenterInterconnects.All() {
		if !dci.HasFabric(fabric) {
			continue
		}

		link := &DCILinkPolicies{
			ImportPolicies: slices.Clone(dci.Spec.ImportPolicies[fabric]),
		}
		for _, name := range dci.Spec.Policies[fabric] {
			policy := d.RoutingPolicies.Get(name)
			if policy == nil {
				slog.Debug("Skipping missing DCI routing policy", "dci", dci.Name, "policy", name)

				continue
			}

			link.Policies = append(link.Policies, policy)
		}
		links[dci.Name] = link

		for _, peerPR := range peerPRs {
			if peerPR.Name == pr.Name || peerPR.Spec.Fabric == fabric || !dci.HasFabric(peerPR.Spec.Fabric) {
				continue
			}
			if !peerPR.HasRole(topoapi.RoleDCIGateway) || peerPR.Spec.BGPRouter == "" {
				continue
			}

			neighbor, exists := neighbors.Get(peerPR.Spec.BGPRouter)
			if !exists {
				neighbor = &DCINeighbor{Fabric: peerPR.Spec.Fabric}
				neighbors.Set(peerPR.Spec.BGPRouter, neighbor)
			}
			if !slices.Contains(neighbor.DCINames, dci.Name) {
				neighbor.DCINames = append(neighbor.DCINames, dci.Name)
			}
		}
	}

	return neighbors, links
}
