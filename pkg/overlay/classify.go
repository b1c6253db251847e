// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"log/slog"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
)

type peerEntry struct {
	router *topoapi.BGPRouter
	attrs  topoapi.SessionAttributes
}

// peerSet keeps peers in the order they were first seen, keyed by BGP router name
type peerSet = orderedmap.OrderedMap[string, peerEntry]

func newPeerSet() *peerSet {
	return orderedmap.New[string, peerEntry]()
}

type peerBuckets struct {
	internal *peerSet
	external *peerSet
	rr       *peerSet
}

// classifyPeers splits the peers of the local router into internal, external and route reflector ones skipping the
// peers already claimed by the DCI groups, invalid ones, the ones without ASN and the ones running on the lean only
// routers, local router is expected to be valid and to have ASN
func (p *Planner) classifyPeers(local *topoapi.BGPRouter, localPR *topoapi.PhysicalRouter, claimed map[string]bool) peerBuckets {
	buckets := peerBuckets{
		internal: newPeerSet(),
		external: newPeerSet(),
		rr:       newPeerSet(),
	}

	localASN, _ := local.EffectiveASN()
	localRR := localPR.HasRole(topoapi.RoleRouteReflector)

	for _, peering := range local.Spec.Peers {
		if claimed[peering.Router] {
			continue
		}

		peer := p.Topology.BGPRouter(peering.Router)
		peerASN, hasASN := peer.EffectiveASN()
		if !peer.IsValid() || !hasASN {
			slog.Debug("Skipping invalid peer", "router", local.Name, "peer", peering.Router, "hasASN", hasASN)

			continue
		}

		peerPR := p.Topology.PhysicalRouter(peer.Spec.PhysicalRouter)
		entry := peerEntry{router: peer, attrs: peering.Attributes}

		switch {
		case peerASN != localASN:
			buckets.external.Set(peer.Name, entry)
		case localRR && peerPR.HasRole(topoapi.RoleRouteReflector):
			buckets.rr.Set(peer.Name, entry)
		case peerPR.IsLeanOnly():
			slog.Debug("Skipping lean only peer", "router", local.Name, "peer", peer.Name)
		default:
			buckets.internal.Set(peer.Name, entry)
		}
	}

	return buckets
}
