// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
)

const (
	dciSuffixExternal = "-e"
	dciSuffixInternal = "-i"
	dciSuffixRR       = "-rr"
)

type dciGroup struct {
	peers        *peerSet
	importPolicy []string
	policies     []*topoapi.RoutingPolicy
}

func (g *dciGroup) mergeImportPolicy(policies []string) {
	for _, policy := range policies {
		if !slices.Contains(g.importPolicy, policy) {
			g.importPolicy = append(g.importPolicy, policy)
		}
	}
}

// mergePolicies only dedups by name within the same group
func (g *dciGroup) mergePolicies(policies []*topoapi.RoutingPolicy) {
	for _, policy := range policies {
		if policy == nil {
			continue
		}

		if lo.ContainsBy(g.policies, func(item *topoapi.RoutingPolicy) bool { return item.Name == policy.Name }) {
			continue
		}

		g.policies = append(g.policies, policy)
	}
}

// buildDCIGroups groups the DCI peers by their fabric and returns the groups in creation order together with the set
// of all DCI peers (even the ones not added to any group) that should be skipped by the regular peer classification
func (p *Planner) buildDCIGroups(local *topoapi.BGPRouter, localPR *topoapi.PhysicalRouter) (*orderedmap.OrderedMap[string, *dciGroup], map[string]bool) {
	groups := orderedmap.New[string, *dciGroup]()
	claimed := map[string]bool{}

	if p.DCI == nil || localPR == nil {
		return groups, claimed
	}

	neighbors, links := p.DCI.DCIPeers(localPR)
	if neighbors == nil {
		return groups, claimed
	}

	localASN, _ := local.EffectiveASN()

	for pair := neighbors.Oldest(); pair != nil; pair = pair.Next() {
		claimed[pair.Key] = true

		peer := p.Topology.BGPRouter(pair.Key)
		peerASN, hasASN := peer.EffectiveASN()
		if !peer.IsValid() || !hasASN || pair.Value == nil {
			slog.Debug("Skipping invalid DCI peer", "router", local.Name, "peer", pair.Key, "hasASN", hasASN)

			continue
		}

		suffix := dciSuffixInternal
		if peerASN != localASN {
			suffix = dciSuffixExternal
		}
		name := p.groupNamePrefix() + pair.Value.Fabric + suffix

		group, exists := groups.Get(name)
		if !exists {
			group = &dciGroup{peers: newPeerSet()}
			groups.Set(name, group)
		}

		for _, dciName := range pair.Value.DCINames {
			link, ok := links[dciName]
			if !ok || link == nil {
				continue
			}

			group.peers.Set(peer.Name, peerEntry{router: peer})
			group.mergePolicies(link.Policies)
			group.mergeImportPolicy(link.ImportPolicies)
		}
	}

	return groups, claimed
}

func isExternalDCIGroup(name string) bool {
	return strings.HasSuffix(name, dciSuffixExternal)
}

func isRRDCIGroup(name string) bool {
	return strings.HasSuffix(name, dciSuffixRR)
}

func routingPolicy(rp *topoapi.RoutingPolicy) *feature.RoutingPolicy {
	out := &feature.RoutingPolicy{
		Name: rp.Name,
	}

	for _, term := range rp.Spec.Terms {
		out.Terms = append(out.Terms, &feature.RoutingPolicyTerm{
			Name:        term.Name,
			Prefixes:    slices.Clone(term.Prefixes),
			Communities: slices.Clone(term.Communities),
			Action:      string(term.Action),
		})
	}

	return out
}
