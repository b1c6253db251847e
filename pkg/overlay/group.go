// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"fmt"

	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
)

type groupOpts struct {
	external bool
	rr       bool
	// name overrides the generated one if set
	name string
}

// GroupName returns the name of the BGP group for the ASN, external wins over route reflector
func GroupName(prefix string, asn uint32, external, rr bool) string {
	name := fmt.Sprintf("%sasn-%d", prefix, asn)
	if external {
		name += "-external"
	} else if rr {
		name += "-rr"
	}

	return name
}

// buildGroup expects local router to be valid and to have ASN
func (p *Planner) buildGroup(local *topoapi.BGPRouter, peers *peerSet, opts groupOpts) *feature.BGP {
	asn, _ := local.EffectiveASN()

	cfg := feature.NewBGP()

	if local.Spec.ClusterID != "" && !opts.rr {
		cfg.SetClusterID(local.Spec.ClusterID)
	}

	if opts.name != "" {
		cfg.SetName(opts.name)
	} else {
		cfg.SetName(GroupName(p.groupNamePrefix(), asn, opts.external, opts.rr))
	}

	if opts.external {
		cfg.SetType(feature.BGPTypeExternal)
	} else {
		cfg.SetType(feature.BGPTypeInternal)
	}

	cfg.SetIPAddress(local.Spec.Address)
	cfg.SetAutonomousSystem(asn)

	addGroupFamilies(cfg, &local.Spec)
	addAuthConfig(cfg, local.Spec.AuthData)
	if local.Spec.HoldTime != nil {
		cfg.SetHoldTime(*local.Spec.HoldTime)
	}

	if peers != nil {
		for pair := peers.Oldest(); pair != nil; pair = pair.Next() {
			cfg.AddPeers(buildPeer(pair.Value.router, pair.Value.attrs))
		}
	}

	return cfg
}

func (p *Planner) buildDCIGroup(local *topoapi.BGPRouter, name string, group *dciGroup) *feature.BGP {
	cfg := p.buildGroup(local, group.peers, groupOpts{
		external: isExternalDCIGroup(name),
		rr:       isRRDCIGroup(name),
		name:     name,
	})

	if len(group.importPolicy) > 0 {
		cfg.SetImportPolicy(group.importPolicy)
	}

	if len(group.policies) > 0 {
		policies := make([]*feature.RoutingPolicy, 0, len(group.policies))
		for _, policy := range group.policies {
			policies = append(policies, routingPolicy(policy))
		}
		cfg.SetPolicies(policies)
	}

	return cfg
}
