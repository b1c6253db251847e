// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"github.com/samber/lo"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
)

const FamilyEVPN = "evpn"

var familyAliases = map[string]string{
	"e-vpn": FamilyEVPN,
	"e_vpn": FamilyEVPN,
}

// NormalizeFamily returns the canonical name of the address family
func NormalizeFamily(family string) string {
	if canonical, ok := familyAliases[family]; ok {
		return canonical
	}

	return family
}

// addPeerFamilies only takes the first family attribute into account
func addPeerFamilies(cfg *feature.BGP, attrs *topoapi.BGPSessionAttributes) {
	if attrs == nil || len(attrs.FamilyAttributes) == 0 {
		return
	}

	family := attrs.FamilyAttributes[0].AddressFamily
	if family == "" {
		return
	}

	cfg.AddFamilies(NormalizeFamily(family))
}

func addGroupFamilies(cfg *feature.BGP, spec *topoapi.BGPRouterSpec) {
	if len(spec.AddressFamilies.Family) == 0 {
		return
	}

	cfg.AddFamilies(lo.Map(spec.AddressFamilies.Family, func(family string, _ int) string {
		return NormalizeFamily(family)
	})...)
}
