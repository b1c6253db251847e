// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package v1beta1

import (
	"net/netip"

	"github.com/pkg/errors"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// GlobalSystemConfigName is the name of the only GlobalSystemConfig object taken into account
const GlobalSystemConfigName = "default"

type GlobalSystemConfigSpec struct {
	// IPFabricSubnets is the ordered list of the IP fabric subnets, used as dynamic tunnel destinations
	IPFabricSubnets []Subnet `json:"ipFabricSubnets,omitempty"`
}

type Subnet struct {
	IPPrefix    string `json:"ipPrefix,omitempty"`
	IPPrefixLen int    `json:"ipPrefixLen,omitempty"`
}

// GlobalSystemConfig holds the settings shared by the whole topology, only the one named "default" is used
type GlobalSystemConfig struct {
	kmetav1.TypeMeta   `json:",inline"`
	kmetav1.ObjectMeta `json:"metadata,omitempty"`

	Spec GlobalSystemConfigSpec `json:"spec,omitempty"`
}

var (
	_ Object   = (*GlobalSystemConfig)(nil)
	_ Prunable = (*GlobalSystemConfig)(nil)
)

func NewGlobalSystemConfig(spec GlobalSystemConfigSpec) *GlobalSystemConfig {
	return &GlobalSystemConfig{
		TypeMeta:   typeMeta(KindGlobalSystemConfig),
		ObjectMeta: kmetav1.ObjectMeta{Name: GlobalSystemConfigName},
		Spec:       spec,
	}
}

func (gsc *GlobalSystemConfig) Default() {}

// Prune drops ip fabric subnets with invalid prefix or prefix length
func (gsc *GlobalSystemConfig) Prune() []error {
	var errs []error

	subnets := make([]Subnet, 0, len(gsc.Spec.IPFabricSubnets))
	for idx, subnet := range gsc.Spec.IPFabricSubnets {
		if err := subnet.Validate(); err != nil {
			errs = append(errs, errors.Wrapf(err, "global system config: ip fabric subnet #%d", idx))

			continue
		}

		subnets = append(subnets, subnet)
	}

	if len(errs) > 0 {
		gsc.Spec.IPFabricSubnets = subnets
	}

	return errs
}

func (gsc *GlobalSystemConfig) Validate() error {
	for idx, subnet := range gsc.Spec.IPFabricSubnets {
		if err := subnet.Validate(); err != nil {
			return errors.Wrapf(err, "global system config: ip fabric subnet #%d", idx)
		}
	}

	return nil
}

func (s Subnet) Validate() error {
	addr, err := netip.ParseAddr(s.IPPrefix)
	if err != nil {
		return errors.Wrapf(err, "invalid prefix %q", s.IPPrefix)
	}
	if s.IPPrefixLen < 0 || s.IPPrefixLen > addr.BitLen() {
		return errors.Errorf("invalid prefix len %d", s.IPPrefixLen)
	}

	return nil
}
