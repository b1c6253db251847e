// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package v1beta1

import (
	"slices"

	"github.com/pkg/errors"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DataCenterInterconnectSpec defines the fabrics connected by the DCI and the policies applied per fabric
type DataCenterInterconnectSpec struct {
	// Fabrics is the list of member fabric names
	Fabrics []string `json:"fabrics,omitempty"`
	// Policies is the ordered list of RoutingPolicy names per fabric
	Policies map[string][]string `json:"policies,omitempty"`
	// ImportPolicies is the ordered list of import policy names per fabric
	ImportPolicies map[string][]string `json:"importPolicies,omitempty"`
}

// DataCenterInterconnect connects two or more fabrics
type DataCenterInterconnect struct {
	kmetav1.TypeMeta   `json:",inline"`
	kmetav1.ObjectMeta `json:"metadata,omitempty"`

	Spec DataCenterInterconnectSpec `json:"spec,omitempty"`
}

var _ Object = (*DataCenterInterconnect)(nil)

func NewDataCenterInterconnect(name string, spec DataCenterInterconnectSpec) *DataCenterInterconnect {
	return &DataCenterInterconnect{
		TypeMeta:   typeMeta(KindDataCenterInterconnect),
		ObjectMeta: kmetav1.ObjectMeta{Name: name},
		Spec:       spec,
	}
}

func (dci *DataCenterInterconnect) HasFabric(fabric string) bool {
	return fabric != "" && slices.Contains(dci.Spec.Fabrics, fabric)
}

func (dci *DataCenterInterconnect) Default() {}

func (dci *DataCenterInterconnect) Validate() error {
	if len(dci.Spec.Fabrics) < 2 {
		return errors.Errorf("dci %s: at least 2 fabrics required", dci.Name)
	}

	for fabric := range dci.Spec.Policies {
		if !slices.Contains(dci.Spec.Fabrics, fabric) {
			return errors.Errorf("dci %s: policies for unknown fabric %s", dci.Name, fabric)
		}
	}
	for fabric := range dci.Spec.ImportPolicies {
		if !slices.Contains(dci.Spec.Fabrics, fabric) {
			return errors.Errorf("dci %s: import policies for unknown fabric %s", dci.Name, fabric)
		}
	}

	return nil
}

type RoutingPolicyAction string

const (
	RoutingPolicyActionAccept RoutingPolicyAction = "accept"
	RoutingPolicyActionReject RoutingPolicyAction = "reject"
)

var RoutingPolicyActions = []RoutingPolicyAction{
	RoutingPolicyActionAccept,
	RoutingPolicyActionReject,
}

type RoutingPolicySpec struct {
	Terms []RoutingPolicyTerm `json:"terms,omitempty"`
}

type RoutingPolicyTerm struct {
	Name        string              `json:"name,omitempty"`
	Prefixes    []string            `json:"prefixes,omitempty"`
	Communities []string            `json:"communities,omitempty"`
	Action      RoutingPolicyAction `json:"action,omitempty"`
}

// RoutingPolicy is referenced by name from the DCI policies
type RoutingPolicy struct {
	kmetav1.TypeMeta   `json:",inline"`
	kmetav1.ObjectMeta `json:"metadata,omitempty"`

	Spec RoutingPolicySpec `json:"spec,omitempty"`
}

var _ Object = (*RoutingPolicy)(nil)

func NewRoutingPolicy(name string, spec RoutingPolicySpec) *RoutingPolicy {
	return &RoutingPolicy{
		TypeMeta:   typeMeta(KindRoutingPolicy),
		ObjectMeta: kmetav1.ObjectMeta{Name: name},
		Spec:       spec,
	}
}

func (rp *RoutingPolicy) Default() {
	for idx := range rp.Spec.Terms {
		if rp.Spec.Terms[idx].Action == "" {
			rp.Spec.Terms[idx].Action = RoutingPolicyActionAccept
		}
	}
}

func (rp *RoutingPolicy) Validate() error {
	for idx, term := range rp.Spec.Terms {
		if !slices.Contains(RoutingPolicyActions, term.Action) {
			return errors.Errorf("routing policy %s: term #%d: invalid action %q", rp.Name, idx, term.Action)
		}
	}

	return nil
}
