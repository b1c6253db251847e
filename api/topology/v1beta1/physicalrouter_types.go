// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package v1beta1

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// RoutingBridgingRole is the overlay role of the physical router
type RoutingBridgingRole string

const (
	RoleRouteReflector RoutingBridgingRole = "Route-Reflector"
	RoleDCIGateway     RoutingBridgingRole = "DCI-Gateway"
	RoleCRBGateway     RoutingBridgingRole = "CRB-Gateway"
	RoleERBUCastGW     RoutingBridgingRole = "ERB-UCAST-Gateway"
	RoleLean           RoutingBridgingRole = "lean"
	RoleNull           RoutingBridgingRole = "null"
)

// PhysicalRouterSpec defines the overlay related parameters of the physical router
type PhysicalRouterSpec struct {
	// BGPRouter is the name of the BGPRouter running on the physical router
	BGPRouter string `json:"bgpRouter,omitempty"`
	// RoutingBridgingRoles is the list of overlay roles of the router
	RoutingBridgingRoles []RoutingBridgingRole `json:"routingBridgingRoles,omitempty"`
	// DataplaneIP is the address used as a dynamic tunnel source, BGP router address is used if not set
	DataplaneIP string `json:"dataplaneIP,omitempty"`
	// Fabric is the name of the fabric the router belongs to
	Fabric string `json:"fabric,omitempty"`
}

// PhysicalRouter is a device of the fabric running a BGP router
type PhysicalRouter struct {
	kmetav1.TypeMeta   `json:",inline"`
	kmetav1.ObjectMeta `json:"metadata,omitempty"`

	Spec PhysicalRouterSpec `json:"spec,omitempty"`
}

var _ Object = (*PhysicalRouter)(nil)

func NewPhysicalRouter(name string, spec PhysicalRouterSpec) *PhysicalRouter {
	return &PhysicalRouter{
		TypeMeta:   typeMeta(KindPhysicalRouter),
		ObjectMeta: kmetav1.ObjectMeta{Name: name},
		Spec:       spec,
	}
}

// HasRole is nil-safe, missing router has no roles
func (pr *PhysicalRouter) HasRole(role RoutingBridgingRole) bool {
	return pr != nil && slices.Contains(pr.Spec.RoutingBridgingRoles, role)
}

// IsLeanOnly returns true if the only role of the router is lean, such routers have no overlay BGP config
func (pr *PhysicalRouter) IsLeanOnly() bool {
	return pr != nil && len(pr.Spec.RoutingBridgingRoles) == 1 && pr.Spec.RoutingBridgingRoles[0] == RoleLean
}

func (pr *PhysicalRouter) Default() {
	pr.Spec.DataplaneIP = strings.TrimSpace(pr.Spec.DataplaneIP)
	pr.Spec.BGPRouter = strings.TrimSpace(pr.Spec.BGPRouter)

	for idx, role := range pr.Spec.RoutingBridgingRoles {
		pr.Spec.RoutingBridgingRoles[idx] = RoutingBridgingRole(strings.TrimSpace(string(role)))
	}
}

func (pr *PhysicalRouter) Validate() error {
	for idx, role := range pr.Spec.RoutingBridgingRoles {
		if role == "" {
			return errors.Errorf("physical router %s: role #%d is empty", pr.Name, idx)
		}
	}

	return nil
}
