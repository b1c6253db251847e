// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package v1beta1

import (
	"strings"

	"github.com/pkg/errors"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	RouterTypeControlNode = "control-node"
	RouterTypeRouter      = "router"
)

// BGPRouterSpec defines the BGP parameters of a router, either running on a physical router or on a control node
type BGPRouterSpec struct {
	// Address is the BGP session address of the router, router without address is ignored by the planner
	Address string `json:"address,omitempty"`
	// LocalASN overrides ASN if set
	LocalASN *uint32 `json:"localASN,omitempty"`
	// ASN is the autonomous system number of the router
	ASN *uint32 `json:"asn,omitempty"`
	// ClusterID is the route reflector cluster ID
	ClusterID string `json:"clusterID,omitempty"`
	// RouterType is the type of the router, such as control-node or router
	RouterType string `json:"routerType,omitempty"`
	// HoldTime is the BGP hold time, explicit zero is a valid value
	HoldTime *int32 `json:"holdTime,omitempty"`
	// AddressFamilies is the list of address families enabled for the groups of the router
	AddressFamilies AddressFamilies `json:"addressFamilies,omitempty"`
	// AuthData is the list of authentication keys, only the first one is used
	AuthData *AuthData `json:"authData,omitempty"`
	// FamilyAttributes is the list of per family session hints
	FamilyAttributes []FamilyAttribute `json:"familyAttributes,omitempty"`
	// PhysicalRouter is the name of the PhysicalRouter this BGP router runs on
	PhysicalRouter string `json:"physicalRouter,omitempty"`
	// Peers is the ordered list of BGP routers this one peers with
	Peers []BGPPeering `json:"peers,omitempty"`
}

type AddressFamilies struct {
	Family []string `json:"family,omitempty"`
}

type AuthData struct {
	KeyType  string        `json:"keyType,omitempty"`
	KeyItems []AuthKeyItem `json:"keyItems,omitempty"`
}

type AuthKeyItem struct {
	KeyID int    `json:"keyID,omitempty"`
	Key   string `json:"key,omitempty"`
}

type FamilyAttribute struct {
	AddressFamily string `json:"addressFamily,omitempty"`
	LoopCount     *int32 `json:"loopCount,omitempty"`
	PrefixLimit   *int32 `json:"prefixLimit,omitempty"`
}

// BGPPeering is a single peering relationship of the router
type BGPPeering struct {
	// Router is the name of the peer BGPRouter
	Router string `json:"router,omitempty"`
	// Attributes is the session attributes of the peering
	Attributes SessionAttributes `json:"attributes,omitempty"`
}

type SessionAttributes struct {
	Session []BGPSession `json:"session,omitempty"`
}

type BGPSession struct {
	UUID       string                 `json:"uuid,omitempty"`
	Attributes []BGPSessionAttributes `json:"attributes,omitempty"`
}

// BGPSessionAttributes is a bundle of attributes for the session, bundles with BGPRouter set only apply to the
// named side of the session
type BGPSessionAttributes struct {
	BGPRouter        string            `json:"bgpRouter,omitempty"`
	AdminDown        bool              `json:"adminDown,omitempty"`
	FamilyAttributes []FamilyAttribute `json:"familyAttributes,omitempty"`
	AuthData         *AuthData         `json:"authData,omitempty"`
}

// BGPRouter is a BGP speaker of the topology, identified by its name
type BGPRouter struct {
	kmetav1.TypeMeta   `json:",inline"`
	kmetav1.ObjectMeta `json:"metadata,omitempty"`

	Spec BGPRouterSpec `json:"spec,omitempty"`
}

var (
	_ Object   = (*BGPRouter)(nil)
	_ Prunable = (*BGPRouter)(nil)
)

func NewBGPRouter(name string, spec BGPRouterSpec) *BGPRouter {
	return &BGPRouter{
		TypeMeta:   typeMeta(KindBGPRouter),
		ObjectMeta: kmetav1.ObjectMeta{Name: name},
		Spec:       spec,
	}
}

// IsValid returns true if the router exists and has an address, only valid routers could be used for the planning
func (r *BGPRouter) IsValid() bool {
	return r != nil && r.Spec.Address != ""
}

// EffectiveASN returns local ASN if set or ASN otherwise, false is returned if the router has none of them
func (r *BGPRouter) EffectiveASN() (uint32, bool) {
	if r == nil {
		return 0, false
	}
	if r.Spec.LocalASN != nil {
		return *r.Spec.LocalASN, true
	}
	if r.Spec.ASN != nil {
		return *r.Spec.ASN, true
	}

	return 0, false
}

func (r *BGPRouter) IsControlNode() bool {
	return r.Spec.RouterType == RouterTypeControlNode
}

func (r *BGPRouter) Default() {
	r.Spec.Address = strings.TrimSpace(r.Spec.Address)
	r.Spec.PhysicalRouter = strings.TrimSpace(r.Spec.PhysicalRouter)
	r.Spec.RouterType = strings.TrimSpace(r.Spec.RouterType)
}

// Prune drops peers without router, peers pointing to the router itself and repeated peers (first one wins)
func (r *BGPRouter) Prune() []error {
	var errs []error

	seen := map[string]bool{}
	peers := make([]BGPPeering, 0, len(r.Spec.Peers))
	for idx, peer := range r.Spec.Peers {
		switch {
		case peer.Router == "":
			errs = append(errs, errors.Errorf("bgp router %s: peer #%d: router is required", r.Name, idx))
		case peer.Router == r.Name:
			errs = append(errs, errors.Errorf("bgp router %s: peer #%d: router can't peer with itself", r.Name, idx))
		case seen[peer.Router]:
			errs = append(errs, errors.Errorf("bgp router %s: peer #%d: duplicate peer %s", r.Name, idx, peer.Router))
		default:
			seen[peer.Router] = true
			peers = append(peers, peer)
		}
	}

	if len(errs) > 0 {
		r.Spec.Peers = peers
	}

	return errs
}

func (r *BGPRouter) Validate() error {
	if r.Spec.LocalASN != nil && *r.Spec.LocalASN == 0 {
		return errors.Errorf("bgp router %s: localASN should be non-zero if set", r.Name)
	}

	return nil
}
