// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

// Package feature is the vendor-neutral device configuration produced by the planners and consumed by the renderers.
// It's append-only: planners only add to it and never read it back.
package feature

import (
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"sigs.k8s.io/yaml"
)

const (
	BGPTypeInternal = "internal"
	BGPTypeExternal = "external"

	// PeerCommentControlNode marks the peers on the control nodes, BFD shouldn't be enabled towards them
	PeerCommentControlNode = "Control Node"

	sensitiveMask = "<hidden>"
)

type Feature struct {
	Name                      string    `json:"name"`
	BGP                       []*BGP    `json:"bgp,omitempty"`
	TunnelIP                  *string   `json:"tunnelIP,omitempty"`
	TunnelDestinationNetworks []*Subnet `json:"tunnelDestinationNetworks,omitempty"`
}

// BGP is used both for the BGP groups and for the peers inside of them
type BGP struct {
	Name              *string          `json:"name,omitempty"`
	Type              *string          `json:"type,omitempty"`
	Comment           *string          `json:"comment,omitempty"`
	IPAddress         *string          `json:"ipAddress,omitempty"`
	AutonomousSystem  *uint32          `json:"autonomousSystem,omitempty"`
	ClusterID         *string          `json:"clusterID,omitempty"`
	HoldTime          *int32           `json:"holdTime,omitempty"`
	AuthenticationKey *string          `json:"authenticationKey,omitempty"`
	Families          []string         `json:"families,omitempty"`
	Peers             []*BGP           `json:"peers,omitempty"`
	ImportPolicy      []string         `json:"importPolicy,omitempty"`
	Policies          []*RoutingPolicy `json:"policies,omitempty"`
}

type Subnet struct {
	Prefix    string `json:"prefix"`
	PrefixLen int    `json:"prefixLen"`
}

type RoutingPolicy struct {
	Name  string               `json:"name"`
	Terms []*RoutingPolicyTerm `json:"terms,omitempty"`
}

type RoutingPolicyTerm struct {
	Name        string   `json:"name,omitempty"`
	Prefixes    []string `json:"prefixes,omitempty"`
	Communities []string `json:"communities,omitempty"`
	Action      string   `json:"action,omitempty"`
}

func New(name string) *Feature {
	return &Feature{
		Name: name,
	}
}

func (f *Feature) AddBGP(bgp *BGP) {
	f.BGP = append(f.BGP, bgp)
}

func (f *Feature) SetTunnelIP(ip string) {
	f.TunnelIP = &ip
}

func (f *Feature) AddTunnelDestinationNetwork(subnet *Subnet) {
	f.TunnelDestinationNetworks = append(f.TunnelDestinationNetworks, subnet)
}

func NewBGP() *BGP {
	return &BGP{}
}

func (b *BGP) SetName(name string) {
	b.Name = &name
}

func (b *BGP) SetType(t string) {
	b.Type = &t
}

func (b *BGP) SetComment(comment string) {
	b.Comment = &comment
}

func (b *BGP) SetIPAddress(ip string) {
	b.IPAddress = &ip
}

func (b *BGP) SetAutonomousSystem(asn uint32) {
	b.AutonomousSystem = &asn
}

func (b *BGP) SetClusterID(id string) {
	b.ClusterID = &id
}

func (b *BGP) SetHoldTime(holdTime int32) {
	b.HoldTime = &holdTime
}

func (b *BGP) SetAuthenticationKey(key string) {
	b.AuthenticationKey = &key
}

func (b *BGP) AddFamilies(families ...string) {
	b.Families = append(b.Families, families...)
}

func (b *BGP) AddPeers(peers ...*BGP) {
	b.Peers = append(b.Peers, peers...)
}

func (b *BGP) SetImportPolicy(policies []string) {
	b.ImportPolicy = policies
}

func (b *BGP) SetPolicies(policies []*RoutingPolicy) {
	b.Policies = policies
}

// GetName is nil-safe
func (b *BGP) GetName() string {
	if b == nil || b.Name == nil {
		return ""
	}

	return *b.Name
}

// CleanupSensetive returns a copy of the feature with all authentication keys masked
func (f *Feature) CleanupSensetive() *Feature {
	out := *f
	out.BGP = make([]*BGP, 0, len(f.BGP))
	for _, group := range f.BGP {
		out.BGP = append(out.BGP, group.cleanupSensetive())
	}

	return &out
}

func (b *BGP) cleanupSensetive() *BGP {
	out := *b
	if out.AuthenticationKey != nil {
		mask := sensitiveMask
		out.AuthenticationKey = &mask
	}
	if len(b.Peers) > 0 {
		out.Peers = make([]*BGP, 0, len(b.Peers))
		for _, peer := range b.Peers {
			out.Peers = append(out.Peers, peer.cleanupSensetive())
		}
	}

	return &out
}

// MarshalYAML marshals the feature with authentication keys masked
func (f *Feature) MarshalYAML() ([]byte, error) {
	data, err := yaml.Marshal(f.CleanupSensetive())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal feature %s", f.Name)
	}

	return data, nil
}

func TextDiff(actual, desired []byte) ([]byte, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(actual)),
		B:        difflib.SplitLines(string(desired)),
		FromFile: "Current",
		ToFile:   "New",
		Context:  4,
	}

	diffText, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to generate diff")
	}

	return []byte(diffText), nil
}
