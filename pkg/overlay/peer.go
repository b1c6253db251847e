// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"github.com/samber/lo"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
)

// selectSessionAttributes returns the first attributes bundle of the first session that isn't bound to a specific
// BGP router, bound bundles belong to the other side of the session
func selectSessionAttributes(attrs topoapi.SessionAttributes) *topoapi.BGPSessionAttributes {
	if len(attrs.Session) == 0 {
		return nil
	}

	bundle, ok := lo.Find(attrs.Session[0].Attributes, func(item topoapi.BGPSessionAttributes) bool {
		return item.BGPRouter == ""
	})
	if !ok {
		return nil
	}

	return &bundle
}

func firstAuthKey(auth *topoapi.AuthData) (string, bool) {
	if auth == nil || len(auth.KeyItems) == 0 {
		return "", false
	}

	key := auth.KeyItems[0].Key

	return key, key != ""
}

func addAuthConfig(cfg *feature.BGP, auth *topoapi.AuthData) {
	if key, ok := firstAuthKey(auth); ok {
		cfg.SetAuthenticationKey(key)
	}
}

// buildPeer expects peer to be valid and to have ASN
func buildPeer(peer *topoapi.BGPRouter, attrs topoapi.SessionAttributes) *feature.BGP {
	asn, _ := peer.EffectiveASN()

	cfg := feature.NewBGP()
	cfg.SetIPAddress(peer.Spec.Address)
	cfg.SetAutonomousSystem(asn)

	if selected := selectSessionAttributes(attrs); selected != nil {
		addPeerFamilies(cfg, selected)
		addAuthConfig(cfg, selected.AuthData)
	}

	if peer.IsControlNode() {
		cfg.SetComment(feature.PeerCommentControlNode)
	}

	return cfg
}
