// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"log/slog"

	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
	"go.githedgehog.com/fabric-overlay/pkg/util/iputil"
)

func tunnelSourceIP(pr *topoapi.PhysicalRouter, local *topoapi.BGPRouter) string {
	if pr.Spec.DataplaneIP != "" {
		return pr.Spec.DataplaneIP
	}
	if local.IsValid() {
		return local.Spec.Address
	}

	return ""
}

// buildTunnel sets dynamic tunnel source and destinations, nothing is set without valid source IP
func buildTunnel(f *feature.Feature, pr *topoapi.PhysicalRouter, local *topoapi.BGPRouter, gsc *topoapi.GlobalSystemConfig) {
	ip := tunnelSourceIP(pr, local)
	if ip == "" {
		return
	}
	if !iputil.IsValidIP(ip) {
		slog.Debug("Skipping dynamic tunnels with invalid source IP", "router", pr.Name, "ip", ip)

		return
	}

	f.SetTunnelIP(ip)

	if gsc == nil {
		return
	}

	for _, subnet := range gsc.Spec.IPFabricSubnets {
		f.AddTunnelDestinationNetwork(&feature.Subnet{
			Prefix:    subnet.IPPrefix,
			PrefixLen: subnet.IPPrefixLen,
		})
	}
}
