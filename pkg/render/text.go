// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
	"go.githedgehog.com/fabric-overlay/pkg/util/iputil"
)

type palette struct {
	bold   func(a ...any) string
	yellow func(a ...any) string
	red    func(a ...any) string
}

func newPalette(noColor bool) palette {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		plain := func(a ...any) string { return fmt.Sprint(a...) }

		return palette{bold: plain, yellow: plain, red: plain}
	}

	return palette{
		bold:   color.New(color.Bold).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		red:    color.New(color.FgRed).SprintFunc(),
	}
}

func deref[T any](v *T) string {
	if v == nil {
		return ""
	}

	return fmt.Sprint(*v)
}

func writeRouter(str *strings.Builder, r *Router, p palette) {
	str.WriteString("Router: " + p.bold(r.Router) + "\n")

	f := r.Feature
	if f == nil {
		str.WriteString(p.red("no feature generated") + "\n")

		return
	}

	if f.TunnelIP != nil {
		str.WriteString("Tunnel source: " + *f.TunnelIP + "\n")
	} else {
		str.WriteString("Tunnel source: " + p.red("none") + "\n")
	}

	if len(f.TunnelDestinationNetworks) > 0 {
		data := [][]string{}
		for _, subnet := range f.TunnelDestinationNetworks {
			addrs, ipRange := "invalid", ""
			if count, err := iputil.AddressCount(subnet.Prefix, subnet.PrefixLen); err == nil {
				addrs = humanize.BigComma(count)
			}
			if first, last, err := iputil.Range(subnet.Prefix, subnet.PrefixLen); err == nil {
				ipRange = first + " - " + last
			}

			data = append(data, []string{subnet.Prefix, strconv.Itoa(subnet.PrefixLen), addrs, ipRange})
		}

		str.WriteString(RenderTable([]string{"Destination", "Length", "Addresses", "Range"}, data))
	}

	for _, group := range f.BGP {
		writeGroup(str, group, p)
	}
}

func writeGroup(str *strings.Builder, group *feature.BGP, p palette) {
	groupType := deref(group.Type)
	if groupType == feature.BGPTypeExternal {
		groupType = p.yellow(groupType)
	}

	str.WriteString(fmt.Sprintf("\nGroup: %s (%s, AS %s, %s)\n", p.bold(group.GetName()), groupType,
		deref(group.AutonomousSystem), deref(group.IPAddress)))

	attrs := []string{}
	if len(group.Families) > 0 {
		attrs = append(attrs, "families "+strings.Join(group.Families, ","))
	}
	if group.ClusterID != nil {
		attrs = append(attrs, "cluster id "+*group.ClusterID)
	}
	if group.HoldTime != nil {
		attrs = append(attrs, "hold time "+deref(group.HoldTime))
	}
	if group.AuthenticationKey != nil {
		attrs = append(attrs, "auth "+*group.AuthenticationKey)
	}
	if len(group.ImportPolicy) > 0 {
		attrs = append(attrs, "import "+strings.Join(group.ImportPolicy, ","))
	}
	if len(attrs) > 0 {
		str.WriteString("  " + strings.Join(attrs, "; ") + "\n")
	}

	if len(group.Peers) == 0 {
		str.WriteString("  no peers\n")
	} else {
		str.WriteString(RenderTable(
			[]string{"Peer", "ASN", "Families", "Auth", "Comment"},
			lo.Map(group.Peers, func(peer *feature.BGP, _ int) []string {
				return []string{
					deref(peer.IPAddress),
					deref(peer.AutonomousSystem),
					strings.Join(peer.Families, ","),
					deref(peer.AuthenticationKey),
					deref(peer.Comment),
				}
			}),
		))
	}

	if len(group.Policies) > 0 {
		data := [][]string{}
		for _, policy := range group.Policies {
			if len(policy.Terms) == 0 {
				data = append(data, []string{policy.Name, "", "", "", ""})
			}
			for _, term := range policy.Terms {
				data = append(data, []string{
					policy.Name,
					term.Name,
					term.Action,
					strings.Join(term.Prefixes, ","),
					strings.Join(term.Communities, ","),
				})
			}
		}

		str.WriteString(RenderTable([]string{"Policy", "Term", "Action", "Prefixes", "Communities"}, data))
	}
}
