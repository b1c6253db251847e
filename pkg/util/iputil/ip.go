// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package iputil

import (
	"math/big"
	"net"
	"net/netip"

	cidrlib "github.com/apparentlymart/go-cidr/cidr"
	"github.com/pkg/errors"
)

// IsValidIP returns true if the string is a plain IPv4 or IPv6 address (no prefix length, no zone)
func IsValidIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)

	return err == nil && addr.Zone() == ""
}

// Subnet returns the network for the prefix and its length, prefix is masked
func Subnet(prefix string, prefixLen int) (*net.IPNet, error) {
	addr, err := netip.ParseAddr(prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse prefix %s", prefix)
	}

	p, err := addr.Prefix(prefixLen)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid prefix len %d for %s", prefixLen, prefix)
	}

	ip := net.IP(p.Addr().AsSlice())

	return &net.IPNet{
		IP:   ip,
		Mask: net.CIDRMask(prefixLen, p.Addr().BitLen()),
	}, nil
}

// AddressCount returns the number of addresses in the subnet, it's exact for IPv6 subnets with 64+ host bits too
func AddressCount(prefix string, prefixLen int) (*big.Int, error) {
	subnet, err := Subnet(prefix, prefixLen)
	if err != nil {
		return nil, err
	}

	// go-cidr count is uint64 and overflows starting from 64 host bits
	if ones, bits := subnet.Mask.Size(); bits-ones >= 64 {
		return new(big.Int).Lsh(big.NewInt(1), uint(bits-ones)), nil //nolint:gosec
	}

	return new(big.Int).SetUint64(cidrlib.AddressCount(subnet)), nil
}

// Range returns the first and the last addresses of the subnet
func Range(prefix string, prefixLen int) (string, string, error) {
	subnet, err := Subnet(prefix, prefixLen)
	if err != nil {
		return "", "", err
	}

	first, last := cidrlib.AddressRange(subnet)

	return first.String(), last.String(), nil
}
