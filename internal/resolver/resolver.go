// Package resolver backs the /api/resolve contract and the domain branch
// of /api/check (SPEC_FULL "Domain resolver" supplement; DoH itself
// remains out of scope per spec §1). It resolves a domain to its A/AAAA
// addresses using the standard resolver.
package resolver

import (
	"context"
	"net"
)

// AddressType classifies a resolved address.
type AddressType string

const (
	IPv4 AddressType = "IPv4"
	IPv6 AddressType = "IPv6"
)

// Resolved is one resolved address.
type Resolved struct {
	IP   string
	Type AddressType
}

// Resolver resolves a domain to its addresses.
type Resolver interface {
	Resolve(ctx context.Context, domain string) ([]Resolved, error)
}

// StdResolver is the default net.Resolver-backed implementation.
type StdResolver struct {
	resolver *net.Resolver
}

// New builds a StdResolver using the process's default resolver.
func New() *StdResolver {
	return &StdResolver{resolver: net.DefaultResolver}
}

// Resolve looks up domain's A and AAAA records.
func (r *StdResolver) Resolve(ctx context.Context, domain string) ([]Resolved, error) {
	addrs, err := r.resolver.LookupIPAddr(ctx, domain)
	if err != nil {
		return nil, err
	}
	out := make([]Resolved, 0, len(addrs))
	for _, addr := range addrs {
		t := IPv6
		if addr.IP.To4() != nil {
			t = IPv4
		}
		out = append(out, Resolved{IP: addr.IP.String(), Type: t})
	}
	return out, nil
}
