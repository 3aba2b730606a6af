// Package domaincheck parses the addresses attached to credentials and
// autofill requests into comparable host information.
package domaincheck

import (
	"errors"
	"fmt"
)

// Kind classifies a parsed host.
type Kind uint8

const (
	// KindIPAddress marks an IPv4 or IPv6 literal.
	KindIPAddress Kind = iota + 1
	// KindDomainName marks a DNS name.
	KindDomainName
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindIPAddress:
		return "ip"
	case KindDomainName:
		return "domain"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// DefaultProtocol is the scheme assumed for addresses typed without one.
const DefaultProtocol = "https"

var (
	// ErrUnparseable is the root of every parse failure.
	ErrUnparseable = errors.New("unparseable host")

	ErrEmptyHost     = fmt.Errorf("%w: empty host", ErrUnparseable)
	ErrInvalidScheme = fmt.Errorf("%w: invalid scheme", ErrUnparseable)
	ErrInvalidPort   = fmt.Errorf("%w: invalid port", ErrUnparseable)
	ErrInvalidIP     = fmt.Errorf("%w: invalid ip address", ErrUnparseable)
	ErrInvalidDomain = fmt.Errorf("%w: invalid domain name", ErrUnparseable)
)

// HostInfo is the parsed form of an address. Values are derived per call and
// never cached.
type HostInfo struct {
	// Protocol is the lowercased scheme, or empty when the input had none.
	Protocol string
	Kind     Kind
	// Address holds the IP literal exactly as written. Set for KindIPAddress only.
	Address string
	// Host is the full lowercased DNS name. Set for KindDomainName only.
	Host string
	// RegistrableDomain is the public suffix plus one label (eTLD+1), always a
	// label-aligned suffix of Host. Set for KindDomainName only.
	RegistrableDomain string
}

// HasProtocol reports whether a scheme was present in the parsed input.
func (h HostInfo) HasProtocol() bool { return h.Protocol != "" }

// IsExactRegistrableDomain reports whether the host carries no subdomain labels.
func (h HostInfo) IsExactRegistrableDomain() bool {
	return h.Kind == KindDomainName && h.Host == h.RegistrableDomain
}

// Subdomain returns the labels left of the registrable domain, if any.
func (h HostInfo) Subdomain() string {
	if h.Kind != KindDomainName || h.IsExactRegistrableDomain() {
		return ""
	}
	return h.Host[:len(h.Host)-len(h.RegistrableDomain)-1]
}

// String renders the host the way it would be shown to a user.
func (h HostInfo) String() string {
	name := h.Host
	if h.Kind == KindIPAddress {
		name = h.Address
	}
	if h.Protocol == "" {
		return name
	}
	return h.Protocol + "://" + name
}
