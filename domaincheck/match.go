package domaincheck

// HostMatches reports whether a credential address and a requested address
// refer to the same site for autofill purposes.
//
// IP addresses only match other IP addresses with the exact same literal.
// Domain names match when their protocols agree and their registrable
// domains are equal; subdomain labels are ignored. Mixed kinds never match.
func HostMatches(a, b HostInfo) bool {
	switch a.Kind {
	case KindIPAddress:
		switch b.Kind {
		case KindIPAddress:
			return a.Address == b.Address
		case KindDomainName:
			return false
		}
	case KindDomainName:
		switch b.Kind {
		case KindDomainName:
			return SameProtocol(a.Protocol, b.Protocol) && a.RegistrableDomain == b.RegistrableDomain
		case KindIPAddress:
			return false
		}
	}
	return false
}

// SameProtocol compares two schemes, reading a missing scheme as DefaultProtocol.
func SameProtocol(a, b string) bool {
	return effectiveProtocol(a) == effectiveProtocol(b)
}

func effectiveProtocol(protocol string) string {
	if protocol == "" {
		return DefaultProtocol
	}
	return protocol
}
