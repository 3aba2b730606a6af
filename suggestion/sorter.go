package suggestion

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/protonpass/android-pass-sub021/domaincheck"
)

// Tier ranks how specifically a credential matches the requested domain.
// Lower tiers are shown first.
type Tier int

const (
	// TierExactHost: a website host equals the requested host.
	TierExactHost Tier = iota
	// TierBaseDomain: a website is registered at the bare registrable domain.
	TierBaseDomain
	// TierSubdomain: a website shares the registrable domain under another subdomain.
	TierSubdomain
	// TierUnmatched: no website shares the registrable domain.
	TierUnmatched
)

func (t Tier) String() string {
	switch t {
	case TierExactHost:
		return "exact-host"
	case TierBaseDomain:
		return "base-domain"
	case TierSubdomain:
		return "subdomain"
	case TierUnmatched:
		return "unmatched"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Sorter orders eligible credentials by domain-match specificity.
type Sorter struct {
	parser *domaincheck.Parser
}

// NewSorter returns a Sorter that parses every address with parser.
func NewSorter(parser *domaincheck.Parser) *Sorter {
	return &Sorter{parser: parser}
}

// Sort returns credentials ordered by Tier, keeping input order within a tier.
// When rawURL is empty, unparseable or an IP address, credentials is
// returned as is. The input slice is never reordered in place.
func (s *Sorter) Sort(credentials []Credential, rawURL string) []Credential {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return credentials
	}
	target, err := s.parser.Parse(rawURL)
	if err != nil {
		return credentials
	}
	switch target.Kind {
	case domaincheck.KindIPAddress:
		return credentials
	case domaincheck.KindDomainName:
		return s.rank(target, credentials)
	}
	return credentials
}

func (s *Sorter) rank(target domaincheck.HostInfo, credentials []Credential) []Credential {
	type ranked struct {
		tier       Tier
		credential Credential
	}
	items := make([]ranked, len(credentials))
	for i, credential := range credentials {
		items[i] = ranked{tier: s.Classify(target, credential), credential: credential}
	}
	slices.SortStableFunc(items, func(a, b ranked) int {
		return cmp.Compare(a.tier, b.tier)
	})

	out := make([]Credential, len(items))
	for i, item := range items {
		out[i] = item.credential
	}
	return out
}

// Classify assigns credential a Tier against a parsed domain target, using the
// first of its websites whose registrable domain equals the target's.
func (s *Sorter) Classify(target domaincheck.HostInfo, credential Credential) Tier {
	if target.Kind != domaincheck.KindDomainName {
		return TierUnmatched
	}
	for _, website := range credential.Websites {
		host, err := s.parser.Parse(website)
		if err != nil {
			continue
		}
		if host.Kind == domaincheck.KindDomainName && host.RegistrableDomain == target.RegistrableDomain {
			return classifyHost(target, host)
		}
	}
	return TierUnmatched
}

func classifyHost(target, host domaincheck.HostInfo) Tier {
	switch {
	case host.Host == target.Host:
		return TierExactHost
	case host.IsExactRegistrableDomain():
		return TierBaseDomain
	default:
		return TierSubdomain
	}
}
