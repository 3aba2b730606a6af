package suggestion

import (
	"strings"

	"github.com/protonpass/android-pass-sub021/domaincheck"
)

// Filterer selects the credentials eligible for a target.
type Filterer struct {
	parser *domaincheck.Parser
}

// NewFilterer returns a Filterer that parses every address with parser.
func NewFilterer(parser *domaincheck.Parser) *Filterer {
	return &Filterer{parser: parser}
}

// Filter returns the credentials matching target, in input order.
//
// Args:
//
//	credentials: candidate logins; never modified.
//	target: package name and/or URL of the requester.
//
// Returns:
//
//	[]Credential: credentials matching by package OR by URL; empty when target is empty.
//
// Behavior:
//  1. A credential matches by package when target.PackageName is one of its package names.
//  2. A credential matches by URL when target.URL parses and any of its websites parses and
//     satisfies domaincheck.HostMatches against it; unparseable websites are skipped.
//  3. An unparseable target URL disables the URL criterion without failing the call.
func (f *Filterer) Filter(credentials []Credential, target Target) []Credential {
	out := make([]Credential, 0, len(credentials))
	if target.IsEmpty() {
		return out
	}

	var (
		targetHost domaincheck.HostInfo
		byURL      bool
	)
	if url := strings.TrimSpace(target.URL); url != "" {
		host, err := f.parser.Parse(url)
		byURL = err == nil
		targetHost = host
	}

	for _, credential := range credentials {
		if credential.HasPackage(target.PackageName) || (byURL && f.matchesHost(credential, targetHost)) {
			out = append(out, credential)
		}
	}
	return out
}

func (f *Filterer) matchesHost(credential Credential, target domaincheck.HostInfo) bool {
	for _, website := range credential.Websites {
		host, err := f.parser.Parse(website)
		if err != nil {
			continue
		}
		if domaincheck.HostMatches(host, target) {
			return true
		}
	}
	return false
}
