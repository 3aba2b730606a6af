package domaincheck

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"github.com/protonpass/android-pass-sub021/suffix"
)

const (
	schemeSep   = "://"
	maxHostLen  = 253
	maxLabelLen = 63
	maxPort     = 1<<16 - 1
)

// Parser turns raw addresses into HostInfo using one public-suffix table.
// A Parser is immutable and safe for concurrent use.
type Parser struct {
	suffixes suffix.Lookup
}

// NewParser binds a parser to a suffix table. A nil table behaves as an
// empty one, so every registrable domain falls back to the last two labels.
func NewParser(suffixes suffix.Lookup) *Parser {
	if suffixes == nil {
		suffixes = suffix.NewSet()
	}
	return &Parser{suffixes: suffixes}
}

// Parse classifies a URL, bare host name or IP literal.
//
// Args:
//
//	raw: address captured from a credential or an autofill request,
//	     e.g. "https://www.proton.me/somepath", "proton.me" or "1.2.3.4".
//
// Returns:
//
//	HostInfo: protocol, kind and, for domains, host and registrable domain.
//	error: wraps ErrUnparseable when no valid host can be extracted.
//
// Behavior:
//  1. Records and strips a leading "scheme://"; no scheme leaves Protocol empty.
//  2. Drops path, query, fragment, userinfo, port and a trailing root dot.
//  3. Returns KindIPAddress with the literal untouched when the token is an IP address;
//     tokens that look like IPv4 but do not parse are rejected.
//  4. Otherwise lowercases (IDNA-encoding non-ASCII names), validates labels and
//     computes the eTLD+1 from the longest public suffix in the table.
func (p *Parser) Parse(raw string) (HostInfo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return HostInfo{}, ErrEmptyHost
	}

	protocol, rest, err := splitScheme(raw)
	if err != nil {
		return HostInfo{}, err
	}

	hostport := rest
	if end := strings.IndexAny(hostport, "/?#"); end != -1 {
		hostport = hostport[:end]
	}
	if at := strings.LastIndexByte(hostport, '@'); at != -1 {
		hostport = hostport[at+1:]
	}

	host, ipOnly, err := splitPort(hostport)
	if err != nil {
		return HostInfo{}, err
	}
	if !ipOnly {
		host = strings.TrimSuffix(host, ".")
	}
	if host == "" {
		return HostInfo{}, ErrEmptyHost
	}

	if _, err := netip.ParseAddr(host); err == nil {
		return HostInfo{Protocol: protocol, Kind: KindIPAddress, Address: host}, nil
	}
	if ipOnly || looksLikeIPv4(host) {
		return HostInfo{}, fmt.Errorf("%w: %q", ErrInvalidIP, host)
	}

	domain, err := normalizeDomain(host)
	if err != nil {
		return HostInfo{}, err
	}

	return HostInfo{
		Protocol:          protocol,
		Kind:              KindDomainName,
		Host:              domain,
		RegistrableDomain: p.registrableDomain(domain),
	}, nil
}

// registrableDomain takes the longest public suffix of domain plus one label.
// Without a table match it falls back to the last two labels.
func (p *Parser) registrableDomain(domain string) string {
	ps, ok := p.suffixes.PublicSuffix(domain)
	if !ok || ps == "" || (ps != domain && !strings.HasSuffix(domain, "."+ps)) {
		return lastLabels(domain, 2)
	}
	if ps == domain {
		return domain
	}
	rest := domain[:len(domain)-len(ps)-1]
	return domain[strings.LastIndexByte(rest, '.')+1:]
}

// splitScheme separates "scheme://" from the rest of raw. A "://" that only
// appears after the host part (e.g. inside a query string) is not a scheme.
func splitScheme(raw string) (string, string, error) {
	i := strings.Index(raw, schemeSep)
	end := strings.IndexAny(raw, "/?#")
	if i == -1 || (end != -1 && end < i) {
		if err := checkOpaqueScheme(raw, end); err != nil {
			return "", "", err
		}
		return "", raw, nil
	}
	scheme := raw[:i]
	if !validScheme(scheme) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidScheme, scheme)
	}
	return strings.ToLower(scheme), raw[i+len(schemeSep):], nil
}

// checkOpaqueScheme rejects "scheme:" prefixes that are not followed by
// "//", such as "http:/bank.com" or "mailto:user@example.com". A dotless
// name followed by a numeric port ("localhost:8080") or by a final colon is
// still a host. end is the index of the first "/?#" in raw, or -1.
func checkOpaqueScheme(raw string, end int) error {
	hostport := raw
	if end != -1 {
		hostport = raw[:end]
	}
	if strings.Count(hostport, ":") != 1 {
		return nil
	}
	scheme, port, _ := strings.Cut(hostport, ":")
	if strings.Contains(scheme, ".") || !validScheme(scheme) {
		return nil
	}
	if port == "" && end == -1 {
		return nil
	}
	if port != "" && validPort(port) {
		return nil
	}
	return fmt.Errorf("%w: %q is not followed by //", ErrInvalidScheme, scheme+":")
}

// validScheme follows RFC 3986: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ).
func validScheme(scheme string) bool {
	if scheme == "" || !isAlpha(scheme[0]) {
		return false
	}
	for i := 1; i < len(scheme); i++ {
		c := scheme[i]
		if !isAlpha(c) && !isDigit(c) && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

// splitPort removes an optional ":port". The boolean reports whether the
// host came from a form only an IP literal may use (brackets, or several
// colons without brackets).
func splitPort(hostport string) (string, bool, error) {
	if strings.HasPrefix(hostport, "[") {
		end := strings.IndexByte(hostport, ']')
		if end == -1 {
			return "", true, fmt.Errorf("%w: unmatched bracket in %q", ErrInvalidIP, hostport)
		}
		if rest := hostport[end+1:]; rest != "" {
			port, ok := strings.CutPrefix(rest, ":")
			if !ok || !validPort(port) {
				return "", true, fmt.Errorf("%w: %q", ErrInvalidPort, rest)
			}
		}
		return hostport[1:end], true, nil
	}

	switch strings.Count(hostport, ":") {
	case 0:
		return hostport, false, nil
	case 1:
		host, port, _ := strings.Cut(hostport, ":")
		if !validPort(port) {
			return "", false, fmt.Errorf("%w: %q", ErrInvalidPort, port)
		}
		return host, false, nil
	default:
		return hostport, true, nil
	}
}

// validPort accepts an empty port, as url.Parse does, or a decimal in range.
func validPort(port string) bool {
	if port == "" {
		return true
	}
	for i := 0; i < len(port); i++ {
		if !isDigit(port[i]) {
			return false
		}
	}
	n, err := strconv.Atoi(port)
	return err == nil && n <= maxPort
}

// looksLikeIPv4 reports whether the last label starts with a digit.
// No TLD starts with a digit, so such a host can only be meant as an address.
func looksLikeIPv4(host string) bool {
	last := host[strings.LastIndexByte(host, '.')+1:]
	return last != "" && isDigit(last[0])
}

// normalizeDomain lowercases host, IDNA-encoding it when it is not ASCII,
// and validates its labels.
func normalizeDomain(host string) (string, error) {
	if isASCII(host) {
		host = strings.ToLower(host)
	} else {
		if !utf8.ValidString(host) {
			return "", fmt.Errorf("%w: invalid utf-8", ErrInvalidDomain)
		}
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: idna: %v", ErrInvalidDomain, err)
		}
		host = strings.ToLower(ascii)
	}

	if len(host) > maxHostLen {
		return "", fmt.Errorf("%w: host longer than %d bytes", ErrInvalidDomain, maxHostLen)
	}
	for label := range strings.SplitSeq(host, ".") {
		if !validLabel(label) {
			return "", fmt.Errorf("%w: bad label %q in %q", ErrInvalidDomain, label, host)
		}
	}
	return host, nil
}

func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLen {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if !isAlpha(c) && !isDigit(c) && c != '-' && c != '_' {
			return false
		}
	}
	return true
}

// lastLabels returns the rightmost n labels of name, or name itself when it
// has fewer labels.
func lastLabels(name string, n int) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] != '.' {
			continue
		}
		n--
		if n == 0 {
			return name[i+1:]
		}
	}
	return name
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
