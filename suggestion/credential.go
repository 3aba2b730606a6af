// Package suggestion decides which stored credentials are offered for an
// autofill request and in which order.
package suggestion

import "slices"

// Credential is the read-only view of a stored login used for matching.
type Credential struct {
	ID       int64
	Title    string
	Username string
	// PackageNames lists the application identifiers the login is bound to.
	PackageNames []string
	// Websites keeps the addresses in the order the user saved them. Entries
	// may be full URLs, bare host names or IP literals.
	Websites []string
}

// HasPackage reports whether name is one of the credential's package names.
func (c Credential) HasPackage(name string) bool {
	return name != "" && slices.Contains(c.PackageNames, name)
}

// Target describes the app or page asking for autofill. An empty field is
// treated as absent.
type Target struct {
	PackageName string
	URL         string
}

// IsEmpty reports whether the target carries no criterion at all.
func (t Target) IsEmpty() bool {
	return t.PackageName == "" && t.URL == ""
}
