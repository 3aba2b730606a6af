package suggestion

import (
	"github.com/charmbracelet/log"

	"github.com/protonpass/android-pass-sub021/domaincheck"
	"github.com/protonpass/android-pass-sub021/suffix"
)

// Engine runs the filter and the sorter for one autofill request against a
// single public-suffix snapshot, so both phases derive identical host
// information even if the table is replaced mid-request.
type Engine struct {
	source suffix.Source
}

// NewEngine returns an Engine reading suffix tables from source.
func NewEngine(source suffix.Source) *Engine {
	if source == nil {
		source = suffix.Static(nil)
	}
	return &Engine{source: source}
}

// Parser returns a parser bound to the current suffix snapshot.
func (e *Engine) Parser() *domaincheck.Parser {
	return domaincheck.NewParser(e.source.Snapshot())
}

// Suggest filters credentials for target and ranks the survivors.
func (e *Engine) Suggest(credentials []Credential, target Target) []Credential {
	parser := e.Parser()

	eligible := NewFilterer(parser).Filter(credentials, target)
	ranked := NewSorter(parser).Sort(eligible, target.URL)

	log.Debug("computed suggestions",
		"candidates", len(credentials),
		"eligible", len(eligible),
		"package", target.PackageName,
		"url", target.URL,
	)
	return ranked
}
