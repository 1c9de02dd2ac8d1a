package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Matcher decides whether a single line contains a query.
//
// For case-insensitive matching the query is folded once at construction and
// each line is folded with the same locale-independent mapping before the
// containment test. A Matcher holds a stateful caser and must not be shared
// between goroutines; build one per job instead.
type Matcher struct {
	query         string
	caseSensitive bool
	caser         cases.Caser
}

// NewMatcher creates a Matcher for query under the given case policy.
func NewMatcher(query string, caseSensitive bool) *Matcher {
	m := &Matcher{
		query:         query,
		caseSensitive: caseSensitive,
	}
	if !caseSensitive {
		m.caser = cases.Lower(language.Und)
		m.query = m.caser.String(query)
	}
	return m
}

// Match reports whether line contains the query.
func (m *Matcher) Match(line string) bool {
	if m.caseSensitive {
		return strings.Contains(line, m.query)
	}
	return strings.Contains(m.caser.String(line), m.query)
}

// Matches reports whether line contains query. When caseSensitive is false
// both sides are lower-cased first. An empty query matches every line.
func Matches(query, line string, caseSensitive bool) bool {
	return NewMatcher(query, caseSensitive).Match(line)
}
