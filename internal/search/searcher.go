// Package search implements line-level substring search over in-memory text.
//
// It has no I/O: callers read file contents and hand them to Search, which
// returns the trimmed lines containing the query in file order.
package search

import "strings"

// Search returns the lines of contents that contain query, in file order.
//
// Lines are split on "\n"; a trailing "\r" and any other surrounding
// whitespace is trimmed before matching, and the trimmed line is what gets
// returned. A line containing the query several times is returned once.
func Search(query string, caseSensitive bool, contents string) []string {
	return NewMatcher(query, caseSensitive).Search(contents)
}

// Search runs m over every line of contents.
func (m *Matcher) Search(contents string) []string {
	var matches []string
	for line := range strings.Lines(contents) {
		trimmed := strings.TrimSpace(line)
		if m.Match(trimmed) {
			matches = append(matches, trimmed)
		}
	}
	return matches
}
