package search

// SearchConfig is the query and case policy shared by every job of a run.
//
// Fields are unexported so a SearchConfig cannot change after NewSearchConfig
// returns; jobs on different goroutines read it through the accessors
// without locking.
type SearchConfig struct {
	query         string
	caseSensitive bool
}

// NewSearchConfig creates the shared configuration for one run.
func NewSearchConfig(query string, caseSensitive bool) *SearchConfig {
	return &SearchConfig{
		query:         query,
		caseSensitive: caseSensitive,
	}
}

// Query returns the substring being searched for.
func (c *SearchConfig) Query() string {
	return c.query
}

// CaseSensitive reports whether matching compares case exactly.
func (c *SearchConfig) CaseSensitive() bool {
	return c.caseSensitive
}

// NewMatcher returns a fresh Matcher for this configuration. Each job calls
// it once and keeps the result private.
func (c *SearchConfig) NewMatcher() *Matcher {
	return NewMatcher(c.query, c.caseSensitive)
}
