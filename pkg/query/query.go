// Package query turns raw user search text into a match predicate. Media
// file names mix spaces, dots, dashes, underscores and pluses as word
// separators, so the compiled pattern accepts any of them between tokens.
package query

import (
	"regexp"
	"strings"

	"mediadex/pkg/logger"
	"mediadex/pkg/models"
)

// separator characters treated as word boundaries in file names
const sepClass = `[.+\-_]`

// Predicate is a compiled query. The zero value matches nothing; obtain one
// via Compile.
type Predicate struct {
	raw      string
	matchAll bool
	re       *regexp.Regexp
	literal  string // lowercase fallback when the pattern failed to compile
}

// Compile builds a predicate from raw user text.
//
// Empty input matches every record. A single token must be bounded on each
// side by a word boundary or a separator character, so "2020" finds
// "Movie.2020.mkv" but not "Movie20201.mkv". Multi-token input allows any
// run of spaces or separators between tokens, in order. Matching is always
// case-insensitive. A structurally invalid pattern degrades to literal
// substring matching instead of failing the search.
func Compile(raw string) Predicate {
	p := Predicate{raw: raw}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		p.matchAll = true
		return p
	}

	var pattern string
	if len(fields) == 1 {
		tok := regexp.QuoteMeta(fields[0])
		pattern = `(\b|` + sepClass + `)` + tok + `(\b|` + sepClass + `)`
	} else {
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = regexp.QuoteMeta(f)
		}
		pattern = strings.Join(quoted, `[\s.+\-_]+`)
	}

	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		// should not happen with quoted tokens, but never fail a search
		logger.Warn("query_compile_fallback", "query", raw, "error", err)
		p.literal = strings.ToLower(strings.Join(fields, " "))
		return p
	}
	p.re = re
	return p
}

// Raw returns the original query text the predicate was compiled from.
func (p Predicate) Raw() string { return p.raw }

// Match reports whether the text satisfies the query.
func (p Predicate) Match(s string) bool {
	if p.matchAll {
		return true
	}
	if p.re != nil {
		return p.re.MatchString(s)
	}
	if p.literal != "" {
		return strings.Contains(strings.ToLower(s), p.literal)
	}
	return false
}

// MatchRecord applies the predicate to a record's name, and to its caption
// when caption indexing is enabled.
func (p Predicate) MatchRecord(rec models.FileRecord, includeCaption bool) bool {
	if p.Match(rec.Name) {
		return true
	}
	return includeCaption && rec.Caption != "" && p.Match(rec.Caption)
}
