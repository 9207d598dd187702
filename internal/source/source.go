// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements the verification sources the cascade queries.
// Each source is a strategy: it knows when it applies to a citation and how
// to query its backing API, identifier-exact first, fuzzy second.
// Implements: prd004-verification (R2, R3, R5);
//
//	docs/ARCHITECTURE § Source Cascade Matcher.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/refcheck/pkg/types"
)

// Source names, also the keys of the report color map and the
// MatchConfig.RatePerSecond overrides.
const (
	NameOpenAlex        = "openalex"
	NameWG21            = "wg21"
	NameIETF            = "ietf"
	NameCrossref        = "crossref"
	NameSemanticScholar = "semanticscholar"
	NameOpenLibrary     = "openlibrary"
)

// Source is one verification backend. Applicable gates whether the cascade
// spends a request budget on this source for a given citation; Match runs
// the source's own query strategy and scores the best candidate.
type Source interface {
	Name() string
	Applicable(c types.Citation) bool
	Match(ctx context.Context, c types.Citation) (types.MatchResult, error)
}

// defaultRates are the per-source proactive request budgets in requests
// per second, chosen against each API's published etiquette. Every source
// owns its own token bucket; budgets never interact (prd004-verification
// R5.1).
var defaultRates = map[string]float64{
	NameOpenAlex:        5,
	NameWG21:            2,
	NameIETF:            2,
	NameCrossref:        2,
	NameSemanticScholar: 1,
	NameOpenLibrary:     2,
}

// newLimiter builds the token bucket for name, honoring a config override.
func newLimiter(cfg types.MatchConfig, name string) *rate.Limiter {
	r := defaultRates[name]
	if override, ok := cfg.RatePerSecond[name]; ok && override > 0 {
		r = override
	}
	return rate.NewLimiter(rate.Limit(r), 1)
}

// --- title similarity ---

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// flatten lowercases and strips everything but letters and digits, so
// similarity ignores punctuation and spacing damage from extraction.
func flatten(s string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
}

// TitleSimilarity returns a [0,1] similarity between two titles: the
// normalized Levenshtein ratio, with a substring rescue for titles that
// extraction merged with their author block. A found title of 20+
// significant characters fully contained in the cited title scores 0.90.
func TitleSimilarity(cited, found string) float64 {
	if cited == "" || found == "" {
		return 0
	}

	ratio := levenshteinRatio(strings.ToLower(cited), strings.ToLower(found))

	if ratio < 0.85 {
		cf, ff := flatten(cited), flatten(found)
		if len(ff) > 20 && strings.Contains(cf, ff) {
			return 0.90
		}
	}
	return ratio
}

// levenshteinRatio is 1 - distance/maxLen over the two strings, computed
// with the two-row dynamic program.
func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ra {
		curr[0] = i + 1
		for j, cb := range rb {
			cost := 0
			if ca != cb {
				cost = 1
			}
			curr[j+1] = min3(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}

	maxLen := len(ra)
	return 1 - float64(prev[len(rb)])/float64(maxLen)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// yearGapNote applies the year-agreement policy to a fuzzy score and
// returns the final confidence with a display note. Exact and near years
// pass through (preprints routinely lag their venue publication by a year
// or three); larger gaps cost a flat penalty so an edition mismatch can
// still surface below the acceptance threshold.
func yearGapNote(score float64, citedYear, foundYear int) (float64, string) {
	if citedYear == 0 || foundYear == 0 {
		return score, ""
	}
	gap := citedYear - foundYear
	if gap < 0 {
		gap = -gap
	}
	switch {
	case gap == 0:
		return score, ""
	case gap <= 3:
		return score, "preprint lag"
	default:
		conf := score - 0.2
		if conf < 0 {
			conf = 0
		}
		return conf, "year mismatch"
	}
}

// cleanQuery strips the characters that break filter-style API parameters
// and cuts venue boilerplate that pollutes title searches.
func cleanQuery(s string) string {
	for _, cut := range []string{"Proceedings of", "IEEE"} {
		if i := strings.Index(s, cut); i > 0 {
			s = s[:i]
		}
	}
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// firstAuthor returns the lead author or empty.
func firstAuthor(c types.Citation) string {
	if len(c.Authors) == 0 {
		return ""
	}
	return c.Authors[0]
}

// firstOf returns the first element of a string list or empty. Several
// APIs model the title as a one-element array.
func firstOf(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// maxResponseBytes caps how much of an API response is read into memory.
const maxResponseBytes = 4 << 20

// readBody reads a capped response body.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
