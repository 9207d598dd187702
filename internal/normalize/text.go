// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// headerNoise lists page-furniture phrases that extraction sometimes glues
// onto a citation.
var headerNoise = []string{"Publication date"}

// asciiFold decomposes accented and compatibility characters (NFKD), drops
// the combining marks, then drops anything still outside ASCII. Mojibake
// and fancy math glyphs in extracted text reduce to their base letters or
// vanish, which is what the downstream matchers want.
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// CleanText normalizes one extracted string: brace and header noise
// removed, unicode folded to ASCII, control characters stripped, whitespace
// collapsed to single spaces (prd003-normalization R3.2).
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "{", "")
	s = strings.ReplaceAll(s, "}", "")
	for _, noise := range headerNoise {
		s = strings.ReplaceAll(s, noise, "")
	}

	if folded, _, err := transform.String(asciiFold, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
