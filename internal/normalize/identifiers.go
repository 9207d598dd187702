// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"strings"

	"github.com/pdiddy/refcheck/pkg/types"
)

// Identifier patterns. These run on cleaned raw text, independent of any
// parser (prd003-normalization R3.1).
var (
	// doiRe matches DOIs like "10.1109/5.771073". Trailing sentence
	// punctuation is trimmed after the match.
	doiRe = regexp.MustCompile(`\b(10\.\d{4,9}/[-._;()/:a-zA-Z0-9]+)`)

	// arxivRe matches "arXiv:1312.6114" and the spaced variants PDFs
	// produce.
	arxivRe = regexp.MustCompile(`(?i)arxiv\s*[:\s]\s*(\d{4}\.\d{4,5})`)

	// rfcRe matches "RFC 793" and "RFC-1234".
	rfcRe = regexp.MustCompile(`(?i)\bRFC[\s-]?(\d{1,5})\b`)

	// wg21Re matches C++ committee paper numbers: "P1234R2", "N4861",
	// and the "P 0380R0" spacing typo common in extracted text.
	wg21Re = regexp.MustCompile(`(?i)\b([NP])\s*(\d{4}(?:R\d+)?)\b`)

	// isbnRe matches ISBN-13s starting 978/979, with or without the
	// "ISBN" prefix, hyphenated or not.
	isbnRe = regexp.MustCompile(`(?i)\b(?:ISBN[:\s]+)?((?:978|979)[0-9-]{10,17})\b`)
)

// ExtractIdentifiers scans text for strong matching keys and returns them
// keyed by kind. At most one value per kind: the first occurrence wins.
func ExtractIdentifiers(text string) map[types.IdentifierKind]string {
	ids := make(map[types.IdentifierKind]string)

	if m := doiRe.FindStringSubmatch(text); m != nil {
		ids[types.IdentDOI] = strings.TrimRight(m[1], ".,;)")
	}
	if m := arxivRe.FindStringSubmatch(text); m != nil {
		ids[types.IdentArxiv] = m[1]
	}
	if m := rfcRe.FindStringSubmatch(text); m != nil {
		ids[types.IdentRFC] = m[1]
	}
	if m := wg21Re.FindStringSubmatch(text); m != nil {
		ids[types.IdentWG21] = strings.ToUpper(m[1] + m[2])
	}
	if m := isbnRe.FindStringSubmatch(text); m != nil {
		isbn := strings.NewReplacer("-", "", " ", "").Replace(m[1])
		if len(isbn) == 13 {
			ids[types.IdentISBN] = isbn
		}
	}

	if len(ids) == 0 {
		return nil
	}
	return ids
}
