// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package locate finds the bibliography pages of a PDF document.
// Implements: prd001-locator (R1-R3);
//
//	docs/ARCHITECTURE § Reference Locator.
package locate

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/refcheck/pkg/types"
)

// ErrNoReferencesFound is returned when no page of a valid document scores
// above the reference-page threshold (prd001-locator R3.1). Distinct from
// ErrBadDocument: the PDF itself was readable.
var ErrNoReferencesFound = errors.New("no reference pages found")

// ErrBadDocument is returned when the PDF cannot be opened or parsed.
var ErrBadDocument = errors.New("malformed document")

// Page scoring weights and threshold, tuned against single articles and
// full journal issues alike. A heading is a strong signal but not required:
// continuation pages carry no heading and are caught by marker density.
const (
	headingScore   = 50
	markerWeight   = 2
	yearWeight     = 1
	tokenWeight    = 1
	scoreThreshold = 15

	// headingWindow bounds how far into the page text a section heading
	// is considered a heading rather than an in-body mention.
	headingWindow = 1000
)

var (
	headingRe = regexp.MustCompile(`(?mi)^\s*(?:REFERENCES|BIBLIOGRAPHY|LITERATURE CITED|WORKS CITED)\s*$`)
	markerRe  = regexp.MustCompile(`(?m)(?:\[\d+\]|^\s*\d+\.)`)
	yearRe    = regexp.MustCompile(`\b(?:19|20)\d{2}[a-z]?\b`)
	tokenRe   = regexp.MustCompile(`(?i)\b(?:vol|pp|doi|eds|proc|trans)\.`)
)

// pageTexts extracts the plain text of every page. A package variable so
// tests can score synthetic documents without crafting PDF bytes.
var pageTexts = extractPageTexts

// Locate determines which pages of doc contain the bibliography. The
// result is an ascending, possibly non-contiguous set of zero-based page
// indices. Pure over the document content: no side effects, no network.
func Locate(doc *types.Document) (types.PageRange, error) {
	texts, err := pageTexts(doc)
	if err != nil {
		return nil, err
	}

	var pages types.PageRange
	for i, text := range texts {
		if ScorePage(text) > scoreThreshold {
			pages = append(pages, i)
		}
	}

	if len(pages) == 0 {
		return nil, ErrNoReferencesFound
	}
	return pages, nil
}

func extractPageTexts(doc *types.Document) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	n := reader.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrBadDocument)
	}

	texts := make([]string, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unextractable pages score zero rather than failing the
			// document: scanned appendices are common.
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}

// ScorePage computes the reference-likeness score for one page of text.
// Exported for threshold tuning in tests.
func ScorePage(text string) int {
	score := 0

	head := text
	if len(head) > headingWindow {
		head = head[:headingWindow]
	}
	if headingRe.MatchString(head) {
		score += headingScore
	}

	score += markerWeight * len(markerRe.FindAllString(text, -1))
	score += yearWeight * len(yearRe.FindAllString(text, -1))
	score += tokenWeight * len(tokenRe.FindAllString(text, -1))

	return score
}
