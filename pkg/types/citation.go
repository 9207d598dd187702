// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the refcheck pipeline.
// Implements: prd001-locator (Document, PageRange);
//
//	prd002-extraction (RawRecord);
//	prd003-normalization (Citation, IdentifierKind);
//	prd004-verification (MatchResult, Verdict).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

// Document is an uploaded PDF held in memory for the duration of one
// pipeline invocation. It is never persisted (prd001-locator R1.4).
type Document struct {
	// Data is the raw PDF bytes.
	Data []byte

	// Name is the original filename, used only for logging.
	Name string
}

// PageRange is an ordered set of zero-based page indices identifying the
// bibliography. The indices need not be contiguous: reference sections
// split by appendices produce gaps (prd001-locator R2.3).
type PageRange []int

// Runs splits the range into contiguous [start, end] index pairs,
// preserving order. An empty range yields nil.
func (pr PageRange) Runs() [][2]int {
	var runs [][2]int
	for _, p := range pr {
		if n := len(runs); n > 0 && runs[n-1][1] == p-1 {
			runs[n-1][1] = p
			continue
		}
		runs = append(runs, [2]int{p, p})
	}
	return runs
}

// RawRecord is one reference as returned by the extraction service. Fields
// other than RawText are best-effort and may be empty or malformed
// (prd002-extraction R3.1).
type RawRecord struct {
	// RawText is the citation string as it appears in the document.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// Title is the title segment identified by the extractor, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Author is the first author surname identified by the extractor, if any.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Year is the publication year identified by the extractor, 0 if unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is a DOI the extractor found in structured markup, if any.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Suspicious marks records that look like prose or page furniture
	// rather than a citation (prd002-extraction R4.2). Suspicious records
	// still run the full cascade; the flag only changes how a total miss
	// is reported.
	Suspicious bool `json:"suspicious,omitempty" yaml:"suspicious,omitempty"`
}

// IdentifierKind names a strong matching key embedded in a citation.
type IdentifierKind string

const (
	IdentDOI   IdentifierKind = "doi"
	IdentISBN  IdentifierKind = "isbn"
	IdentRFC   IdentifierKind = "rfc"
	IdentWG21  IdentifierKind = "wg21"
	IdentArxiv IdentifierKind = "arxiv"
)

// Citation is the canonical, normalized form of one reference
// (prd003-normalization R1). Title is non-empty for every Citation that
// reaches the cascade; records the normalizer cannot title are reported as
// unparseable and never submitted for matching.
type Citation struct {
	// Title is the normalized work title.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in citation order. May hold only the
	// first author when that is all the extractor or parser recovered.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, 0 if unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal, conference, or publisher string, if any.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Identifiers maps identifier kind to the extracted value (bare DOI,
	// 13-digit ISBN, RFC number, WG21 paper number, arXiv id).
	Identifiers map[IdentifierKind]string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	// RawText is the cleaned citation string the fields were derived from.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// Suspicious carries the extractor's prose/noise flag through to
	// reporting.
	Suspicious bool `json:"suspicious,omitempty" yaml:"suspicious,omitempty"`
}

// Identifier returns the value for kind and whether it is present.
func (c Citation) Identifier(kind IdentifierKind) (string, bool) {
	v, ok := c.Identifiers[kind]
	return v, ok
}

// MatchResult is one source's answer for one citation
// (prd004-verification R2.4).
type MatchResult struct {
	// Matched reports whether the source found the work.
	Matched bool `json:"matched" yaml:"matched"`

	// Confidence is in [0, 1]. Identifier-exact matches score 1.0; fuzzy
	// matches carry the title similarity after any year-gap penalty.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Source is the name of the source that produced this result.
	Source string `json:"source" yaml:"source"`

	// MatchedID is the identifier or URL of the matched record, if any.
	MatchedID string `json:"matched_id,omitempty" yaml:"matched_id,omitempty"`

	// MatchedTitle is the title of the matched record, if any.
	MatchedTitle string `json:"matched_title,omitempty" yaml:"matched_title,omitempty"`

	// Year is the publication year of the matched record, 0 if unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Note carries source-specific context for display, e.g.
	// "preprint lag (2 years)".
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Verdict is the final outcome for one citation after the cascade
// (prd004-verification R1.3). Verdicts are owned by the aggregator and
// immutable once produced.
type Verdict struct {
	// Citation is the canonical citation the cascade ran for.
	Citation Citation `json:"citation" yaml:"citation"`

	// Matched reports whether any source confirmed the citation.
	Matched bool `json:"matched" yaml:"matched"`

	// Source is the confirming source name, empty when unmatched.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Confidence is the confirming source's confidence, 0 when unmatched.
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// MatchedID and MatchedTitle echo the winning MatchResult for display.
	MatchedID    string `json:"matched_id,omitempty" yaml:"matched_id,omitempty"`
	MatchedTitle string `json:"matched_title,omitempty" yaml:"matched_title,omitempty"`

	// Note carries the winning MatchResult's note, if any.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}
