// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EntryStatus classifies a report entry (prd005-reporting R1.2).
type EntryStatus string

const (
	// StatusVerified means a source confirmed the citation.
	StatusVerified EntryStatus = "verified"

	// StatusUnmatched means every source was exhausted without a match.
	StatusUnmatched EntryStatus = "unmatched"

	// StatusUnparseable means normalization could not recover a title, so
	// the citation never entered the cascade.
	StatusUnparseable EntryStatus = "unparseable"

	// StatusNotReference means the record was flagged as prose/noise by
	// the extractor and no source matched it.
	StatusNotReference EntryStatus = "not_reference"
)

// ReportEntry is one citation's row in the final report. It carries
// everything the presentation layer needs, including the source color,
// so renderers never reach into pipeline internals (prd005-reporting R2.1).
type ReportEntry struct {
	// Index is the citation's position in document order, starting at 0.
	Index int `json:"index" yaml:"index"`

	// Status is the final classification for this entry.
	Status EntryStatus `json:"status" yaml:"status"`

	// RawText is the citation string as extracted (cleaned).
	RawText string `json:"raw_text" yaml:"raw_text"`

	// Title, Authors, and Year are display fields from the canonical
	// citation; empty for unparseable entries.
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`

	// Source is the confirming source name, empty unless verified.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Confidence is the confirming source's confidence, 0 unless verified.
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// MatchedID and MatchedTitle identify the confirmed record, if any.
	MatchedID    string `json:"matched_id,omitempty" yaml:"matched_id,omitempty"`
	MatchedTitle string `json:"matched_title,omitempty" yaml:"matched_title,omitempty"`

	// Note carries source-specific display context, if any.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`

	// Color is the presentation color keyed by source (prd005-reporting
	// R3.1): openalex→blue, wg21→purple, crossref→yellow,
	// semanticscholar→emerald, ietf→pink, openlibrary→cyan,
	// anything unmatched→gray.
	Color string `json:"color" yaml:"color"`
}

// ReportSummary holds per-status counts for one report.
type ReportSummary struct {
	Total        int `json:"total" yaml:"total"`
	Verified     int `json:"verified" yaml:"verified"`
	Unmatched    int `json:"unmatched" yaml:"unmatched"`
	Unparseable  int `json:"unparseable" yaml:"unparseable"`
	NotReference int `json:"not_reference" yaml:"not_reference"`
}

// Report is the read-only result of one document check. Entries appear in
// the citation order of the source document (prd005-reporting R1.1).
type Report struct {
	Entries []ReportEntry `json:"entries" yaml:"entries"`
	Summary ReportSummary `json:"summary" yaml:"summary"`
}
