// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report turns pipeline outcomes into the ordered, color-coded
// verification report.
// Implements: prd005-reporting (R1-R3); docs/ARCHITECTURE § Reporting.
package report

import (
	"github.com/pdiddy/refcheck/pkg/types"
)

// Item is one reference's terminal pipeline state: the raw record plus
// the cascade verdict, or a nil verdict when normalization failed.
type Item struct {
	Raw     types.RawRecord
	Verdict *types.Verdict
}

// colorForSource maps a confirming source to its presentation color.
// Everything that was not verified renders gray.
var colorForSource = map[string]string{
	"openalex":        "blue",
	"wg21":            "purple",
	"crossref":        "yellow",
	"semanticscholar": "emerald",
	"ietf":            "pink",
	"openlibrary":     "cyan",
}

const colorUnmatched = "gray"

// ColorFor returns the presentation color for a verified source name.
// Unknown or empty names render gray.
func ColorFor(source string) string {
	if c, ok := colorForSource[source]; ok {
		return c
	}
	return colorUnmatched
}

// Aggregate builds the report. Entries keep the input order, so the
// report lines up one-to-one with the document's bibliography: the entry
// count always equals the item count, whatever happened to each citation
// along the way (prd005-reporting R1.1, R1.3).
func Aggregate(items []Item) types.Report {
	r := types.Report{Entries: make([]types.ReportEntry, 0, len(items))}
	for i, it := range items {
		e := entry(i, it)
		r.Entries = append(r.Entries, e)

		r.Summary.Total++
		switch e.Status {
		case types.StatusVerified:
			r.Summary.Verified++
		case types.StatusUnmatched:
			r.Summary.Unmatched++
		case types.StatusUnparseable:
			r.Summary.Unparseable++
		case types.StatusNotReference:
			r.Summary.NotReference++
		}
	}
	return r
}

func entry(index int, it Item) types.ReportEntry {
	e := types.ReportEntry{
		Index:   index,
		RawText: it.Raw.RawText,
		Color:   colorUnmatched,
	}

	if it.Verdict == nil {
		e.Status = types.StatusUnparseable
		if it.Raw.Suspicious {
			e.Status = types.StatusNotReference
		}
		return e
	}

	v := it.Verdict
	e.Title = v.Citation.Title
	e.Authors = v.Citation.Authors
	e.Year = v.Citation.Year
	if v.Citation.RawText != "" {
		e.RawText = v.Citation.RawText
	}

	if !v.Matched {
		e.Status = types.StatusUnmatched
		if v.Citation.Suspicious {
			e.Status = types.StatusNotReference
		}
		return e
	}

	e.Status = types.StatusVerified
	e.Source = v.Source
	e.Confidence = v.Confidence
	e.MatchedID = v.MatchedID
	e.MatchedTitle = v.MatchedTitle
	e.Note = v.Note
	e.Color = ColorFor(v.Source)
	return e
}
