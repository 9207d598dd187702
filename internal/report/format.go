// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refcheck/pkg/types"
)

// FormatJSON writes the report as indented JSON.
func FormatJSON(w io.Writer, r types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// FormatYAML writes the report as YAML.
func FormatYAML(w io.Writer, r types.Report) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// FormatTable writes a human-readable table, one row per citation in
// document order, followed by the summary line.
func FormatTable(w io.Writer, r types.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTATUS\tSOURCE\tCONF\tTITLE\tNOTE")
	for _, e := range r.Entries {
		conf := ""
		if e.Status == types.StatusVerified {
			conf = fmt.Sprintf("%.2f", e.Confidence)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Index+1, e.Status, e.Source, conf, titleOf(e), e.Note)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	s := r.Summary
	_, err := fmt.Fprintf(w, "\n%d references: %d verified, %d unmatched, %d unparseable, %d not references\n",
		s.Total, s.Verified, s.Unmatched, s.Unparseable, s.NotReference)
	return err
}

const maxTitleWidth = 60

// titleOf picks the best display string for a row and clips it so one
// pathological extraction blob cannot wreck the table.
func titleOf(e types.ReportEntry) string {
	t := e.Title
	if t == "" {
		t = strings.Join(strings.Fields(e.RawText), " ")
	}
	if len(t) > maxTitleWidth {
		t = t[:maxTitleWidth-3] + "..."
	}
	return t
}
