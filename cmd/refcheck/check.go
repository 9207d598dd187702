// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refcheck/internal/pipeline"
	"github.com/pdiddy/refcheck/internal/report"
	"github.com/pdiddy/refcheck/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <file.pdf>",
	Short: "Verify every reference in a PDF",
	Long: `Check locates the bibliography of a PDF, extracts its references, and
verifies each one against the source cascade. The report lists every
reference in document order with its verification status.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := buildLogger(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		doc := &types.Document{Data: data, Name: filepath.Base(args[0])}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()

		checker := pipeline.FromConfig(buildConfig(), log)
		rep, err := checker.CheckDocument(ctx, doc)
		if err != nil {
			return err
		}
		return writeReport(cmd, rep)
	},
}

func init() {
	checkCmd.Flags().String("format", "table", "output format: table, json, or yaml")
	checkCmd.Flags().String("output", "", "write the report to a file instead of stdout")

	rootCmd.AddCommand(checkCmd)
}

// writeReport renders a report per the --format and --output flags.
func writeReport(cmd *cobra.Command, rep types.Report) error {
	var out io.Writer = os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return report.FormatJSON(out, rep)
	case "yaml":
		return report.FormatYAML(out, rep)
	case "table", "":
		return report.FormatTable(out, rep)
	default:
		return fmt.Errorf("unknown format %q (want table, json, or yaml)", format)
	}
}
