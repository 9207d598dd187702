// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refcheck/internal/pipeline"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [reference ...]",
	Short: "Verify bare citation strings",
	Long: `Verify runs citation strings through normalization and the source cascade
without the document stages. References come from arguments, from --input
(one per line), or from stdin when neither is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := buildLogger(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		refs, err := gatherReferences(cmd, args)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return fmt.Errorf("no references given")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()

		checker := pipeline.FromConfig(buildConfig(), log)
		rep, err := checker.CheckReferences(ctx, refs)
		if err != nil {
			return err
		}
		return writeReport(cmd, rep)
	},
}

func init() {
	verifyCmd.Flags().String("input", "", "file with one reference per line")
	verifyCmd.Flags().String("format", "table", "output format: table, json, or yaml")
	verifyCmd.Flags().String("output", "", "write the report to a file instead of stdout")

	rootCmd.AddCommand(verifyCmd)
}

// gatherReferences collects references from args, --input, or stdin, in
// that order of preference. Blank lines are skipped.
func gatherReferences(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	in := os.Stdin
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	var refs []string
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			refs = append(refs, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading references: %w", err)
	}
	return refs, nil
}
