// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the stages into the end-to-end document check:
// locate, extract, normalize, verify, report.
// Implements: docs/ARCHITECTURE § Pipeline Interface.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/refcheck/internal/cascade"
	"github.com/pdiddy/refcheck/internal/grobid"
	"github.com/pdiddy/refcheck/internal/locate"
	"github.com/pdiddy/refcheck/internal/normalize"
	"github.com/pdiddy/refcheck/internal/parser"
	"github.com/pdiddy/refcheck/internal/report"
	"github.com/pdiddy/refcheck/pkg/types"
)

// Locator finds the bibliography pages of a document.
type Locator interface {
	Locate(doc *types.Document) (types.PageRange, error)
}

// Extractor yields raw reference records from the located pages.
type Extractor interface {
	Extract(ctx context.Context, doc *types.Document, pages types.PageRange) ([]types.RawRecord, error)
}

// Normalizer turns one raw record into a canonical citation.
type Normalizer interface {
	Normalize(ctx context.Context, rec types.RawRecord) (types.Citation, error)
}

// Resolver verifies a batch of citations against the source cascade.
type Resolver interface {
	ResolveAll(ctx context.Context, citations []types.Citation) ([]types.Verdict, error)
}

// Checker runs documents or bare reference lists through the pipeline.
// Stage failures before verification abort the whole check; per-citation
// failures never do.
type Checker struct {
	locator    Locator
	extractor  Extractor
	normalizer Normalizer
	resolver   Resolver
	log        *zap.SugaredLogger
}

// New builds a Checker from explicit stages. Tests substitute fakes here.
func New(l Locator, e Extractor, n Normalizer, r Resolver, log *zap.SugaredLogger) *Checker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Checker{locator: l, extractor: e, normalizer: n, resolver: r, log: log}
}

// FromConfig builds a Checker with the production stages.
func FromConfig(cfg types.PipelineConfig, log *zap.SugaredLogger) *Checker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return New(
		locatorFunc(locate.Locate),
		grobid.NewClient(cfg.Extraction, log),
		normalize.New(parser.NewOllama(cfg.Parser), log),
		cascade.Default(cfg.Match, log),
		log,
	)
}

// locatorFunc adapts a plain locate function to the Locator seam.
type locatorFunc func(*types.Document) (types.PageRange, error)

func (f locatorFunc) Locate(doc *types.Document) (types.PageRange, error) { return f(doc) }

// CheckDocument runs the full pipeline over one in-memory PDF. The
// document bytes are never written to disk. Locator and extraction errors
// abort the check; downstream a citation can only fail individually.
func (ch *Checker) CheckDocument(ctx context.Context, doc *types.Document) (types.Report, error) {
	pages, err := ch.locator.Locate(doc)
	if err != nil {
		return types.Report{}, fmt.Errorf("locating references in %q: %w", doc.Name, err)
	}
	ch.log.Infow("located references", "document", doc.Name, "pages", pages)

	records, err := ch.extractor.Extract(ctx, doc, pages)
	if err != nil {
		return types.Report{}, fmt.Errorf("extracting references from %q: %w", doc.Name, err)
	}
	ch.log.Infow("extracted references", "document", doc.Name, "count", len(records))

	return ch.check(ctx, records)
}

// CheckReferences verifies bare citation strings, skipping the document
// stages. Used by the reference-list API and the verify command.
func (ch *Checker) CheckReferences(ctx context.Context, refs []string) (types.Report, error) {
	records := make([]types.RawRecord, len(refs))
	for i, r := range refs {
		records[i] = types.RawRecord{RawText: r}
	}
	return ch.check(ctx, records)
}

// check normalizes every record, resolves the parseable ones, and
// aggregates. Items stay in record order; unparseable records keep their
// slot with a nil verdict.
func (ch *Checker) check(ctx context.Context, records []types.RawRecord) (types.Report, error) {
	items := make([]report.Item, len(records))
	var citations []types.Citation
	var slots []int

	for i, rec := range records {
		items[i] = report.Item{Raw: rec}

		c, err := ch.normalizer.Normalize(ctx, rec)
		if err != nil {
			if !errors.Is(err, normalize.ErrUnparseable) {
				ch.log.Warnw("normalization failed", "index", i, "error", err)
			}
			continue
		}
		citations = append(citations, c)
		slots = append(slots, i)
	}

	verdicts, err := ch.resolver.ResolveAll(ctx, citations)
	if err != nil {
		return types.Report{}, fmt.Errorf("resolving citations: %w", err)
	}

	for j := range verdicts {
		v := verdicts[j]
		items[slots[j]].Verdict = &v
	}
	return report.Aggregate(items), nil
}
