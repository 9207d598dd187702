// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cascade runs citations through the verification sources in
// priority order and produces verdicts.
// Implements: prd004-verification (R1, R3, R4);
//
//	docs/ARCHITECTURE § Source Cascade Matcher.
package cascade

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/refcheck/internal/source"
	"github.com/pdiddy/refcheck/pkg/types"
)

// Resolver queries an ordered list of sources for each citation. Order
// encodes trust: the first source whose confidence clears the acceptance
// threshold wins and the rest are never queried for that citation.
type Resolver struct {
	sources []source.Source
	cfg     types.MatchConfig
	log     *zap.SugaredLogger
}

// New builds a Resolver over an explicit source order.
func New(cfg types.MatchConfig, log *zap.SugaredLogger, sources ...source.Source) *Resolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{sources: sources, cfg: cfg, log: log}
}

// Default builds a Resolver with the standard cascade: OpenAlex, WG21,
// IETF, Crossref, Semantic Scholar, Open Library.
func Default(cfg types.MatchConfig, log *zap.SugaredLogger) *Resolver {
	return New(cfg, log,
		source.NewOpenAlex(cfg),
		source.NewWG21(cfg),
		source.NewIETF(cfg),
		source.NewCrossref(cfg),
		source.NewSemanticScholar(cfg),
		source.NewOpenLibrary(cfg),
	)
}

// Resolve runs one citation through the cascade. Inapplicable sources are
// skipped without spending their rate budget. A source error is logged
// and treated as a non-match: one API being down degrades coverage, never
// the run (prd004-verification R4.1). When no source clears the
// acceptance threshold the best sub-threshold match, if any, is reported
// with its own confidence.
func (r *Resolver) Resolve(ctx context.Context, c types.Citation) types.Verdict {
	var best types.MatchResult
	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			break
		}
		if !src.Applicable(c) {
			continue
		}

		result, err := r.match(ctx, src, c)
		if err != nil {
			r.log.Warnw("source query failed", "source", src.Name(), "title", c.Title, "error", err)
			continue
		}
		if !result.Matched {
			continue
		}
		if result.Confidence >= r.cfg.AcceptConfidence {
			return verdict(c, result)
		}
		if result.Confidence > best.Confidence {
			best = result
		}
	}

	if best.Matched {
		return verdict(c, best)
	}
	return types.Verdict{Citation: c}
}

// match bounds one source call by the configured per-call timeout.
func (r *Resolver) match(ctx context.Context, src source.Source, c types.Citation) (types.MatchResult, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	return src.Match(ctx, c)
}

// ResolveAll resolves a batch concurrently with at most MaxWorkers
// cascades in flight, returning verdicts in input order. Cancellation
// aborts the batch: a cancelled run returns the context error and no
// verdicts (prd004-verification R4.4).
func (r *Resolver) ResolveAll(ctx context.Context, citations []types.Citation) ([]types.Verdict, error) {
	workers := r.cfg.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(citations) {
		workers = len(citations)
	}

	verdicts := make([]types.Verdict, len(citations))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				verdicts[i] = r.Resolve(ctx, citations[i])
			}
		}()
	}

	for i := range citations {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func verdict(c types.Citation, r types.MatchResult) types.Verdict {
	return types.Verdict{
		Citation:     c,
		Matched:      true,
		Source:       r.Source,
		Confidence:   r.Confidence,
		MatchedID:    r.MatchedID,
		MatchedTitle: r.MatchedTitle,
		Note:         r.Note,
	}
}
