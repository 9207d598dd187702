// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw extraction records into canonical citations.
// Implements: prd003-normalization (R1-R4);
//
//	docs/ARCHITECTURE § Citation Normalizer.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/pdiddy/refcheck/internal/parser"
	"github.com/pdiddy/refcheck/pkg/types"
)

// ErrUnparseable marks a record that normalization could not title. The
// caller reports it as a distinct verdict and excludes it from the cascade;
// a single bad citation never blocks the rest (prd003-normalization R1.2).
var ErrUnparseable = errors.New("unparseable citation")

// minRawLength rejects fragments too short to be citations (page numbers,
// orphaned markers).
const minRawLength = 10

// Normalizer produces canonical citations, invoking the fallback parser
// only for records the extractor could not structure.
type Normalizer struct {
	fallback parser.Parser
	log      *zap.SugaredLogger
}

// New builds a Normalizer. fallback may be nil, in which case unstructured
// records go straight to unparseable.
func New(fallback parser.Parser, log *zap.SugaredLogger) *Normalizer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Normalizer{fallback: fallback, log: log}
}

// Normalize converts one raw record into a canonical Citation. Identifier
// extraction runs on the cleaned raw text regardless of which parsing path
// fills the fields: identifiers are high-confidence matching keys even when
// the rest of the citation is noise (prd003-normalization R3.1).
func (n *Normalizer) Normalize(ctx context.Context, rec types.RawRecord) (types.Citation, error) {
	clean := CleanText(rec.RawText)

	c := types.Citation{
		RawText:     clean,
		Identifiers: ExtractIdentifiers(clean),
		Suspicious:  rec.Suspicious,
	}

	if len(clean) < minRawLength {
		return c, fmt.Errorf("%w: %d chars of text", ErrUnparseable, len(clean))
	}

	// Cheap path: the extractor already structured this record
	// (prd003-normalization R2.1). No network or model call.
	if rec.Title != "" && rec.Author != "" {
		c.Title = CleanText(rec.Title)
		c.Authors = []string{CleanText(rec.Author)}
		c.Year = rec.Year
	} else {
		if n.fallback == nil {
			return c, fmt.Errorf("%w: no structured fields and no fallback parser", ErrUnparseable)
		}
		parsed, err := n.fallback.Parse(ctx, clean)
		if err != nil {
			n.log.Warnw("fallback parse failed", "err", err)
			return c, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		c.Title = CleanText(parsed.Title)
		if a := CleanText(parsed.Author); a != "" {
			c.Authors = []string{a}
		}
		c.Year = parsed.Year
	}

	// An arXiv id pins the submission year; it wins over whatever year
	// the extractor or model picked out of the text.
	if id, ok := c.Identifiers[types.IdentArxiv]; ok && len(id) >= 2 {
		if yy, err := strconv.Atoi(id[:2]); err == nil {
			c.Year = 2000 + yy
		}
	}

	if c.Title == "" {
		return c, fmt.Errorf("%w: no title recovered", ErrUnparseable)
	}
	return c, nil
}
