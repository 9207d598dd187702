// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/refcheck/pkg/types"
)

// ietfBase is the IETF datatracker root. Var for httptest substitution.
var ietfBase = "https://datatracker.ietf.org"

// IETF verifies RFC citations against the datatracker document pages
// (prd004-verification R2.2).
type IETF struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.MatchConfig
}

// NewIETF builds the IETF source.
func NewIETF(cfg types.MatchConfig) *IETF {
	return &IETF{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newLimiter(cfg, NameIETF),
		cfg:     cfg,
	}
}

// Name returns the source identifier.
func (s *IETF) Name() string { return NameIETF }

// Applicable is true only when an RFC number was extracted.
func (s *IETF) Applicable(c types.Citation) bool {
	_, ok := c.Identifier(types.IdentRFC)
	return ok
}

// Match issues a HEAD request against the datatracker document page for
// the RFC. 200 is an exact match; 404 means no such RFC.
func (s *IETF) Match(ctx context.Context, c types.Citation) (types.MatchResult, error) {
	num, ok := c.Identifier(types.IdentRFC)
	if !ok {
		return types.MatchResult{Source: NameIETF}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return types.MatchResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	link := fmt.Sprintf("%s/doc/rfc%s/", ietfBase, num)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("datatracker request: %w", err)
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return types.MatchResult{
			Matched:      true,
			Confidence:   1.0,
			Source:       NameIETF,
			MatchedID:    "RFC " + num,
			MatchedTitle: c.Title,
		}, nil
	case http.StatusNotFound:
		return types.MatchResult{Source: NameIETF}, nil
	default:
		return types.MatchResult{}, fmt.Errorf("datatracker returned HTTP %d", resp.StatusCode)
	}
}
