// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/refcheck/pkg/types"
)

// wg21Base is the WG21 paper redirect service. Var for httptest substitution.
var wg21Base = "https://wg21.link"

// WG21 verifies C++ committee papers (N- and P-numbers) against the
// wg21.link redirect service. A paper exists iff its short link resolves
// (prd004-verification R2.2).
type WG21 struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.MatchConfig
}

// NewWG21 builds the WG21 source.
func NewWG21(cfg types.MatchConfig) *WG21 {
	return &WG21{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newLimiter(cfg, NameWG21),
		cfg:     cfg,
	}
}

// Name returns the source identifier.
func (s *WG21) Name() string { return NameWG21 }

// Applicable is true only when a committee paper number was extracted.
func (s *WG21) Applicable(c types.Citation) bool {
	_, ok := c.Identifier(types.IdentWG21)
	return ok
}

// Match issues a HEAD request against the short link. 200 is an exact
// match; 404 means no such paper. Other statuses are source errors.
func (s *WG21) Match(ctx context.Context, c types.Citation) (types.MatchResult, error) {
	id, ok := c.Identifier(types.IdentWG21)
	if !ok {
		return types.MatchResult{Source: NameWG21}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return types.MatchResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	link := wg21Base + "/" + strings.ToLower(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("wg21.link request: %w", err)
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return types.MatchResult{
			Matched:      true,
			Confidence:   1.0,
			Source:       NameWG21,
			MatchedID:    strings.ToUpper(id),
			MatchedTitle: c.Title,
		}, nil
	case http.StatusNotFound:
		return types.MatchResult{Source: NameWG21}, nil
	default:
		return types.MatchResult{}, fmt.Errorf("wg21.link returned HTTP %d", resp.StatusCode)
	}
}
