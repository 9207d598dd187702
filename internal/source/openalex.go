// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/refcheck/internal/httputil"
	"github.com/pdiddy/refcheck/pkg/types"
)

// openAlexBase is the OpenAlex works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexBase = "https://api.openalex.org/works"

// OpenAlex is the primary academic index: DOI and arXiv exact lookups,
// then a title/author search waterfall (prd004-verification R2.1).
type OpenAlex struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.MatchConfig
}

// NewOpenAlex builds the OpenAlex source.
func NewOpenAlex(cfg types.MatchConfig) *OpenAlex {
	return &OpenAlex{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newLimiter(cfg, NameOpenAlex),
		cfg:     cfg,
	}
}

// Name returns the source identifier.
func (s *OpenAlex) Name() string { return NameOpenAlex }

// Applicable is always true: OpenAlex is the broad-coverage head of the
// cascade.
func (s *OpenAlex) Applicable(types.Citation) bool { return true }

// Match tries identifier-exact lookups first, then walks the search
// waterfall: title+author filter, general search, author only, title only.
// The first step returning candidates is scored; later steps are never
// queried once one yields rows.
func (s *OpenAlex) Match(ctx context.Context, c types.Citation) (types.MatchResult, error) {
	if doi, ok := c.Identifier(types.IdentDOI); ok {
		works, err := s.query(ctx, url.Values{"filter": {"doi:https://doi.org/" + doi}})
		if err != nil {
			return types.MatchResult{}, err
		}
		if len(works) > 0 {
			return s.exact(works[0], doi), nil
		}
	}
	if arxiv, ok := c.Identifier(types.IdentArxiv); ok {
		works, err := s.query(ctx, url.Values{"filter": {"ids.arxiv:" + arxiv}})
		if err != nil {
			return types.MatchResult{}, err
		}
		if len(works) > 0 {
			return s.exact(works[0], "arXiv:"+arxiv), nil
		}
	}

	title := cleanQuery(c.Title)
	author := cleanQuery(firstAuthor(c))

	steps := []url.Values{}
	if title != "" && author != "" {
		steps = append(steps, url.Values{"filter": {fmt.Sprintf("title.search:%s,raw_author_name.search:%s", title, author)}})
	}
	if c.Title != "" {
		steps = append(steps, url.Values{"search": {c.Title}})
	}
	if author != "" {
		steps = append(steps, url.Values{"filter": {"raw_author_name.search:" + author}})
	}
	if title != "" {
		steps = append(steps, url.Values{"filter": {"title.search:" + title}})
	}

	for _, params := range steps {
		works, err := s.query(ctx, params)
		if err != nil {
			return types.MatchResult{}, err
		}
		if len(works) > 0 {
			return s.best(c, works), nil
		}
	}
	return types.MatchResult{Source: NameOpenAlex}, nil
}

func (s *OpenAlex) exact(w openAlexWork, id string) types.MatchResult {
	return types.MatchResult{
		Matched:      true,
		Confidence:   1.0,
		Source:       NameOpenAlex,
		MatchedID:    id,
		MatchedTitle: w.DisplayName,
		Year:         w.PublicationYear,
	}
}

// best scores up to MaxCandidates rows against the citation and returns
// the highest-confidence candidate that clears the similarity cutoff.
func (s *OpenAlex) best(c types.Citation, works []openAlexWork) types.MatchResult {
	limit := s.cfg.MaxCandidates
	if limit <= 0 || limit > len(works) {
		limit = len(works)
	}

	result := types.MatchResult{Source: NameOpenAlex}
	for _, w := range works[:limit] {
		score := TitleSimilarity(c.Title, w.DisplayName)
		if score < s.cfg.SimilarityCutoff {
			continue
		}
		conf, note := yearGapNote(score, c.Year, w.PublicationYear)
		if !result.Matched || conf > result.Confidence {
			result = types.MatchResult{
				Matched:      true,
				Confidence:   conf,
				Source:       NameOpenAlex,
				MatchedID:    strings.TrimPrefix(w.DOI, "https://doi.org/"),
				MatchedTitle: w.DisplayName,
				Year:         w.PublicationYear,
				Note:         note,
			}
		}
	}
	return result
}

func (s *OpenAlex) query(ctx context.Context, params url.Values) ([]openAlexWork, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("select", "id,display_name,publication_year,doi")
	if s.cfg.ContactEmail != "" {
		params.Set("mailto", s.cfg.ContactEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return oar.Results, nil
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	DOI             string `json:"doi"`
	PublicationYear int    `json:"publication_year"`
}
