// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/pdiddy/refcheck/internal/httputil"
	"github.com/pdiddy/refcheck/pkg/types"
)

// crossrefBase is the Crossref works endpoint. Var for httptest substitution.
var crossrefBase = "https://api.crossref.org/works"

// Crossref is the DOI registry backstop: a direct DOI lookup, then a
// bibliographic query over the raw citation text (prd004-verification R2.3).
type Crossref struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.MatchConfig
}

// NewCrossref builds the Crossref source.
func NewCrossref(cfg types.MatchConfig) *Crossref {
	return &Crossref{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newLimiter(cfg, NameCrossref),
		cfg:     cfg,
	}
}

// Name returns the source identifier.
func (s *Crossref) Name() string { return NameCrossref }

// Applicable is always true: query.bibliographic accepts any citation text.
func (s *Crossref) Applicable(types.Citation) bool { return true }

// Match resolves a DOI directly when the citation carries one, otherwise
// runs a bibliographic query and scores the rows.
func (s *Crossref) Match(ctx context.Context, c types.Citation) (types.MatchResult, error) {
	if doi, ok := c.Identifier(types.IdentDOI); ok {
		work, found, err := s.lookupDOI(ctx, doi)
		if err != nil {
			return types.MatchResult{}, err
		}
		if found {
			return types.MatchResult{
				Matched:      true,
				Confidence:   1.0,
				Source:       NameCrossref,
				MatchedID:    work.DOI,
				MatchedTitle: firstOf(work.Title),
				Year:         work.year(),
			}, nil
		}
	}

	query := c.RawText
	if query == "" {
		query = c.Title
	}
	if query == "" {
		return types.MatchResult{Source: NameCrossref}, nil
	}

	works, err := s.search(ctx, query)
	if err != nil {
		return types.MatchResult{}, err
	}

	result := types.MatchResult{Source: NameCrossref}
	for _, w := range works {
		score := TitleSimilarity(c.Title, firstOf(w.Title))
		if score < s.cfg.SimilarityCutoff {
			continue
		}
		conf, note := yearGapNote(score, c.Year, w.year())
		if !result.Matched || conf > result.Confidence {
			result = types.MatchResult{
				Matched:      true,
				Confidence:   conf,
				Source:       NameCrossref,
				MatchedID:    w.DOI,
				MatchedTitle: firstOf(w.Title),
				Year:         w.year(),
				Note:         note,
			}
		}
	}
	return result, nil
}

func (s *Crossref) lookupDOI(ctx context.Context, doi string) (crossrefWork, bool, error) {
	body, status, err := s.get(ctx, crossrefBase+"/"+url.PathEscape(doi))
	if err != nil {
		return crossrefWork{}, false, err
	}
	if status == http.StatusNotFound {
		return crossrefWork{}, false, nil
	}
	if status != http.StatusOK {
		return crossrefWork{}, false, fmt.Errorf("Crossref returned HTTP %d", status)
	}

	var cr struct {
		Message crossrefWork `json:"message"`
	}
	if err := json.Unmarshal(body, &cr); err != nil {
		return crossrefWork{}, false, fmt.Errorf("parsing Crossref response: %w", err)
	}
	return cr.Message, true, nil
}

func (s *Crossref) search(ctx context.Context, query string) ([]crossrefWork, error) {
	params := url.Values{
		"query.bibliographic": {query},
		"rows":                {strconv.Itoa(s.rows())},
		"select":              {"DOI,title,published"},
	}
	if s.cfg.ContactEmail != "" {
		params.Set("mailto", s.cfg.ContactEmail)
	}

	body, status, err := s.get(ctx, crossrefBase+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("Crossref returned HTTP %d", status)
	}

	var cr struct {
		Message struct {
			Items []crossrefWork `json:"items"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}
	return cr.Message.Items, nil
}

func (s *Crossref) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("Crossref request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func (s *Crossref) rows() int {
	if s.cfg.MaxCandidates > 0 {
		return s.cfg.MaxCandidates
	}
	return 15
}

// Crossref API JSON structures.
type crossrefWork struct {
	DOI       string   `json:"DOI"`
	Title     []string `json:"title"`
	Published struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
}

func (w crossrefWork) year() int {
	if len(w.Published.DateParts) > 0 && len(w.Published.DateParts[0]) > 0 {
		return w.Published.DateParts[0][0]
	}
	return 0
}
