// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/refcheck/internal/httputil"
	"github.com/pdiddy/refcheck/pkg/types"
)

// openLibraryBase is the Open Library API root. Var for httptest
// substitution.
var openLibraryBase = "https://openlibrary.org"

// OpenLibrary covers books, which the academic indexes miss: an ISBN
// lookup when one was extracted, otherwise a title/author search
// (prd004-verification R2.3).
type OpenLibrary struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.MatchConfig
}

// NewOpenLibrary builds the Open Library source.
func NewOpenLibrary(cfg types.MatchConfig) *OpenLibrary {
	return &OpenLibrary{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newLimiter(cfg, NameOpenLibrary),
		cfg:     cfg,
	}
}

// Name returns the source identifier.
func (s *OpenLibrary) Name() string { return NameOpenLibrary }

// Applicable is true when the citation carries an ISBN, or looks like a
// book: titled and authored but with no DOI and no venue. Journal papers
// never reach the book index.
func (s *OpenLibrary) Applicable(c types.Citation) bool {
	if _, ok := c.Identifier(types.IdentISBN); ok {
		return true
	}
	if _, ok := c.Identifier(types.IdentDOI); ok {
		return false
	}
	return c.Title != "" && len(c.Authors) > 0 && c.Venue == ""
}

// Match resolves an ISBN directly when present, otherwise searches by
// title and author and scores the rows.
func (s *OpenLibrary) Match(ctx context.Context, c types.Citation) (types.MatchResult, error) {
	if isbn, ok := c.Identifier(types.IdentISBN); ok {
		r, found, err := s.lookupISBN(ctx, isbn)
		if err != nil {
			return types.MatchResult{}, err
		}
		if found {
			return r, nil
		}
	}

	if c.Title == "" {
		return types.MatchResult{Source: NameOpenLibrary}, nil
	}

	docs, err := s.search(ctx, c)
	if err != nil {
		return types.MatchResult{}, err
	}

	result := types.MatchResult{Source: NameOpenLibrary}
	for _, d := range docs {
		score := TitleSimilarity(c.Title, d.Title)
		if score < s.cfg.SimilarityCutoff {
			continue
		}
		conf, note := yearGapNote(score, c.Year, d.FirstPublishYear)
		if !result.Matched || conf > result.Confidence {
			result = types.MatchResult{
				Matched:      true,
				Confidence:   conf,
				Source:       NameOpenLibrary,
				MatchedID:    firstOf(d.ISBN),
				MatchedTitle: d.Title,
				Year:         d.FirstPublishYear,
				Note:         note,
			}
		}
	}
	return result, nil
}

func (s *OpenLibrary) lookupISBN(ctx context.Context, isbn string) (types.MatchResult, bool, error) {
	body, status, err := s.get(ctx, openLibraryBase+"/isbn/"+isbn+".json")
	if err != nil {
		return types.MatchResult{}, false, err
	}
	if status == http.StatusNotFound {
		return types.MatchResult{}, false, nil
	}
	if status != http.StatusOK {
		return types.MatchResult{}, false, fmt.Errorf("Open Library returned HTTP %d", status)
	}

	var ed olEdition
	if err := json.Unmarshal(body, &ed); err != nil {
		return types.MatchResult{}, false, fmt.Errorf("parsing Open Library response: %w", err)
	}
	return types.MatchResult{
		Matched:      true,
		Confidence:   1.0,
		Source:       NameOpenLibrary,
		MatchedID:    isbn,
		MatchedTitle: ed.Title,
		Year:         ed.year(),
	}, true, nil
}

func (s *OpenLibrary) search(ctx context.Context, c types.Citation) ([]olDoc, error) {
	params := url.Values{
		"title":  {c.Title},
		"fields": {"title,first_publish_year,isbn"},
		"limit":  {strconv.Itoa(s.limit())},
	}
	if a := firstAuthor(c); a != "" {
		params.Set("author", a)
	}

	body, status, err := s.get(ctx, openLibraryBase+"/search.json?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("Open Library returned HTTP %d", status)
	}

	var sr struct {
		Docs []olDoc `json:"docs"`
	}
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parsing Open Library response: %w", err)
	}
	return sr.Docs, nil
}

func (s *OpenLibrary) get(ctx context.Context, rawURL string) ([]byte, int, error) {
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
		return nil, 0, fmt.Errorf("Open Library request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func (s *OpenLibrary) limit() int {
	if s.cfg.MaxCandidates > 0 {
		return s.cfg.MaxCandidates
	}
	return 15
}

// Open Library API JSON structures.
type olEdition struct {
	Title       string `json:"title"`
	PublishDate string `json:"publish_date"`
}

// year pulls a 4-digit year from the free-form publish date.
func (e olEdition) year() int {
	for _, f := range strings.Fields(e.PublishDate) {
		f = strings.Trim(f, ",.")
		if len(f) == 4 {
			if y, err := strconv.Atoi(f); err == nil && y > 1400 && y < 2200 {
				return y
			}
		}
	}
	return 0
}

type olDoc struct {
	Title            string   `json:"title"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
}
