// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/refcheck/pkg/types"
)

func TestSemanticScholarArxivExact(t *testing.T) {
	var receivedPath, receivedKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"paperId":"abc123","title":"Auto-Encoding Variational Bayes","year":2013,"externalIds":{"ArXiv":"1312.6114"}}`)
	}))
	defer ts.Close()

	old := semanticScholarBase
	semanticScholarBase = ts.URL
	defer func() { semanticScholarBase = old }()

	cfg := testCfg()
	cfg.SemanticScholarAPIKey = "sekrit"
	s := NewSemanticScholar(cfg)
	c := types.Citation{
		Title:       "Auto-Encoding Variational Bayes",
		Identifiers: map[types.IdentifierKind]string{types.IdentArxiv: "1312.6114"},
	}
	got, err := s.Match(context.Background(), c)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !got.Matched || got.Confidence != 1.0 {
		t.Errorf("Match() = %+v, want exact arXiv match with confidence 1.0", got)
	}
	if got.MatchedID != "arXiv:1312.6114" {
		t.Errorf("MatchedID = %q, want %q", got.MatchedID, "arXiv:1312.6114")
	}
	if receivedPath != "/paper/ARXIV:1312.6114" {
		t.Errorf("path = %q, want /paper/ARXIV:1312.6114", receivedPath)
	}
	if receivedKey != "sekrit" {
		t.Errorf("x-api-key = %q, want the configured key", receivedKey)
	}
}

func TestSemanticScholarTitleSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/paper/search" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"data":[
			{"paperId":"x1","title":"A Different Paper Entirely","year":2001},
			{"paperId":"x2","title":"Paxos Made Simple","year":2001,"externalIds":{"DOI":"10.1000/paxos"}}
		]}`)
	}))
	defer ts.Close()

	old := semanticScholarBase
	semanticScholarBase = ts.URL
	defer func() { semanticScholarBase = old }()

	s := NewSemanticScholar(testCfg())
	got, err := s.Match(context.Background(), types.Citation{Title: "Paxos Made Simple", Year: 2001})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !got.Matched {
		t.Fatalf("Match() = %+v, want a match from the title search", got)
	}
	if got.MatchedID != "10.1000/paxos" {
		t.Errorf("MatchedID = %q, want the DOI over the internal paper id", got.MatchedID)
	}
	if got.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", got.Confidence)
	}
}

func TestSemanticScholarApplicable(t *testing.T) {
	s := NewSemanticScholar(testCfg())
	if s.Applicable(types.Citation{}) {
		t.Error("untitled citation should not be applicable")
	}
	if !s.Applicable(types.Citation{Title: "Anything"}) {
		t.Error("titled citation should be applicable")
	}
}
