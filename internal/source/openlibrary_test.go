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

func TestOpenLibraryApplicable(t *testing.T) {
	s := NewOpenLibrary(testCfg())
	tests := []struct {
		name string
		c    types.Citation
		want bool
	}{
		{
			name: "isbn always applicable",
			c:    types.Citation{Identifiers: map[types.IdentifierKind]string{types.IdentISBN: "9780321563842"}},
			want: true,
		},
		{
			name: "doi means journal work",
			c: types.Citation{
				Title:       "Some Paper",
				Authors:     []string{"Author"},
				Identifiers: map[types.IdentifierKind]string{types.IdentDOI: "10.1/x"},
			},
			want: false,
		},
		{
			name: "book shape without identifiers",
			c:    types.Citation{Title: "The C++ Programming Language", Authors: []string{"Stroustrup"}},
			want: true,
		},
		{
			name: "venue means journal work",
			c:    types.Citation{Title: "Some Paper", Authors: []string{"Author"}, Venue: "SOSP"},
			want: false,
		},
		{
			name: "no author",
			c:    types.Citation{Title: "Orphaned Title"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Applicable(tt.c); got != tt.want {
				t.Errorf("Applicable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenLibraryISBNExact(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/isbn/9780321563842.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"The C++ Programming Language","publish_date":"May 19, 2013"}`)
	}))
	defer ts.Close()

	old := openLibraryBase
	openLibraryBase = ts.URL
	defer func() { openLibraryBase = old }()

	s := NewOpenLibrary(testCfg())
	c := types.Citation{
		Title:       "The C++ Programming Language",
		Identifiers: map[types.IdentifierKind]string{types.IdentISBN: "9780321563842"},
	}
	got, err := s.Match(context.Background(), c)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !got.Matched || got.Confidence != 1.0 {
		t.Errorf("Match() = %+v, want exact ISBN match with confidence 1.0", got)
	}
	if got.Year != 2013 {
		t.Errorf("Year = %d, want 2013 parsed from the publish date", got.Year)
	}
}

func TestOpenLibraryTitleSearch(t *testing.T) {
	var receivedAuthor string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/search.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		receivedAuthor = r.URL.Query().Get("author")
		fmt.Fprint(w, `{"docs":[{"title":"Design Patterns","first_publish_year":1994,"isbn":["9780201633610"]}]}`)
	}))
	defer ts.Close()

	old := openLibraryBase
	openLibraryBase = ts.URL
	defer func() { openLibraryBase = old }()

	s := NewOpenLibrary(testCfg())
	c := types.Citation{Title: "Design Patterns", Authors: []string{"Gamma"}, Year: 1994}
	got, err := s.Match(context.Background(), c)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !got.Matched {
		t.Fatalf("Match() = %+v, want a match from the title search", got)
	}
	if got.MatchedID != "9780201633610" {
		t.Errorf("MatchedID = %q, want the first ISBN", got.MatchedID)
	}
	if receivedAuthor != "Gamma" {
		t.Errorf("author param = %q, want %q", receivedAuthor, "Gamma")
	}
}

func TestEditionYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"May 19, 2013", 2013},
		{"2001", 2001},
		{"", 0},
		{"n.d.", 0},
	}
	for _, tt := range tests {
		e := olEdition{PublishDate: tt.in}
		if got := e.year(); got != tt.want {
			t.Errorf("year(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
