// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grobid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/refcheck/pkg/types"
)

func testExtractionCfg(url string) types.ExtractionConfig {
	return types.ExtractionConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: types.DefaultUserAgent},
		GrobidURL:  url,
		RetryDelay: time.Millisecond,
	}
}

func teiWithOneRecord(raw string) string {
	return fmt.Sprintf(`<TEI xmlns="http://www.tei-c.org/ns/1.0"><text><back><div><listBibl>
		<biblStruct>
			<analytic><title level="a">T</title><author><persName><surname>A</surname></persName></author></analytic>
			<note type="raw_reference">%s</note>
		</biblStruct>
	</listBibl></div></back></text></TEI>`, raw)
}

func TestExtractSendsPageWindowPerRun(t *testing.T) {
	type window struct{ start, end string }
	var windows []window
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != processPath {
			t.Errorf("path = %q, want %q", r.URL.Path, processPath)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		windows = append(windows, window{r.FormValue("start"), r.FormValue("end")})
		if r.FormValue("includeRawCitations") != "1" {
			t.Error("includeRawCitations must be 1")
		}
		if _, _, err := r.FormFile("input"); err != nil {
			t.Errorf("missing input file: %v", err)
		}
		fmt.Fprint(w, teiWithOneRecord("ref"))
	}))
	defer ts.Close()

	c := NewClient(testExtractionCfg(ts.URL), zap.NewNop().Sugar())
	doc := &types.Document{Data: []byte("%PDF-fake"), Name: "paper.pdf"}

	// Zero-based pages 7, 8, and 11: two contiguous runs, so two requests
	// with 1-based windows.
	records, err := c.Extract(context.Background(), doc, types.PageRange{7, 8, 11})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2 (one per run)", len(records))
	}
	want := []window{{"8", "9"}, {"12", "12"}}
	if len(windows) != len(want) {
		t.Fatalf("got %d requests, want %d", len(windows), len(want))
	}
	for i, w := range want {
		if windows[i] != w {
			t.Errorf("request %d window = %v, want %v", i, windows[i], w)
		}
	}
}

func TestExtractRetriesOnceThenFails(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient(testExtractionCfg(ts.URL), zap.NewNop().Sugar())
	doc := &types.Document{Data: []byte("%PDF-fake"), Name: "paper.pdf"}

	_, err := c.Extract(context.Background(), doc, types.PageRange{0})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
	if calls != 2 {
		t.Errorf("server called %d times, want 2 (one retry)", calls)
	}
}

func TestExtractRecoversAfterOneFailure(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, teiWithOneRecord("ref"))
	}))
	defer ts.Close()

	c := NewClient(testExtractionCfg(ts.URL), zap.NewNop().Sugar())
	doc := &types.Document{Data: []byte("%PDF-fake"), Name: "paper.pdf"}

	records, err := c.Extract(context.Background(), doc, types.PageRange{0})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
	if calls != 2 {
		t.Errorf("server called %d times, want 2", calls)
	}
}

func TestExtractTimeoutClassified(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	cfg := testExtractionCfg(ts.URL)
	cfg.Timeout = 20 * time.Millisecond
	c := NewClient(cfg, zap.NewNop().Sugar())
	doc := &types.Document{Data: []byte("%PDF-fake"), Name: "paper.pdf"}

	_, err := c.Extract(context.Background(), doc, types.PageRange{0})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestExtractContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cfg := testExtractionCfg(ts.URL)
	cfg.RetryDelay = time.Minute
	c := NewClient(cfg, zap.NewNop().Sugar())
	doc := &types.Document{Data: []byte("%PDF-fake"), Name: "paper.pdf"}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Extract(ctx, doc, types.PageRange{0})
	if err == nil {
		t.Fatal("Extract with cancelled context should fail")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not interrupt the retry delay")
	}
}
