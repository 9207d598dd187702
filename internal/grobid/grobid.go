// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grobid adapts the Grobid structured-extraction service.
// Implements: prd002-extraction (R1-R4);
//
//	docs/ARCHITECTURE § Structured Extractor Adapter.
package grobid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/refcheck/pkg/types"
)

// Sentinel errors for the two extraction failure modes (prd002-extraction
// R2.2). Both are fatal for the document after one retry: partial
// extraction is not meaningful.
var (
	ErrServiceUnavailable = errors.New("extraction service unavailable")
	ErrTimeout            = errors.New("extraction service timeout")
)

const processPath = "/api/processFulltextDocument"

// Extractor produces raw citation records from a document's reference
// pages. The pipeline depends on this interface so its core logic is
// testable without a live Grobid (prd002-extraction R1.3).
type Extractor interface {
	Extract(ctx context.Context, doc *types.Document, pages types.PageRange) ([]types.RawRecord, error)
}

// Client is the HTTP Extractor backed by a Grobid service. Grobid is
// stateless between requests; a service restart mid-batch only costs the
// in-flight call.
type Client struct {
	httpClient *http.Client
	cfg        types.ExtractionConfig
	log        *zap.SugaredLogger
}

// NewClient builds a Grobid client from configuration.
func NewClient(cfg types.ExtractionConfig, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        log,
	}
}

// Extract sends only the located pages to Grobid and returns the raw
// records in document order. Non-contiguous ranges are sent as one request
// per contiguous run (prd002-extraction R1.2): Grobid takes start/end page
// fields, so slicing at the request level avoids shipping body pages and
// the false positives their in-text citations would produce.
func (c *Client) Extract(ctx context.Context, doc *types.Document, pages types.PageRange) ([]types.RawRecord, error) {
	var records []types.RawRecord
	for _, run := range pages.Runs() {
		body, err := c.processSlice(ctx, doc, run[0]+1, run[1]+1)
		if err != nil {
			return nil, err
		}
		recs, err := parseTEI(body)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing TEI: %v", ErrServiceUnavailable, err)
		}
		records = append(records, recs...)
	}
	c.log.Infow("extraction complete", "document", doc.Name, "pages", len(pages), "records", len(records))
	return records, nil
}

// processSlice posts the PDF with a 1-based page window and returns the
// TEI body. Connection failures and timeouts are retried once after
// RetryDelay, then surface as permanent errors (prd002-extraction R2.3).
func (c *Client) processSlice(ctx context.Context, doc *types.Document, start, end int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			c.log.Warnw("retrying extraction", "document", doc.Name, "delay", c.cfg.RetryDelay, "cause", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		body, err := c.postOnce(ctx, doc, start, end)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) postOnce(ctx context.Context, doc *types.Document, start, end int) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("input", doc.Name)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	mw.WriteField("start", strconv.Itoa(start))
	mw.WriteField("end", strconv.Itoa(end))
	mw.WriteField("includeRawCitations", "1")
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GrobidURL+processPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrServiceUnavailable, err)
	}
	return out.Bytes(), nil
}

// classify maps a transport error onto the extraction error taxonomy.
func classify(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

// prose phrases that real citations almost never contain; long records
// carrying them are likely paragraphs the extractor misread as references.
var proseTriggers = []string{
	" is ", " are ", " we ", " you ", " that ", " which ",
	" to create ", " used to ", " its purpose ", " the goal ",
	" features ", " provides ", " allows ", " designed to ",
}

// markSuspicious applies the noise heuristics to a parsed record
// (prd002-extraction R4.2).
func markSuspicious(rec *types.RawRecord) {
	if rec.Title == "" && rec.Author == "" {
		rec.Suspicious = true
		return
	}
	if len(rec.RawText) > 600 {
		rec.Suspicious = true
		return
	}
	if len(rec.RawText) > 150 {
		lower := strings.ToLower(rec.RawText)
		for _, trigger := range proseTriggers {
			if strings.Contains(lower, trigger) {
				rec.Suspicious = true
				return
			}
		}
	}
}
