// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parser recovers structured citation fields from unstructured
// reference strings via a local language model.
// Implements: prd003-normalization (R4);
//
//	docs/ARCHITECTURE § Fallback Parser.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/refcheck/pkg/types"
)

// ErrParseFailed is returned when the model is unreachable or its output
// cannot be interpreted. Callers downgrade the citation to unparseable;
// they never abort the pipeline on this error (prd003-normalization R4.3).
var ErrParseFailed = errors.New("fallback parse failed")

// Parsed holds the fields the fallback parser recovered. Any field may be
// empty/zero.
type Parsed struct {
	Title  string
	Author string
	Year   int
}

// Parser is the fallback-parser capability. Implementations must be safe
// for concurrent use and carry no per-call state.
type Parser interface {
	Parse(ctx context.Context, raw string) (Parsed, error)
}

// prompt instructs the model to emit only a JSON object. The arXiv-year
// rule matters: models habitually prefer the parenthesized year even when
// an arXiv id pins the submission year.
const prompt = "You are an expert citation parser. " +
	"Extract the title, first author, and publication year from the following reference. " +
	"If an arXiv ID is present (e.g., 'arXiv:1312.6114'), the year is 2000 plus its first two digits, " +
	"and that year takes priority over any other year in parentheses. " +
	"Respond only with a JSON object with 'title', 'author', and 'year' (as an integer) keys. " +
	"If a field is not found, set its value to null.\n\nReference: "

// Ollama is a Parser backed by a local Ollama server.
type Ollama struct {
	Client *http.Client
	// Host is the server base URL (e.g. "http://localhost:11434").
	Host string
	// Model is the model name (e.g. "llama3").
	Model string
}

// NewOllama builds an Ollama parser from config.
func NewOllama(cfg types.ParserConfig) *Ollama {
	return &Ollama{
		Client: &http.Client{Timeout: cfg.Timeout},
		Host:   cfg.OllamaHost,
		Model:  cfg.Model,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// rawParsed tolerates the model's loose typing: fields arrive as strings,
// arrays of strings, numbers, or null depending on the day.
type rawParsed struct {
	Title  json.RawMessage `json:"title"`
	Author json.RawMessage `json:"author"`
	Year   json.RawMessage `json:"year"`
}

// Parse sends one citation string to the model and decodes the structured
// reply. Stateless per call (prd003-normalization R4.2).
func (o *Ollama) Parse(ctx context.Context, raw string) (Parsed, error) {
	body, err := json.Marshal(generateRequest{
		Model:  o.Model,
		Prompt: prompt + raw,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: encoding request: %v", ErrParseFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: creating request: %v", ErrParseFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Parsed{}, fmt.Errorf("%w: HTTP %d", ErrParseFailed, resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Parsed{}, fmt.Errorf("%w: decoding response: %v", ErrParseFailed, err)
	}

	var rp rawParsed
	if err := json.Unmarshal([]byte(strings.TrimSpace(gr.Response)), &rp); err != nil {
		return Parsed{}, fmt.Errorf("%w: model returned invalid JSON: %v", ErrParseFailed, err)
	}

	return Parsed{
		Title:  coerceString(rp.Title),
		Author: coerceString(rp.Author),
		Year:   coerceYear(rp.Year),
	}, nil
}

// coerceString accepts a JSON string, an array of strings (joined by
// spaces), or anything else (empty).
func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, " "))
	}
	return ""
}

// coerceYear accepts a JSON number or a numeric string.
func coerceYear(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}
