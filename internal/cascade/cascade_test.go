// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cascade

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/pdiddy/refcheck/pkg/types"
)

// fakeSource is a scriptable Source that counts its Match calls.
type fakeSource struct {
	name       string
	applicable bool
	result     types.MatchResult
	err        error
	calls      atomic.Int64
}

func (f *fakeSource) Name() string                   { return f.name }
func (f *fakeSource) Applicable(types.Citation) bool { return f.applicable }
func (f *fakeSource) Match(ctx context.Context, c types.Citation) (types.MatchResult, error) {
	f.calls.Add(1)
	return f.result, f.err
}

func testMatchCfg() types.MatchConfig {
	cfg := types.Defaults().Match
	cfg.Timeout = 0
	return cfg
}

func match(name string, conf float64) types.MatchResult {
	return types.MatchResult{Matched: true, Confidence: conf, Source: name, MatchedTitle: "t"}
}

func TestResolveShortCircuits(t *testing.T) {
	first := &fakeSource{name: "first", applicable: true, result: match("first", 1.0)}
	second := &fakeSource{name: "second", applicable: true, result: match("second", 1.0)}

	r := New(testMatchCfg(), nil, first, second)
	v := r.Resolve(context.Background(), types.Citation{Title: "x"})

	if !v.Matched || v.Source != "first" {
		t.Errorf("Resolve() = %+v, want a match from the first source", v)
	}
	if got := second.calls.Load(); got != 0 {
		t.Errorf("second source queried %d times, want 0 after an accepted match", got)
	}
}

func TestResolveSkipsInapplicable(t *testing.T) {
	skipped := &fakeSource{name: "skipped", applicable: false, result: match("skipped", 1.0)}
	hit := &fakeSource{name: "hit", applicable: true, result: match("hit", 1.0)}

	r := New(testMatchCfg(), nil, skipped, hit)
	v := r.Resolve(context.Background(), types.Citation{Title: "x"})

	if v.Source != "hit" {
		t.Errorf("Resolve() source = %q, want %q", v.Source, "hit")
	}
	if got := skipped.calls.Load(); got != 0 {
		t.Errorf("inapplicable source queried %d times, want 0", got)
	}
}

func TestResolveTreatsErrorsAsNonMatch(t *testing.T) {
	down := &fakeSource{name: "down", applicable: true, err: errors.New("api down")}
	hit := &fakeSource{name: "hit", applicable: true, result: match("hit", 0.95)}

	r := New(testMatchCfg(), nil, down, hit)
	v := r.Resolve(context.Background(), types.Citation{Title: "x"})

	if !v.Matched || v.Source != "hit" {
		t.Errorf("Resolve() = %+v, want the cascade to continue past a failing source", v)
	}
}

func TestResolveAllSourcesDownIsUnmatched(t *testing.T) {
	sources := []*fakeSource{
		{name: "a", applicable: true, err: errors.New("down")},
		{name: "b", applicable: true, err: errors.New("down")},
	}
	r := New(testMatchCfg(), nil, sources[0], sources[1])
	v := r.Resolve(context.Background(), types.Citation{Title: "x"})

	if v.Matched {
		t.Errorf("Resolve() = %+v, want unmatched when every source fails", v)
	}
	if v.Citation.Title != "x" {
		t.Errorf("verdict must carry the citation, got %+v", v.Citation)
	}
}

func TestResolveKeepsBestSubThresholdMatch(t *testing.T) {
	// Neither source clears the acceptance threshold; the higher one wins.
	low := &fakeSource{name: "low", applicable: true, result: match("low", 0.5)}
	lower := &fakeSource{name: "lower", applicable: true, result: match("lower", 0.3)}

	r := New(testMatchCfg(), nil, lower, low)
	v := r.Resolve(context.Background(), types.Citation{Title: "x"})

	if !v.Matched || v.Source != "low" || v.Confidence != 0.5 {
		t.Errorf("Resolve() = %+v, want the best sub-threshold match", v)
	}
	if got := low.calls.Load(); got != 1 {
		t.Errorf("low source queried %d times, want 1 (no short-circuit below threshold)", got)
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	src := &fakeSource{name: "s", applicable: true, result: match("s", 1.0)}
	cfg := testMatchCfg()
	cfg.MaxWorkers = 3
	r := New(cfg, nil, src)

	citations := make([]types.Citation, 20)
	for i := range citations {
		citations[i] = types.Citation{Title: "t", RawText: string(rune('a' + i))}
	}

	verdicts, err := r.ResolveAll(context.Background(), citations)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(verdicts) != len(citations) {
		t.Fatalf("got %d verdicts, want %d", len(verdicts), len(citations))
	}
	for i, v := range verdicts {
		if v.Citation.RawText != citations[i].RawText {
			t.Errorf("verdict %d carries citation %q, want %q", i, v.Citation.RawText, citations[i].RawText)
		}
	}
	if got := src.calls.Load(); got != int64(len(citations)) {
		t.Errorf("source queried %d times, want %d", got, len(citations))
	}
}

func TestResolveAllCancellation(t *testing.T) {
	src := &fakeSource{name: "s", applicable: true, result: match("s", 1.0)}
	r := New(testMatchCfg(), nil, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verdicts, err := r.ResolveAll(ctx, make([]types.Citation, 10))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ResolveAll err = %v, want context.Canceled", err)
	}
	if verdicts != nil {
		t.Errorf("cancelled run returned %d verdicts, want none", len(verdicts))
	}
}

func TestResolveAllEmptyInput(t *testing.T) {
	r := New(testMatchCfg(), nil)
	verdicts, err := r.ResolveAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(verdicts) != 0 {
		t.Errorf("got %d verdicts for empty input", len(verdicts))
	}
}
