package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/quarrylabs/quarry/model"
)

// scriptedStrategy returns fixed matches per keyword and counts calls.
type scriptedStrategy struct {
	source  model.Source
	matches map[string][]model.Match
	err     error
	calls   atomic.Int64
}

func (s *scriptedStrategy) Source() model.Source { return s.source }

func (s *scriptedStrategy) Search(ctx context.Context, keywords []string) ([]model.Match, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Match
	for _, kw := range keywords {
		out = append(out, s.matches[kw]...)
	}
	return out, nil
}

func match(kw, file string, line int) model.Match {
	return model.Match{Keyword: kw, Type: model.MatchText, File: file, Line: line}
}

func TestFanoutMergesPerCategory(t *testing.T) {
	project := &scriptedStrategy{
		source: model.SourceProject,
		matches: map[string][]model.Match{
			"retry":      {match("retry", "a.go", 1)},
			"HttpClient": {match("HttpClient", "b.go", 2)},
		},
	}
	history := &scriptedStrategy{
		source: model.SourceHistory,
		matches: map[string][]model.Match{
			"retry": {{Keyword: "retry", Commit: "abc", Subject: "add retry"}},
		},
	}
	f := NewFanout([]Strategy{project, history}, nil)

	results, err := f.SearchAll(context.Background(), []string{"retry", "HttpClient"})
	if err != nil {
		t.Fatalf("SearchAll failed: %v", err)
	}
	if len(results.Project) != 2 {
		t.Errorf("project matches = %d, want 2", len(results.Project))
	}
	if len(results.History) != 1 {
		t.Errorf("history matches = %d, want 1", len(results.History))
	}
	if len(results.WorkingTree) != 0 {
		t.Errorf("working tree matches = %d, want 0", len(results.WorkingTree))
	}
}

func TestFanoutDeduplicatesWithinCategory(t *testing.T) {
	// two keywords hit the same file/line
	project := &scriptedStrategy{
		source: model.SourceProject,
		matches: map[string][]model.Match{
			"retry":   {match("retry", "client.go", 10)},
			"backoff": {match("backoff", "client.go", 10)},
		},
	}
	f := NewFanout([]Strategy{project}, nil)

	results, _ := f.SearchAll(context.Background(), []string{"retry", "backoff"})
	if len(results.Project) != 1 {
		t.Errorf("project matches = %d, want 1 after dedup", len(results.Project))
	}
}

func TestFanoutAbsorbsStrategyFailure(t *testing.T) {
	broken := &scriptedStrategy{source: model.SourceHistory, err: errors.New("not a git repository")}
	healthy := &scriptedStrategy{
		source: model.SourceProject,
		matches: map[string][]model.Match{
			"retry": {match("retry", "a.go", 1)},
		},
	}
	f := NewFanout([]Strategy{broken, healthy}, nil)

	results, err := f.SearchAll(context.Background(), []string{"retry"})
	if err != nil {
		t.Fatalf("SearchAll must absorb strategy failures, got %v", err)
	}
	if len(results.History) != 0 {
		t.Errorf("history matches = %d, want 0 from failed strategy", len(results.History))
	}
	if len(results.Project) != 1 {
		t.Errorf("project matches = %d, want 1 from healthy strategy", len(results.Project))
	}
}

func TestFanoutCachesPerKeyword(t *testing.T) {
	project := &scriptedStrategy{
		source: model.SourceProject,
		matches: map[string][]model.Match{
			"retry": {match("retry", "a.go", 1)},
		},
	}
	f := NewFanout([]Strategy{project}, nil)

	if _, err := f.SearchAll(context.Background(), []string{"retry"}); err != nil {
		t.Fatal(err)
	}
	first := project.calls.Load()

	if _, err := f.SearchAll(context.Background(), []string{"retry"}); err != nil {
		t.Fatal(err)
	}
	if got := project.calls.Load(); got != first {
		t.Errorf("strategy called %d times after repeat search, want %d (cache hit)", got, first)
	}

	results, _ := f.SearchAll(context.Background(), []string{"retry"})
	if len(results.Project) != 1 {
		t.Errorf("cached search returned %d matches, want 1", len(results.Project))
	}
}

func TestFanoutEmptyKeywords(t *testing.T) {
	project := &scriptedStrategy{source: model.SourceProject}
	f := NewFanout([]Strategy{project}, nil)

	results, err := f.SearchAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("SearchAll failed: %v", err)
	}
	if results.Total() != 0 {
		t.Errorf("Total = %d, want 0", results.Total())
	}
	if results.Project == nil || results.History == nil || results.WorkingTree == nil {
		t.Error("categories must be allocated even when empty")
	}
	if project.calls.Load() != 0 {
		t.Error("no strategy calls expected for empty keyword set")
	}
}
