package research

import (
	"fmt"
	"testing"

	"github.com/quarrylabs/quarry/analyzer"
	"github.com/quarrylabs/quarry/model"
)

func contextWithResults(t *testing.T, perIteration ...int) *Context {
	t.Helper()
	rc := NewContext("q", "")
	for i, n := range perIteration {
		results := model.NewSearchResults()
		for j := 0; j < n; j++ {
			results.Project = append(results.Project, model.Match{
				Keyword: "kw",
				File:    fmt.Sprintf("file_%d_%d.go", i, j),
			})
		}
		rc.AddIteration(Iteration{Index: i, Results: results})
	}
	return rc
}

func TestEvaluateStopReasons(t *testing.T) {
	limits := DefaultLimits()
	fresh := []string{"NewKeyword"}

	tests := []struct {
		name       string
		iteration  int
		analysis   analyzer.Result
		rc         *Context
		wantStop   bool
		wantReason StopReason
	}{
		{
			name:       "analysis complete",
			analysis:   analyzer.Result{SearchComplete: true, NextKeywords: fresh},
			rc:         contextWithResults(t, 3),
			wantStop:   true,
			wantReason: StopComplete,
		},
		{
			name:       "no keywords proposed",
			analysis:   analyzer.Result{NextKeywords: nil},
			rc:         contextWithResults(t, 3),
			wantStop:   true,
			wantReason: StopNoKeywords,
		},
		{
			name:       "iteration cap",
			iteration:  4,
			analysis:   analyzer.Result{NextKeywords: fresh},
			rc:         contextWithResults(t, 3, 3, 3, 3, 3),
			wantStop:   true,
			wantReason: StopIterationCap,
		},
		{
			name:       "diminishing returns",
			iteration:  2,
			analysis:   analyzer.Result{NextKeywords: fresh},
			rc:         contextWithResults(t, 6, 5, 1),
			wantStop:   true,
			wantReason: StopDiminishingReturns,
		},
		{
			name:       "at threshold is not diminishing",
			iteration:  2,
			analysis:   analyzer.Result{NextKeywords: fresh},
			rc:         contextWithResults(t, 4, 4, 1),
			wantStop:   false,
			wantReason: StopNone,
		},
		{
			name:      "healthy iteration continues",
			iteration: 1,
			analysis:  analyzer.Result{NextKeywords: fresh, Confidence: analyzer.ConfidenceMedium},
			rc:        contextWithResults(t, 3, 3),
			wantStop:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(limits, tc.iteration, tc.analysis, tc.rc)
			if got.Stop != tc.wantStop {
				t.Errorf("Stop = %v, want %v", got.Stop, tc.wantStop)
			}
			if got.Reason != tc.wantReason {
				t.Errorf("Reason = %v, want %v", got.Reason, tc.wantReason)
			}
		})
	}
}

func TestEvaluateCycleDetection(t *testing.T) {
	rc := contextWithResults(t, 3)
	rc.AddKeywords([]string{"Foo", "Bar"})

	// 2 of 3 proposals already explored: stop
	got := Evaluate(DefaultLimits(), 0, analyzer.Result{
		NextKeywords: []string{"Foo", "Bar", "Baz"},
	}, rc)
	if !got.Stop || got.Reason != StopCycle {
		t.Errorf("Evaluate = %+v, want cycle stop", got)
	}

	// exactly half is not "more than half": continue
	got = Evaluate(DefaultLimits(), 0, analyzer.Result{
		NextKeywords: []string{"Foo", "Baz"},
	}, rc)
	if got.Stop {
		t.Errorf("Evaluate = %+v, want continue at exactly half duplicates", got)
	}
}

func TestEvaluateCompleteWinsOverCycle(t *testing.T) {
	rc := contextWithResults(t, 3)
	rc.AddKeywords([]string{"Foo", "Bar"})

	got := Evaluate(DefaultLimits(), 0, analyzer.Result{
		SearchComplete: true,
		NextKeywords:   []string{"Foo", "Bar"},
	}, rc)
	if got.Reason != StopComplete {
		t.Errorf("Reason = %v, want StopComplete reported first", got.Reason)
	}
}

func TestStopReasonStrings(t *testing.T) {
	reasons := []StopReason{StopNone, StopComplete, StopNoKeywords, StopIterationCap, StopDiminishingReturns, StopCycle, StopCancelled}
	seen := make(map[string]bool)
	for _, r := range reasons {
		s := r.String()
		if s == "" || s == "unknown" {
			t.Errorf("StopReason(%d) has no string", r)
		}
		if seen[s] {
			t.Errorf("duplicate reason string %q", s)
		}
		seen[s] = true
	}
}
