package research

import (
	"github.com/quarrylabs/quarry/analyzer"
)

// Limits bounds the research loop.
type Limits struct {
	// MaxIterations caps the number of search/analyze rounds.
	MaxIterations int

	// SufficiencyThreshold is the accumulated result count past which a
	// low-yield iteration counts as diminishing returns.
	SufficiencyThreshold int

	// MinIterationYield is the per-iteration result count below which an
	// iteration counts as low-yield.
	MinIterationYield int
}

// DefaultLimits returns the standard loop bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxIterations:        5,
		SufficiencyThreshold: 9,
		MinIterationYield:    2,
	}
}

// StopReason identifies which convergence condition ended the loop.
type StopReason int

const (
	// StopNone means the loop should continue.
	StopNone StopReason = iota
	// StopComplete means the analysis declared the search complete.
	StopComplete
	// StopNoKeywords means the analysis proposed nothing further to search.
	StopNoKeywords
	// StopIterationCap means the loop reached its iteration bound.
	StopIterationCap
	// StopDiminishingReturns means enough results accumulated and the last
	// iteration added almost nothing new.
	StopDiminishingReturns
	// StopCycle means most proposed keywords were already explored.
	StopCycle
	// StopCancelled means the caller's context was cancelled mid-run.
	StopCancelled
)

// String returns the reason as reported in diagnostics.
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "continue"
	case StopComplete:
		return "analysis marked complete"
	case StopNoKeywords:
		return "no further keywords proposed"
	case StopIterationCap:
		return "iteration cap reached"
	case StopDiminishingReturns:
		return "diminishing returns"
	case StopCycle:
		return "keyword cycle detected"
	case StopCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Stop   bool
	Reason StopReason
}

// Evaluate decides whether the loop should stop after an iteration. The
// conditions form a disjunction; the first true condition, in the order
// below, becomes the reported reason. Evaluate must run before the proposed
// next keywords are registered into the context, or cycle detection would
// always fire.
func Evaluate(l Limits, iteration int, analysis analyzer.Result, rc *Context) Decision {
	if analysis.SearchComplete {
		return Decision{Stop: true, Reason: StopComplete}
	}
	if len(analysis.NextKeywords) == 0 {
		return Decision{Stop: true, Reason: StopNoKeywords}
	}
	if iteration >= l.MaxIterations-1 {
		return Decision{Stop: true, Reason: StopIterationCap}
	}
	if rc.TotalResults() > l.SufficiencyThreshold && rc.LastYield() < l.MinIterationYield {
		return Decision{Stop: true, Reason: StopDiminishingReturns}
	}
	duplicates := 0
	for _, kw := range analysis.NextKeywords {
		if rc.Seen(kw) {
			duplicates++
		}
	}
	if duplicates*2 > len(analysis.NextKeywords) {
		return Decision{Stop: true, Reason: StopCycle}
	}
	return Decision{Stop: false, Reason: StopNone}
}
