package research

import "errors"

// Stage error kinds. Every kind except ErrUnrecoverable is absorbed inside
// the stage that produced it by substituting a deterministic default; they
// exist so logs and tests can tell the failure modes apart.
var (
	// ErrKeywordGeneration means the seed keyword call failed or returned
	// nothing useful. Recovery: FallbackKeywords.
	ErrKeywordGeneration = errors.New("keyword generation failed")

	// ErrSearchTimeout means a coordinator call exceeded its budget.
	// Recovery: empty SearchResults for the iteration.
	ErrSearchTimeout = errors.New("search timed out")

	// ErrSearchFailure means a coordinator call failed outright.
	// Recovery: empty SearchResults for the iteration.
	ErrSearchFailure = errors.New("search failed")

	// ErrAnalysisTimeout means the oracle call exceeded its budget.
	// Recovery: DefaultAnalysis.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrAnalysisParse means the oracle replied with no protocol directives.
	// Recovery: DefaultAnalysis.
	ErrAnalysisParse = errors.New("analysis response unparseable")

	// ErrUnrecoverable marks a failure outside any stage boundary. The agent
	// converts it into an ErrorBundle at its outermost boundary.
	ErrUnrecoverable = errors.New("unrecoverable research failure")
)
