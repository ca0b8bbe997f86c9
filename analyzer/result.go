// Package analyzer turns search findings into typed analysis results.
//
// The reasoning oracle replies with a line-oriented key:value protocol.
// This package owns the result model, the protocol parser, the analysis
// prompt builder, and the deterministic fallback used when the oracle is
// slow, wrong, or unavailable.
package analyzer

import "strings"

// Confidence is the oracle's self-reported certainty that enough context
// has been found.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// ParseConfidence normalizes a confidence value. Anything unrecognized
// maps to LOW.
func ParseConfidence(s string) Confidence {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return ConfidenceHigh
	case "MEDIUM":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Result is one iteration's typed analysis.
// When SearchComplete is true, NextKeywords are advisory only: the research
// loop will not act on them.
type Result struct {
	Summary        string
	Insights       string
	Relationships  []string
	MissingContext []string
	NextKeywords   []string
	Confidence     Confidence
	SearchComplete bool

	// RawResponse retains the oracle's original text for diagnostics.
	RawResponse string

	// Recognized reports whether the response contained at least one
	// protocol directive. A false value means the caller should fall back
	// to DefaultAnalysis.
	Recognized bool
}

// emptyResult returns a Result with all list fields allocated.
func emptyResult(raw string) Result {
	return Result{
		Relationships:  []string{},
		MissingContext: []string{},
		NextKeywords:   []string{},
		Confidence:     ConfidenceLow,
		RawResponse:    raw,
	}
}
