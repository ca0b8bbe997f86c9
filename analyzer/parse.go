package analyzer

import "strings"

// Oracle protocol directives. The current protocol is insight-oriented
// (INSIGHTS/RELATIONSHIPS/MISSING_CONTEXT/NEXT_SEARCHES/CONFIDENCE); the
// older variant used SUMMARY/COMPLETE/KEYWORDS. Parse accepts both.
const (
	prefixSummary        = "SUMMARY:"
	prefixInsights       = "INSIGHTS:"
	prefixComplete       = "COMPLETE:"
	prefixKeywords       = "KEYWORDS:"
	prefixNextSearches   = "NEXT_SEARCHES:"
	prefixRelationships  = "RELATIONSHIPS:"
	prefixMissingContext = "MISSING_CONTEXT:"
	prefixConfidence     = "CONFIDENCE:"
)

// minKeywordLen filters out fragments the oracle sometimes emits when it
// splits badly on commas.
const minKeywordLen = 3

// Parse converts oracle response text into a Result. It never fails:
// malformed input yields a Result with Recognized=false and LOW confidence.
//
// Directives are matched case-sensitively at line start after trimming.
// A directive appearing twice overwrites its earlier value. Unrecognized
// lines are ignored. An explicit COMPLETE: directive always decides
// SearchComplete; otherwise completion is derived from confidence, the
// iteration index, and an explicitly empty MISSING_CONTEXT.
func Parse(raw string, iteration int) Result {
	res := emptyResult(raw)

	var completeSeen, completeValue bool
	var missingSeen bool

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, prefixSummary):
			res.Summary = strings.TrimSpace(strings.TrimPrefix(line, prefixSummary))
			res.Recognized = true
		case strings.HasPrefix(line, prefixInsights):
			res.Insights = strings.TrimSpace(strings.TrimPrefix(line, prefixInsights))
			res.Recognized = true
		case strings.HasPrefix(line, prefixComplete):
			value := strings.TrimSpace(strings.TrimPrefix(line, prefixComplete))
			completeSeen = true
			completeValue = strings.EqualFold(value, "YES")
			res.Recognized = true
		case strings.HasPrefix(line, prefixKeywords):
			res.NextKeywords = splitKeywords(strings.TrimPrefix(line, prefixKeywords))
			res.Recognized = true
		case strings.HasPrefix(line, prefixNextSearches):
			res.NextKeywords = splitKeywords(strings.TrimPrefix(line, prefixNextSearches))
			res.Recognized = true
		case strings.HasPrefix(line, prefixRelationships):
			res.Relationships = splitList(strings.TrimPrefix(line, prefixRelationships), ";")
			res.Recognized = true
		case strings.HasPrefix(line, prefixMissingContext):
			res.MissingContext = splitList(strings.TrimPrefix(line, prefixMissingContext), ";")
			missingSeen = true
			res.Recognized = true
		case strings.HasPrefix(line, prefixConfidence):
			res.Confidence = ParseConfidence(strings.TrimPrefix(line, prefixConfidence))
			res.Recognized = true
		}
	}

	if res.Summary == "" {
		res.Summary = synthesizeSummary(res.Insights, res.Relationships, res.MissingContext)
	}

	if completeSeen {
		res.SearchComplete = completeValue
	} else {
		res.SearchComplete = deriveComplete(res.Confidence, iteration, missingSeen, res.MissingContext)
	}

	return res
}

// deriveComplete decides completion when the oracle gave no explicit
// COMPLETE directive. A response that merely omits MISSING_CONTEXT is not
// treated as complete; only an explicitly empty one is.
func deriveComplete(conf Confidence, iteration int, missingSeen bool, missing []string) bool {
	if conf == ConfidenceHigh {
		return true
	}
	if iteration >= 4 && conf != ConfidenceLow {
		return true
	}
	if missingSeen && len(missing) == 0 {
		return true
	}
	return false
}

// splitKeywords splits a comma-separated keyword list, dropping empty and
// too-short entries and deduplicating while preserving order. A value of
// NONE (any case) yields an empty list.
func splitKeywords(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "NONE") {
		return []string{}
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if len(part) < minKeywordLen || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

// splitList splits a delimited list, trimming entries and dropping empties.
// A value of NONE (any case) yields an empty list.
func splitList(value, sep string) []string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "NONE") {
		return []string{}
	}

	out := []string{}
	for _, part := range strings.Split(value, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// synthesizeSummary builds a summary from the insight-oriented fields when
// the oracle sent no SUMMARY directive.
func synthesizeSummary(insights string, relationships, missing []string) string {
	var b strings.Builder

	if insights != "" {
		b.WriteString(insights)
	}
	if len(relationships) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("Key relationships: ")
		b.WriteString(strings.Join(relationships, "; "))
	}
	if len(missing) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("Still need: ")
		b.WriteString(strings.Join(missing, "; "))
	}

	return b.String()
}
