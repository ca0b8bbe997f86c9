package analyzer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quarrylabs/quarry/model"
)

// defaultNextSearchCap bounds the synthesized keyword list.
const defaultNextSearchCap = 5

// DefaultAnalysis builds a deterministic Result from raw result counts when
// the oracle is unavailable or returned nothing parseable. It mirrors what
// the oracle would report: a count-based summary, conservative confidence,
// and next keywords synthesized from the names already discovered.
func DefaultAnalysis(results model.SearchResults, iteration int) Result {
	res := emptyResult("")

	total := results.Total()
	// The count line lives in Insights; synthesizeSummary places it at the
	// start of Summary, so both fields begin with "Found N total results".
	res.Insights = fmt.Sprintf("Found %d total results: %d git, %d unstaged, %d project",
		total, len(results.History), len(results.WorkingTree), len(results.Project))

	res.Relationships = defaultRelationships(results)
	res.MissingContext = defaultMissingContext(iteration, total)
	res.NextKeywords = defaultNextKeywords(results, iteration)

	if total > 10 {
		res.Confidence = ConfidenceMedium
	} else {
		res.Confidence = ConfidenceLow
	}
	res.SearchComplete = iteration >= 4 || total > 20

	res.Summary = synthesizeSummary(res.Insights, res.Relationships, res.MissingContext)
	return res
}

func defaultRelationships(results model.SearchResults) []string {
	files := make(map[string]bool)
	for _, m := range results.Project {
		if m.File != "" {
			files[m.File] = true
		}
	}

	if len(files) > 1 {
		return []string{fmt.Sprintf("%d related files found", len(files))}
	}
	return []string{}
}

func defaultMissingContext(iteration, total int) []string {
	switch iteration {
	case 0:
		return []string{"Dependencies and related components", "Test files"}
	case 1:
		return []string{"Configuration files", "Usage examples"}
	case 2:
		return []string{"Documentation", "Error handling"}
	default:
		if total < 5 {
			return []string{"More specific implementations"}
		}
		return []string{}
	}
}

// defaultNextKeywords pattern-matches discovered function and file names,
// suggesting companion identifiers (tests, helpers, config) plus
// iteration-phase siblings.
func defaultNextKeywords(results model.SearchResults, iteration int) []string {
	var candidates []string

	for _, m := range results.Project {
		name := m.Name
		if name == "" && m.File != "" {
			name = strings.TrimSuffix(filepath.Base(m.File), filepath.Ext(m.File))
		}
		if name == "" {
			continue
		}
		for _, suffix := range []string{"Test", "Spec", "Utils", "Helper", "Config"} {
			if !strings.HasSuffix(name, suffix) {
				candidates = append(candidates, name+suffix)
			}
		}
	}

	switch iteration {
	case 0:
		candidates = append(candidates, "Service", "Controller")
	case 1:
		candidates = append(candidates, "Repository", "Config")
	case 2:
		candidates = append(candidates, "Exception", "Error")
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, kw := range candidates {
		if seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) >= defaultNextSearchCap {
			break
		}
	}
	return out
}
