package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quarrylabs/quarry/model"
)

// Request carries everything the oracle needs to analyze one iteration.
type Request struct {
	Query     string
	Iteration int
	Keywords  []string
	Results   model.SearchResults
	History   History
}

// History summarizes what prior iterations already covered, so the oracle
// does not propose searches the loop has done.
type History struct {
	Discovered []string
	Summaries  []string
}

const maxSnippetPreview = 100

// BuildAnalysisPrompt renders the analysis prompt for one iteration.
// Pure function: same request, same prompt.
func BuildAnalysisPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You are analyzing code search results to build context for an LLM assistant.\n\n")
	b.WriteString("GOAL: Create a comprehensive understanding of the codebase around the user's query.\n\n")
	fmt.Fprintf(&b, "USER QUERY: %s\n\n", req.Query)
	fmt.Fprintf(&b, "ITERATION: %d of 5\n", req.Iteration+1)
	fmt.Fprintf(&b, "SEARCH KEYWORDS USED: %s\n\n", strings.Join(req.Keywords, ", "))

	fmt.Fprintf(&b, "ITERATION FOCUS: %s\n\n", iterationFocus(req.Iteration))

	if len(req.History.Discovered) > 0 {
		fmt.Fprintf(&b, "ALREADY EXPLORED: %s\n\n", strings.Join(req.History.Discovered, ", "))
	}
	if len(req.History.Summaries) > 0 {
		b.WriteString("PREVIOUS FINDINGS:\n")
		for _, s := range req.History.Summaries {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString("CURRENT FINDINGS:\n")
	appendFindings(&b, req.Results)

	b.WriteString("\n\nANALYZE AND PROVIDE:\n\n")
	b.WriteString("1. CODE RELATIONSHIPS: key components and how they interact\n")
	b.WriteString("2. CONTEXT GAPS: related code, dependencies, and tests still missing\n")
	b.WriteString("3. SEMANTIC INSIGHTS: what the code does and its key abstractions\n")
	b.WriteString("4. NEXT SEARCH DIRECTIONS: specific names and patterns to explore\n\n")

	b.WriteString("FORMAT YOUR RESPONSE EXACTLY AS:\n")
	b.WriteString("INSIGHTS: [2-3 sentences about what we've learned]\n")
	b.WriteString("RELATIONSHIPS: [key relationships found, semicolon-separated]\n")
	b.WriteString("MISSING_CONTEXT: [what we still need to find, semicolon-separated]\n")
	b.WriteString("NEXT_SEARCHES: [specific things to search for, comma-separated, or NONE]\n")
	b.WriteString("CONFIDENCE: [LOW/MEDIUM/HIGH - how well we understand the context]\n")

	return b.String()
}

// iterationFocus steers each round of the loop toward a different slice of
// the codebase, so five iterations cover structure, tests, and config
// instead of re-treading the seed keywords.
func iterationFocus(iteration int) string {
	switch iteration {
	case 0:
		return "Initial exploration - identify main components and entry points"
	case 1:
		return "Find related components, dependencies, and integrations"
	case 2:
		return "Locate tests, usage examples, and error handling"
	case 3:
		return "Find configuration, documentation, and edge cases"
	default:
		return "Fill specific gaps and complete the context picture"
	}
}

func appendFindings(b *strings.Builder, results model.SearchResults) {
	if len(results.History) > 0 {
		b.WriteString("\n=== RECENT CHANGES (Commit History) ===\n")
		appendHistoryFindings(b, results.History)
	}
	if len(results.WorkingTree) > 0 {
		b.WriteString("\n=== CURRENT WORK (Uncommitted Changes) ===\n")
		appendWorkingTreeFindings(b, results.WorkingTree)
	}
	if len(results.Project) > 0 {
		b.WriteString("\n=== CODEBASE STRUCTURE (Project Files) ===\n")
		appendProjectFindings(b, results.Project)
	}
}

func appendHistoryFindings(b *strings.Builder, matches []model.Match) {
	byKeyword := groupByKeyword(matches)
	for _, kw := range sortedKeys(byKeyword) {
		fmt.Fprintf(b, "\nKeyword '%s' - Recent commits:\n", kw)
		for i, m := range byKeyword[kw] {
			if i >= 5 {
				break
			}
			hash := m.Commit
			if len(hash) > 8 {
				hash = hash[:8]
			}
			fmt.Fprintf(b, "- [%s] %s\n", hash, m.Subject)
			if m.File != "" {
				fmt.Fprintf(b, "  File: %s\n", m.File)
			}
		}
	}
}

func appendWorkingTreeFindings(b *strings.Builder, matches []model.Match) {
	byFile := make(map[string][]string)
	seen := make(map[string]bool)
	var order []string
	for _, m := range matches {
		if !seen[m.File] {
			seen[m.File] = true
			order = append(order, m.File)
		}
		if m.Name != "" {
			byFile[m.File] = append(byFile[m.File], m.Name)
		}
	}

	for _, file := range order {
		fmt.Fprintf(b, "\nFile: %s\n", file)
		if funcs := byFile[file]; len(funcs) > 0 {
			fmt.Fprintf(b, "Modified functions: %s\n", strings.Join(funcs, ", "))
		}
	}
}

func appendProjectFindings(b *strings.Builder, matches []model.Match) {
	var functions, texts []model.Match
	for _, m := range matches {
		if m.Type == model.MatchFunction {
			functions = append(functions, m)
		} else {
			texts = append(texts, m)
		}
	}

	if len(functions) > 0 {
		b.WriteString("\nFUNCTION/METHOD MATCHES:\n")
		for _, m := range functions {
			fmt.Fprintf(b, "- %s in %s", m.Name, m.File)
			if m.Code != "" {
				preview := m.Code
				if idx := strings.Index(preview, "\n"); idx >= 0 {
					preview = preview[:idx]
				}
				if len(preview) > maxSnippetPreview {
					preview = preview[:maxSnippetPreview]
				}
				fmt.Fprintf(b, "\n  Preview: %s...", preview)
			}
			b.WriteString("\n")
		}
	}

	if len(texts) > 0 {
		b.WriteString("\nTEXT MATCHES:\n")
		byKeyword := groupByKeyword(texts)
		for _, kw := range sortedKeys(byKeyword) {
			files := make(map[string]bool)
			var order []string
			for _, m := range byKeyword[kw] {
				if !files[m.File] {
					files[m.File] = true
					order = append(order, m.File)
				}
			}
			fmt.Fprintf(b, "\nKeyword '%s' found in: %s\n", kw, strings.Join(order, ", "))
		}
	}
}

func groupByKeyword(matches []model.Match) map[string][]model.Match {
	out := make(map[string][]model.Match)
	for _, m := range matches {
		out[m.Keyword] = append(out[m.Keyword], m)
	}
	return out
}

// sortedKeys keeps prompt output stable across runs.
func sortedKeys(m map[string][]model.Match) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
