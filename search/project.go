// Project-wide search via ripgrep.
//
// Information Hiding:
// - Ripgrep command construction hidden
// - Output parsing abstracted
// - Function detection and snippet capture internalized

package search

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/quarrylabs/quarry/model"
)

const (
	maxLinesPerKeyword = 20
	// Files under this line count are carried in full so the extractor
	// can include them verbatim. The bound is exclusive: a 100-line file
	// is not a small file.
	smallFileLines = 100
	// Longest implementation snippet captured for a function match.
	maxSnippetLines = 30
)

// functionLine recognizes definition lines across the common languages.
var functionLine = regexp.MustCompile(`^\s*(?:(?:pub|public|private|protected|static|async|export)\s+)*(?:func|fn|def|function|class)\b`)

// functionName pulls the defined identifier out of a definition line.
var functionName = regexp.MustCompile(`(?:func|fn|def|function|class)\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)`)

// ProjectStrategy searches tracked project files with ripgrep and enriches
// function matches with implementation snippets.
type ProjectStrategy struct {
	repoRoot string
}

// NewProjectStrategy creates a project-wide strategy rooted at repoRoot.
func NewProjectStrategy(repoRoot string) *ProjectStrategy {
	if repoRoot == "" {
		repoRoot = "."
	}
	return &ProjectStrategy{repoRoot: repoRoot}
}

// Source identifies matches as project-structure results.
func (s *ProjectStrategy) Source() model.Source {
	return model.SourceProject
}

// Search runs one ripgrep query per keyword.
func (s *ProjectStrategy) Search(ctx context.Context, keywords []string) ([]model.Match, error) {
	var matches []model.Match
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out, err := s.run(ctx, kw)
		if err != nil {
			return matches, err
		}
		for _, m := range parseRipgrepOutput(kw, out) {
			s.enrich(&m)
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (s *ProjectStrategy) run(ctx context.Context, keyword string) (string, error) {
	args := []string{
		"--no-messages",
		"--color=never",
		"-n",
		"--max-count", strconv.Itoa(maxLinesPerKeyword),
		"-F",
		"--", keyword,
	}
	// run from the repo root so reported paths stay repo-relative
	cmd := exec.CommandContext(ctx, "rg", args...)
	cmd.Dir = s.repoRoot
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// rg exits 1 when nothing matched
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("rg search for %q failed: %w", keyword, err)
	}
	return string(output), nil
}

// parseRipgrepOutput turns `rg -n` output (path:line:content) into matches.
func parseRipgrepOutput(keyword, output string) []model.Match {
	var matches []model.Match
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		file, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lineNo, content, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(lineNo)
		if err != nil {
			continue
		}

		m := model.Match{
			Keyword: keyword,
			Type:    model.MatchText,
			File:    file,
			Line:    n,
			Snippet: strings.TrimSpace(content),
		}
		if functionLine.MatchString(content) {
			m.Type = model.MatchFunction
			if sub := functionName.FindStringSubmatch(content); sub != nil {
				m.Name = sub[1]
			}
		}
		matches = append(matches, m)
	}
	return matches
}

// enrich loads snippet and full-content data from the matched file.
// Read failures leave the match as-is; the line reference alone is useful.
func (s *ProjectStrategy) enrich(m *model.Match) {
	path := m.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.repoRoot, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	m.TotalLines = len(lines)

	if m.TotalLines < smallFileLines {
		m.FullContent = string(data)
	}
	if m.Type == model.MatchFunction && m.Line > 0 && m.Line <= len(lines) {
		m.Code = captureSnippet(lines, m.Line-1)
	}
}

// captureSnippet returns the definition starting at start (0-based) up to
// the line closing its opening brace, bounded by maxSnippetLines. Without
// brace tracking (e.g. Python) it falls back to the bounded window.
func captureSnippet(lines []string, start int) string {
	end := start + maxSnippetLines
	if end > len(lines) {
		end = len(lines)
	}
	depth := 0
	opened := false
	for i := start; i < end; i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			end = i + 1
			break
		}
	}
	return strings.Join(lines[start:end], "\n")
}
