// Working-tree search via git diff -G over uncommitted changes.

package search

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/quarrylabs/quarry/model"
)

// WorktreeStrategy finds uncommitted changes touching a keyword.
type WorktreeStrategy struct {
	repoRoot string
}

// NewWorktreeStrategy creates a working-tree strategy rooted at repoRoot.
func NewWorktreeStrategy(repoRoot string) *WorktreeStrategy {
	if repoRoot == "" {
		repoRoot = "."
	}
	return &WorktreeStrategy{repoRoot: repoRoot}
}

// Source identifies matches as uncommitted-change results.
func (s *WorktreeStrategy) Source() model.Source {
	return model.SourceWorkingTree
}

// Search runs one git diff -G query per keyword.
func (s *WorktreeStrategy) Search(ctx context.Context, keywords []string) ([]model.Match, error) {
	var matches []model.Match
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out, err := s.run(ctx, kw)
		if err != nil {
			return matches, err
		}
		matches = append(matches, parseUnifiedDiff(kw, out)...)
	}
	return matches, nil
}

func (s *WorktreeStrategy) run(ctx context.Context, keyword string) (string, error) {
	args := []string{
		"-C", s.repoRoot,
		"diff",
		"--unified=0",
		"-G", regexp.QuoteMeta(keyword),
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("git diff -G %q failed: %w", keyword, err)
	}
	return string(output), nil
}

// hunkContext captures the function name git appends after the second @@.
var hunkContext = regexp.MustCompile(`^@@ [^@]*@@\s*(.*)$`)

// identInContext pulls the trailing identifier out of a hunk context line
// such as "func (c *Client) Do(req *Request) {".
var identInContext = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// parseUnifiedDiff turns `git diff --unified=0` output into matches, one per
// file/hunk pair, with the enclosing function name when git reports one.
func parseUnifiedDiff(keyword, output string) []model.Match {
	var matches []model.Match
	currentFile := ""
	seen := make(map[string]bool)

	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			currentFile = strings.TrimPrefix(line, "+++ b/")
			key := currentFile + "\x00"
			if !seen[key] {
				seen[key] = true
				matches = append(matches, model.Match{
					Keyword: keyword,
					Type:    model.MatchText,
					File:    currentFile,
				})
			}
			continue
		}
		if currentFile == "" {
			continue
		}
		m := hunkContext.FindStringSubmatch(line)
		if m == nil || m[1] == "" {
			continue
		}
		name := hunkFunctionName(m[1])
		if name == "" {
			continue
		}
		key := currentFile + "\x00" + name
		if seen[key] {
			continue
		}
		seen[key] = true
		matches = append(matches, model.Match{
			Keyword: keyword,
			Type:    model.MatchFunction,
			Name:    name,
			File:    currentFile,
		})
	}
	return matches
}

func hunkFunctionName(context string) string {
	m := identInContext.FindAllStringSubmatch(context, -1)
	if len(m) == 0 {
		return ""
	}
	// last identifier before an open paren is the function itself,
	// not a receiver
	return m[len(m)-1][1]
}
