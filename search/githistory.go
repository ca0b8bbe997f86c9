// Commit-history search via git log -S (pickaxe).
//
// Information Hiding:
// - Git command construction hidden
// - Output parsing abstracted

package search

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/quarrylabs/quarry/model"
)

const maxCommitsPerKeyword = 5

// HistoryStrategy finds commits whose diffs add or remove a keyword.
type HistoryStrategy struct {
	repoRoot string
}

// NewHistoryStrategy creates a commit-history strategy rooted at repoRoot.
func NewHistoryStrategy(repoRoot string) *HistoryStrategy {
	if repoRoot == "" {
		repoRoot = "."
	}
	return &HistoryStrategy{repoRoot: repoRoot}
}

// Source identifies matches as commit-history results.
func (s *HistoryStrategy) Source() model.Source {
	return model.SourceHistory
}

// Search runs one git pickaxe query per keyword.
func (s *HistoryStrategy) Search(ctx context.Context, keywords []string) ([]model.Match, error) {
	var matches []model.Match
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out, err := s.run(ctx, kw)
		if err != nil {
			return matches, err
		}
		matches = append(matches, parseGitLog(kw, out)...)
	}
	return matches, nil
}

func (s *HistoryStrategy) run(ctx context.Context, keyword string) (string, error) {
	args := []string{
		"-C", s.repoRoot,
		"log",
		"-S", keyword,
		fmt.Sprintf("--max-count=%d", maxCommitsPerKeyword),
		"--pretty=format:%H\t%s",
		"--name-only",
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("git log -S %q failed: %w", keyword, err)
	}
	return string(output), nil
}

// parseGitLog turns `git log --pretty=format:%H\t%s --name-only` output into
// matches, one per commit, carrying the first touched file.
func parseGitLog(keyword, output string) []model.Match {
	var matches []model.Match
	var current *model.Match

	flush := func() {
		if current != nil {
			matches = append(matches, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if hash, subject, ok := strings.Cut(line, "\t"); ok && isCommitHash(hash) {
			flush()
			current = &model.Match{
				Keyword: keyword,
				Type:    model.MatchText,
				Commit:  hash,
				Subject: subject,
			}
			continue
		}
		// file line belonging to the current commit
		if current != nil && current.File == "" {
			current.File = line
		}
	}
	flush()
	return matches
}

func isCommitHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
