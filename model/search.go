// Package model provides domain types shared across packages.
package model

// Source identifies which search backend produced a match.
type Source string

const (
	// SourceHistory is the commit-history backend (git log).
	SourceHistory Source = "history"
	// SourceWorkingTree is the uncommitted-changes backend (git diff).
	SourceWorkingTree Source = "worktree"
	// SourceProject is the in-repo code/text search backend.
	SourceProject Source = "project"
)

// MatchType distinguishes function-definition hits from plain text hits.
type MatchType string

const (
	MatchFunction MatchType = "function"
	MatchText     MatchType = "text"
)

// Match is a single search hit for one keyword.
// Which fields are populated depends on the source: history matches carry
// commit metadata, project matches carry file/line and optionally code.
type Match struct {
	Keyword string    `json:"keyword"`
	Type    MatchType `json:"type"`
	Name    string    `json:"name,omitempty"` // function or symbol name
	File    string    `json:"file,omitempty"`
	Line    int       `json:"line,omitempty"`
	Commit  string    `json:"commit,omitempty"`
	Subject string    `json:"subject,omitempty"` // commit subject line
	Snippet string    `json:"snippet,omitempty"` // matched line or preview

	// Code is the full implementation of the matched function when the
	// backend could retrieve it.
	Code string `json:"code,omitempty"`

	// FullContent holds the entire file when it is under the small-file
	// threshold. TotalLines is set whenever FullContent is.
	FullContent string `json:"full_content,omitempty"`
	TotalLines  int    `json:"total_lines,omitempty"`
}

// SearchResults groups matches by source category. Categories are always
// non-nil: an empty search yields empty slices, never absent ones.
type SearchResults struct {
	History     []Match `json:"recent_changes"`
	WorkingTree []Match `json:"unstaged_changes"`
	Project     []Match `json:"related_code"`
}

// NewSearchResults returns an empty result set with all categories allocated.
func NewSearchResults() SearchResults {
	return SearchResults{
		History:     []Match{},
		WorkingTree: []Match{},
		Project:     []Match{},
	}
}

// Total returns the number of matches across all categories.
func (r SearchResults) Total() int {
	return len(r.History) + len(r.WorkingTree) + len(r.Project)
}

// BySource returns the category slice for a source.
func (r SearchResults) BySource(s Source) []Match {
	switch s {
	case SourceHistory:
		return r.History
	case SourceWorkingTree:
		return r.WorkingTree
	case SourceProject:
		return r.Project
	default:
		return nil
	}
}
