// Package extract assembles the final context bundle from an accumulated
// research context. Classification is name-based and deduplication keeps
// the first occurrence: earlier iterations correspond to the seed keywords
// and are assumed more central to the query.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/quarrylabs/quarry/model"
	"github.com/quarrylabs/quarry/research"
)

// Files under this many lines are included verbatim. The bound is
// exclusive: a 100-line file is not a small file.
const smallFileLines = 100

// Extractor builds ContextBundles. Implements research.Extractor.
type Extractor struct {
	logger *zap.Logger
}

// New creates an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract walks every iteration in order and collects every match carrying
// retrievable code into the four bundle groups. No (name, file) pair appears
// twice across the groups.
func (e *Extractor) Extract(query string, rc *research.Context) model.ContextBundle {
	bundle := model.ContextBundle{}
	seen := make(map[string]bool)

	// Full-file entries always land in main components; name-based
	// classification applies only to snippet entries.
	add := func(entry model.CodeEntry, fullFile bool) {
		key := entry.Name + "\x00" + entry.File
		if seen[key] {
			return
		}
		seen[key] = true
		if fullFile {
			bundle.MainComponents = append(bundle.MainComponents, entry)
			return
		}
		switch classify(entry.Name, entry.File) {
		case groupUtilities:
			bundle.Utilities = append(bundle.Utilities, entry)
		case groupExamples:
			bundle.UsageExamples = append(bundle.UsageExamples, entry)
		case groupConfiguration:
			bundle.Configuration = append(bundle.Configuration, entry)
		default:
			bundle.MainComponents = append(bundle.MainComponents, entry)
		}
	}

	for _, it := range rc.Iterations() {
		for _, m := range allMatches(it.Results) {
			if entry, fullFile, ok := entryFromMatch(m); ok {
				add(entry, fullFile)
			}
		}
	}

	bundle.Summary = summarize(query, rc)

	e.logger.Debug("context bundle assembled",
		zap.String("query", query),
		zap.Int("main", len(bundle.MainComponents)),
		zap.Int("utilities", len(bundle.Utilities)),
		zap.Int("examples", len(bundle.UsageExamples)),
		zap.Int("configuration", len(bundle.Configuration)))

	return bundle
}

type group int

const (
	groupMain group = iota
	groupUtilities
	groupExamples
	groupConfiguration
)

// classify picks the bundle group from the entry identifier and file name.
func classify(name, file string) group {
	id := strings.ToLower(name + " " + filepath.Base(file))
	switch {
	case strings.Contains(id, "util") || strings.Contains(id, "helper"):
		return groupUtilities
	case strings.Contains(id, "test") || strings.Contains(id, "spec"):
		return groupExamples
	case strings.Contains(id, "config") || strings.Contains(id, "init"):
		return groupConfiguration
	default:
		return groupMain
	}
}

func allMatches(results model.SearchResults) []model.Match {
	out := make([]model.Match, 0, results.Total())
	out = append(out, results.History...)
	out = append(out, results.WorkingTree...)
	out = append(out, results.Project...)
	return out
}

// entryFromMatch converts a match into a bundle entry when the match
// carries code. Small files are carried whole and reported as full-file
// entries; otherwise the captured implementation snippet is used.
func entryFromMatch(m model.Match) (entry model.CodeEntry, fullFile bool, ok bool) {
	if m.FullContent != "" && m.TotalLines > 0 && m.TotalLines < smallFileLines {
		name := m.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(m.File), filepath.Ext(m.File))
		}
		return model.CodeEntry{
			Name:    name,
			File:    m.File,
			Purpose: fmt.Sprintf("Complete file (%d lines) matching '%s'", m.TotalLines, m.Keyword),
			Code:    m.FullContent,
		}, true, true
	}
	if m.Code != "" {
		name := m.Name
		if name == "" {
			name = m.Keyword
		}
		return model.CodeEntry{
			Name:    name,
			File:    m.File,
			Purpose: fmt.Sprintf("Implementation matching '%s'", m.Keyword),
			Code:    m.Code,
		}, false, true
	}
	return model.CodeEntry{}, false, false
}

// summarize prefers the latest analysis summary and falls back to counts.
func summarize(query string, rc *research.Context) string {
	summaries := rc.Summaries()
	if len(summaries) > 0 {
		return summaries[len(summaries)-1]
	}
	return fmt.Sprintf("Found %d results across %d iterations for: %s",
		rc.TotalResults(), len(rc.Iterations()), query)
}
