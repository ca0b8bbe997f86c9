package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quarrylabs/quarry/model"
)

const (
	cacheSize = 256
	cacheTTL  = 5 * time.Minute
)

// Fanout runs every strategy for every keyword concurrently and merges the
// matches per source category. A failing strategy contributes an empty
// category; SearchAll never fails a whole call over one bad source.
type Fanout struct {
	strategies []Strategy
	cache      *expirable.LRU[string, []model.Match]
	logger     *zap.Logger
}

// NewFanout creates a coordinator over the given strategies.
func NewFanout(strategies []Strategy, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{
		strategies: strategies,
		cache:      expirable.NewLRU[string, []model.Match](cacheSize, nil, cacheTTL),
		logger:     logger,
	}
}

// SearchAll fans the keyword set out across all strategies. Partial results
// on timeout or per-strategy failure are returned, never an error.
func (f *Fanout) SearchAll(ctx context.Context, keywords []string) (model.SearchResults, error) {
	results := model.NewSearchResults()
	if len(keywords) == 0 {
		return results, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, strategy := range f.strategies {
		for _, keyword := range keywords {
			strategy, keyword := strategy, keyword
			g.Go(func() error {
				matches := f.searchOne(gctx, strategy, keyword)
				if len(matches) == 0 {
					return nil
				}
				mu.Lock()
				defer mu.Unlock()
				appendMatches(&results, strategy.Source(), matches)
				return nil
			})
		}
	}

	// goroutines absorb their own errors
	_ = g.Wait()

	dedupeResults(&results)
	return results, nil
}

// searchOne runs one strategy for one keyword, through the cache.
func (f *Fanout) searchOne(ctx context.Context, strategy Strategy, keyword string) []model.Match {
	key := cacheKey(strategy.Source(), keyword)
	if cached, ok := f.cache.Get(key); ok {
		return cached
	}

	matches, err := strategy.Search(ctx, []string{keyword})
	if err != nil {
		f.logger.Warn("search strategy degraded",
			zap.String("source", string(strategy.Source())),
			zap.String("keyword", keyword),
			zap.Error(err))
		return matches
	}

	f.cache.Add(key, matches)
	return matches
}

func cacheKey(source model.Source, keyword string) string {
	return fmt.Sprintf("%s:%s", source, keyword)
}

func appendMatches(results *model.SearchResults, source model.Source, matches []model.Match) {
	switch source {
	case model.SourceHistory:
		results.History = append(results.History, matches...)
	case model.SourceWorkingTree:
		results.WorkingTree = append(results.WorkingTree, matches...)
	case model.SourceProject:
		results.Project = append(results.Project, matches...)
	}
}

// dedupeResults drops duplicate matches within each category. Different
// keywords can surface the same location; downstream consumers expect each
// location once per category.
func dedupeResults(results *model.SearchResults) {
	results.History = dedupeMatches(results.History)
	results.WorkingTree = dedupeMatches(results.WorkingTree)
	results.Project = dedupeMatches(results.Project)
}

func dedupeMatches(matches []model.Match) []model.Match {
	seen := make(map[string]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		key := fmt.Sprintf("%s\x00%s\x00%d\x00%s", m.File, m.Name, m.Line, m.Commit)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}
