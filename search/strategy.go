// Package search provides the bundled search strategies and the fan-out
// coordinator that merges their matches per source category.
package search

import (
	"context"

	"github.com/quarrylabs/quarry/model"
)

// Strategy searches one source category for a set of keywords.
// Implementations must honor the context deadline.
type Strategy interface {
	// Source identifies the category this strategy's matches belong to.
	Source() model.Source

	// Search returns matches for the keywords, treated as independent
	// OR-queries.
	Search(ctx context.Context, keywords []string) ([]model.Match, error)
}
