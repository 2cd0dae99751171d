package driving

import (
	"context"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search performs hybrid search across all indexed documents.
	// An empty query or a missing embedding provider yields no results and
	// no error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
