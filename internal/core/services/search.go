package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// scoredDoc holds intermediate search results before hydration.
type scoredDoc struct {
	docID    int64
	score    float64
	semantic float64
	lexical  float64
}

// SearchService provides hybrid semantic and fuzzy lexical search.
type SearchService struct {
	docStore         driven.DocumentStore
	embeddingStore   driven.EmbeddingStore
	embeddingService driven.EmbeddingService
	fusion           domain.FusionSettings
	logger           *logger.Logger
}

// NewSearchService creates a new search service.
// The embeddingService parameter is optional. Without it every search
// returns no results.
func NewSearchService(
	docStore driven.DocumentStore,
	embeddingStore driven.EmbeddingStore,
	embeddingService driven.EmbeddingService,
	fusion domain.FusionSettings,
	log *logger.Logger,
) *SearchService {
	return &SearchService{
		docStore:         docStore,
		embeddingStore:   embeddingStore,
		embeddingService: embeddingService,
		fusion:           fusion,
		logger:           log,
	}
}

// Search performs hybrid search across all indexed documents.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	s.logger.Section("Search Execution")
	s.logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		s.logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.embeddingService == nil {
		s.logger.Debug("No embedding provider, returning no results")
		return []domain.SearchResult{}, nil
	}

	limit := s.resultCap(opts)
	s.logger.Debug("Result cap: %d", limit)

	semantic, err := s.semanticScores(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errQueryEmbedding) {
			s.logger.Warn("Search unavailable: %v", err)
		} else {
			s.logger.Error("Search unavailable, a re-index may be required: %v", err)
		}
		return []domain.SearchResult{}, nil
	}
	s.logger.Debug("Semantic phase: %d vectors scored", len(semantic))

	ftsQuery := BuildFTSQuery(query)
	lexical := s.lexicalScores(ctx, query, ftsQuery)
	s.logger.Debug("Lexical phase: %d candidates", len(lexical))

	ranked := s.fuse(semantic, lexical)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results, err := s.hydrateResults(ctx, ranked, ftsQuery)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Search %q: %d results", query, len(results))
	return results, nil
}

// resultCap returns the configured maximum, narrowed by a smaller positive
// request limit.
func (s *SearchService) resultCap(opts domain.SearchOptions) int {
	limit := s.fusion.MaxResults
	if limit <= 0 {
		limit = domain.DefaultFusionSettings().MaxResults
	}
	if opts.Limit > 0 && opts.Limit < limit {
		limit = opts.Limit
	}
	return limit
}

var errQueryEmbedding = errors.New("query embedding failed")

// semanticScores embeds the query and scores every stored vector.
func (s *SearchService) semanticScores(ctx context.Context, query string) (map[int64]float64, error) {
	queryVec, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errQueryEmbedding, err)
	}

	stored, err := s.embeddingStore.AllEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	scores := make(map[int64]float64, len(stored))
	for _, emb := range stored {
		if len(emb.Vector) != len(queryVec) {
			return nil, fmt.Errorf("%w: document %d has %d dimensions, query has %d",
				domain.ErrDimensionMismatch, emb.DocID, len(emb.Vector), len(queryVec))
		}
		scores[emb.DocID] = clip01(CosineSimilarity(queryVec, emb.Vector))
	}
	return scores, nil
}

// lexicalScores fetches full-text candidates and scores them with fuzzy
// matching. Any storage failure yields no candidates.
func (s *SearchService) lexicalScores(ctx context.Context, query, ftsQuery string) map[int64]float64 {
	if ftsQuery == "" {
		return nil
	}

	candidates, err := s.docStore.LexicalMatch(ctx, ftsQuery, s.fusion.LexicalLimit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.logger.Debug("Lexical query rejected: %v", err)
		} else {
			s.logger.Warn("Lexical phase failed: %v", err)
		}
		return nil
	}

	q := strings.ToLower(query)
	scores := make(map[int64]float64, len(candidates))
	for _, c := range candidates {
		name := PartialRatio(q, strings.ToLower(c.Filename))
		content := PartialTokenSetRatio(q, strings.ToLower(domain.TruncateRunes(c.Content, s.fusion.ContentPrefix)))
		scores[c.DocID] = max(name, content) / 100
	}
	return scores
}

// fuse combines both score maps and ranks the result by score descending,
// breaking ties by document ID.
func (s *SearchService) fuse(semantic, lexical map[int64]float64) []scoredDoc {
	ranked := make([]scoredDoc, 0, len(semantic)+len(lexical))

	consider := func(id int64) {
		sem, hasSem := semantic[id]
		lex, hasLex := lexical[id]
		score, ok := s.fusion.Fuse(sem, hasSem, lex, hasLex)
		if !ok {
			return
		}
		ranked = append(ranked, scoredDoc{docID: id, score: score, semantic: sem, lexical: lex})
	}

	for id := range semantic {
		consider(id)
	}
	for id := range lexical {
		if _, seen := semantic[id]; !seen {
			consider(id)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].docID < ranked[j].docID
	})
	return ranked
}

// hydrateResults fetches display data for ranked documents. Documents that
// disappeared since scoring are dropped.
func (s *SearchService) hydrateResults(ctx context.Context, ranked []scoredDoc, ftsQuery string) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := s.docStore.DisplayRow(ctx, r.docID, ftsQuery, s.fusion.SnippetTokens)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("Display row for document %d: %v", r.docID, err)
			}
			continue
		}
		results = append(results, domain.SearchResult{
			DocID:    r.docID,
			Filename: row.Filename,
			Location: row.Location,
			Snippet:  row.Snippet,
			Score:    r.score,
			Semantic: r.semantic,
			Lexical:  r.lexical,
		})
	}
	return results, nil
}

// BuildFTSQuery turns free text into an FTS5 expression matching any word
// as a token prefix: `"word"* OR "other"*`. Quote characters are removed.
// Returns "" when no words remain.
func BuildFTSQuery(query string) string {
	words := strings.Fields(strings.NewReplacer(`"`, "", "'", "").Replace(query))
	if len(words) == 0 {
		return ""
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = `"` + w + `"*`
	}
	return strings.Join(parts, " OR ")
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero vectors and mismatched lengths score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clip01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
