package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-desk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors count vocabulary words in the text unless an exact text is
// pinned in vectors.
type mockEmbeddingService struct {
	mu      sync.Mutex
	vocab   []string
	vectors map[string][]float32
	err     error
	calls   int
}

var _ driven.EmbeddingService = (*mockEmbeddingService)(nil)

func newMockEmbedder(vocab ...string) *mockEmbeddingService {
	return &mockEmbeddingService{vocab: vocab, vectors: make(map[string][]float32)}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(m.vocab))
	for i, word := range m.vocab {
		vec[i] = float32(strings.Count(lower, word))
	}
	return vec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return len(m.vocab) }

func (m *mockEmbeddingService) ModelName() string { return "mock" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return m.err }

func (m *mockEmbeddingService) Close() error { return nil }

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// seedDoc commits one document, and its vector when vec is non-nil.
func seedDoc(t *testing.T, store *memory.Store, path, content string, vec []float32) int64 {
	t.Helper()
	ctx := context.Background()
	w, err := store.BeginWrite(ctx)
	require.NoError(t, err)
	id, err := w.InsertDocument(ctx, domain.NewDocument(domain.DirectLocation(path), content))
	require.NoError(t, err)
	if vec != nil {
		require.NoError(t, w.InsertEmbedding(ctx, id, vec))
	}
	require.NoError(t, w.Close())
	return id
}
