package searcher

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveindex/internal/embedder"
	"driveindex/internal/storage"
	"driveindex/pkg/types"
)

// fixedEmbedder returns the same vector for every input, letting tests
// control similarity through the stored chunk embeddings alone.
type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) GenerateEmbedding(_ context.Context, _ embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return &embedder.Embedding{Vector: f.vec, Dimension: len(f.vec), Model: "fixed"}, nil
}

func (f *fixedEmbedder) GenerateBatch(_ context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	out := make([]*embedder.Embedding, len(req.Texts))
	for i := range req.Texts {
		out[i] = &embedder.Embedding{Vector: f.vec, Dimension: len(f.vec), Model: "fixed"}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: out, Provider: "fixed", Model: "fixed"}, nil
}

func (f *fixedEmbedder) Dimension() int   { return len(f.vec) }
func (f *fixedEmbedder) Provider() string { return "fixed" }
func (f *fixedEmbedder) Model() string    { return "fixed" }
func (f *fixedEmbedder) Close() error     { return nil }

func newTestSearcher(t *testing.T, queryVec []float32) (*Searcher, *storage.SQLiteStorage) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "search.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := embedder.NewService(func() (embedder.Embedder, error) {
		return &fixedEmbedder{vec: queryVec}, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s := New(store, svc, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s, store
}

func insertChunk(t *testing.T, store *storage.SQLiteStorage, fileID, content string, vec []float32) {
	t.Helper()
	err := store.InsertChunk(context.Background(), &storage.Chunk{
		FileID:     fileID,
		ChunkIndex: 0,
		Content:    content,
		Embedding:  storage.SerializeVector(vec),
		WordCount:  len(content),
		Filename:   fileID + ".txt",
	})
	require.NoError(t, err)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	query := []float32{1, 0, 0}
	s, store := newTestSearcher(t, query)

	insertChunk(t, store, "close", "entirely unrelated words here", []float32{0.99, 0.1, 0})
	insertChunk(t, store, "far", "entirely unrelated words here", []float32{0, 1, 0})

	results, err := s.Search(ctx, "some query", "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].FileID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchLexicalRescoring(t *testing.T) {
	ctx := context.Background()
	query := []float32{1, 0, 0}
	s, store := newTestSearcher(t, query)

	// Same vector similarity; only lexical overlap with the query differs.
	insertChunk(t, store, "match", "quarterly revenue targets", []float32{1, 0, 0})
	insertChunk(t, store, "nomatch", "weekend hiking checklist", []float32{1, 0, 0})
	insertChunk(t, store, "filler", "unrelated meeting agenda", []float32{1, 0, 0})

	results, err := s.Search(ctx, "quarterly revenue", "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "match", results[0].FileID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchTopFiveOnly(t *testing.T) {
	ctx := context.Background()
	query := []float32{1, 0, 0}
	s, store := newTestSearcher(t, query)

	for i := 0; i < 8; i++ {
		insertChunk(t, store, string(rune('a'+i)), "shared content words", []float32{1, float32(i) * 0.01, 0})
	}

	results, err := s.Search(ctx, "shared content", "")
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestSearchDropsEmptyContent(t *testing.T) {
	ctx := context.Background()
	query := []float32{1, 0, 0}
	s, store := newTestSearcher(t, query)

	insertChunk(t, store, "blank", "   ", []float32{1, 0, 0})
	insertChunk(t, store, "real", "useful text", []float32{0.9, 0.1, 0})

	results, err := s.Search(ctx, "useful", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "real", results[0].FileID)
}

func TestSearchEmptyQuery(t *testing.T) {
	s, _ := newTestSearcher(t, []float32{1, 0, 0})

	_, err := s.Search(context.Background(), "   ", "")
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestSearchEmptyIndex(t *testing.T) {
	s, _ := newTestSearcher(t, []float32{1, 0, 0})

	results, err := s.Search(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchPermissionFiltering(t *testing.T) {
	ctx := context.Background()
	query := []float32{1, 0, 0}
	s, store := newTestSearcher(t, query)

	insertChunk(t, store, "file-visible", "shared document", []float32{1, 0, 0})
	insertChunk(t, store, "file-hidden", "private document", []float32{1, 0, 0})

	err := store.ReplacePermissions(ctx, "file-visible", []*storage.Permission{
		{FileID: "file-visible", PermissionID: "p1", Type: "user", Role: "read", UserID: "u1", IsActive: true},
	})
	require.NoError(t, err)
	require.NoError(t, store.RefreshAccess(ctx))

	results, err := s.Search(ctx, "document", "u1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "file-visible", results[0].FileID)

	// No principal: the logged fallback searches everything.
	results, err = s.Search(ctx, "document", "")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCombineWeights(t *testing.T) {
	s, _ := newTestSearcher(t, []float32{1, 0, 0})

	tests := []struct {
		name       string
		similarity float64
		lexical    float64
		want       float64
	}{
		{"vector heavy", 0.9, 0.0, 0.63},
		{"lexical heavy", 0.1, 1.0, 0.37},
		{"both full", 1.0, 1.0, 1.0},
		{"both zero", 0.0, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.combine(tt.similarity, tt.lexical), 1e-9)
		})
	}
}
