package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"driveindex/internal/config"
	"driveindex/internal/embedder"
	"driveindex/internal/storage"
	"driveindex/pkg/types"
)

// Searcher ranks indexed chunks against a query by combining vector
// similarity with lexical relevance over a small candidate set.
type Searcher struct {
	storage  storage.Storage
	embedder *embedder.Service
	logger   *slog.Logger

	candidateLimit int
	resultLimit    int
	vectorWeight   float64
	bm25Weight     float64
}

// New creates a Searcher. A nil cfg uses production defaults; a nil logger
// uses slog.Default().
func New(store storage.Storage, emb *embedder.Service, cfg *config.Config, logger *slog.Logger) *Searcher {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		storage:        store,
		embedder:       emb,
		logger:         logger,
		candidateLimit: cfg.Search.CandidateLimit,
		resultLimit:    cfg.Search.ResultLimit,
		vectorWeight:   cfg.Search.VectorWeight,
		bm25Weight:     cfg.Search.BM25Weight,
	}
}

// Search returns the top-ranked chunks for a query, highest combined score
// first. A non-empty principalID restricts results to chunks of files that
// principal can access; an empty one searches unrestricted, which is logged
// as an explicit fallback for anonymous and testing contexts.
func (s *Searcher) Search(ctx context.Context, query, principalID string) ([]types.RankedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyQuery
	}

	if principalID == "" {
		s.logger.Warn("search without principal, permission filtering disabled")
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	candidates, err := s.storage.SearchVector(ctx, queryEmbedding.Vector, s.candidateLimit, principalID)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	// An empty document breaks length normalization, so it is dropped
	// before lexical scoring.
	kept := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	docs := make([][]string, len(kept))
	for i, c := range kept {
		docs[i] = tokenize(c.Content)
	}
	lexical := normalizeScores(newBM25(docs).scores(tokenize(query)))

	ranked := make([]types.RankedChunk, len(kept))
	for i, c := range kept {
		ranked[i] = types.RankedChunk{
			ChunkID:     c.ChunkID,
			FileID:      c.FileID,
			Filename:    c.Filename,
			Content:     c.Content,
			CitationURL: c.CitationURL,
			Score:       s.combine(c.SimilarityScore, lexical[i]),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > s.resultLimit {
		ranked = ranked[:s.resultLimit]
	}

	s.logger.Debug("search complete",
		"candidates", len(kept), "results", len(ranked), "filtered", principalID != "")
	return ranked, nil
}

// combine folds a vector similarity and a normalized lexical score into the
// final ranking score.
func (s *Searcher) combine(similarity, lexical float64) float64 {
	return s.vectorWeight*similarity + s.bm25Weight*lexical
}
