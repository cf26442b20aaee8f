// Package embedder generates vector embeddings for document chunks.
//
// It supports multiple providers (Jina AI, OpenAI, and a deterministic
// local fallback) behind a single Embedder interface, with batching,
// LRU caching by content hash, and retry with backoff on transient
// provider failures.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: chunkText,
//	})
//
// # Lifecycle
//
// Long-lived callers should hold a Service instead of a raw Embedder.
// A Service defers provider construction until first use and guarantees
// it happens exactly once:
//
//	svc := embedder.NewServiceFromEnv(logger)
//	vec, err := svc.Embed(ctx, "quarterly revenue summary")
//
// A failed initialization is cached; later calls return the same error
// without rebuilding the provider.
package embedder
