package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State describes the lifecycle of a Service.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Service wraps an Embedder behind an explicit initialization gate.
// Construction is cheap; the underlying provider is built exactly once,
// on first use. A failed initialization is cached and returned to every
// subsequent caller rather than retried.
type Service struct {
	newFn  func() (Embedder, error)
	logger *slog.Logger

	once    sync.Once
	state   atomic.Int32
	emb     Embedder
	initErr error
}

// NewService creates an uninitialized Service. newFn builds the provider
// and runs at most once, on the first call that needs an embedder.
func NewService(newFn func() (Embedder, error), logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		newFn:  newFn,
		logger: logger,
	}
}

// NewServiceFromEnv creates a Service whose provider is chosen from the
// environment on first use.
func NewServiceFromEnv(logger *slog.Logger) *Service {
	return NewService(NewFromEnv, logger)
}

// State reports the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Init forces initialization. It is safe to call from multiple goroutines;
// only the first call does work. Callers that just want an embedder can
// skip Init and call Embedder, Embed or EmbedBatch directly.
func (s *Service) Init() error {
	s.once.Do(func() {
		s.state.Store(int32(StateLoading))
		s.logger.Info("initializing embedding provider")

		emb, err := s.newFn()
		if err != nil {
			s.initErr = fmt.Errorf("embedder init: %w", err)
			s.state.Store(int32(StateFailed))
			s.logger.Error("embedding provider failed to initialize", "error", err)
			return
		}

		s.emb = emb
		s.state.Store(int32(StateReady))
		s.logger.Info("embedding provider ready",
			"provider", emb.Provider(),
			"model", emb.Model(),
			"dimension", emb.Dimension())
	})
	return s.initErr
}

// Embedder returns the underlying embedder, initializing it if needed.
func (s *Service) Embedder() (Embedder, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s.emb, nil
}

// Embed generates a single embedding for text.
func (s *Service) Embed(ctx context.Context, text string) (*Embedding, error) {
	emb, err := s.Embedder()
	if err != nil {
		return nil, err
	}
	return emb.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
}

// EmbedBatch generates embeddings for texts in provider-sized batches.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	emb, err := s.Embedder()
	if err != nil {
		return nil, err
	}

	out := make([]*Embedding, 0, len(texts))
	for start := 0; start < len(texts); start += DefaultBatchSize {
		end := start + DefaultBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := emb.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: texts[start:end]})
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, resp.Embeddings...)
	}
	return out, nil
}

// Close releases the underlying provider if it was initialized.
func (s *Service) Close() error {
	if s.State() == StateReady && s.emb != nil {
		return s.emb.Close()
	}
	return nil
}
