package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"driveindex/internal/chunker"
	"driveindex/internal/config"
	"driveindex/internal/embedder"
	"driveindex/internal/extractor"
	"driveindex/internal/remote"
	"driveindex/internal/retry"
	"driveindex/internal/storage"
	"driveindex/pkg/types"
)

// ErrSyncInProgress is returned when a sync run is started while another run
// against the same engine is still active.
var ErrSyncInProgress = errors.New("sync already in progress")

// Engine coordinates the sync pipeline: collect -> extract -> chunk -> embed -> store
type Engine struct {
	client    remote.Client
	storage   storage.Storage
	extractor extractor.Extractor
	embedder  *embedder.Service
	chunker   *chunker.Chunker
	logger    *slog.Logger

	retryCfg  retry.Config
	batchSize int
	workers   int

	lock SyncLock
}

// runStats tracks one sync run with atomic counters shared across workers.
type runStats struct {
	runID       string
	total       int32
	processed   int32
	failed      int32
	chunks      int32
	currentPath atomic.Value // string
}

// New creates a sync engine. A nil cfg uses production defaults; a nil logger
// uses slog.Default().
func New(client remote.Client, store storage.Storage, ext extractor.Extractor, emb *embedder.Service, cfg *config.Config, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:    client,
		storage:   store,
		extractor: ext,
		embedder:  emb,
		chunker:   chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap),
		logger:    logger,
		retryCfg:  retry.DefaultConfig(),
		batchSize: cfg.Sync.BatchSize,
		workers:   cfg.Sync.Workers,
	}
}

// WithRetryConfig overrides the retry budget and backoff shape.
func (e *Engine) WithRetryConfig(cfg retry.Config) *Engine {
	e.retryCfg = cfg
	return e
}

// RunFullSync enumerates every eligible file in the store, (re)processes all
// of them, and establishes a fresh delta cursor. Returns the number of chunks
// created.
func (e *Engine) RunFullSync(ctx context.Context, storeID string) (int, error) {
	if !e.lock.TryAcquire() {
		return 0, ErrSyncInProgress
	}
	defer e.lock.Release()

	return e.fullSync(ctx, storeID)
}

// RunIncrementalSync fetches changes since the stored cursor and processes
// only those. When no cursor exists it falls back to a full sync. Returns the
// number of chunks created.
func (e *Engine) RunIncrementalSync(ctx context.Context, storeID string) (int, error) {
	if !e.lock.TryAcquire() {
		return 0, ErrSyncInProgress
	}
	defer e.lock.Release()

	return e.incrementalSync(ctx, storeID)
}

func (e *Engine) fullSync(ctx context.Context, storeID string) (int, error) {
	stats := &runStats{runID: uuid.NewString()}
	log := e.logger.With("store_id", storeID, "run_id", stats.runID, "sync_kind", storage.SyncKindFull)
	log.Info("full sync started")

	items, err := e.CollectAll(ctx, storeID)
	if err != nil {
		e.persistRunError(ctx, storeID, "", stats, err)
		return 0, fmt.Errorf("failed to enumerate store: %w", err)
	}

	eligible := filterEligible(items)
	stats.total = int32(len(eligible))
	log.Info("enumeration complete", "remote_items", len(items), "eligible_files", len(eligible))

	e.processBatches(ctx, storeID, storage.SyncKindFull, eligible, stats, log)

	// The post-sync cursor comes from the remote's latest-state token, not
	// from the enumeration itself. Without it the next incremental run has
	// no starting point, so its absence is a recorded failure.
	token, err := retry.Do(ctx, e.retryCfg, func() (string, error) {
		return e.client.LatestCursor(ctx, storeID)
	})
	if err != nil || token == "" {
		if err == nil {
			err = remote.ErrNoDeltaToken
		}
		err = fmt.Errorf("no delta token found after full sync: %w", err)
		e.persistRunError(ctx, storeID, "", stats, err)
		return int(stats.chunks), err
	}

	if err := e.finishRun(ctx, storeID, storage.SyncKindFull, token, stats); err != nil {
		return int(stats.chunks), err
	}

	log.Info("full sync complete",
		"files_processed", stats.processed,
		"files_failed", stats.failed,
		"chunks_created", stats.chunks)
	return int(stats.chunks), nil
}

func (e *Engine) incrementalSync(ctx context.Context, storeID string) (int, error) {
	cursor, err := e.storage.GetCursor(ctx, storeID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && cursor.DeltaToken == "") {
		e.logger.Info("no delta cursor, falling back to full sync", "store_id", storeID)
		return e.fullSync(ctx, storeID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}

	stats := &runStats{runID: uuid.NewString()}
	log := e.logger.With("store_id", storeID, "run_id", stats.runID, "sync_kind", storage.SyncKindIncremental)
	log.Info("incremental sync started")

	type changeSet struct {
		items []types.RemoteItem
		token string
	}
	changes, err := retry.Do(ctx, e.retryCfg, func() (changeSet, error) {
		items, token, err := e.client.GetChanges(ctx, storeID, cursor.DeltaToken)
		return changeSet{items: items, token: token}, err
	})
	if err != nil {
		// The previous token stays in place so the next run can retry
		// the same window.
		e.persistRunError(ctx, storeID, cursor.DeltaToken, stats, err)
		return 0, fmt.Errorf("failed to fetch changes: %w", err)
	}
	if changes.token == "" {
		// A change feed without a follow-up token would leave the next run
		// with no starting point. Keep the old token and record the failure.
		err := fmt.Errorf("no delta token found after incremental sync: %w", remote.ErrNoDeltaToken)
		e.persistRunError(ctx, storeID, cursor.DeltaToken, stats, err)
		return 0, err
	}

	eligible := filterEligible(changes.items)
	stats.total = int32(len(eligible))
	log.Info("change feed fetched", "changed_items", len(changes.items), "eligible_files", len(eligible))

	e.processBatches(ctx, storeID, storage.SyncKindIncremental, eligible, stats, log)

	if err := e.finishRun(ctx, storeID, storage.SyncKindIncremental, changes.token, stats); err != nil {
		return int(stats.chunks), err
	}

	log.Info("incremental sync complete",
		"files_processed", stats.processed,
		"files_failed", stats.failed,
		"chunks_created", stats.chunks)
	return int(stats.chunks), nil
}

// filterEligible keeps files the processor will act on: supported extensions,
// whether changed or deleted. Unsupported files were never indexed, so their
// deletions carry nothing to cascade.
func filterEligible(items []types.RemoteItem) []types.RemoteItem {
	eligible := make([]types.RemoteItem, 0, len(items))
	for _, it := range items {
		if it.IsFolder || !extractor.IsSupported(it.Name) {
			continue
		}
		eligible = append(eligible, it)
	}
	return eligible
}

// processBatches runs the worker pool over the eligible items in batches.
// Each file owns its transaction; a batch-level failure is logged and the run
// moves on to the next batch.
func (e *Engine) processBatches(ctx context.Context, storeID, syncKind string, items []types.RemoteItem, stats *runStats, log *slog.Logger) {
	semaphore := make(chan struct{}, e.workers)

	for i := 0; i < len(items); i += e.batchSize {
		end := i + e.batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[i:end]

		if err := e.processBatch(ctx, storeID, batch, semaphore, stats); err != nil {
			log.Error("batch failed, continuing with next batch",
				"batch_start", i, "batch_size", len(batch), "error", err)
		}

		if err := e.writeProgress(ctx, storeID, syncKind, stats); err != nil {
			log.Warn("failed to write progress", "error", err)
		}
	}
}

func (e *Engine) processBatch(ctx context.Context, storeID string, batch []types.RemoteItem, semaphore chan struct{}, stats *runStats) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, item := range batch {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			stats.currentPath.Store(item.Path())
			chunks, err := e.processItem(gctx, storeID, item)
			atomic.AddInt32(&stats.processed, 1)
			if err != nil {
				atomic.AddInt32(&stats.failed, 1)
				e.logger.Warn("file processing failed",
					"store_id", storeID, "file_id", item.ID, "path", item.Path(), "error", err)
				return nil
			}
			atomic.AddInt32(&stats.chunks, int32(chunks))
			return nil
		})
	}

	return g.Wait()
}

func (e *Engine) writeProgress(ctx context.Context, storeID, syncKind string, stats *runStats) error {
	currentPath, _ := stats.currentPath.Load().(string)
	return e.storage.UpsertProgress(ctx, &storage.SyncProgress{
		StoreID:        storeID,
		SyncKind:       syncKind,
		RunID:          stats.runID,
		TotalFiles:     int(atomic.LoadInt32(&stats.total)),
		ProcessedFiles: int(atomic.LoadInt32(&stats.processed)),
		FailedFiles:    int(atomic.LoadInt32(&stats.failed)),
		CurrentPath:    currentPath,
	})
}

// finishRun advances the cursor with the run's actual counts and clears the
// in-flight progress row.
func (e *Engine) finishRun(ctx context.Context, storeID, syncKind, token string, stats *runStats) error {
	cursor := &storage.SyncCursor{
		StoreID:        storeID,
		DeltaToken:     token,
		LastSyncAt:     time.Now().UTC(),
		FilesProcessed: int(atomic.LoadInt32(&stats.processed)),
		ChunksCreated:  int(atomic.LoadInt32(&stats.chunks)),
		Status:         storage.StatusSuccess,
	}
	if err := e.storage.UpsertCursor(ctx, cursor); err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}

	if err := e.storage.ClearProgress(ctx, storeID, syncKind); err != nil {
		e.logger.Warn("failed to clear progress", "store_id", storeID, "error", err)
	}
	return nil
}

// persistRunError records a failed run on the cursor row. The previous token
// is preserved; callers that do not hold one pass "" and any token already on
// the cursor row is kept. The message is truncated by the storage layer.
func (e *Engine) persistRunError(ctx context.Context, storeID, keepToken string, stats *runStats, runErr error) {
	if keepToken == "" {
		if existing, err := e.storage.GetCursor(ctx, storeID); err == nil {
			keepToken = existing.DeltaToken
		}
	}
	cursor := &storage.SyncCursor{
		StoreID:        storeID,
		DeltaToken:     keepToken,
		LastSyncAt:     time.Now().UTC(),
		FilesProcessed: int(atomic.LoadInt32(&stats.processed)),
		ChunksCreated:  int(atomic.LoadInt32(&stats.chunks)),
		Status:         storage.StatusError,
		ErrorMessage:   runErr.Error(),
	}
	if err := e.storage.UpsertCursor(ctx, cursor); err != nil {
		e.logger.Error("failed to persist run error", "store_id", storeID, "error", err)
	}
}

// Status reports the cursor and any in-flight progress rows for a store.
type Status struct {
	Cursor   *storage.SyncCursor
	Progress []*storage.SyncProgress
}

// SyncStatus returns the persisted sync state for a store. A store that has
// never synced returns a Status with a nil cursor.
func (e *Engine) SyncStatus(ctx context.Context, storeID string) (*Status, error) {
	st := &Status{}

	cursor, err := e.storage.GetCursor(ctx, storeID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	st.Cursor = cursor

	for _, kind := range []string{storage.SyncKindFull, storage.SyncKindIncremental} {
		progress, err := e.storage.GetProgress(ctx, storeID, kind)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		st.Progress = append(st.Progress, progress)
	}

	return st, nil
}
