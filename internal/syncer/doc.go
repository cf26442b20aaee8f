// Package syncer coordinates the end-to-end sync pipeline for a remote drive.
//
// The engine orchestrates change collection, text extraction, chunking,
// embedding, and storage, managing concurrency and error isolation for
// multi-thousand-file drives.
//
// # Basic Usage
//
//	engine := syncer.New(client, store, extractor, embedder, cfg, logger)
//
//	chunks, err := engine.RunFullSync(ctx, driveID)
//	// or, once a cursor exists:
//	chunks, err = engine.RunIncrementalSync(ctx, driveID)
//
// # Sync Pipeline
//
// Each run executes a multi-stage pipeline:
//
//  1. Collect: enumerate the drive (full) or fetch the change feed (incremental)
//  2. Filter: keep files with supported extensions, drop folders
//  3. Process: download, extract, chunk, embed, and store each file in its
//     own transaction (parallel, bounded by the worker pool)
//  4. Checkpoint: write progress after every batch, advance the cursor at
//     the end of a successful run
//
// # Error Isolation
//
// Failures are contained at three levels:
//
//   - File: logged and counted; the run continues with the next file. The
//     file's previous records stay intact and it remains eligible next run.
//   - Batch: logged and skipped; the run continues with the next batch.
//   - Run: an error status and truncated diagnostic are persisted on the
//     cursor row, the previous delta token is preserved, and the error is
//     returned to the caller.
//
// # Integrity
//
// VerifyIntegrity diffs the remote file set against the index and scores
// their agreement; RepairReport reindexes missing files and removes orphaned
// records, each item fault-isolated.
//
// Overlapping runs against the same engine are rejected with
// ErrSyncInProgress rather than queued.
package syncer
