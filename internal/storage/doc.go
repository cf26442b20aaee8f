// Package storage provides SQLite-based persistence for the document index.
//
// The storage layer manages:
//   - Document chunks with inline vector embeddings
//   - Sharing permissions mirrored from the remote store
//   - The materialized access table (principal -> visible files)
//   - Sync cursors (one durable checkpoint per store)
//   - Sync progress rows (one per store and sync kind)
//
// # Database Schema
//
// Tables:
//   - chunks: embedded document slices, UNIQUE(file_id, chunk_index)
//   - permissions: sharing grants, UNIQUE(file_id, permission_id)
//   - cursors: delta checkpoint per store (store_id primary key)
//   - progress: in-flight run state, UNIQUE(store_id, sync_kind)
//   - access: rebuilt visibility rows, UNIQUE(file_id, principal_id)
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// # Transactions
//
// File processing replaces a file's chunks atomically inside one
// transaction:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if _, err := tx.DeleteChunksByFile(ctx, fileID); err != nil {
//	    return err
//	}
//	for _, chunk := range chunks {
//	    if err := tx.InsertChunk(ctx, chunk); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Vector Search
//
// Vector search uses cosine similarity via the sqlite-vec extension
// (CGO build) or a pure Go implementation (purego build). Passing a
// principal ID restricts results through the access table:
//
//	results, err := db.SearchVector(ctx, queryVector, 10, "user-123")
//
// # Build Tags
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Includes sqlite-vec extension for fast vector operations
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - Pure Go vector operations (slower)
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage
