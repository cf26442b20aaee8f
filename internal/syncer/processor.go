package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"driveindex/internal/chunker"
	"driveindex/internal/extractor"
	"driveindex/internal/retry"
	"driveindex/internal/storage"
	"driveindex/pkg/types"
)

// chunkMetadata is the free-form payload stored alongside every chunk of a
// file version.
type chunkMetadata struct {
	TotalChunks int       `json:"total_chunks"`
	SizeBytes   int64     `json:"size_bytes"`
	Modified    time.Time `json:"modified"`
	ParentID    string    `json:"parent_id,omitempty"`
}

// processItem handles one remote item end to end and returns the number of
// chunks it created. Skipped items (folders, unsupported extensions, empty
// documents) and deletions return 0 with no error. A processing failure
// returns 0 with the error; the file's previous records are untouched and it
// stays eligible for the next run.
func (e *Engine) processItem(ctx context.Context, storeID string, item types.RemoteItem) (int, error) {
	if item.IsFolder {
		return 0, nil
	}
	if !extractor.IsSupported(item.Name) {
		return 0, nil
	}

	if item.Deleted {
		// Best-effort: the change feed reports the item again next run
		// if the cascade did not go through.
		if err := e.cascadeDelete(ctx, storeID, item.ID); err != nil {
			e.logger.Warn("deletion cascade failed",
				"store_id", storeID, "file_id", item.ID, "error", err)
		}
		return 0, nil
	}

	content, err := retry.Do(ctx, e.retryCfg, func() ([]byte, error) {
		return e.client.Download(ctx, storeID, item.ID)
	})
	if err != nil {
		return 0, err
	}

	text, err := e.extractor.Extract(ctx, item.Name, content)
	if err != nil {
		if errors.Is(err, extractor.ErrEmptyDocument) {
			e.logger.Info("document produced no text, skipping",
				"store_id", storeID, "file_id", item.ID, "path", item.Path())
			return 0, nil
		}
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	pieces := e.chunker.Split(text)
	if len(pieces) == 0 {
		return 0, nil
	}

	metadata, err := json.Marshal(chunkMetadata{
		TotalChunks: len(pieces),
		SizeBytes:   item.Size,
		Modified:    item.Modified,
		ParentID:    item.ParentID,
	})
	if err != nil {
		return 0, err
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	// Full replace: the chunk set always matches the current text version.
	if _, err := tx.DeleteChunksByFile(ctx, item.ID); err != nil {
		return 0, err
	}

	inserted := 0
	for i, piece := range pieces {
		emb, err := e.embedder.Embed(ctx, piece)
		if err != nil {
			e.logger.Warn("embedding failed, skipping chunk",
				"store_id", storeID, "file_id", item.ID, "chunk_index", i, "error", err)
			continue
		}

		chunk := &storage.Chunk{
			FileID:      item.ID,
			ChunkIndex:  i,
			Content:     piece,
			Embedding:   storage.SerializeVector(emb.Vector),
			WordCount:   chunker.WordCount(piece),
			Filename:    item.Name,
			FilePath:    item.Path(),
			CitationURL: item.WebURL,
			Metadata:    string(metadata),
		}
		if err := tx.InsertChunk(ctx, chunk); err != nil {
			return 0, err
		}
		inserted++
	}

	e.refreshPermissions(ctx, tx, storeID, item)

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	// The access view is derived state; rebuilding it must not undo the
	// chunk writes already committed.
	if err := e.storage.RefreshAccess(ctx); err != nil {
		e.logger.Warn("failed to refresh access view", "store_id", storeID, "error", err)
	}

	return inserted, nil
}

// cascadeDelete removes all records for a deleted file in one transaction.
// A failure rolls back and is returned; callers decide whether the cascade is
// best-effort.
func (e *Engine) cascadeDelete(ctx context.Context, storeID, fileID string) error {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := tx.DeleteChunksByFile(ctx, fileID)
	if err != nil {
		return err
	}
	if err := tx.DeletePermissionsByFile(ctx, fileID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	e.logger.Info("deleted file records", "store_id", storeID, "file_id", fileID, "chunks_removed", deleted)

	if err := e.storage.RefreshAccess(ctx); err != nil {
		e.logger.Warn("failed to refresh access view", "store_id", storeID, "error", err)
	}
	return nil
}

// refreshPermissions replaces the file's permission records inside the file's
// transaction. Best-effort: a permission fetch or write failure is logged and
// the file's chunk writes proceed.
func (e *Engine) refreshPermissions(ctx context.Context, tx storage.Tx, storeID string, item types.RemoteItem) {
	records, err := retry.Do(ctx, e.retryCfg, func() ([]types.PermissionRecord, error) {
		return e.client.GetPermissions(ctx, storeID, item.ID)
	})
	if err != nil {
		e.logger.Warn("failed to fetch permissions",
			"store_id", storeID, "file_id", item.ID, "error", err)
		return
	}

	perms := make([]*storage.Permission, 0, len(records))
	for _, rec := range records {
		perms = append(perms, &storage.Permission{
			FileID:       item.ID,
			PermissionID: rec.PermissionID,
			StoreID:      storeID,
			Filename:     item.Name,
			Type:         rec.Type,
			Role:         rec.Role,
			UserID:       rec.UserID,
			UserEmail:    rec.UserEmail,
			GroupID:      rec.GroupID,
			GroupName:    rec.GroupName,
			LinkType:     rec.LinkType,
			LinkScope:    rec.LinkScope,
			ExpiresAt:    rec.ExpiresAt,
			IsActive:     rec.IsActive,
		})
	}

	if err := tx.ReplacePermissions(ctx, item.ID, perms); err != nil {
		e.logger.Warn("failed to replace permissions",
			"store_id", storeID, "file_id", item.ID, "error", err)
	}
}
