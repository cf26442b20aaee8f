package syncer

import (
	"context"
	"fmt"

	"driveindex/internal/extractor"
	"driveindex/internal/retry"
	"driveindex/pkg/types"
)

// VerifyIntegrity compares the remote store's eligible files against the
// distinct files present in the index and scores their agreement as a
// percentage. Files missing from the index and index entries with no remote
// counterpart are both listed in the report.
func (e *Engine) VerifyIntegrity(ctx context.Context, storeID string) (*types.IntegrityReport, error) {
	items, err := e.CollectAll(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate store: %w", err)
	}

	remoteFiles := make(map[string]types.RemoteItem)
	for _, it := range items {
		if it.IsFolder || it.Deleted || !extractor.IsSupported(it.Name) {
			continue
		}
		remoteFiles[it.ID] = it
	}

	indexed, err := e.storage.ListIndexedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed files: %w", err)
	}

	report := &types.IntegrityReport{
		StoreID:      storeID,
		RemoteFiles:  len(remoteFiles),
		IndexedFiles: len(indexed),
	}

	indexedIDs := make(map[string]struct{}, len(indexed))
	for _, f := range indexed {
		indexedIDs[f.FileID] = struct{}{}
		if _, ok := remoteFiles[f.FileID]; !ok {
			report.OrphanedInDB = append(report.OrphanedInDB, types.IntegrityItem{
				FileID:     f.FileID,
				Filename:   f.Filename,
				Path:       f.FilePath,
				ChunkCount: f.ChunkCount,
			})
		}
	}
	for id, it := range remoteFiles {
		if _, ok := indexedIDs[id]; !ok {
			report.MissingInIndex = append(report.MissingInIndex, types.IntegrityItem{
				FileID:   id,
				Filename: it.Name,
				Path:     it.Path(),
			})
		}
	}

	total := report.RemoteFiles
	if report.IndexedFiles > total {
		total = report.IndexedFiles
	}
	if total == 0 {
		report.Score = 100.0
	} else {
		score := float64(total-len(report.MissingInIndex)-len(report.OrphanedInDB)) / float64(total) * 100.0
		if score < 0 {
			score = 0
		}
		report.Score = score
	}

	e.logger.Info("integrity verified",
		"store_id", storeID,
		"remote_files", report.RemoteFiles,
		"indexed_files", report.IndexedFiles,
		"missing", len(report.MissingInIndex),
		"orphaned", len(report.OrphanedInDB),
		"score", report.Score)

	return report, nil
}

// RepairReport fixes the discrepancies in an integrity report: missing files
// are resubmitted to the processor, orphaned entries have their records
// removed. Each item is handled independently; one failure does not stop the
// rest. Returns the number of items repaired.
func (e *Engine) RepairReport(ctx context.Context, report *types.IntegrityReport) (int, error) {
	if report == nil {
		return 0, fmt.Errorf("nil integrity report")
	}

	repaired := 0

	for _, missing := range report.MissingInIndex {
		item, err := retry.Do(ctx, e.retryCfg, func() (*types.RemoteItem, error) {
			return e.client.GetItem(ctx, report.StoreID, missing.FileID)
		})
		if err != nil {
			e.logger.Warn("repair: failed to fetch missing file",
				"store_id", report.StoreID, "file_id", missing.FileID, "error", err)
			continue
		}

		if _, err := e.processItem(ctx, report.StoreID, *item); err != nil {
			e.logger.Warn("repair: failed to reindex missing file",
				"store_id", report.StoreID, "file_id", missing.FileID, "error", err)
			continue
		}
		repaired++
	}

	for _, orphan := range report.OrphanedInDB {
		if err := e.cascadeDelete(ctx, report.StoreID, orphan.FileID); err != nil {
			e.logger.Warn("repair: failed to remove orphan records",
				"store_id", report.StoreID, "file_id", orphan.FileID, "error", err)
			continue
		}
		repaired++
	}

	return repaired, nil
}
