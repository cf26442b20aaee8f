package syncer

import (
	"context"
	"fmt"

	"driveindex/internal/remote"
	"driveindex/internal/retry"
	"driveindex/pkg/types"
)

// CollectAll recursively enumerates every item in the store, folder by
// folder. Each folder listing is retry-wrapped; a subfolder whose listing
// still fails is logged and skipped, so a single bad branch does not abort
// the crawl. A failure listing the root is fatal.
func (e *Engine) CollectAll(ctx context.Context, storeID string) ([]types.RemoteItem, error) {
	var collected []types.RemoteItem

	// Depth-first over an explicit stack of folder IDs.
	pending := []string{remote.RootFolderID}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		folderID := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		children, err := retry.Do(ctx, e.retryCfg, func() ([]types.RemoteItem, error) {
			return e.client.ListChildren(ctx, storeID, folderID)
		})
		if err != nil {
			if folderID == remote.RootFolderID {
				return nil, fmt.Errorf("failed to list root folder: %w", err)
			}
			e.logger.Warn("skipping unreadable folder",
				"store_id", storeID, "folder_id", folderID, "error", err)
			continue
		}

		for _, child := range children {
			collected = append(collected, child)
			if child.IsFolder {
				pending = append(pending, child.ID)
			}
		}
	}

	return collected, nil
}
