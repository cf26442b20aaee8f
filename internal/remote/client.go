package remote

import (
	"context"
	"errors"

	"driveindex/pkg/types"
)

// Common errors
var (
	ErrItemNotFound = errors.New("remote item not found")
	ErrNoDeltaToken = errors.New("no delta token in response")
)

// RootFolderID addresses the root of a drive in item-scoped calls
const RootFolderID = "root"

// Client is the remote store boundary used by the sync engine.
// Implementations talk to a concrete drive API; the engine only sees
// typed items and opaque delta tokens.
type Client interface {
	// ListChildren returns the direct children of a folder.
	ListChildren(ctx context.Context, storeID, folderID string) ([]types.RemoteItem, error)

	// GetChanges returns items changed since the given delta token and
	// the token for the next call. An empty deltaToken asks for the full
	// change history.
	GetChanges(ctx context.Context, storeID, deltaToken string) ([]types.RemoteItem, string, error)

	// LatestCursor returns a delta token representing the current state
	// of the drive without enumerating its contents.
	LatestCursor(ctx context.Context, storeID string) (string, error)

	// GetItem fetches a single item's metadata.
	GetItem(ctx context.Context, storeID, itemID string) (*types.RemoteItem, error)

	// GetPermissions lists the sharing grants on an item.
	GetPermissions(ctx context.Context, storeID, itemID string) ([]types.PermissionRecord, error)

	// Download fetches an item's content.
	Download(ctx context.Context, storeID, itemID string) ([]byte, error)
}

// TokenSource supplies bearer tokens for API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a TokenSource that always yields tok.
func StaticTokenSource(tok string) TokenSource {
	return staticToken(tok)
}

type staticToken string

func (s staticToken) Token(_ context.Context) (string, error) {
	return string(s), nil
}
