package syncer

import (
	"context"
	"fmt"
	"sync"

	"driveindex/internal/remote"
	"driveindex/pkg/types"
)

// mockClient is an in-memory remote.Client for engine tests. Folders map
// folder IDs to their children; file contents are served by item ID.
type mockClient struct {
	mu sync.Mutex

	folders  map[string][]types.RemoteItem
	contents map[string][]byte
	perms    map[string][]types.PermissionRecord

	changes     []types.RemoteItem
	changeToken string
	changesErr  error

	latestToken string
	latestErr   error

	listErrs     map[string]error
	downloadErrs map[string]error

	listCalls     map[string]int
	downloadCalls map[string]int
	receivedToken string
}

func newMockClient() *mockClient {
	return &mockClient{
		folders:       make(map[string][]types.RemoteItem),
		contents:      make(map[string][]byte),
		perms:         make(map[string][]types.PermissionRecord),
		listErrs:      make(map[string]error),
		downloadErrs:  make(map[string]error),
		listCalls:     make(map[string]int),
		downloadCalls: make(map[string]int),
		latestToken:   "delta-latest",
	}
}

// addFile registers a file under a folder and serves its content.
func (m *mockClient) addFile(folderID, id, name, content string) types.RemoteItem {
	item := types.RemoteItem{
		ID:         id,
		Name:       name,
		ParentPath: "/Documents",
		Size:       int64(len(content)),
		WebURL:     "https://example.com/" + id,
	}
	m.folders[folderID] = append(m.folders[folderID], item)
	m.contents[id] = []byte(content)
	return item
}

// addFolder registers a subfolder under a parent.
func (m *mockClient) addFolder(parentID, id, name string) {
	m.folders[parentID] = append(m.folders[parentID], types.RemoteItem{
		ID:       id,
		Name:     name,
		IsFolder: true,
	})
}

func (m *mockClient) ListChildren(_ context.Context, _, folderID string) ([]types.RemoteItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls[folderID]++
	if err := m.listErrs[folderID]; err != nil {
		return nil, err
	}
	return m.folders[folderID], nil
}

func (m *mockClient) GetChanges(_ context.Context, _, deltaToken string) ([]types.RemoteItem, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receivedToken = deltaToken
	if m.changesErr != nil {
		return nil, "", m.changesErr
	}
	return m.changes, m.changeToken, nil
}

func (m *mockClient) LatestCursor(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return "", m.latestErr
	}
	return m.latestToken, nil
}

func (m *mockClient) GetItem(_ context.Context, _, itemID string) (*types.RemoteItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, children := range m.folders {
		for _, it := range children {
			if it.ID == itemID {
				return &it, nil
			}
		}
	}
	return nil, fmt.Errorf("graph api error 404: %w", remote.ErrItemNotFound)
}

func (m *mockClient) GetPermissions(_ context.Context, _, itemID string) ([]types.PermissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perms[itemID], nil
}

func (m *mockClient) Download(_ context.Context, _, itemID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadCalls[itemID]++
	if err := m.downloadErrs[itemID]; err != nil {
		return nil, err
	}
	content, ok := m.contents[itemID]
	if !ok {
		return nil, fmt.Errorf("graph api error 404: no content for %s", itemID)
	}
	return content, nil
}

var _ remote.Client = (*mockClient)(nil)
