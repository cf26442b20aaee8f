package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"driveindex/pkg/types"
)

// DefaultGraphBaseURL is the production Microsoft Graph endpoint
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// GraphClient implements Client against the Microsoft Graph drive API
type GraphClient struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewGraphClient creates a Graph-backed remote client
func NewGraphClient(tokens TokenSource) *GraphClient {
	return &GraphClient{
		baseURL: DefaultGraphBaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithBaseURL overrides the API endpoint, used for tests
func (g *GraphClient) WithBaseURL(baseURL string) *GraphClient {
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

// driveItem is the wire shape of a Graph drive item
type driveItem struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Size                 int64            `json:"size"`
	WebURL               string           `json:"webUrl"`
	LastModifiedDateTime time.Time        `json:"lastModifiedDateTime"`
	ParentReference      *parentReference `json:"parentReference"`
	File                 *struct{}        `json:"file"`
	Folder               *struct{}        `json:"folder"`
	Deleted              *struct{}        `json:"deleted"`
}

type parentReference struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// itemPage is one page of an item listing or delta response
type itemPage struct {
	Value     []driveItem `json:"value"`
	NextLink  string      `json:"@odata.nextLink"`
	DeltaLink string      `json:"@odata.deltaLink"`
}

// graphPermission is the wire shape of a Graph permission
type graphPermission struct {
	ID                 string     `json:"id"`
	Roles              []string   `json:"roles"`
	ExpirationDateTime *time.Time `json:"expirationDateTime"`
	GrantedToV2        *struct {
		User *struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Group *struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"group"`
	} `json:"grantedToV2"`
	Link *struct {
		Type  string `json:"type"`
		Scope string `json:"scope"`
	} `json:"link"`
}

type permissionPage struct {
	Value    []graphPermission `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

func (g *GraphClient) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	token, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("graph api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

func (g *GraphClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	resp, err := g.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListChildren returns the direct children of a folder, following pagination
func (g *GraphClient) ListChildren(ctx context.Context, storeID, folderID string) ([]types.RemoteItem, error) {
	if folderID == "" {
		folderID = RootFolderID
	}
	next := fmt.Sprintf("%s/drives/%s/items/%s/children",
		g.baseURL, url.PathEscape(storeID), url.PathEscape(folderID))

	items := make([]types.RemoteItem, 0)
	for next != "" {
		var page itemPage
		if err := g.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("list children of %s: %w", folderID, err)
		}
		for _, it := range page.Value {
			items = append(items, toRemoteItem(it))
		}
		next = page.NextLink
	}
	return items, nil
}

// GetChanges walks the delta feed from the given token and returns the
// changed items plus the token for the next incremental call
func (g *GraphClient) GetChanges(ctx context.Context, storeID, deltaToken string) ([]types.RemoteItem, string, error) {
	next := fmt.Sprintf("%s/drives/%s/root/delta", g.baseURL, url.PathEscape(storeID))
	if deltaToken != "" {
		next += "?token=" + url.QueryEscape(deltaToken)
	}

	items := make([]types.RemoteItem, 0)
	deltaLink := ""
	for next != "" {
		var page itemPage
		if err := g.getJSON(ctx, next, &page); err != nil {
			return nil, "", fmt.Errorf("delta query: %w", err)
		}
		for _, it := range page.Value {
			items = append(items, toRemoteItem(it))
		}
		next = page.NextLink
		if page.DeltaLink != "" {
			deltaLink = page.DeltaLink
		}
	}

	newToken := extractDeltaToken(deltaLink)
	if newToken == "" {
		return items, "", ErrNoDeltaToken
	}
	return items, newToken, nil
}

// LatestCursor asks the delta feed for a token describing current state
// without enumerating the drive
func (g *GraphClient) LatestCursor(ctx context.Context, storeID string) (string, error) {
	rawURL := fmt.Sprintf("%s/drives/%s/root/delta?token=latest", g.baseURL, url.PathEscape(storeID))

	var page itemPage
	if err := g.getJSON(ctx, rawURL, &page); err != nil {
		return "", fmt.Errorf("latest delta query: %w", err)
	}

	token := extractDeltaToken(page.DeltaLink)
	if token == "" {
		return "", ErrNoDeltaToken
	}
	return token, nil
}

// GetItem fetches a single item's metadata
func (g *GraphClient) GetItem(ctx context.Context, storeID, itemID string) (*types.RemoteItem, error) {
	rawURL := fmt.Sprintf("%s/drives/%s/items/%s",
		g.baseURL, url.PathEscape(storeID), url.PathEscape(itemID))

	var it driveItem
	if err := g.getJSON(ctx, rawURL, &it); err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	item := toRemoteItem(it)
	return &item, nil
}

// GetPermissions lists the sharing grants on an item
func (g *GraphClient) GetPermissions(ctx context.Context, storeID, itemID string) ([]types.PermissionRecord, error) {
	next := fmt.Sprintf("%s/drives/%s/items/%s/permissions",
		g.baseURL, url.PathEscape(storeID), url.PathEscape(itemID))

	perms := make([]types.PermissionRecord, 0)
	for next != "" {
		var page permissionPage
		if err := g.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("list permissions of %s: %w", itemID, err)
		}
		for _, p := range page.Value {
			perms = append(perms, toPermissionRecord(itemID, p))
		}
		next = page.NextLink
	}
	return perms, nil
}

// Download fetches an item's raw content
func (g *GraphClient) Download(ctx context.Context, storeID, itemID string) ([]byte, error) {
	rawURL := fmt.Sprintf("%s/drives/%s/items/%s/content",
		g.baseURL, url.PathEscape(storeID), url.PathEscape(itemID))

	resp, err := g.get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", itemID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read content of %s: %w", itemID, err)
	}
	return data, nil
}

// toRemoteItem maps a wire item to the engine's typed item
func toRemoteItem(it driveItem) types.RemoteItem {
	item := types.RemoteItem{
		ID:       it.ID,
		Name:     it.Name,
		Size:     it.Size,
		WebURL:   it.WebURL,
		Modified: it.LastModifiedDateTime,
		Deleted:  it.Deleted != nil,
		IsFolder: it.Folder != nil,
	}
	if it.ParentReference != nil {
		item.ParentID = it.ParentReference.ID
		item.ParentPath = stripDrivePrefix(it.ParentReference.Path)
	}
	return item
}

// toPermissionRecord maps a wire permission to the engine's typed record
func toPermissionRecord(fileID string, p graphPermission) types.PermissionRecord {
	rec := types.PermissionRecord{
		FileID:       fileID,
		PermissionID: p.ID,
		Type:         "user",
		Role:         "unknown",
		ExpiresAt:    p.ExpirationDateTime,
		IsActive:     true,
	}
	if len(p.Roles) > 0 {
		rec.Role = p.Roles[0]
	}
	if p.GrantedToV2 != nil {
		if p.GrantedToV2.User != nil {
			rec.UserID = p.GrantedToV2.User.ID
			rec.UserEmail = p.GrantedToV2.User.Email
		} else if p.GrantedToV2.Group != nil {
			rec.Type = "group"
			rec.GroupID = p.GrantedToV2.Group.ID
			rec.GroupName = p.GrantedToV2.Group.DisplayName
		}
	}
	if p.Link != nil {
		rec.Type = "link"
		rec.LinkType = p.Link.Type
		rec.LinkScope = p.Link.Scope
	}
	if p.ExpirationDateTime != nil && p.ExpirationDateTime.Before(time.Now()) {
		rec.IsActive = false
	}
	return rec
}

// stripDrivePrefix trims the "/drive/root:" prefix Graph puts on paths
func stripDrivePrefix(path string) string {
	if idx := strings.Index(path, "root:"); idx >= 0 {
		return path[idx+len("root:"):]
	}
	return path
}

// extractDeltaToken pulls the token query parameter out of a delta link
func extractDeltaToken(deltaLink string) string {
	if deltaLink == "" {
		return ""
	}
	u, err := url.Parse(deltaLink)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}
