package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*GraphClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewGraphClient(StaticTokenSource("test-token")).WithBaseURL(srv.URL)
	return client, srv
}

func TestListChildren_FollowsPagination(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/drives/drive-1/items/root/children", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprintf(w, `{
			"value": [
				{"id": "f1", "name": "report.docx", "size": 1024, "file": {},
				 "parentReference": {"id": "root", "path": "/drives/drive-1/root:/Documents"}},
				{"id": "d1", "name": "Archive", "folder": {}}
			],
			"@odata.nextLink": %q
		}`, srv.URL+"/page2")
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": [{"id": "f2", "name": "notes.txt", "file": {}}]}`)
	})

	client, server := newTestClient(mux)
	srv = server
	defer server.Close()

	items, err := client.ListChildren(context.Background(), "drive-1", "")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "f1", items[0].ID)
	assert.Equal(t, "/Documents", items[0].ParentPath)
	assert.False(t, items[0].IsFolder)
	assert.True(t, items[1].IsFolder)
	assert.Equal(t, "f2", items[2].ID)
}

func TestGetChanges_ExtractsDeltaToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drives/drive-1/root/delta", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "old-token", r.URL.Query().Get("token"))
		fmt.Fprint(w, `{
			"value": [
				{"id": "f1", "name": "changed.txt", "file": {}},
				{"id": "f2", "name": "gone.pdf", "file": {}, "deleted": {}}
			],
			"@odata.deltaLink": "https://graph.microsoft.com/v1.0/drives/drive-1/root/delta?token=new-token"
		}`)
	})

	client, server := newTestClient(mux)
	defer server.Close()

	items, newToken, err := client.GetChanges(context.Background(), "drive-1", "old-token")
	require.NoError(t, err)
	assert.Equal(t, "new-token", newToken)
	require.Len(t, items, 2)
	assert.False(t, items[0].Deleted)
	assert.True(t, items[1].Deleted)
}

func TestGetChanges_MissingDeltaLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drives/drive-1/root/delta", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": []}`)
	})

	client, server := newTestClient(mux)
	defer server.Close()

	_, _, err := client.GetChanges(context.Background(), "drive-1", "tok")
	assert.ErrorIs(t, err, ErrNoDeltaToken)
}

func TestLatestCursor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drives/drive-1/root/delta", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "latest", r.URL.Query().Get("token"))
		fmt.Fprint(w, `{"value": [], "@odata.deltaLink": "https://example.com/delta?token=current-state"}`)
	})

	client, server := newTestClient(mux)
	defer server.Close()

	token, err := client.LatestCursor(context.Background(), "drive-1")
	require.NoError(t, err)
	assert.Equal(t, "current-state", token)
}

func TestGetPermissions_MapsGranteeKinds(t *testing.T) {
	expired := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	mux := http.NewServeMux()
	mux.HandleFunc("/drives/drive-1/items/f1/permissions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"value": [
				{"id": "p1", "roles": ["read"],
				 "grantedToV2": {"user": {"id": "u1", "email": "u1@example.com"}}},
				{"id": "p2", "roles": ["write"],
				 "grantedToV2": {"group": {"id": "g1", "displayName": "Finance"}}},
				{"id": "p3", "roles": ["read"],
				 "link": {"type": "view", "scope": "organization"}},
				{"id": "p4", "roles": ["read"], "expirationDateTime": %q,
				 "grantedToV2": {"user": {"id": "u2"}}}
			]
		}`, expired)
	})

	client, server := newTestClient(mux)
	defer server.Close()

	perms, err := client.GetPermissions(context.Background(), "drive-1", "f1")
	require.NoError(t, err)
	require.Len(t, perms, 4)

	assert.Equal(t, "user", perms[0].Type)
	assert.Equal(t, "u1", perms[0].UserID)
	assert.Equal(t, "u1@example.com", perms[0].UserEmail)
	assert.Equal(t, "read", perms[0].Role)
	assert.True(t, perms[0].IsActive)

	assert.Equal(t, "group", perms[1].Type)
	assert.Equal(t, "Finance", perms[1].GroupName)

	assert.Equal(t, "link", perms[2].Type)
	assert.Equal(t, "organization", perms[2].LinkScope)

	assert.False(t, perms[3].IsActive, "expired grant must be inactive")
	require.NotNil(t, perms[3].ExpiresAt)
}

func TestDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drives/drive-1/items/f1/content", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("file body"))
	})

	client, server := newTestClient(mux)
	defer server.Close()

	data, err := client.Download(context.Background(), "drive-1", "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("file body"), data)
}

func TestGet_ErrorIncludesStatusCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drives/drive-1/items/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "itemNotFound", http.StatusNotFound)
	})

	client, server := newTestClient(mux)
	defer server.Close()

	_, err := client.GetItem(context.Background(), "drive-1", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestExtractDeltaToken(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"normal link", "https://x/delta?token=abc123", "abc123"},
		{"empty link", "", ""},
		{"no token param", "https://x/delta", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDeltaToken(tt.link))
		})
	}
}
