package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testChunk(fileID string, index int, content string) *Chunk {
	return &Chunk{
		FileID:      fileID,
		ChunkIndex:  index,
		Content:     content,
		Embedding:   SerializeVector([]float32{1, 0, 0}),
		WordCount:   len(strings.Fields(content)),
		Filename:    "report.docx",
		FilePath:    "/Documents/report.docx",
		CitationURL: "https://example.com/report.docx",
	}
}

func TestInsertAndListChunks(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i, content := range []string{"first slice", "second slice", "third slice"} {
		require.NoError(t, s.InsertChunk(ctx, testChunk("file-1", i, content)))
	}

	chunks, err := s.ListChunksByFile(ctx, "file-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, "file-1", c.FileID)
		assert.NotZero(t, c.ID)
	}

	count, err := s.CountChunksByFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestInsertChunk_DuplicateIndexRejected(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.InsertChunk(ctx, testChunk("file-1", 0, "a")))
	err := s.InsertChunk(ctx, testChunk("file-1", 0, "b"))
	assert.Error(t, err)
}

func TestDeleteChunksByFile(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, s.InsertChunk(ctx, testChunk("file-1", i, "content")))
	}
	require.NoError(t, s.InsertChunk(ctx, testChunk("file-2", 0, "other")))

	deleted, err := s.DeleteChunksByFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, 4, deleted)

	count, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "other file's chunks must survive")
}

func TestChunkReplace_InTransaction(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertChunk(ctx, testChunk("file-1", i, "old")))
	}

	// Replace with two new chunks atomically.
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.DeleteChunksByFile(ctx, "file-1")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		require.NoError(t, tx.InsertChunk(ctx, testChunk("file-1", i, "new")))
	}
	require.NoError(t, tx.Commit())

	chunks, err := s.ListChunksByFile(ctx, "file-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, "new", c.Content)
	}
}

func TestChunkReplace_RollbackKeepsOldState(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertChunk(ctx, testChunk("file-1", i, "old")))
	}

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.DeleteChunksByFile(ctx, "file-1")
	require.NoError(t, err)
	require.NoError(t, tx.InsertChunk(ctx, testChunk("file-1", 0, "new")))
	require.NoError(t, tx.Rollback())

	chunks, err := s.ListChunksByFile(ctx, "file-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, "old", c.Content)
	}
}

func TestListIndexedFiles(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.InsertChunk(ctx, testChunk("file-a", i, "x")))
	}
	require.NoError(t, s.InsertChunk(ctx, testChunk("file-b", 0, "y")))

	files, err := s.ListIndexedFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "file-a", files[0].FileID)
	assert.Equal(t, 2, files[0].ChunkCount)
	assert.Equal(t, "file-b", files[1].FileID)
	assert.Equal(t, 1, files[1].ChunkCount)
}

func TestReplacePermissions(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := []*Permission{
		{PermissionID: "p1", Type: "user", Role: "read", UserID: "u1", UserEmail: "u1@example.com", IsActive: true},
		{PermissionID: "p2", Type: "group", Role: "write", GroupID: "g1", GroupName: "Finance", IsActive: true},
	}
	require.NoError(t, s.ReplacePermissions(ctx, "file-1", first))

	// Second replace drops p2 and adds p3.
	second := []*Permission{
		{PermissionID: "p1", Type: "user", Role: "read", UserID: "u1", IsActive: true},
		{PermissionID: "p3", Type: "link", Role: "read", LinkType: "view", LinkScope: "organization", IsActive: true},
	}
	require.NoError(t, s.ReplacePermissions(ctx, "file-1", second))

	perms, err := s.ListPermissionsByFile(ctx, "file-1")
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, "p1", perms[0].PermissionID)
	assert.Equal(t, "p3", perms[1].PermissionID)
	assert.Equal(t, "organization", perms[1].LinkScope)
}

func TestRefreshAccess(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.ReplacePermissions(ctx, "file-1", []*Permission{
		{PermissionID: "p1", Type: "user", UserID: "u1", IsActive: true},
		{PermissionID: "p2", Type: "group", GroupID: "g1", IsActive: true},
		{PermissionID: "p3", Type: "user", UserID: "u2", IsActive: false},
	}))
	require.NoError(t, s.ReplacePermissions(ctx, "file-2", []*Permission{
		{PermissionID: "p4", Type: "link", LinkScope: "organization", IsActive: true},
	}))
	require.NoError(t, s.RefreshAccess(ctx))

	require.NoError(t, s.InsertChunk(ctx, testChunk("file-1", 0, "private doc")))
	require.NoError(t, s.InsertChunk(ctx, testChunk("file-2", 0, "shared doc")))

	// u1 sees file-1 directly plus file-2 via the wildcard.
	results, err := s.SearchVector(ctx, []float32{1, 0, 0}, 10, "u1")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// u2's grant is inactive; only the wildcard row applies.
	results, err = s.SearchVector(ctx, []float32{1, 0, 0}, 10, "u2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "file-2", results[0].FileID)

	// g1 sees file-1 via group grant plus file-2 via wildcard.
	results, err = s.SearchVector(ctx, []float32{1, 0, 0}, 10, "g1")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCursor_UpsertAndTruncation(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	cursor := &SyncCursor{
		StoreID:        "drive-1",
		DeltaToken:     "token-abc",
		LastSyncAt:     time.Now(),
		FilesProcessed: 10,
		ChunksCreated:  42,
		Status:         StatusSuccess,
	}
	require.NoError(t, s.UpsertCursor(ctx, cursor))

	got, err := s.GetCursor(ctx, "drive-1")
	require.NoError(t, err)
	assert.Equal(t, "token-abc", got.DeltaToken)
	assert.Equal(t, 10, got.FilesProcessed)
	assert.Equal(t, StatusSuccess, got.Status)

	// Error upsert with an oversized message.
	cursor.Status = StatusError
	cursor.ErrorMessage = strings.Repeat("x", 800)
	require.NoError(t, s.UpsertCursor(ctx, cursor))

	got, err = s.GetCursor(ctx, "drive-1")
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Len(t, got.ErrorMessage, MaxErrorMessageLen)
	// Token from the prior successful run is preserved by the caller
	// writing it back; the row itself holds whatever was upserted.
	assert.Equal(t, "token-abc", got.DeltaToken)
}

func TestCursor_TruncationKeepsRuneBoundary(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// 200 three-byte runes put the byte cap mid-rune; the cut must back up
	// rather than split one.
	cursor := &SyncCursor{
		StoreID:      "drive-1",
		DeltaToken:   "token-abc",
		LastSyncAt:   time.Now(),
		Status:       StatusError,
		ErrorMessage: strings.Repeat("€", 200),
	}
	require.NoError(t, s.UpsertCursor(ctx, cursor))

	got, err := s.GetCursor(ctx, "drive-1")
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(got.ErrorMessage))
	assert.LessOrEqual(t, len(got.ErrorMessage), MaxErrorMessageLen)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestCursor_NotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetCursor(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgress_UpsertAndClear(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	p := &SyncProgress{
		StoreID:     "drive-1",
		SyncKind:    SyncKindFull,
		RunID:       "run-123",
		TotalFiles:  100,
		CurrentPath: "/Documents",
	}
	require.NoError(t, s.UpsertProgress(ctx, p))

	p.ProcessedFiles = 40
	p.FailedFiles = 2
	require.NoError(t, s.UpsertProgress(ctx, p))

	got, err := s.GetProgress(ctx, "drive-1", SyncKindFull)
	require.NoError(t, err)
	assert.Equal(t, "run-123", got.RunID)
	assert.Equal(t, 40, got.ProcessedFiles)
	assert.Equal(t, 2, got.FailedFiles)
	assert.Equal(t, 100, got.TotalFiles)

	// A different kind is an independent row.
	require.NoError(t, s.UpsertProgress(ctx, &SyncProgress{
		StoreID: "drive-1", SyncKind: SyncKindIncremental, RunID: "run-456",
	}))
	inc, err := s.GetProgress(ctx, "drive-1", SyncKindIncremental)
	require.NoError(t, err)
	assert.Equal(t, "run-456", inc.RunID)

	require.NoError(t, s.ClearProgress(ctx, "drive-1", SyncKindFull))
	_, err = s.GetProgress(ctx, "drive-1", SyncKindFull)
	assert.ErrorIs(t, err, ErrNotFound)

	// Incremental row untouched.
	_, err = s.GetProgress(ctx, "drive-1", SyncKindIncremental)
	assert.NoError(t, err)
}

func TestNestedTransactionRejected(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
}
