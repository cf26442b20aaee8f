package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Chunk operations

// insertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	query := `
		INSERT INTO chunks (
			file_id, chunk_index, content, embedding, word_count,
			filename, file_path, citation_url, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		chunk.FileID, chunk.ChunkIndex, chunk.Content, chunk.Embedding,
		chunk.WordCount, chunk.Filename, chunk.FilePath, chunk.CitationURL,
		nullString(chunk.Metadata), now)
	if err != nil {
		return fmt.Errorf("failed to insert chunk %s[%d]: %w", chunk.FileID, chunk.ChunkIndex, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	chunk.ID = id
	chunk.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.insertChunkWithQuerier(ctx, s.querier(), chunk)
}

const chunkColumns = `id, file_id, chunk_index, content, embedding, word_count,
       filename, file_path, citation_url, metadata, created_at`

func scanChunk(row interface{ Scan(...interface{}) error }) (*Chunk, error) {
	var chunk Chunk
	var filePath, citationURL, metadata sql.NullString
	err := row.Scan(
		&chunk.ID, &chunk.FileID, &chunk.ChunkIndex, &chunk.Content,
		&chunk.Embedding, &chunk.WordCount, &chunk.Filename,
		&filePath, &citationURL, &metadata, &chunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	chunk.FilePath = filePath.String
	chunk.CitationURL = citationURL.String
	chunk.Metadata = metadata.String
	return &chunk, nil
}

// getChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE id = ?`
	chunk, err := scanChunk(q.QueryRowContext(ctx, query, chunkID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

// listChunksByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listChunksByFileWithQuerier(ctx context.Context, q querier, fileID string) ([]*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE file_id = ? ORDER BY chunk_index`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByFile(ctx context.Context, fileID string) ([]*Chunk, error) {
	return s.listChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

// deleteChunksByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteChunksByFileWithQuerier(ctx context.Context, q querier, fileID string) (int, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, fileID)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func (s *SQLiteStorage) DeleteChunksByFile(ctx context.Context, fileID string) (int, error) {
	return s.deleteChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

// countChunksWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) countChunksWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) CountChunks(ctx context.Context) (int, error) {
	return s.countChunksWithQuerier(ctx, s.querier())
}

// countChunksByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) countChunksByFileWithQuerier(ctx context.Context, q querier, fileID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE file_id = ?`, fileID).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) CountChunksByFile(ctx context.Context, fileID string) (int, error) {
	return s.countChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

// listIndexedFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listIndexedFilesWithQuerier(ctx context.Context, q querier) ([]IndexedFile, error) {
	query := `
		SELECT file_id, MIN(filename), MIN(COALESCE(file_path, '')), COUNT(*)
		FROM chunks
		GROUP BY file_id
		ORDER BY file_id
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]IndexedFile, 0)
	for rows.Next() {
		var f IndexedFile
		if err := rows.Scan(&f.FileID, &f.Filename, &f.FilePath, &f.ChunkCount); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListIndexedFiles(ctx context.Context) ([]IndexedFile, error) {
	return s.listIndexedFilesWithQuerier(ctx, s.querier())
}

// Permission operations

// replacePermissionsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) replacePermissionsWithQuerier(ctx context.Context, q querier, fileID string, perms []*Permission) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM permissions WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to clear permissions for %s: %w", fileID, err)
	}

	query := `
		INSERT INTO permissions (
			file_id, permission_id, store_id, filename, permission_type, role_name,
			user_id, user_email, group_id, group_name, link_type, link_scope,
			expires_at, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, permission_id) DO UPDATE SET
			store_id = excluded.store_id,
			filename = excluded.filename,
			permission_type = excluded.permission_type,
			role_name = excluded.role_name,
			user_id = excluded.user_id,
			user_email = excluded.user_email,
			group_id = excluded.group_id,
			group_name = excluded.group_name,
			link_type = excluded.link_type,
			link_scope = excluded.link_scope,
			expires_at = excluded.expires_at,
			is_active = excluded.is_active
	`
	now := time.Now()
	for _, p := range perms {
		var expiresAt interface{}
		if p.ExpiresAt != nil {
			expiresAt = *p.ExpiresAt
		}
		result, err := q.ExecContext(ctx, query,
			fileID, p.PermissionID, p.StoreID, p.Filename, p.Type, p.Role,
			p.UserID, p.UserEmail, p.GroupID, p.GroupName, p.LinkType, p.LinkScope,
			expiresAt, p.IsActive, now)
		if err != nil {
			return fmt.Errorf("failed to insert permission %s on %s: %w", p.PermissionID, fileID, err)
		}
		if p.ID == 0 {
			if id, err := result.LastInsertId(); err == nil {
				p.ID = id
			}
		}
		p.FileID = fileID
		p.CreatedAt = now
	}
	return nil
}

func (s *SQLiteStorage) ReplacePermissions(ctx context.Context, fileID string, perms []*Permission) error {
	return s.replacePermissionsWithQuerier(ctx, s.querier(), fileID, perms)
}

// listPermissionsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listPermissionsByFileWithQuerier(ctx context.Context, q querier, fileID string) ([]*Permission, error) {
	query := `
		SELECT id, file_id, permission_id, store_id, filename, permission_type, role_name,
		       user_id, user_email, group_id, group_name, link_type, link_scope,
		       expires_at, is_active, created_at
		FROM permissions
		WHERE file_id = ?
		ORDER BY permission_id
	`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	perms := make([]*Permission, 0)
	for rows.Next() {
		var p Permission
		var storeID, filename, role, userID, userEmail sql.NullString
		var groupID, groupName, linkType, linkScope sql.NullString
		var expiresAt sql.NullTime

		err := rows.Scan(
			&p.ID, &p.FileID, &p.PermissionID, &storeID, &filename, &p.Type, &role,
			&userID, &userEmail, &groupID, &groupName, &linkType, &linkScope,
			&expiresAt, &p.IsActive, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		p.StoreID = storeID.String
		p.Filename = filename.String
		p.Role = role.String
		p.UserID = userID.String
		p.UserEmail = userEmail.String
		p.GroupID = groupID.String
		p.GroupName = groupName.String
		p.LinkType = linkType.String
		p.LinkScope = linkScope.String
		if expiresAt.Valid {
			t := expiresAt.Time
			p.ExpiresAt = &t
		}

		perms = append(perms, &p)
	}
	return perms, rows.Err()
}

func (s *SQLiteStorage) ListPermissionsByFile(ctx context.Context, fileID string) ([]*Permission, error) {
	return s.listPermissionsByFileWithQuerier(ctx, s.querier(), fileID)
}

// deletePermissionsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deletePermissionsByFileWithQuerier(ctx context.Context, q querier, fileID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM permissions WHERE file_id = ?`, fileID)
	return err
}

func (s *SQLiteStorage) DeletePermissionsByFile(ctx context.Context, fileID string) error {
	return s.deletePermissionsByFileWithQuerier(ctx, s.querier(), fileID)
}

// refreshAccessWithQuerier rebuilds the access table from active permissions.
// Users and groups map to their own principal IDs; organization-wide and
// anonymous links map to the wildcard principal.
func (s *SQLiteStorage) refreshAccessWithQuerier(ctx context.Context, q querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM access`); err != nil {
		return fmt.Errorf("failed to clear access table: %w", err)
	}

	statements := []string{
		`INSERT OR IGNORE INTO access (file_id, principal_id)
		 SELECT file_id, user_id FROM permissions
		 WHERE is_active = 1 AND user_id IS NOT NULL AND user_id != ''`,
		`INSERT OR IGNORE INTO access (file_id, principal_id)
		 SELECT file_id, group_id FROM permissions
		 WHERE is_active = 1 AND group_id IS NOT NULL AND group_id != ''`,
		`INSERT OR IGNORE INTO access (file_id, principal_id)
		 SELECT file_id, '*' FROM permissions
		 WHERE is_active = 1 AND link_scope IN ('organization', 'anonymous')`,
	}
	for _, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to rebuild access table: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) RefreshAccess(ctx context.Context) error {
	return s.refreshAccessWithQuerier(ctx, s.querier())
}

// Cursor operations

// upsertCursorWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertCursorWithQuerier(ctx context.Context, q querier, cursor *SyncCursor) error {
	msg := cursor.ErrorMessage
	if len(msg) > MaxErrorMessageLen {
		// Back off to a rune boundary so the truncated message stays
		// valid UTF-8.
		cut := MaxErrorMessageLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
		cursor.ErrorMessage = msg
	}

	query := `
		INSERT INTO cursors (
			store_id, delta_token, last_sync_at, files_processed, chunks_created,
			status, error_message, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(store_id) DO UPDATE SET
			delta_token = excluded.delta_token,
			last_sync_at = excluded.last_sync_at,
			files_processed = excluded.files_processed,
			chunks_created = excluded.chunks_created,
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		cursor.StoreID, cursor.DeltaToken, cursor.LastSyncAt,
		cursor.FilesProcessed, cursor.ChunksCreated,
		cursor.Status, nullString(msg), now)
	if err != nil {
		return fmt.Errorf("failed to upsert cursor for %s: %w", cursor.StoreID, err)
	}
	cursor.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertCursor(ctx context.Context, cursor *SyncCursor) error {
	return s.upsertCursorWithQuerier(ctx, s.querier(), cursor)
}

// getCursorWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getCursorWithQuerier(ctx context.Context, q querier, storeID string) (*SyncCursor, error) {
	query := `
		SELECT store_id, delta_token, last_sync_at, files_processed, chunks_created,
		       status, error_message, updated_at
		FROM cursors
		WHERE store_id = ?
	`
	var cursor SyncCursor
	var deltaToken, errorMessage sql.NullString
	var lastSyncAt sql.NullTime
	err := q.QueryRowContext(ctx, query, storeID).Scan(
		&cursor.StoreID, &deltaToken, &lastSyncAt,
		&cursor.FilesProcessed, &cursor.ChunksCreated,
		&cursor.Status, &errorMessage, &cursor.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cursor.DeltaToken = deltaToken.String
	cursor.ErrorMessage = errorMessage.String
	if lastSyncAt.Valid {
		cursor.LastSyncAt = lastSyncAt.Time
	}
	return &cursor, nil
}

func (s *SQLiteStorage) GetCursor(ctx context.Context, storeID string) (*SyncCursor, error) {
	return s.getCursorWithQuerier(ctx, s.querier(), storeID)
}

// Progress operations

// upsertProgressWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertProgressWithQuerier(ctx context.Context, q querier, progress *SyncProgress) error {
	query := `
		INSERT INTO progress (
			store_id, sync_kind, run_id, total_files, processed_files, failed_files,
			current_path, started_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(store_id, sync_kind) DO UPDATE SET
			run_id = excluded.run_id,
			total_files = excluded.total_files,
			processed_files = excluded.processed_files,
			failed_files = excluded.failed_files,
			current_path = excluded.current_path,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	if progress.StartedAt.IsZero() {
		progress.StartedAt = now
	}
	result, err := q.ExecContext(ctx, query,
		progress.StoreID, progress.SyncKind, progress.RunID,
		progress.TotalFiles, progress.ProcessedFiles, progress.FailedFiles,
		progress.CurrentPath, progress.StartedAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert progress for %s/%s: %w", progress.StoreID, progress.SyncKind, err)
	}
	if progress.ID == 0 {
		if id, err := result.LastInsertId(); err == nil {
			progress.ID = id
		}
	}
	progress.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertProgress(ctx context.Context, progress *SyncProgress) error {
	return s.upsertProgressWithQuerier(ctx, s.querier(), progress)
}

// getProgressWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getProgressWithQuerier(ctx context.Context, q querier, storeID, syncKind string) (*SyncProgress, error) {
	query := `
		SELECT id, store_id, sync_kind, run_id, total_files, processed_files,
		       failed_files, current_path, started_at, updated_at
		FROM progress
		WHERE store_id = ? AND sync_kind = ?
	`
	var progress SyncProgress
	var runID, currentPath sql.NullString
	err := q.QueryRowContext(ctx, query, storeID, syncKind).Scan(
		&progress.ID, &progress.StoreID, &progress.SyncKind, &runID,
		&progress.TotalFiles, &progress.ProcessedFiles, &progress.FailedFiles,
		&currentPath, &progress.StartedAt, &progress.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	progress.RunID = runID.String
	progress.CurrentPath = currentPath.String
	return &progress, nil
}

func (s *SQLiteStorage) GetProgress(ctx context.Context, storeID, syncKind string) (*SyncProgress, error) {
	return s.getProgressWithQuerier(ctx, s.querier(), storeID, syncKind)
}

// clearProgressWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) clearProgressWithQuerier(ctx context.Context, q querier, storeID, syncKind string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM progress WHERE store_id = ? AND sync_kind = ?`, storeID, syncKind)
	return err
}

func (s *SQLiteStorage) ClearProgress(ctx context.Context, storeID, syncKind string) error {
	return s.clearProgressWithQuerier(ctx, s.querier(), storeID, syncKind)
}

// Search operations

func (s *SQLiteStorage) SearchVector(ctx context.Context, vector []float32, limit int, principalID string) ([]VectorResult, error) {
	return searchVector(ctx, s.querier(), vector, limit, principalID)
}

// nullString maps empty strings to NULL
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Transaction implementations

func (t *sqliteTx) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.insertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListChunksByFile(ctx context.Context, fileID string) ([]*Chunk, error) {
	return t.storage.listChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteChunksByFile(ctx context.Context, fileID string) (int, error) {
	return t.storage.deleteChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) CountChunks(ctx context.Context) (int, error) {
	return t.storage.countChunksWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) CountChunksByFile(ctx context.Context, fileID string) (int, error) {
	return t.storage.countChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListIndexedFiles(ctx context.Context) ([]IndexedFile, error) {
	return t.storage.listIndexedFilesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) ReplacePermissions(ctx context.Context, fileID string, perms []*Permission) error {
	return t.storage.replacePermissionsWithQuerier(ctx, t.querier(), fileID, perms)
}

func (t *sqliteTx) ListPermissionsByFile(ctx context.Context, fileID string) ([]*Permission, error) {
	return t.storage.listPermissionsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeletePermissionsByFile(ctx context.Context, fileID string) error {
	return t.storage.deletePermissionsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) RefreshAccess(ctx context.Context) error {
	return t.storage.refreshAccessWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertCursor(ctx context.Context, cursor *SyncCursor) error {
	return t.storage.upsertCursorWithQuerier(ctx, t.querier(), cursor)
}

func (t *sqliteTx) GetCursor(ctx context.Context, storeID string) (*SyncCursor, error) {
	return t.storage.getCursorWithQuerier(ctx, t.querier(), storeID)
}

func (t *sqliteTx) UpsertProgress(ctx context.Context, progress *SyncProgress) error {
	return t.storage.upsertProgressWithQuerier(ctx, t.querier(), progress)
}

func (t *sqliteTx) GetProgress(ctx context.Context, storeID, syncKind string) (*SyncProgress, error) {
	return t.storage.getProgressWithQuerier(ctx, t.querier(), storeID, syncKind)
}

func (t *sqliteTx) ClearProgress(ctx context.Context, storeID, syncKind string) error {
	return t.storage.clearProgressWithQuerier(ctx, t.querier(), storeID, syncKind)
}

func (t *sqliteTx) SearchVector(ctx context.Context, vector []float32, limit int, principalID string) ([]VectorResult, error) {
	return searchVector(ctx, t.querier(), vector, limit, principalID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
