package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting and querying the document index
type Storage interface {
	// Chunk operations
	InsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByFile(ctx context.Context, fileID string) ([]*Chunk, error)
	DeleteChunksByFile(ctx context.Context, fileID string) (deletedCount int, err error)
	CountChunks(ctx context.Context) (int, error)
	CountChunksByFile(ctx context.Context, fileID string) (int, error)
	ListIndexedFiles(ctx context.Context) ([]IndexedFile, error)

	// Permission operations
	ReplacePermissions(ctx context.Context, fileID string, perms []*Permission) error
	ListPermissionsByFile(ctx context.Context, fileID string) ([]*Permission, error)
	DeletePermissionsByFile(ctx context.Context, fileID string) error
	RefreshAccess(ctx context.Context) error

	// Cursor operations
	UpsertCursor(ctx context.Context, cursor *SyncCursor) error
	GetCursor(ctx context.Context, storeID string) (*SyncCursor, error)

	// Progress operations
	UpsertProgress(ctx context.Context, progress *SyncProgress) error
	GetProgress(ctx context.Context, storeID, syncKind string) (*SyncProgress, error)
	ClearProgress(ctx context.Context, storeID, syncKind string) error

	// Search operations
	SearchVector(ctx context.Context, vector []float32, limit int, principalID string) ([]VectorResult, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Cursor status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Sync kinds recorded in progress rows
const (
	SyncKindFull        = "full"
	SyncKindIncremental = "incremental"
)

// MaxErrorMessageLen caps persisted cursor error messages
const MaxErrorMessageLen = 500

// Chunk is one embedded slice of a remote document
type Chunk struct {
	ID          int64
	FileID      string
	ChunkIndex  int
	Content     string
	Embedding   []byte // Serialized float32 array
	WordCount   int
	Filename    string
	FilePath    string
	CitationURL string
	Metadata    string // JSON blob, optional
	CreatedAt   time.Time
}

// Permission is one sharing grant on a remote file
type Permission struct {
	ID           int64
	FileID       string
	PermissionID string
	StoreID      string
	Filename     string
	Type         string // user, group, link
	Role         string
	UserID       string
	UserEmail    string
	GroupID      string
	GroupName    string
	LinkType     string
	LinkScope    string
	ExpiresAt    *time.Time
	IsActive     bool
	CreatedAt    time.Time
}

// SyncCursor is the single durable checkpoint per store
type SyncCursor struct {
	StoreID        string
	DeltaToken     string
	LastSyncAt     time.Time
	FilesProcessed int
	ChunksCreated  int
	Status         string
	ErrorMessage   string
	UpdatedAt      time.Time
}

// SyncProgress tracks a sync run, one row per (store, kind)
type SyncProgress struct {
	ID             int64
	StoreID        string
	SyncKind       string
	RunID          string
	TotalFiles     int
	ProcessedFiles int
	FailedFiles    int
	CurrentPath    string
	StartedAt      time.Time
	UpdatedAt      time.Time
}

// IndexedFile summarizes one file's presence in the chunk table
type IndexedFile struct {
	FileID     string
	Filename   string
	FilePath   string
	ChunkCount int
}

// VectorResult is one vector-search candidate with enough chunk
// material for downstream rescoring
type VectorResult struct {
	ChunkID         int64
	FileID          string
	Filename        string
	Content         string
	CitationURL     string
	SimilarityScore float64
}
