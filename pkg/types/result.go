package types

// RankedChunk is a single retrieval result with its combined relevance score.
type RankedChunk struct {
	ChunkID     int64
	FileID      string
	Filename    string
	Content     string
	CitationURL string
	Score       float64
}

// Validate checks if the ranked chunk is well formed.
func (rc *RankedChunk) Validate() error {
	if rc.ChunkID == 0 {
		return ErrInvalidChunkID
	}
	if rc.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// IntegrityReport summarizes the agreement between the remote store and the
// index for one drive.
type IntegrityReport struct {
	StoreID        string
	RemoteFiles    int
	IndexedFiles   int
	MissingInIndex []IntegrityItem
	OrphanedInDB   []IntegrityItem
	Score          float64 // percentage, clamped to >= 0
}

// IntegrityItem identifies one file on the missing or orphaned side of the
// reconciliation diff.
type IntegrityItem struct {
	FileID     string
	Filename   string
	Path       string
	ChunkCount int
}
