package types

import "time"

// RemoteItem is an immutable snapshot of a drive item at observation time.
// It is populated by the remote adapter; the core never probes ad hoc API
// response fields.
type RemoteItem struct {
	ID         string
	Name       string
	ParentPath string
	ParentID   string
	Size       int64
	WebURL     string
	Modified   time.Time
	Deleted    bool
	IsFolder   bool
}

// Path returns the full display path of the item within its drive.
func (it *RemoteItem) Path() string {
	if it.ParentPath == "" {
		return "/" + it.Name
	}
	return it.ParentPath + "/" + it.Name
}

// PermissionRecord describes one grant on a remote file. A file's records are
// fully replaced on each permission refresh.
type PermissionRecord struct {
	FileID       string
	PermissionID string
	Type         string // "user", "group", "link" or "unknown"
	Role         string
	UserID       string
	UserEmail    string
	GroupID      string
	GroupName    string
	LinkType     string
	LinkScope    string
	ExpiresAt    *time.Time
	IsActive     bool
}
