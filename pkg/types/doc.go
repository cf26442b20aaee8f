// Package types provides shared type definitions for driveindex.
//
// RemoteItem and PermissionRecord are typed snapshots of drive API objects,
// populated by the remote adapter at the collaborator boundary. RankedChunk is
// the unit of retrieval returned by search, and IntegrityReport is the output
// of the reconciliation pass between the remote store and the index.
package types
