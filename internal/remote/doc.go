// Package remote adapts the Microsoft Graph drive API to the typed
// Client interface the sync engine consumes.
//
// The engine never sees Graph wire shapes. Items arrive as
// types.RemoteItem and sharing grants as types.PermissionRecord; delta
// state is carried as opaque tokens extracted from @odata.deltaLink.
package remote
