// Package mcp implements the Model Context Protocol (MCP) server for driveindex.
//
// The MCP server exposes five tools to AI assistants:
//   - sync_drive: synchronize a remote drive into the index (full or incremental)
//   - verify_integrity: diff the remote drive against the index
//   - repair_index: reindex missing files and remove orphaned entries
//   - search_documents: hybrid search over indexed chunks
//   - sync_status: inspect the sync cursor and in-flight progress
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	driveindex serve
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout.
//
// # Error Handling
//
// Tool failures are returned as MCP errors with structured data. A sync that
// fails partway still persists its progress and error status; the tool
// response carries the same diagnostic the cursor row records. An overlapping
// sync run is rejected with a dedicated error code rather than queued.
package mcp
