package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"driveindex/internal/storage"
	"driveindex/internal/syncer"
	"driveindex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeNoStore        = -32001 // No store identifier supplied or configured
	ErrorCodeSyncInProgress = -32002 // Another sync run is already active
	ErrorCodeEmptyQuery     = -32004 // Query parameter is empty
)

// handleSyncDrive handles the sync_drive tool invocation
func (s *Server) handleSyncDrive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	storeID, err := s.resolveStoreID(args)
	if err != nil {
		return nil, err
	}

	full := getBoolDefault(args, "full", false)
	syncKind := storage.SyncKindIncremental
	run := s.engine.RunIncrementalSync
	if full {
		syncKind = storage.SyncKindFull
		run = s.engine.RunFullSync
	}

	chunks, err := run(ctx, storeID)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		return nil, newMCPError(ErrorCodeSyncInProgress, "a sync run is already active", map[string]interface{}{
			"store_id": storeID,
		})
	}
	if err != nil {
		// Partial progress and the error status are already persisted;
		// the interactive caller gets a structured failure.
		return nil, newMCPError(ErrorCodeInternalError, "sync failed", map[string]interface{}{
			"store_id":       storeID,
			"sync_kind":      syncKind,
			"chunks_created": chunks,
			"error":          err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"store_id":       storeID,
		"sync_kind":      syncKind,
		"chunks_created": chunks,
	})), nil
}

// handleVerifyIntegrity handles the verify_integrity tool invocation
func (s *Server) handleVerifyIntegrity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	storeID, err := s.resolveStoreID(args)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.VerifyIntegrity(ctx, storeID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "integrity check failed", map[string]interface{}{
			"store_id": storeID,
			"error":    err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(integrityResponse(report))), nil
}

// handleRepairIndex handles the repair_index tool invocation
func (s *Server) handleRepairIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	storeID, err := s.resolveStoreID(args)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.VerifyIntegrity(ctx, storeID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "integrity check failed", map[string]interface{}{
			"store_id": storeID,
			"error":    err.Error(),
		})
	}

	repaired, err := s.engine.RepairReport(ctx, report)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "repair failed", map[string]interface{}{
			"store_id": storeID,
			"error":    err.Error(),
		})
	}

	response := integrityResponse(report)
	response["repaired"] = repaired
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	principal := getStringDefault(args, "principal", "")

	results, err := s.searcher.Search(ctx, query, principal)
	if errors.Is(err, types.ErrEmptyQuery) {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter cannot be empty", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	formatted := make([]map[string]interface{}, len(results))
	for i, r := range results {
		formatted[i] = map[string]interface{}{
			"chunk_id":     r.ChunkID,
			"file_id":      r.FileID,
			"filename":     r.Filename,
			"content":      r.Content,
			"citation_url": r.CitationURL,
			"score":        r.Score,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":    query,
		"filtered": principal != "",
		"results":  formatted,
	})), nil
}

// handleSyncStatus handles the sync_status tool invocation
func (s *Server) handleSyncStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	storeID, err := s.resolveStoreID(args)
	if err != nil {
		return nil, err
	}

	status, err := s.engine.SyncStatus(ctx, storeID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read sync status", map[string]interface{}{
			"store_id": storeID,
			"error":    err.Error(),
		})
	}

	response := map[string]interface{}{
		"store_id": storeID,
		"synced":   status.Cursor != nil,
	}
	if status.Cursor != nil {
		response["cursor"] = map[string]interface{}{
			"status":          status.Cursor.Status,
			"last_sync_at":    status.Cursor.LastSyncAt.Format("2006-01-02T15:04:05Z07:00"),
			"files_processed": status.Cursor.FilesProcessed,
			"chunks_created":  status.Cursor.ChunksCreated,
			"error_message":   status.Cursor.ErrorMessage,
		}
	}
	if len(status.Progress) > 0 {
		inFlight := make([]map[string]interface{}, len(status.Progress))
		for i, p := range status.Progress {
			inFlight[i] = map[string]interface{}{
				"sync_kind":       p.SyncKind,
				"run_id":          p.RunID,
				"total_files":     p.TotalFiles,
				"processed_files": p.ProcessedFiles,
				"failed_files":    p.FailedFiles,
				"current_path":    p.CurrentPath,
			}
		}
		response["in_flight"] = inFlight
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// resolveStoreID picks the store from the arguments or the configured default.
func (s *Server) resolveStoreID(args map[string]interface{}) (string, error) {
	if id, ok := args["store_id"].(string); ok && id != "" {
		return id, nil
	}
	if s.cfg.Store.DriveID != "" {
		return s.cfg.Store.DriveID, nil
	}
	return "", newMCPError(ErrorCodeNoStore, "no store_id supplied and no drive configured", map[string]interface{}{
		"param": "store_id",
	})
}

func integrityResponse(report *types.IntegrityReport) map[string]interface{} {
	return map[string]interface{}{
		"store_id":         report.StoreID,
		"remote_files":     report.RemoteFiles,
		"indexed_files":    report.IndexedFiles,
		"missing_in_index": len(report.MissingInIndex),
		"orphaned_in_db":   len(report.OrphanedInDB),
		"score":            report.Score,
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
