package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// syncDriveTool returns the tool definition for sync_drive
func syncDriveTool() mcp.Tool {
	return mcp.Tool{
		Name:        "sync_drive",
		Description: "Synchronize a remote drive into the searchable index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"store_id": map[string]interface{}{
					"type":        "string",
					"description": "Drive identifier; defaults to the configured drive",
				},
				"full": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-enumerate and reprocess every file instead of applying the change feed",
					"default":     false,
				},
			},
		},
	}
}

// verifyIntegrityTool returns the tool definition for verify_integrity
func verifyIntegrityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "verify_integrity",
		Description: "Compare the remote drive against the index and report missing or orphaned files",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"store_id": map[string]interface{}{
					"type":        "string",
					"description": "Drive identifier; defaults to the configured drive",
				},
			},
		},
	}
}

// repairIndexTool returns the tool definition for repair_index
func repairIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "repair_index",
		Description: "Reindex files missing from the index and remove orphaned index entries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"store_id": map[string]interface{}{
					"type":        "string",
					"description": "Drive identifier; defaults to the configured drive",
				},
			},
		},
	}
}

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Search indexed documents with natural language queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"principal": map[string]interface{}{
					"type":        "string",
					"description": "User or group ID for permission filtering; omit to search unrestricted",
				},
			},
			Required: []string{"query"},
		},
	}
}

// syncStatusTool returns the tool definition for sync_status
func syncStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "sync_status",
		Description: "Query the sync cursor and any in-flight sync progress for a drive",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"store_id": map[string]interface{}{
					"type":        "string",
					"description": "Drive identifier; defaults to the configured drive",
				},
			},
		},
	}
}
