package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchResourcesTool returns the tool definition for search_resources
func searchResourcesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_resources",
		Description: "Search indexed design resources by title, metadata, and deep content index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query matched against titles, frame names, AI summaries, and extracted design content",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     6,
					"minimum":     1,
					"maximum":     50,
				},
			},
			Required: []string{"query"},
		},
	}
}

// saveResourceTool returns the tool definition for save_resource
func saveResourceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_resource",
		Description: "Index a design resource link (Figma, FigJam, GitHub, Google Docs/Drive) with optional context",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "Link to the resource to index",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Optional title override; enrichment derives one otherwise",
				},
				"context": map[string]interface{}{
					"type":        "string",
					"description": "Optional discussion context stored alongside the resource",
				},
				"author_name": map[string]interface{}{
					"type":        "string",
					"description": "Name recorded as the resource author",
				},
			},
			Required: []string{"url"},
		},
	}
}

// listRecentTool returns the tool definition for list_recent
func listRecentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_recent",
		Description: "List the most recently edited indexed resources",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of resources to return (1-50)",
					"default":     10,
					"minimum":     1,
					"maximum":     50,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics: resource counts by type, context notes, and projects",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
