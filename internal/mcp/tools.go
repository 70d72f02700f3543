package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dejoiner/dejoiner/internal/ingest"
	"github.com/dejoiner/dejoiner/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

const (
	// MaxToolLimit caps the limit parameter of listing tools
	MaxToolLimit = 50

	// DefaultSearchLimit is the search_resources default
	DefaultSearchLimit = 6

	// DefaultRecentLimit is the list_recent default
	DefaultRecentLimit = 10
)

// handleSearchResources handles the search_resources tool invocation
func (s *Server) handleSearchResources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	limit := getIntDefault(args, "limit", DefaultSearchLimit)
	if limit < 1 || limit > MaxToolLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxToolLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	resp, err := s.search.Quick(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := map[string]interface{}{
			"id":    r.ID,
			"title": r.Title,
			"type":  string(r.Type),
			"url":   r.SourceURL,
		}
		if r.MatchedIn != nil {
			entry["matched_in"] = map[string]interface{}{
				"field":    string(r.MatchedIn.Field),
				"text":     r.MatchedIn.Text,
				"location": r.MatchedIn.Location,
			}
		}
		results = append(results, entry)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":         resp.Query,
		"results":       results,
		"total_matched": resp.TotalCount,
		"query_time_ms": resp.QueryTime,
	})), nil
}

// handleSaveResource handles the save_resource tool invocation
func (s *Server) handleSaveResource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	url, ok := args["url"].(string)
	if !ok || url == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "url parameter is required", map[string]interface{}{
			"param":  "url",
			"reason": "missing or empty",
		})
	}

	resource, err := s.ingester.Save(ctx, ingest.SaveRequest{
		URL:        url,
		Title:      getStringDefault(args, "title", ""),
		Context:    getStringDefault(args, "context", ""),
		AuthorName: getStringDefault(args, "author_name", "MCP Client"),
	})
	if err != nil {
		var dup *ingest.DuplicateError
		if errors.As(err, &dup) {
			return mcp.NewToolResultText(formatJSON(map[string]interface{}{
				"saved":     false,
				"duplicate": true,
				"existing":  resourceSummary(dup.Existing),
			})), nil
		}
		return nil, newMCPError(ErrorCodeInternalError, "save failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"saved":    true,
		"resource": resourceSummary(resource),
	})), nil
}

// handleListRecent handles the list_recent tool invocation
func (s *Server) handleListRecent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := DefaultRecentLimit
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		limit = getIntDefault(args, "limit", DefaultRecentLimit)
	}
	if limit < 1 || limit > MaxToolLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxToolLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	resources, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "listing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	listed := make([]map[string]interface{}, 0, len(resources))
	for i := range resources {
		listed = append(listed, resourceSummary(&resources[i]))
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"resources": listed,
		"count":     len(listed),
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	byType := make(map[string]interface{}, len(stats.ByType))
	for t, count := range stats.ByType {
		byType[string(t)] = count
	}

	response := map[string]interface{}{
		"total_resources": stats.TotalResources,
		"by_type":         byType,
		"context_notes":   stats.ContextNotes,
		"projects":        stats.Projects,
	}
	if !stats.LatestAddition.IsZero() {
		response["latest_addition"] = stats.LatestAddition.Format(time.RFC3339)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// resourceSummary shapes a resource for tool output
func resourceSummary(r *types.Resource) map[string]interface{} {
	summary := map[string]interface{}{
		"id":    r.ID,
		"title": r.DisplayTitle(),
		"type":  string(r.Type),
		"url":   r.URL,
	}
	if r.AuthorName != "" {
		summary["author"] = r.AuthorName
	}
	if r.LastEditedAt != nil {
		summary["last_edited_at"] = r.LastEditedAt.Format(time.RFC3339)
	}
	if r.Metadata != nil && r.Metadata.AISummary != "" {
		summary["ai_summary"] = r.Metadata.AISummary
	}
	return summary
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

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
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
