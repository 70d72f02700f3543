package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejoiner/dejoiner/internal/ingest"
	"github.com/dejoiner/dejoiner/internal/search"
	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/pkg/types"
)

type fakeMCPStore struct {
	recent []types.Resource
	stats  *storage.Stats
}

func (f *fakeMCPStore) ListRecent(_ context.Context, limit int) ([]types.Resource, error) {
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeMCPStore) Stats(_ context.Context) (*storage.Stats, error) {
	if f.stats == nil {
		return &storage.Stats{ByType: map[types.ResourceType]int{}}, nil
	}
	return f.stats, nil
}

type fakeMCPSearcher struct {
	resp *search.QuickResponse
}

func (f *fakeMCPSearcher) Quick(_ context.Context, query string, _ int) (*search.QuickResponse, error) {
	if f.resp != nil {
		return f.resp, nil
	}
	return &search.QuickResponse{Results: []types.RankedResult{}, Query: query}, nil
}

type fakeMCPIngester struct {
	saved   []ingest.SaveRequest
	saveErr error
}

func (f *fakeMCPIngester) Save(_ context.Context, req ingest.SaveRequest) (*types.Resource, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, req)
	return &types.Resource{ID: "res-1", URL: req.URL, Title: "Saved Thing", Type: types.ResourceFigma}, nil
}

func newTestMCPServer(store *fakeMCPStore, searcher *fakeMCPSearcher, ingester *fakeMCPIngester) *Server {
	if store == nil {
		store = &fakeMCPStore{}
	}
	if searcher == nil {
		searcher = &fakeMCPSearcher{}
	}
	if ingester == nil {
		ingester = &fakeMCPIngester{}
	}
	return NewServer(store, searcher, ingester, nil)
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	return decoded
}

func TestHandleSearchResources(t *testing.T) {
	searcher := &fakeMCPSearcher{resp: &search.QuickResponse{
		Results: []types.RankedResult{
			{
				ID:        "r1",
				Title:     "Checkout Flow",
				Type:      types.ResourceFigma,
				SourceURL: "https://example.com/r1",
				MatchedIn: &types.MatchInfo{
					Field:    types.MatchContentIndex,
					Text:     "Checkout CTA",
					Location: "Page 1 > Hero",
				},
			},
		},
		TotalCount: 1,
		Query:      "checkout",
	}}
	s := newTestMCPServer(nil, searcher, nil)

	result, err := s.handleSearchResources(context.Background(), callRequest(map[string]interface{}{
		"query": "checkout",
	}))
	require.NoError(t, err)

	decoded := resultJSON(t, result)
	assert.Equal(t, "checkout", decoded["query"])
	assert.EqualValues(t, 1, decoded["total_matched"])

	results := decoded["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "Checkout Flow", first["title"])
	matched := first["matched_in"].(map[string]interface{})
	assert.Equal(t, "contentIndex", matched["field"])
	assert.Equal(t, "Page 1 > Hero", matched["location"])
}

func TestHandleSearchResources_MissingQuery(t *testing.T) {
	s := newTestMCPServer(nil, nil, nil)

	_, err := s.handleSearchResources(context.Background(), callRequest(map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
}

func TestHandleSearchResources_LimitBounds(t *testing.T) {
	s := newTestMCPServer(nil, nil, nil)

	_, err := s.handleSearchResources(context.Background(), callRequest(map[string]interface{}{
		"query": "x",
		"limit": float64(500),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleSaveResource(t *testing.T) {
	ingester := &fakeMCPIngester{}
	s := newTestMCPServer(nil, nil, ingester)

	result, err := s.handleSaveResource(context.Background(), callRequest(map[string]interface{}{
		"url":     "https://www.figma.com/file/abc/Checkout",
		"context": "spring launch",
	}))
	require.NoError(t, err)

	require.Len(t, ingester.saved, 1)
	assert.Equal(t, "spring launch", ingester.saved[0].Context)
	assert.Equal(t, "MCP Client", ingester.saved[0].AuthorName)

	decoded := resultJSON(t, result)
	assert.Equal(t, true, decoded["saved"])
	resource := decoded["resource"].(map[string]interface{})
	assert.Equal(t, "Saved Thing", resource["title"])
}

func TestHandleSaveResource_Duplicate(t *testing.T) {
	ingester := &fakeMCPIngester{saveErr: &ingest.DuplicateError{
		Existing: &types.Resource{ID: "old", Title: "Original", Type: types.ResourceFigma},
	}}
	s := newTestMCPServer(nil, nil, ingester)

	result, err := s.handleSaveResource(context.Background(), callRequest(map[string]interface{}{
		"url": "https://www.figma.com/file/abc/Checkout",
	}))
	require.NoError(t, err)

	decoded := resultJSON(t, result)
	assert.Equal(t, false, decoded["saved"])
	assert.Equal(t, true, decoded["duplicate"])
	existing := decoded["existing"].(map[string]interface{})
	assert.Equal(t, "Original", existing["title"])
}

func TestHandleSaveResource_MissingURL(t *testing.T) {
	s := newTestMCPServer(nil, nil, nil)

	_, err := s.handleSaveResource(context.Background(), callRequest(map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleListRecent(t *testing.T) {
	now := time.Now()
	store := &fakeMCPStore{recent: []types.Resource{
		{ID: "r1", Title: "Newest", Type: types.ResourceFigma, URL: "https://example.com/1", LastEditedAt: &now},
		{ID: "r2", Title: "", Type: types.ResourceGitHub, URL: "https://example.com/2"},
	}}
	s := newTestMCPServer(store, nil, nil)

	result, err := s.handleListRecent(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)

	decoded := resultJSON(t, result)
	assert.EqualValues(t, 2, decoded["count"])
	resources := decoded["resources"].([]interface{})
	second := resources[1].(map[string]interface{})
	assert.Equal(t, "Untitled", second["title"])
}

func TestHandleGetStatus(t *testing.T) {
	store := &fakeMCPStore{stats: &storage.Stats{
		TotalResources: 12,
		ByType:         map[types.ResourceType]int{types.ResourceFigma: 9, types.ResourceGitHub: 3},
		ContextNotes:   4,
		Projects:       2,
		LatestAddition: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}}
	s := newTestMCPServer(store, nil, nil)

	result, err := s.handleGetStatus(context.Background(), callRequest(nil))
	require.NoError(t, err)

	decoded := resultJSON(t, result)
	assert.EqualValues(t, 12, decoded["total_resources"])
	byType := decoded["by_type"].(map[string]interface{})
	assert.EqualValues(t, 9, byType["figma"])
	assert.Equal(t, "2026-03-01T10:00:00Z", decoded["latest_addition"])
}

func TestHandleGetStatus_StoreError(t *testing.T) {
	store := &fakeMCPStore{}
	s := newTestMCPServer(store, nil, nil)
	s.store = &failingStore{}

	_, err := s.handleGetStatus(context.Background(), callRequest(nil))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInternalError, mcpErr.Code)
}

type failingStore struct{}

func (f *failingStore) ListRecent(context.Context, int) ([]types.Resource, error) {
	return nil, errors.New("db down")
}

func (f *failingStore) Stats(context.Context) (*storage.Stats, error) {
	return nil, errors.New("db down")
}

func TestNewServerRegistersTools(t *testing.T) {
	s := newTestMCPServer(nil, nil, nil)
	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.store)
	assert.NotNil(t, s.search)
	assert.NotNil(t, s.ingester)
}
