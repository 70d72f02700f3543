package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dejoiner/dejoiner/pkg/types"
)

const (
	// CandidatePoolSize bounds the most-recently-edited batch fed to the engine
	CandidatePoolSize = 100

	// SuggestionPoolSize bounds the pool used for fuzzy suggestions
	SuggestionPoolSize = 50

	// cacheSize is the LRU entry limit for cached responses
	cacheSize = 1000

	// DefaultCacheTTL controls how long a cached response stays valid
	DefaultCacheTTL = 5 * time.Minute
)

// Store is the slice of the resource store the search service needs
type Store interface {
	ListRecent(ctx context.Context, limit int) ([]types.Resource, error)
	SearchTitleURL(ctx context.Context, query string, limit int) ([]types.Resource, error)
}

// QuickResponse is the serving shape of a quick search: engine output plus
// the elapsed time and echo of the query.
type QuickResponse struct {
	Results    []types.RankedResult `json:"results"`
	TotalCount int                  `json:"totalCount"`
	QueryTime  int64                `json:"queryTime"`
	Query      string               `json:"query"`
}

// cacheEntry is a cached quick-search response with its expiration time
type cacheEntry struct {
	response  *QuickResponse
	expiresAt time.Time
}

// Service wires the pure relevance engine to the resource store and caches
// responses for the serving paths.
type Service struct {
	store   Store
	engine  *Engine
	logger  *zap.Logger
	ttl     time.Duration
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewService creates a search service over the given store
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// Only possible with an invalid size constant
		panic(fmt.Sprintf("failed to create search cache: %v", err))
	}

	return &Service{
		store:  store,
		engine: NewEngine(),
		logger: logger,
		ttl:    DefaultCacheTTL,
		cache:  cache,
	}
}

// Quick runs the dropdown search path: fetch the recent candidate pool, rank
// it, and cache the response. An empty query returns an empty response
// without touching the store.
func (s *Service) Quick(ctx context.Context, query string, limit int) (*QuickResponse, error) {
	start := time.Now()

	if limit <= 0 {
		limit = DefaultLimit
	}
	if strings.TrimSpace(query) == "" {
		return &QuickResponse{Results: []types.RankedResult{}, Query: query}, nil
	}

	key := cacheKey(query, limit)
	if cached := s.fromCache(key); cached != nil {
		cached.QueryTime = time.Since(start).Milliseconds()
		return cached, nil
	}

	candidates, err := s.store.ListRecent(ctx, CandidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}

	ranked := s.engine.Search(query, candidates, limit)
	resp := &QuickResponse{
		Results:    ranked.Results,
		TotalCount: ranked.TotalMatched,
		QueryTime:  time.Since(start).Milliseconds(),
		Query:      query,
	}
	s.storeInCache(key, resp)

	s.logger.Debug("quick search",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("matched", ranked.TotalMatched),
		zap.Int64("elapsed_ms", resp.QueryTime),
	)

	return resp, nil
}

// Lookup runs the chat-command search path: a plain title/url substring
// search first, falling back to fuzzy "did you mean" suggestions when it
// comes back empty.
func (s *Service) Lookup(ctx context.Context, query string, limit int) ([]types.Resource, []types.FuzzySuggestion, error) {
	results, err := s.store.SearchTitleURL(ctx, query, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup failed: %w", err)
	}
	if len(results) > 0 {
		return results, nil, nil
	}

	pool, err := s.store.ListRecent(ctx, SuggestionPoolSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch suggestion pool: %w", err)
	}

	return nil, Suggest(query, pool), nil
}

// InvalidateCache drops all cached responses. Called whenever the ingest
// pipeline writes a resource; the next search sees fresh data.
func (s *Service) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

func (s *Service) fromCache(key [32]byte) *QuickResponse {
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}
	resp := copyResponse(entry.response)
	s.cacheMu.RUnlock()

	return resp
}

func (s *Service) storeInCache(key [32]byte, resp *QuickResponse) {
	entry := &cacheEntry{
		response:  copyResponse(resp),
		expiresAt: time.Now().Add(s.ttl),
	}

	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// copyResponse clones a response so cached entries cannot be mutated by
// callers holding a returned value.
func copyResponse(src *QuickResponse) *QuickResponse {
	if src == nil {
		return nil
	}
	dst := &QuickResponse{
		TotalCount: src.TotalCount,
		QueryTime:  src.QueryTime,
		Query:      src.Query,
		Results:    make([]types.RankedResult, len(src.Results)),
	}
	copy(dst.Results, src.Results)
	return dst
}

// cacheKey computes a stable hash for a query/limit pair
func cacheKey(query string, limit int) [32]byte {
	var data strings.Builder
	data.WriteString(query)
	data.WriteString("|")
	data.WriteString(strconv.Itoa(limit))
	return sha256.Sum256([]byte(data.String()))
}
