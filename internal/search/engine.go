package search

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/dejoiner/dejoiner/pkg/types"
)

// Tier scores, highest priority first. The first tier that fires wins;
// scores are never summed across tiers.
const (
	scoreTitleExact     = 100
	scoreTitlePrefix    = 90
	scoreTitleSubstring = 70
	scoreMetadataFrames = 50
	scoreMetadataSummary = 40
	scoreContentIndex   = 30
)

const (
	// SnippetLength caps match snippets shown in results
	SnippetLength = 60

	// DefaultLimit is the result cap used when the caller passes none
	DefaultLimit = 6
)

// Engine scores and ranks candidate resources against a query. It holds no
// state; a single Engine may serve concurrent searches.
type Engine struct{}

// NewEngine creates a new Engine instance
func NewEngine() *Engine {
	return &Engine{}
}

// Search ranks candidates against query and returns the top limit results
// plus the total match count before capping. An empty query matches nothing.
// Candidates are read-only to the engine; ties preserve their input order.
func (e *Engine) Search(query string, candidates []types.Resource, limit int) types.SearchResponse {
	resp := types.SearchResponse{Results: []types.RankedResult{}}
	if query == "" {
		return resp
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := strings.ToLower(query)

	type scored struct {
		result types.RankedResult
		score  int
	}
	matched := make([]scored, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		score, matchedIn := scoreCandidate(q, c)
		if score == 0 {
			continue
		}
		matched = append(matched, scored{result: buildResult(c, matchedIn), score: score})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	resp.TotalMatched = len(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	for _, m := range matched {
		resp.Results = append(resp.Results, m.result)
	}

	return resp
}

// scoreCandidate evaluates the tiers top to bottom and stops at the first
// positive score. Title tiers carry no MatchInfo.
func scoreCandidate(q string, c *types.Resource) (int, *types.MatchInfo) {
	title := strings.ToLower(c.Title)

	switch {
	case title == q:
		return scoreTitleExact, nil
	case strings.HasPrefix(title, q):
		return scoreTitlePrefix, nil
	case strings.Contains(title, q):
		return scoreTitleSubstring, nil
	}

	if c.Metadata != nil && len(c.Metadata.Frames) > 0 {
		if raw, err := json.Marshal(c.Metadata.Frames); err == nil {
			if strings.Contains(strings.ToLower(string(raw)), q) {
				return scoreMetadataFrames, &types.MatchInfo{
					Field:    types.MatchMetadata,
					Text:     "Found in frames",
					Location: "Frames",
				}
			}
		}
	}

	if c.Metadata != nil && c.Metadata.AISummary != "" {
		if strings.Contains(strings.ToLower(c.Metadata.AISummary), q) {
			return scoreMetadataSummary, &types.MatchInfo{
				Field:    types.MatchMetadata,
				Text:     Snippet(c.Metadata.AISummary),
				Location: "Summary",
			}
		}
	}

	// Deep content index: earliest entry in document order wins, not the
	// best match.
	for _, entry := range c.ContentIndex {
		if !strings.Contains(strings.ToLower(entry.Text), q) {
			continue
		}
		location := entry.Location
		if location == "" {
			location = "Unknown location"
		}
		return scoreContentIndex, &types.MatchInfo{
			Field:    types.MatchContentIndex,
			Text:     Snippet(entry.Text),
			Location: location,
			NodeID:   entry.NodeID,
		}
	}

	return 0, nil
}

// buildResult shapes a matched candidate into a RankedResult. The "Untitled"
// default applies only here, never during scoring.
func buildResult(c *types.Resource, matchedIn *types.MatchInfo) types.RankedResult {
	return types.RankedResult{
		ID:           c.ID,
		Title:        c.DisplayTitle(),
		Source:       c.Type,
		Type:         c.Type,
		SourceURL:    c.URL,
		ThumbnailURL: c.ThumbnailURL,
		LastEditedAt: c.LastEditedAt,
		ContentIndex: c.ContentIndex,
		MatchedIn:    matchedIn,
	}
}

// Snippet returns s capped at SnippetLength characters, with an ellipsis
// marker appended only when truncation occurred.
func Snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= SnippetLength {
		return s
	}
	return string(runes[:SnippetLength]) + "..."
}
