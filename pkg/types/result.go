package types

import "time"

// MatchField identifies which part of a resource a query matched
type MatchField string

const (
	MatchTitle        MatchField = "title"
	MatchMetadata     MatchField = "metadata"
	MatchContentIndex MatchField = "contentIndex"
)

// MatchInfo describes the single best match location for a result. Title-tier
// matches carry no MatchInfo at all; the title itself is the evidence.
type MatchInfo struct {
	Field    MatchField `json:"field"`
	Text     string     `json:"text"`
	Location string     `json:"location"`
	NodeID   string     `json:"nodeId,omitempty"`
}

// RankedResult is a single relevance-ordered search result. The numeric score
// used for ordering is internal to the engine and stripped before results
// reach any caller.
type RankedResult struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Source       ResourceType `json:"source"`
	Type         ResourceType `json:"type"`
	SourceURL    string       `json:"sourceUrl"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	LastEditedAt *time.Time   `json:"lastEditedAt,omitempty"`
	ContentIndex []IndexEntry `json:"contentIndex,omitempty"`
	MatchedIn    *MatchInfo   `json:"matchedIn,omitempty"`
}

// SearchResponse is the engine's output contract: the capped, ranked results
// plus the total number of candidates that matched before capping.
type SearchResponse struct {
	Results      []RankedResult `json:"results"`
	TotalMatched int            `json:"totalMatched"`
}

// FuzzySuggestion is a "did you mean" candidate: the resource plus its edit
// distance from the query and the bonus-adjusted score (lower is better).
type FuzzySuggestion struct {
	Resource
	Distance int `json:"distance"`
	Score    int `json:"score"`
}
