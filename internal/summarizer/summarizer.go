// Package summarizer produces AI summaries and structure analyses for
// indexed resources.
package summarizer

import (
	"context"
	"errors"
	"strings"

	"github.com/dejoiner/dejoiner/pkg/types"
)

// FallbackWordCount sizes the degraded summary used when no provider is
// reachable
const FallbackWordCount = 15

// ErrMissingAPIKey is returned when no provider key is configured
var ErrMissingAPIKey = errors.New("summarizer api key missing")

// Analysis is the structured result of a design-file structure analysis
type Analysis struct {
	Summary   string   `json:"summary"`
	Milestone string   `json:"milestone"`
	KeyFrames []string `json:"keyFrames"`
}

// Provider turns raw text and file structure into summaries. Implementations
// call an external model; tests use a mock.
type Provider interface {
	// Summarize reduces text to a one-sentence purpose statement
	Summarize(ctx context.Context, text string) (string, error)

	// AnalyzeStructure examines a design file's page/frame manifest and
	// returns a summary, a milestone label, and the key frame names
	AnalyzeStructure(ctx context.Context, fileName string, manifest []types.PageSummary) (*Analysis, error)
}

// FallbackSummary degrades gracefully when no provider is available: the
// first few words of the source text.
func FallbackSummary(text string) string {
	words := strings.Fields(text)
	if len(words) <= FallbackWordCount {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:FallbackWordCount], " ") + "..."
}
