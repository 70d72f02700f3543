package summarizer

import (
	"context"

	"github.com/dejoiner/dejoiner/pkg/types"
)

// Mock is a canned Provider for tests
type Mock struct {
	SummarizeFunc func(ctx context.Context, text string) (string, error)
	AnalyzeFunc   func(ctx context.Context, fileName string, manifest []types.PageSummary) (*Analysis, error)
}

// Summarize implements Provider
func (m *Mock) Summarize(ctx context.Context, text string) (string, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}
	return "mock summary", nil
}

// AnalyzeStructure implements Provider
func (m *Mock) AnalyzeStructure(ctx context.Context, fileName string, manifest []types.PageSummary) (*Analysis, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, fileName, manifest)
	}
	return &Analysis{Summary: "mock analysis", Milestone: "Draft"}, nil
}
