package llm

import (
	"context"
	"fmt"

	"github.com/datakith/cleanse/internal/model"
)

// Summarizer wraps a provider and produces the optional LLMSummary
// attached to a cleanse report.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer, or an error when the configured
// provider is unknown or misconfigured.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is wired up.
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// GenerateSummary summarizes the report. Failures are returned to the
// caller, who treats them as a warning rather than a pipeline error.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:    report,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize report: %w", err)
	}

	return &model.LLMSummary{
		Enabled:   true,
		Provider:  s.provider.Name(),
		Model:     resp.Model,
		SummaryMD: resp.Summary,
	}, nil
}
