// Package llm optionally writes a prose summary of a cleanse report.
// The summary is generated after every stage has run and never feeds
// back into any derived column.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/datakith/cleanse/internal/model"
)

// Provider is an LLM backend capable of summarizing a report.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Summarize generates a summary of the cleanse report.
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks whether the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest is the input for report summarization.
type SummarizeRequest struct {
	Report    model.Report
	Prompt    string // optional custom prompt
	Model     string // provider-specific model name
	MaxTokens int
}

// SummarizeResponse is the provider output.
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	Provider  string // "openai", "ollama", "" = disabled
	Model     string
	APIKey    string
	BaseURL   string // custom endpoint (Ollama, gateways)
	Timeout   int    // seconds
	MaxTokens int
}

// ConfigFromModel converts the pipeline config section.
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}

// BuildPrompt constructs the default summarization prompt. Only
// aggregate report data goes to the provider; record contents never
// leave the process.
func BuildPrompt(report model.Report) string {
	var stages strings.Builder
	for _, s := range report.Stages {
		if s.Reason != "" {
			fmt.Fprintf(&stages, "- %s: %s (%s)\n", s.Stage, s.Status, s.Reason)
			continue
		}
		fmt.Fprintf(&stages, "- %s: %s\n", s.Stage, s.Status)
	}

	return fmt.Sprintf(`You are summarizing a customer-record cleansing report for a data steward.

RULES:
1. Describe only what the report states. Do not speculate about record contents.
2. If a stage was skipped or failed, explain what derived data is missing because of it.
3. Keep it under 200 words, Markdown, no headings.

Report:
- Outcome: %s
- Records processed: %d
- Potential duplicates linked: %d
- Records flagged invalid: %d
- Records enriched with a company: %d

Stages:
%s`, report.Outcome, report.RecordCount, report.DuplicateCount, report.InvalidCount, report.EnrichedCount, stages.String())
}
