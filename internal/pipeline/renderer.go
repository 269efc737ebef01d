package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/datakith/cleanse/internal/model"
)

// Renderer writes completion reports.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer; summaries go to out (usually stderr).
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stderr
	}
	return &Renderer{out: out}
}

// RenderJSON writes the report as indented JSON.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderSummary prints a human-readable completion summary.
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Fprintf(r.out, "\n")
	fmt.Fprintf(r.out, "  Outcome:    %s\n", report.Outcome)
	fmt.Fprintf(r.out, "  Records:    %d\n", report.RecordCount)

	for _, s := range report.Stages {
		mark := "✓"
		if s.Status != model.StageCompleted {
			mark = "✗"
		}
		if s.Reason != "" {
			fmt.Fprintf(r.out, "  %s %-9s %s (%s)\n", mark, s.Stage, s.Status, s.Reason)
		} else {
			fmt.Fprintf(r.out, "  %s %-9s %s\n", mark, s.Stage, s.Status)
		}
	}

	fmt.Fprintf(r.out, "  Duplicates: %d\n", report.DuplicateCount)
	fmt.Fprintf(r.out, "  Invalid:    %d\n", report.InvalidCount)
	fmt.Fprintf(r.out, "  Enriched:   %d\n", report.EnrichedCount)

	if len(report.TopDomains) > 0 {
		fmt.Fprintf(r.out, "  Top email domains:\n")
		for _, d := range report.TopDomains {
			fmt.Fprintf(r.out, "    %-30s %d\n", d.Domain, d.Count)
		}
	}
	fmt.Fprintf(r.out, "\n")
}
