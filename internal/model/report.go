package model

import "time"

// Stage identifies one step of the cleanse pipeline.
type Stage string

const (
	StageLoad      Stage = "load"
	StageNormalize Stage = "normalize"
	StageLink      Stage = "link"
	StageDetect    Stage = "detect"
	StageEnrich    Stage = "enrich"
	StageSave      Stage = "save"
)

// StageStatus describes how a stage ended.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageSkipped   StageStatus = "skipped"
	StageFailed    StageStatus = "failed"
)

// Outcome is the terminal state of the pipeline.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeAborted   Outcome = "aborted"
)

// StageReport records the result of a single pipeline stage.
type StageReport struct {
	Stage    Stage         `json:"stage"`
	Status   StageStatus   `json:"status"`
	Reason   string        `json:"reason,omitempty"` // why skipped/failed
	Duration time.Duration `json:"duration_ns"`
}

// DomainCount is one entry of the email-domain summary.
type DomainCount struct {
	Domain string `json:"domain"` // registrable domain (eTLD+1)
	Count  int    `json:"count"`
}

// Report is the completion report for one cleanse run. It names every
// stage that ran, was skipped, or failed, and why, so absent derived
// columns in the output are always explainable.
type Report struct {
	InputPath  string    `json:"input_path,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Outcome Outcome       `json:"outcome"`
	Stages  []StageReport `json:"stages"`

	RecordCount    int `json:"record_count"`
	DuplicateCount int `json:"duplicate_count"` // records with a linked match
	InvalidCount   int `json:"invalid_count"`   // records labeled Invalid
	EnrichedCount  int `json:"enriched_count"`  // records with a known company

	// TopDomains summarizes the registrable email domains in the batch.
	TopDomains []DomainCount `json:"top_domains,omitempty"`

	// LLM is the optional model-written summary. It never affects any
	// derived column and is generated after all scoring.
	LLM *LLMSummary `json:"llm,omitempty"`
}

// AddStage appends a stage result to the report.
func (r *Report) AddStage(stage Stage, status StageStatus, reason string, d time.Duration) {
	r.Stages = append(r.Stages, StageReport{
		Stage:    stage,
		Status:   status,
		Reason:   reason,
		Duration: d,
	})
}

// StageStatusOf returns the recorded status for a stage, or "" if the
// stage never ran.
func (r *Report) StageStatusOf(stage Stage) StageStatus {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s.Status
		}
	}
	return ""
}

// LLMSummary contains the optional LLM-generated report summary.
type LLMSummary struct {
	Enabled   bool   `json:"enabled"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	SummaryMD string `json:"summary_md,omitempty"`
}
