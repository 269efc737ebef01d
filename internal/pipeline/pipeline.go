// Package pipeline orchestrates the cleanse run over a record batch:
// Load -> Normalize -> (Link || Detect) -> Enrich -> Save. Only a load
// failure aborts; every other stage failure is isolated, recorded in the
// report, and the pipeline moves on.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/datakith/cleanse/internal/anomaly"
	"github.com/datakith/cleanse/internal/cache"
	"github.com/datakith/cleanse/internal/enrich"
	"github.com/datakith/cleanse/internal/link"
	"github.com/datakith/cleanse/internal/llm"
	"github.com/datakith/cleanse/internal/model"
	"github.com/datakith/cleanse/internal/normalize"
)

// Pipeline runs the cleanse stages with a fixed configuration.
type Pipeline struct {
	cfg        *model.Config
	linker     *link.Linker
	detector   *anomaly.Detector
	client     enrich.Client
	summarizer *llm.Summarizer
}

// Outcome is the result of one cleanse run: the annotated batch plus the
// completion report.
type Outcome struct {
	Batch  *model.Batch
	Report *model.Report
}

// New creates a pipeline from config.
func New(cfg *model.Config) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	forest := anomaly.NewForestStrategy(anomaly.ForestConfig{
		Trees:         cfg.Anomaly.Trees,
		SubsampleSize: cfg.Anomaly.SubsampleSize,
		Seed:          cfg.Anomaly.Seed,
	})

	p := &Pipeline{
		cfg:      cfg,
		linker:   link.NewLinker(cfg.Linker.Threshold),
		detector: anomaly.NewDetector(forest, cfg.Anomaly.Contamination),
	}

	if cfg.Enrichment.Enabled {
		store := cache.New(cfg.Cache)
		p.client = enrich.NewHTTPClient(cfg.Enrichment, store, cfg.Cache.TTL)
	}

	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM summarizer disabled: %v\n", err)
		} else {
			p.summarizer = s
		}
	}

	return p
}

// SetEnrichmentClient swaps the enrichment client. Used by tests and by
// callers embedding the pipeline with their own lookup transport.
func (p *Pipeline) SetEnrichmentClient(c enrich.Client) {
	p.client = c
}

// Run loads a CSV, cleanses it, and saves the annotated output. A load
// failure aborts with a report naming the cause; a save failure is
// recorded and returned but leaves the in-memory outcome intact.
func (p *Pipeline) Run(ctx context.Context, inPath, outPath string) (*Outcome, error) {
	report := &model.Report{
		InputPath:  inPath,
		OutputPath: outPath,
		StartedAt:  time.Now().UTC(),
	}

	start := time.Now()
	batch, err := LoadCSV(inPath)
	if err != nil {
		report.AddStage(model.StageLoad, model.StageFailed, err.Error(), time.Since(start))
		report.Outcome = model.OutcomeAborted
		report.FinishedAt = time.Now().UTC()
		return &Outcome{Report: report}, err
	}
	report.AddStage(model.StageLoad, model.StageCompleted, "", time.Since(start))

	outcome := p.cleanse(ctx, batch, report)

	start = time.Now()
	saveErr := SaveCSV(outPath, outcome.Batch, p.derivedColumns(outcome.Report))
	if saveErr != nil {
		report.AddStage(model.StageSave, model.StageFailed, saveErr.Error(), time.Since(start))
	} else {
		report.AddStage(model.StageSave, model.StageCompleted, "", time.Since(start))
	}
	report.FinishedAt = time.Now().UTC()

	return outcome, saveErr
}

// Cleanse is the library entry point: it annotates the batch in a fresh
// copy and reports which stages ran, were skipped, or failed.
func (p *Pipeline) Cleanse(ctx context.Context, batch *model.Batch) *Outcome {
	report := &model.Report{StartedAt: time.Now().UTC()}
	outcome := p.cleanse(ctx, batch, report)
	report.FinishedAt = time.Now().UTC()
	return outcome
}

func (p *Pipeline) cleanse(ctx context.Context, in *model.Batch, report *model.Report) *Outcome {
	report.Outcome = model.OutcomeCompleted
	report.RecordCount = len(in.Records)

	batch := p.normalizeStage(in, report)

	// Barrier: both the linker (full candidate pool) and the detector
	// (full feature distribution) need the complete normalized batch.
	// They read it concurrently and never write to it.
	var (
		wg         sync.WaitGroup
		matches    []link.Match
		linkDur    time.Duration
		detections []anomaly.Result
		detectErr  error
		detectDur  time.Duration
	)
	if batch.HasName {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			matches = p.linker.Link(batch.Names())
			linkDur = time.Since(start)
		}()
	}
	if batch.HasPhone {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			detections, detectErr = p.detector.Detect(batch.Phones())
			detectDur = time.Since(start)
		}()
	}
	wg.Wait()

	p.applyLink(batch, matches, report, linkDur)
	p.applyDetect(batch, detections, detectErr, report, detectDur)
	p.enrichStage(ctx, batch, report)

	if batch.HasEmail {
		emails := make([]string, len(batch.Records))
		for i, r := range batch.Records {
			emails[i] = r.Email
		}
		report.TopDomains = domainSummary(emails)
	}

	p.summarize(ctx, report)

	return &Outcome{Batch: batch, Report: report}
}

func (p *Pipeline) normalizeStage(in *model.Batch, report *model.Report) *model.Batch {
	start := time.Now()
	batch := in.Clone()
	for i := range batch.Records {
		if batch.HasName {
			batch.Records[i].Name = normalize.Name(batch.Records[i].Name)
		}
		if batch.HasEmail {
			batch.Records[i].Email = normalize.Email(batch.Records[i].Email)
		}
		if batch.HasPhone {
			batch.Records[i].Phone = normalize.Phone(batch.Records[i].Phone)
		}
	}
	report.AddStage(model.StageNormalize, model.StageCompleted, "", time.Since(start))
	return batch
}

func (p *Pipeline) applyLink(batch *model.Batch, matches []link.Match, report *model.Report, dur time.Duration) {
	if !batch.HasName {
		err := &MissingColumnError{Column: model.ColumnName}
		report.AddStage(model.StageLink, model.StageSkipped, err.Error(), 0)
		return
	}

	for i, m := range matches {
		if m.OK {
			name := m.Name
			batch.Records[i].DuplicateMatch = &name
			report.DuplicateCount++
		}
	}
	report.AddStage(model.StageLink, model.StageCompleted, "", dur)
}

func (p *Pipeline) applyDetect(batch *model.Batch, detections []anomaly.Result, detectErr error, report *model.Report, dur time.Duration) {
	if !batch.HasPhone {
		err := &MissingColumnError{Column: model.ColumnPhone}
		report.AddStage(model.StageDetect, model.StageSkipped, err.Error(), 0)
		return
	}

	if detectErr != nil {
		// A single unparseable feature disables the whole detector; the
		// batch keeps moving with every record unscored.
		var parseErr *anomaly.FeatureParseError
		reason := detectErr.Error()
		if errors.As(detectErr, &parseErr) {
			reason = fmt.Sprintf("feature parse failed, detector disabled: %v", parseErr)
		}
		for i := range batch.Records {
			batch.Records[i].Validity = model.ValidityUnscored
		}
		report.AddStage(model.StageDetect, model.StageFailed, reason, dur)
		return
	}

	for i, d := range detections {
		score := d.Score
		batch.Records[i].AnomalyScore = &score
		batch.Records[i].Validity = d.Validity
		if d.Validity == model.ValidityInvalid {
			report.InvalidCount++
		}
	}
	report.AddStage(model.StageDetect, model.StageCompleted, "", dur)
}

func (p *Pipeline) enrichStage(ctx context.Context, batch *model.Batch, report *model.Report) {
	if !p.cfg.Enrichment.Enabled || p.client == nil {
		report.AddStage(model.StageEnrich, model.StageSkipped, "enrichment disabled", 0)
		return
	}
	if !batch.HasEmail {
		err := &MissingColumnError{Column: model.ColumnEmail}
		report.AddStage(model.StageEnrich, model.StageSkipped, err.Error(), 0)
		return
	}

	start := time.Now()
	emails := make([]string, len(batch.Records))
	for i, r := range batch.Records {
		emails[i] = r.Email
	}

	enricher := enrich.NewEnricher(p.client, p.cfg.Enrichment.Concurrency)
	companies := enricher.EnrichBatch(ctx, emails)
	for i, company := range companies {
		batch.Records[i].Company = company
		if company != enrich.Unknown {
			report.EnrichedCount++
		}
	}
	report.AddStage(model.StageEnrich, model.StageCompleted, "", time.Since(start))
}

func (p *Pipeline) summarize(ctx context.Context, report *model.Report) {
	if p.summarizer == nil || !p.summarizer.IsEnabled() {
		return
	}
	summary, err := p.summarizer.GenerateSummary(ctx, *report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: LLM summary failed: %v\n", err)
		return
	}
	report.LLM = summary
}

// derivedColumns maps stage outcomes to output columns. Valid Entry is
// written whenever the detector attempted the batch, so Unscored markers
// survive a detector failure; it is absent when the stage was skipped.
func (p *Pipeline) derivedColumns(report *model.Report) derivedColumns {
	return derivedColumns{
		Duplicate: report.StageStatusOf(model.StageLink) == model.StageCompleted,
		Anomaly:   report.StageStatusOf(model.StageDetect) == model.StageCompleted,
		Validity:  report.StageStatusOf(model.StageDetect) == model.StageCompleted ||
			report.StageStatusOf(model.StageDetect) == model.StageFailed,
		Company: report.StageStatusOf(model.StageEnrich) == model.StageCompleted,
	}
}
