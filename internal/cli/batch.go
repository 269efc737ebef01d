package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/datakith/cleanse/internal/model"
	"github.com/datakith/cleanse/internal/pipeline"
	"github.com/datakith/cleanse/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchConcurrency int
	batchOutputDir   string
	batchTimeout     time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <csv...>",
	Short: "Cleanse multiple CSV files in parallel",
	Long: `Batch cleanses several CSV files concurrently:
- Each file runs the full cleanse pipeline independently
- Files are processed in parallel with a configurable worker count
- Cleaned output and a JSON report land in the output directory

Example:
  cleanse batch january.csv february.csv
  cleanse batch exports/*.csv --concurrency 4 --output-dir ./cleaned`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", runtime.NumCPU(), "number of concurrent files")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "./cleanse-out", "output directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")

	// Per-file pipeline flags shared with run
	batchCmd.Flags().IntVar(&dedupeThreshold, "threshold", 85, "duplicate match threshold (0-100)")
	batchCmd.Flags().Float64Var(&contamination, "contamination", 0.05, "expected anomalous fraction per batch")
	batchCmd.Flags().Int64Var(&randomSeed, "seed", 42, "random seed for the anomaly ensemble")
	batchCmd.Flags().BoolVar(&enrichEnabled, "enrich", false, "enable company enrichment lookups")
	batchCmd.Flags().StringVar(&enrichURL, "enrich-url", "", "enrichment API base URL")
	batchCmd.Flags().DurationVar(&enrichTimeout, "enrich-timeout", 10*time.Second, "per-lookup timeout")
	batchCmd.Flags().IntVar(&enrichConcurrency, "enrich-concurrency", 4, "concurrent enrichment lookups per file")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable enrichment response cache")
	batchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist enrichment responses under this directory")
}

// fileJob cleanses one CSV file through its own pipeline run.
type fileJob struct {
	inPath     string
	outPath    string
	reportPath string
	cfg        *model.Config
}

// fileResult is the outcome of one file job.
type fileResult struct {
	inPath string
	report *model.Report
	err    error
}

func (r *fileResult) GetError() error { return r.err }

func (j *fileJob) Execute(ctx context.Context) worker.Result {
	p := pipeline.New(j.cfg)
	outcome, err := p.Run(ctx, j.inPath, j.outPath)

	res := &fileResult{inPath: j.inPath, err: err}
	if outcome != nil {
		res.report = outcome.Report
		if rErr := pipeline.NewRenderer(os.Stderr).RenderJSON(outcome.Report, j.reportPath); rErr != nil && err == nil {
			res.err = rErr
		}
	}
	return res
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(batchOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Files:    %d\n", len(args))
	fmt.Fprintf(os.Stderr, "  Workers:  %d\n", batchConcurrency)
	fmt.Fprintf(os.Stderr, "  Output:   %s\n", batchOutputDir)
	fmt.Fprintf(os.Stderr, "\n")

	pool := worker.NewPool(ctx, batchConcurrency)
	pool.Start()
	for _, inPath := range args {
		stem := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
		pool.Submit(&fileJob{
			inPath:     inPath,
			outPath:    filepath.Join(batchOutputDir, stem+"-cleaned.csv"),
			reportPath: filepath.Join(batchOutputDir, stem+"-report.json"),
			cfg:        cfg,
		})
	}

	successCount := 0
	failureCount := 0
	for _, res := range pool.Wait() {
		fr := res.(*fileResult)
		if fr.err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", fr.inPath, fr.err)
			continue
		}
		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d records, %d duplicates, %d invalid)\n",
			fr.inPath, fr.report.RecordCount, fr.report.DuplicateCount, fr.report.InvalidCount)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d files failed", failureCount, len(args))
	}
	return nil
}
