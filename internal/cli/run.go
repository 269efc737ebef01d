package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/datakith/cleanse/internal/model"
	"github.com/datakith/cleanse/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outPath           string
	reportPath        string
	dedupeThreshold   int
	contamination     float64
	randomSeed        int64
	enrichEnabled     bool
	enrichURL         string
	enrichTimeout     time.Duration
	enrichConcurrency int
	noCache           bool
	cacheDir          string
	runTimeout        time.Duration
	llmEnabled        bool
	llmProvider       string
	llmModel          string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <csv>",
	Short: "Cleanse a single CSV file",
	Long: `Run cleanses one CSV batch:
- Normalize the recognized columns to canonical form
- Link each record to its best fuzzy name match above the threshold
- Score each record with the isolation-forest anomaly model
- Optionally enrich records with a company label per email

Example:
  cleanse run crm_data.csv
  cleanse run crm_data.csv --out cleaned.csv --threshold 90
  cleanse run crm_data.csv --enrich --enrich-url https://api.example.com/enrich`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Output flags
	runCmd.Flags().StringVar(&outPath, "out", "cleaned.csv", "output CSV path")
	runCmd.Flags().StringVar(&reportPath, "report", "", "JSON report path (optional)")

	// Linkage and detection flags
	runCmd.Flags().IntVar(&dedupeThreshold, "threshold", 85, "duplicate match threshold (0-100)")
	runCmd.Flags().Float64Var(&contamination, "contamination", 0.05, "expected anomalous fraction of the batch")
	runCmd.Flags().Int64Var(&randomSeed, "seed", 42, "random seed for the anomaly ensemble")

	// Enrichment flags
	runCmd.Flags().BoolVar(&enrichEnabled, "enrich", false, "enable company enrichment lookups")
	runCmd.Flags().StringVar(&enrichURL, "enrich-url", "", "enrichment API base URL")
	runCmd.Flags().DurationVar(&enrichTimeout, "enrich-timeout", 10*time.Second, "per-lookup timeout")
	runCmd.Flags().IntVar(&enrichConcurrency, "enrich-concurrency", 4, "concurrent enrichment lookups")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable enrichment response cache")
	runCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist enrichment responses under this directory")

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "total run timeout")

	// LLM flags
	runCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM report summary")
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// buildConfig assembles the pipeline config from flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Linker.Threshold = dedupeThreshold
	cfg.Anomaly.Contamination = contamination
	cfg.Anomaly.Seed = randomSeed
	cfg.Enrichment.Enabled = enrichEnabled
	cfg.Enrichment.BaseURL = enrichURL
	cfg.Enrichment.Timeout = enrichTimeout
	cfg.Enrichment.Concurrency = enrichConcurrency
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Output.Verbose = verbose

	if enrichEnabled && enrichURL == "" {
		return nil, fmt.Errorf("--enrich requires --enrich-url")
	}

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	inPath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Cleansing: %s\n", inPath)
		fmt.Fprintf(os.Stderr, "Threshold: %d\n", cfg.Linker.Threshold)
		fmt.Fprintf(os.Stderr, "Contamination: %.3f\n", cfg.Anomaly.Contamination)
		fmt.Fprintf(os.Stderr, "Enrichment: %v\n", cfg.Enrichment.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.New(cfg)
	outcome, runErr := p.Run(ctx, inPath, outPath)

	renderer := pipeline.NewRenderer(os.Stderr)
	renderer.RenderSummary(outcome.Report)

	if reportPath != "" {
		if err := renderer.RenderJSON(outcome.Report, reportPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ failed to write report: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote report: %s\n", reportPath)
		}
	}

	if runErr != nil {
		return fmt.Errorf("cleanse failed: %w", runErr)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote output: %s\n", outPath)
	}
	return nil
}
