package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinelpharma/grounder/internal/model"
	"github.com/sentinelpharma/grounder/internal/pipeline"
	"github.com/sentinelpharma/grounder/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple molecules from a file in parallel",
	Long: `Batch analyzes multiple molecules concurrently:
- Read molecule names from input file (one per line)
- Analyze molecules in parallel with configurable worker count
- Each analysis fans out to all configured sources
- Generate an individual report per molecule

Example:
  grounder batch molecules.txt
  grounder batch molecules.txt --concurrency 8 --output-dir ./reports
  grounder batch molecules.txt --profile clinical --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./grounder-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&profileName, "profile", "regulatory", "analysis profile (regulatory, clinical, literature)")
	batchCmd.Flags().BoolVar(&strictMode, "strict", true, "abstain on conflicting or stale evidence")

	batchCmd.Flags().DurationVar(&timeout, "analysis-timeout", 60*time.Second, "timeout for individual analyses")
	batchCmd.Flags().StringVar(&userAgent, "ua", "Grounder/0.1 (+https://github.com/sentinelpharma/grounder)", "HTTP User-Agent")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response cache (force fresh fetches)")
	batchCmd.Flags().IntVar(&rowLimit, "row-limit", 5, "max rows requested per source")
	batchCmd.Flags().StringSliceVar(&newsFeeds, "news-feed", nil, "news page URL to scan (repeatable, {query} is replaced)")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// LLM flags
	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM narrative generation")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// profileAnalyzer adapts the pipeline to the batch worker with a fixed profile
type profileAnalyzer struct {
	pipeline *pipeline.Pipeline
	profile  pipeline.Profile
}

func (a *profileAnalyzer) Analyze(ctx context.Context, molecule string) (*model.Report, error) {
	return a.pipeline.AnalyzeProfile(ctx, molecule, a.profile)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	profile, err := pipeline.ParseProfile(profileName)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Grounder Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Profile:      %s\n", profile)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.HTTP.Timeout = timeout
	cfg.Concurrency.BatchWorkers = concurrency

	if llmEnabled {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", llmProvider, llmModel)
	}

	// Create output directory
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.NewPipeline(cfg)
	analyzer := &profileAnalyzer{pipeline: p, profile: profile}
	processor := worker.NewBatchProcessor(analyzer, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading molecules from file...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d molecules\n", len(results))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Processing molecules with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	successCount := 0
	abstainCount := 0
	failureCount := 0

	renderer := pipeline.NewRenderer()
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Molecule, result.Error)
			continue
		}

		successCount++
		if result.Report.Envelope.Abstained {
			abstainCount++
		}

		jsonPath := filepath.Join(outputDir, sanitizeFilename(result.Molecule)+".json")
		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Molecule, err)
			continue
		}

		if result.Report.Envelope.Abstained {
			fmt.Fprintf(os.Stderr, "✓ %s (ABSTAINED: %s)\n", result.Molecule, *result.Report.Envelope.AbstainReason)
		} else {
			fmt.Fprintf(os.Stderr, "✓ %s (%d records verified=%d)\n",
				result.Molecule,
				len(result.Report.Envelope.Evidence),
				result.Report.Envelope.VerificationSummary.VerifiedCount)
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d molecules\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:    %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Abstained:  %d\n", abstainCount)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename sanitizes a molecule name for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
