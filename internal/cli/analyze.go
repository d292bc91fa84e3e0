package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinelpharma/grounder/internal/model"
	"github.com/sentinelpharma/grounder/internal/pipeline"
)

var (
	outJSON     string
	profileName string
	strictMode  bool
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	rowLimit    int
	newsFeeds   []string
	httpProxy   string
	httpsProxy  string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <molecule>",
	Short: "Analyze a single molecule and generate a grounded report",
	Long: `Analyze gathers real-time evidence about a drug molecule:
- Query openFDA, ClinicalTrials.gov, PubMed and configured news feeds
- Score every record for source authority and retrieval freshness
- Detect conflicting evidence within the same query
- Abstain when verified evidence is missing, conflicting, weak or stale
- Generate a narrative grounded only in the fetched records

Example:
  grounder analyze semaglutide
  grounder analyze semaglutide --profile clinical --json report.json
  grounder analyze metformin --llm --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&profileName, "profile", "regulatory", "analysis profile (regulatory, clinical, literature)")
	analyzeCmd.Flags().BoolVar(&strictMode, "strict", true, "abstain on conflicting or stale evidence")

	// HTTP flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().StringVar(&userAgent, "ua", "Grounder/0.1 (+https://github.com/sentinelpharma/grounder)", "HTTP User-Agent")
	analyzeCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response cache (force fresh fetches)")
	analyzeCmd.Flags().IntVar(&rowLimit, "row-limit", 5, "max rows requested per source")
	analyzeCmd.Flags().StringSliceVar(&newsFeeds, "news-feed", nil, "news page URL to scan (repeatable, {query} is replaced)")
	analyzeCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	analyzeCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// LLM flags
	analyzeCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM narrative generation")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// buildConfig assembles the pipeline configuration from flags
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if timeout != 0 {
		cfg.HTTP.Timeout = timeout
	}
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if maxBytes != 0 {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if rowLimit != 0 {
		cfg.Connectors.RowLimit = rowLimit
	}
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.Cache.Enabled = !noCache
	cfg.Connectors.NewsFeeds = newsFeeds
	cfg.Output.Verbose = verbose
	cfg.Strict = strictMode

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		// Get API key from environment
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	molecule := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	profile, err := pipeline.ParseProfile(profileName)
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", molecule)
		fmt.Fprintf(os.Stderr, "Profile: %s\n", profile)
		fmt.Fprintf(os.Stderr, "Strict: %v\n", cfg.Strict)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg)

	report, err := p.AnalyzeProfile(ctx, molecule, profile)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Gathered %d evidence records\n", len(report.Envelope.Evidence))
		if report.Envelope.Abstained {
			fmt.Fprintf(os.Stderr, "✗ Abstained: %s\n", *report.Envelope.AbstainReason)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
