package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinelpharma/grounder/internal/pipeline"
	"github.com/sentinelpharma/grounder/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis pipeline as an HTTP service",
	Long: `Serve exposes the analysis pipeline over HTTP:
- POST /analyze {"molecule": "...", "profile": "...", "strict": true}
- GET /healthz

Each request is analyzed independently; nothing is shared or persisted
between requests.

Example:
  grounder serve
  grounder serve --addr :9090
  grounder serve --llm --llm-provider openai`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&strictMode, "strict", true, "abstain on conflicting or stale evidence")
	serveCmd.Flags().IntVar(&rowLimit, "row-limit", 5, "max rows requested per source")
	serveCmd.Flags().StringSliceVar(&newsFeeds, "news-feed", nil, "news page URL to scan (repeatable, {query} is replaced)")

	// LLM flags
	serveCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM narrative generation")
	serveCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	serveCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Server.Addr = serveAddr

	fmt.Fprintf(os.Stderr, "Listening on %s\n", serveAddr)

	s := server.NewServer(pipeline.NewPipeline(cfg), cfg)
	return s.Run()
}
