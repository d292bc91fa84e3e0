package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelpharma/grounder/internal/cache"
	"github.com/sentinelpharma/grounder/internal/connector"
	"github.com/sentinelpharma/grounder/internal/llm"
	"github.com/sentinelpharma/grounder/internal/model"
	"github.com/sentinelpharma/grounder/internal/score"
	"github.com/sentinelpharma/grounder/internal/util"
	"github.com/sentinelpharma/grounder/internal/validate"
	"github.com/sentinelpharma/grounder/internal/worker"
)

// Pipeline orchestrates one analysis: source fan-out, normalization,
// conflict detection, the abstention decision and the grounded narrative.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	fda      *connector.FDAConnector
	ctgov    *connector.ClinicalTrialsConnector
	pubmed   *connector.PubMedConnector
	news     *connector.NewsConnector
	narrator *llm.Narrator
	scorer   *score.Scorer
	renderer *Renderer
	config   *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	limiter := worker.NewLimiter(cfg.Concurrency.RatePerHost, cfg.Concurrency.Burst)

	var responseCache cache.Cache
	if cfg.Cache.Enabled {
		responseCache = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
	}

	client := connector.NewClient(cfg.HTTP, limiter, responseCache, cfg.Cache.TTL)
	robots := util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to initialize LLM provider: %v\n", err)
		} else {
			provider = p
		}
	}

	return &Pipeline{
		fda:      connector.NewFDAConnector(client, cfg.Connectors.FDABaseURL),
		ctgov:    connector.NewClinicalTrialsConnector(client, cfg.Connectors.CTGovBaseURL),
		pubmed:   connector.NewPubMedConnector(client, cfg.Connectors.PubMedBaseURL),
		news:     connector.NewNewsConnector(client, robots, cfg.Connectors.NewsFeeds),
		narrator: llm.NewNarrator(provider, llm.ConfigFromModel(cfg.LLM, cfg.HTTP)),
		scorer:   score.NewScorer(),
		renderer: NewRenderer(),
		config:   cfg,
	}
}

// queryRewriter widens or narrows the search term for one source
type queryRewriter struct {
	connector.Connector
	rewrite func(string) string
}

func (q queryRewriter) Search(ctx context.Context, query string, limit int) ([]model.RawRow, error) {
	return q.Connector.Search(ctx, q.rewrite(query), limit)
}

// sources returns the connectors queried for a profile
func (p *Pipeline) sources(profile Profile) []connector.Connector {
	switch profile {
	case ProfileClinical:
		return []connector.Connector{p.ctgov, p.pubmed}
	case ProfileLiterature:
		return []connector.Connector{p.pubmed, p.news}
	default:
		// Trial registry search widened to approval activity
		ct := queryRewriter{
			Connector: p.ctgov,
			rewrite:   func(q string) string { return q + " regulatory approval" },
		}
		return []connector.Connector{p.fda, ct}
	}
}

// Analyze runs the full analysis for one molecule under the default profile
func (p *Pipeline) Analyze(ctx context.Context, molecule string) (*model.Report, error) {
	return p.AnalyzeProfile(ctx, molecule, ProfileRegulatory)
}

// AnalyzeProfile runs the full analysis for one molecule
func (p *Pipeline) AnalyzeProfile(ctx context.Context, molecule string, profile Profile) (*model.Report, error) {
	if molecule == "" {
		return nil, fmt.Errorf("molecule is required")
	}

	started := time.Now()
	connectors := p.sources(profile)

	// 1. Fan out to every source; a failed source yields zero rows
	results := connector.Gather(ctx, connectors, molecule, p.config.Connectors.RowLimit)

	sources := make([]model.SourceStatus, 0, len(results))
	dataSources := make([]string, 0, len(results))
	for _, res := range results {
		status := model.SourceStatus{Name: res.Name, Rows: len(res.Rows)}
		if res.Err != nil {
			status.Rows = 0
			status.Error = res.Err.Error()
			fmt.Fprintf(os.Stderr, "Warning: source %s failed: %v\n", res.Name, res.Err)
		}
		sources = append(sources, status)
		dataSources = append(dataSources, res.Name)
	}

	// 2. Normalize, score and mark conflicts
	evidence := validate.NormalizeRows(connector.MergeRows(results))
	evidence = validate.DetectAndMarkConflicts(evidence)

	// 3. Summaries and the abstention decision
	verification := validate.SummarizeVerification(evidence)
	freshness := validate.SummarizeFreshness(evidence)
	abstained, reason := validate.ShouldAbstain(evidence, p.config.Strict)

	claims := make([]model.ClaimRecord, 0, len(evidence))
	for _, rec := range evidence {
		claims = append(claims, model.ClaimRecord{
			ClaimID:            rec.ClaimID,
			ClaimText:          rec.ClaimText,
			VerificationStatus: rec.Quality.VerificationStatus,
			SupportCount:       1,
		})
	}

	envelope := model.GroundingEnvelope{
		Evidence:            evidence,
		Claims:              claims,
		VerificationSummary: verification,
		FreshnessSummary:    freshness,
		Abstained:           abstained,
	}
	if abstained {
		envelope.AbstainReason = &reason
	}

	// 4. Narrative: refusal on abstention, grounded generation otherwise
	narrative := llm.RefusalMessage
	if !abstained {
		narrative = p.narrator.Narrate(ctx, evidence)
	}

	report := &model.Report{
		AnalysisID:       uuid.NewString(),
		Molecule:         molecule,
		Profile:          string(profile),
		StartedAt:        started.UTC(),
		Envelope:         envelope,
		Narrative:        narrative,
		Metrics:          p.metrics(ctx, molecule, profile, evidence, verification, abstained),
		Sources:          sources,
		DataSources:      dataSources,
		ProcessingTimeMS: round2(float64(time.Since(started).Microseconds()) / 1000),
	}

	return report, nil
}

// metrics computes the profile-specific derived numbers
func (p *Pipeline) metrics(ctx context.Context, molecule string, profile Profile, evidence []*model.EvidenceRecord, vs model.VerificationSummary, abstained bool) map[string]any {
	switch profile {
	case ProfileClinical:
		total, err := p.ctgov.Count(ctx, molecule)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: trial count failed: %v\n", err)
		}
		phases, err := p.ctgov.PhaseCounts(ctx, molecule, 50)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: phase counts failed: %v\n", err)
		}
		return p.scorer.Clinical(total, phases, evidence)
	case ProfileLiterature:
		return p.scorer.Literature(evidence, vs)
	default:
		return p.scorer.Regulatory(molecule, evidence, vs, abstained)
	}
}

// RenderReport writes the report to the configured outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	p.renderer.RenderSummary(report, os.Stderr)
	return nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
