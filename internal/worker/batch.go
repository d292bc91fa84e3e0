package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sentinelpharma/grounder/internal/model"
)

// Analyzer defines the interface for analyzing a single molecule
type Analyzer interface {
	Analyze(ctx context.Context, molecule string) (*model.Report, error)
}

// AnalyzeJob represents a molecule analysis job
type AnalyzeJob struct {
	Molecule string
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.Analyze(ctx, j.Molecule)
	return &AnalyzeResult{
		Molecule: j.Molecule,
		Report:   report,
		Error:    err,
	}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Molecule string
	Report   *model.Report
	Error    error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple molecules concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessMolecules analyzes multiple molecules concurrently
func (b *BatchProcessor) ProcessMolecules(ctx context.Context, molecules []string) []*AnalyzeResult {
	if len(molecules) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, molecule := range molecules {
		job := &AnalyzeJob{
			Molecule: molecule,
			Analyzer: b.analyzer,
		}
		pool.Submit(job)
	}

	results := pool.Wait()

	analyzeResults := make([]*AnalyzeResult, len(results))
	for i, result := range results {
		analyzeResults[i] = result.(*AnalyzeResult)
	}

	return analyzeResults
}

// ProcessFile reads molecule names from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	molecules, err := ReadMoleculesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read molecules: %w", err)
	}

	return b.ProcessMolecules(ctx, molecules), nil
}

// ReadMoleculesFromFile reads molecule names from a file (one per line)
func ReadMoleculesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var molecules []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate, case-insensitively
		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			molecules = append(molecules, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return molecules, nil
}
