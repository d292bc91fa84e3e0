package connector

import (
	"context"
	"sync"

	"github.com/sentinelpharma/grounder/internal/model"
)

// Connector fetches raw evidence rows from one external catalog.
// Implementations shape upstream payloads into the raw-row contract;
// normalization and scoring happen downstream in the validator.
type Connector interface {
	// Name identifies the source (used in per-source status reporting)
	Name() string

	// Search returns up to limit raw rows for the query
	Search(ctx context.Context, query string, limit int) ([]model.RawRow, error)
}

// SourceResult is the per-connector outcome of a fan-out
type SourceResult struct {
	Name string
	Rows []model.RawRow
	Err  error
}

// Gather invokes every connector concurrently and waits for all of them.
// A failing connector yields an empty result for that source; it never
// cancels its siblings and never fails the batch.
func Gather(ctx context.Context, connectors []Connector, query string, limit int) []SourceResult {
	results := make([]SourceResult, len(connectors))
	var wg sync.WaitGroup

	for i, c := range connectors {
		wg.Add(1)
		go func(idx int, conn Connector) {
			defer wg.Done()

			rows, err := conn.Search(ctx, query, limit)
			results[idx] = SourceResult{
				Name: conn.Name(),
				Rows: rows,
				Err:  err,
			}
		}(i, c)
	}

	wg.Wait()
	return results
}

// MergeRows flattens successful source results into one row slice
func MergeRows(results []SourceResult) []model.RawRow {
	var rows []model.RawRow
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		rows = append(rows, res.Rows...)
	}
	return rows
}
