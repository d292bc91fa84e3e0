package validate

import (
	"net/url"
	"time"

	"github.com/sentinelpharma/grounder/internal/model"
)

// timestampLayouts are tried in order when parsing connector timestamps.
// The zone-less layouts parse in UTC per the raw-row contract.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeRows turns loose connector rows into scored evidence records.
// Rows missing claim_id, claim_text, or a parseable URL are skipped, as are
// rows whose fetched_at cannot be parsed; a bad row never fails the batch.
// Every accepted record has quality defaults applied before return.
func NormalizeRows(rows []model.RawRow) []*model.EvidenceRecord {
	records := make([]*model.EvidenceRecord, 0, len(rows))

	for _, row := range rows {
		if row.ClaimID == "" || row.ClaimText == "" || row.URL == "" {
			continue
		}
		if u, err := url.Parse(row.URL); err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}

		fetchedAt := nowFunc().UTC()
		if row.FetchedAt != "" {
			ts, err := parseTimestamp(row.FetchedAt)
			if err != nil {
				continue
			}
			fetchedAt = ts
		}

		var publishedAt *time.Time
		if row.PublishedAt != "" {
			// Unparsable publication times are dropped, not fatal
			if ts, err := parseTimestamp(row.PublishedAt); err == nil {
				publishedAt = &ts
			}
		}

		sourceName := row.SourceName
		if sourceName == "" {
			sourceName = "Unknown"
		}

		rec := &model.EvidenceRecord{
			ClaimID:   row.ClaimID,
			ClaimText: row.ClaimText,
			Source: model.EvidenceSource{
				Name:        sourceName,
				URL:         row.URL,
				DocumentID:  row.DocumentID,
				PublishedAt: publishedAt,
			},
			Retrieval: model.EvidenceRetrieval{
				FetchedAt: fetchedAt,
				Query:     row.Query,
				Snippet:   row.Snippet,
				Hash:      row.Hash,
			},
			Quality: model.EvidenceQuality{
				SourceTier: model.ParseSourceTier(row.SourceTier),
			},
		}

		records = append(records, ApplyQualityDefaults(rec))
	}

	return records
}

func parseTimestamp(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
