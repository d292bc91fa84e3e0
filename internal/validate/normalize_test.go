package validate

import (
	"testing"

	"github.com/sentinelpharma/grounder/internal/model"
)

func validRow(id string) model.RawRow {
	return model.RawRow{
		ClaimID:    id,
		ClaimText:  "FDA drug label entry found for aspirin",
		URL:        "https://api.fda.gov/drug/label.json?search=set_id:" + id,
		SourceName: "openFDA",
		SourceTier: "official",
		Snippet:    "Indicated for pain relief",
		Query:      "aspirin",
		FetchedAt:  "2026-03-10T11:00:00Z",
		Hash:       "abc123",
	}
}

func TestNormalizeRows_ValidRow(t *testing.T) {
	records := NormalizeRows([]model.RawRow{validRow("s1")})

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Quality.SourceTier != model.TierOfficial {
		t.Errorf("expected official tier, got %s", rec.Quality.SourceTier)
	}
	if rec.Quality.VerificationStatus != model.StatusVerified {
		t.Errorf("expected scored record, got %s", rec.Quality.VerificationStatus)
	}
	if rec.Retrieval.FetchedAt.IsZero() {
		t.Error("fetched_at not parsed")
	}
}

func TestNormalizeRows_MissingRequiredFieldsSkipped(t *testing.T) {
	noID := validRow("s1")
	noID.ClaimID = ""

	noText := validRow("s2")
	noText.ClaimText = ""

	noURL := validRow("s3")
	noURL.URL = ""

	badURL := validRow("s4")
	badURL.URL = "not a url"

	records := NormalizeRows([]model.RawRow{noID, noText, noURL, badURL, validRow("s5")})

	if len(records) != 1 {
		t.Fatalf("expected only the valid row to survive, got %d records", len(records))
	}
	if records[0].ClaimID != "s5" {
		t.Errorf("wrong survivor: %s", records[0].ClaimID)
	}
}

func TestNormalizeRows_BadFetchedAtSkipsRow(t *testing.T) {
	row := validRow("s1")
	row.FetchedAt = "yesterday-ish"

	records := NormalizeRows([]model.RawRow{row})
	if len(records) != 0 {
		t.Fatalf("expected row with unparsable fetched_at to be dropped, got %d", len(records))
	}
}

func TestNormalizeRows_MissingFetchedAtDefaultsToNow(t *testing.T) {
	row := validRow("s1")
	row.FetchedAt = ""

	records := NormalizeRows([]model.RawRow{row})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].Retrieval.FetchedAt.Equal(testNow) {
		t.Errorf("expected fetched_at defaulted to now, got %v", records[0].Retrieval.FetchedAt)
	}
}

func TestNormalizeRows_BadPublishedAtDropped(t *testing.T) {
	row := validRow("s1")
	row.PublishedAt = "March sometime"

	records := NormalizeRows([]model.RawRow{row})
	if len(records) != 1 {
		t.Fatalf("expected row to survive bad published_at, got %d", len(records))
	}
	if records[0].Source.PublishedAt != nil {
		t.Error("expected unparsable published_at to be dropped to nil")
	}
}

func TestNormalizeRows_UnknownTierDefaultsToOther(t *testing.T) {
	row := validRow("s1")
	row.SourceTier = "blog"

	records := NormalizeRows([]model.RawRow{row})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Quality.SourceTier != model.TierOther {
		t.Errorf("expected tier other, got %s", records[0].Quality.SourceTier)
	}
}

func TestNormalizeRows_ZonelessTimestampTreatedAsUTC(t *testing.T) {
	row := validRow("s1")
	row.FetchedAt = "2026-03-10T10:00:00"

	records := NormalizeRows([]model.RawRow{row})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].Quality.FreshnessHours; got != 2 {
		t.Errorf("expected 2h freshness for zone-less UTC timestamp, got %v", got)
	}
}
