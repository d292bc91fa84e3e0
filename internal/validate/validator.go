package validate

import (
	"math"
	"strings"
	"time"

	"github.com/sentinelpharma/grounder/internal/model"
)

// nowFunc is the clock used for freshness scoring (injectable for tests)
var nowFunc = time.Now

// sourceTrust maps source tiers to base trust scores
var sourceTrust = map[model.SourceTier]float64{
	model.TierOfficial:     0.95,
	model.TierPeerReviewed: 0.85,
	model.TierNews:         0.65,
	model.TierOther:        0.50,
}

// freshnessSLA maps source tiers to the staleness SLA in hours.
// Official and news sources go stale within a day; literature keeps
// its value far longer.
var freshnessSLA = map[model.SourceTier]float64{
	model.TierOfficial:     24,
	model.TierPeerReviewed: 24 * 24,
	model.TierNews:         24,
	model.TierOther:        24 * 7,
}

const stalePenalty = 0.25

// positiveTerms and negativeTerms drive polarity-clash conflict detection
var positiveTerms = []string{
	"approved", "eligible", "positive", "cleared", "granted", "aligned", "safe",
}

var negativeTerms = []string{
	"rejected", "denied", "warning", "withdrawn", "failed", "hold", "safety concern",
}

// FreshnessHours returns the hours elapsed since ts, clamped at zero.
// Zone handling happens at the normalization boundary: timestamps parsed
// without an explicit zone are already anchored to UTC there.
func FreshnessHours(ts time.Time) float64 {
	hours := nowFunc().UTC().Sub(ts).Hours()
	return math.Max(hours, 0)
}

// ApplyQualityDefaults scores a single record: freshness, tier-based trust,
// staleness penalty, and the resulting verification status. The record's
// quality fields are mutated in place and the same record is returned.
// Deterministic given the record and the current instant.
func ApplyQualityDefaults(rec *model.EvidenceRecord) *model.EvidenceRecord {
	rec.Quality.FreshnessHours = FreshnessHours(rec.Retrieval.FetchedAt)

	base, ok := sourceTrust[rec.Quality.SourceTier]
	if !ok {
		base = 0.50
	}

	sla, ok := freshnessSLA[rec.Quality.SourceTier]
	if !ok {
		sla = 24 * 7
	}

	confidence := base
	if rec.Quality.FreshnessHours > sla {
		confidence -= stalePenalty
	}
	confidence = math.Max(math.Min(confidence, 1.0), 0.0)
	rec.Quality.Confidence = round2(confidence)

	switch {
	case confidence >= 0.85:
		rec.Quality.VerificationStatus = model.StatusVerified
	case confidence >= 0.65:
		rec.Quality.VerificationStatus = model.StatusPartial
	default:
		rec.Quality.VerificationStatus = model.StatusUnverified
	}

	return rec
}

// DetectAndMarkConflicts marks polarity clashes across records answering the
// same question. Records are grouped by normalized retrieval query; if any
// member of a group (of size >= 2) matches a positive term and any member
// matches a negative term, the whole group is marked conflicting and each
// member's confidence is capped at 0.5. Safe to re-run: already-conflicting
// groups come out unchanged.
func DetectAndMarkConflicts(records []*model.EvidenceRecord) []*model.EvidenceRecord {
	grouped := make(map[string][]*model.EvidenceRecord)
	for _, rec := range records {
		key := strings.ToLower(strings.TrimSpace(rec.Retrieval.Query))
		grouped[key] = append(grouped[key], rec)
	}

	for _, group := range grouped {
		if len(group) < 2 {
			continue
		}

		hasPositive := false
		hasNegative := false
		for _, rec := range group {
			text := strings.ToLower(rec.ClaimText + " " + rec.Retrieval.Snippet)
			if containsAny(text, positiveTerms) {
				hasPositive = true
			}
			if containsAny(text, negativeTerms) {
				hasNegative = true
			}
		}

		if hasPositive && hasNegative {
			for _, rec := range group {
				rec.Quality.VerificationStatus = model.StatusConflicting
				rec.Quality.Confidence = math.Min(rec.Quality.Confidence, 0.5)
			}
		}
	}

	return records
}

// SummarizeVerification counts records into the four status buckets.
// The counts always sum to len(records).
func SummarizeVerification(records []*model.EvidenceRecord) model.VerificationSummary {
	var summary model.VerificationSummary
	for _, rec := range records {
		switch rec.Quality.VerificationStatus {
		case model.StatusVerified:
			summary.VerifiedCount++
		case model.StatusPartial:
			summary.PartialCount++
		case model.StatusConflicting:
			summary.ConflictingCount++
		default:
			summary.UnverifiedCount++
		}
	}
	return summary
}

// SummarizeFreshness reports the most recent fetch and the oldest age across
// the set. An empty set yields no fetch time and the very-stale sentinel.
func SummarizeFreshness(records []*model.EvidenceRecord) model.FreshnessSummary {
	if len(records) == 0 {
		return model.FreshnessSummary{MaxAgeHours: model.MaxAgeSentinel}
	}

	latest := records[0].Retrieval.FetchedAt
	maxAge := records[0].Quality.FreshnessHours
	for _, rec := range records[1:] {
		if rec.Retrieval.FetchedAt.After(latest) {
			latest = rec.Retrieval.FetchedAt
		}
		if rec.Quality.FreshnessHours > maxAge {
			maxAge = rec.Quality.FreshnessHours
		}
	}

	return model.FreshnessSummary{
		LatestFetchAt: &latest,
		MaxAgeHours:   round2(maxAge),
	}
}

// Abstention reasons, in precedence order
const (
	ReasonNoEvidence  = "No verified evidence found from configured real-time sources"
	ReasonConflicting = "Conflicting evidence detected across trusted sources"
	ReasonWeak        = "Evidence quality is too weak to support factual claims"
	ReasonStale       = "Evidence is stale for real-time regulatory/news usage"
)

// ShouldAbstain decides whether a narrative may be produced from the given
// records. The precedence order is fixed: emptiness, then conflict (strict
// only), then weakness, then staleness (strict only). Returns the reason
// string when abstaining, "" otherwise.
func ShouldAbstain(records []*model.EvidenceRecord, strict bool) (bool, string) {
	if len(records) == 0 {
		return true, ReasonNoEvidence
	}

	if strict {
		for _, rec := range records {
			if rec.Quality.VerificationStatus == model.StatusConflicting {
				return true, ReasonConflicting
			}
		}
	}

	var verifiedLike []*model.EvidenceRecord
	for _, rec := range records {
		if rec.Quality.VerificationStatus == model.StatusVerified ||
			rec.Quality.VerificationStatus == model.StatusPartial {
			verifiedLike = append(verifiedLike, rec)
		}
	}
	if len(verifiedLike) == 0 {
		return true, ReasonWeak
	}

	if strict {
		for _, rec := range verifiedLike {
			tier := rec.Quality.SourceTier
			if (tier == model.TierOfficial || tier == model.TierNews) && rec.Quality.FreshnessHours > 24 {
				return true, ReasonStale
			}
		}
	}

	return false, ""
}

// TruthStatus bundles the aggregate view the abstention decision is based on
type TruthStatus struct {
	VerificationSummary model.VerificationSummary `json:"verification_summary"`
	FreshnessSummary    model.FreshnessSummary    `json:"freshness_summary"`
	Abstained           bool                      `json:"abstained"`
	AbstainReason       *string                   `json:"abstain_reason,omitempty"`
}

// BuildTruthStatus re-runs conflict detection, summarizes, and decides
// abstention in one pass. Idempotent: calling it twice on the same records
// at the same instant yields the same result.
func BuildTruthStatus(records []*model.EvidenceRecord) TruthStatus {
	records = DetectAndMarkConflicts(records)
	abstained, reason := ShouldAbstain(records, true)

	status := TruthStatus{
		VerificationSummary: SummarizeVerification(records),
		FreshnessSummary:    SummarizeFreshness(records),
		Abstained:           abstained,
	}
	if abstained {
		status.AbstainReason = &reason
	}
	return status
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
