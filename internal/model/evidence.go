package model

import "time"

// SourceTier classifies where a piece of evidence originated
type SourceTier string

const (
	TierOfficial     SourceTier = "official"      // Regulatory registries, government databases
	TierPeerReviewed SourceTier = "peer-reviewed" // Indexed literature
	TierNews         SourceTier = "news"          // Press and industry news
	TierOther        SourceTier = "other"         // Everything else
)

// ParseSourceTier maps a raw tier string to a SourceTier, defaulting to TierOther
func ParseSourceTier(raw string) SourceTier {
	switch SourceTier(raw) {
	case TierOfficial, TierPeerReviewed, TierNews:
		return SourceTier(raw)
	default:
		return TierOther
	}
}

// VerificationStatus is the per-record outcome of quality scoring
type VerificationStatus string

const (
	StatusVerified    VerificationStatus = "verified"
	StatusPartial     VerificationStatus = "partially_verified"
	StatusUnverified  VerificationStatus = "unverified"
	StatusConflicting VerificationStatus = "conflicting"
)

// EvidenceSource records the provenance of one fact
type EvidenceSource struct {
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	DocumentID  string     `json:"document_id,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"` // Source's claimed publication time
}

// EvidenceRetrieval records how and when the fact was obtained
type EvidenceRetrieval struct {
	FetchedAt time.Time `json:"fetched_at"`
	Query     string    `json:"query"`
	Snippet   string    `json:"snippet"`
	Hash      string    `json:"hash"` // Content fingerprint for dedup/audit
}

// EvidenceQuality holds the validator's trust assessment. Mutated in place
// by scoring and conflict detection; never shared across requests.
type EvidenceQuality struct {
	SourceTier         SourceTier         `json:"source_tier"`
	Confidence         float64            `json:"confidence"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	FreshnessHours     float64            `json:"freshness_hours"`
}

// EvidenceRecord is the unit the validator scores: a claim plus its
// provenance, retrieval metadata, and quality assessment
type EvidenceRecord struct {
	ClaimID   string            `json:"claim_id"`
	ClaimText string            `json:"claim_text"`
	Source    EvidenceSource    `json:"source"`
	Retrieval EvidenceRetrieval `json:"retrieval"`
	Quality   EvidenceQuality   `json:"quality"`
}
