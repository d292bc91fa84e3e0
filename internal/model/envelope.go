package model

import "time"

// MaxAgeSentinel is reported as max_age_hours when no evidence exists
const MaxAgeSentinel = 9999.0

// VerificationSummary counts records by verification status.
// The four counts always sum to the number of records summarized.
type VerificationSummary struct {
	VerifiedCount    int `json:"verified_count"`
	PartialCount     int `json:"partial_count"`
	UnverifiedCount  int `json:"unverified_count"`
	ConflictingCount int `json:"conflicting_count"`
}

// Total returns the number of records behind the summary
func (s VerificationSummary) Total() int {
	return s.VerifiedCount + s.PartialCount + s.UnverifiedCount + s.ConflictingCount
}

// FreshnessSummary aggregates fetch recency across a record set
type FreshnessSummary struct {
	LatestFetchAt *time.Time `json:"latest_fetch_at,omitempty"`
	MaxAgeHours   float64    `json:"max_age_hours"`
}

// GroundingEnvelope is the result contract returned to any caller.
// AbstainReason is present iff Abstained is true.
type GroundingEnvelope struct {
	Evidence            []*EvidenceRecord   `json:"evidence"`
	Claims              []ClaimRecord       `json:"claims"`
	VerificationSummary VerificationSummary `json:"verification_summary"`
	FreshnessSummary    FreshnessSummary    `json:"freshness_summary"`
	Abstained           bool                `json:"abstained"`
	AbstainReason       *string             `json:"abstain_reason,omitempty"`
}
