package model

// ClaimRecord is the caller-facing view of one claim derived from evidence
type ClaimRecord struct {
	ClaimID            string             `json:"claim_id"`
	ClaimText          string             `json:"claim_text"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	SupportCount       int                `json:"support_count"`
}
