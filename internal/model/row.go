package model

// RawRow is the loose per-source record emitted by connectors before
// normalization. ClaimID, ClaimText and URL are required; rows missing
// any of them are skipped at the normalization boundary. Timestamps are
// ISO-8601 strings because connectors pass through upstream payloads.
type RawRow struct {
	ClaimID     string `json:"claim_id"`
	ClaimText   string `json:"claim_text"`
	URL         string `json:"url"`
	SourceName  string `json:"source_name"`
	SourceTier  string `json:"source_tier"`
	Snippet     string `json:"snippet"`
	Query       string `json:"query"`
	FetchedAt   string `json:"fetched_at"`
	Hash        string `json:"hash"`
	DocumentID  string `json:"document_id,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}
