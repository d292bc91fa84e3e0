package model

import "time"

// Report is the complete result of one analysis request. Each report is
// built fresh from connector output and discarded after serialization;
// nothing in it survives across requests.
type Report struct {
	AnalysisID string    `json:"analysis_id"` // Unique per request
	Molecule   string    `json:"molecule"`
	Profile    string    `json:"profile"`
	StartedAt  time.Time `json:"started_at"`

	Envelope  GroundingEnvelope `json:"grounding"`
	Narrative string            `json:"narrative"`

	// Derived profile metrics (deterministic, seeded by molecule name)
	Metrics map[string]any `json:"metrics,omitempty"`

	Sources          []SourceStatus `json:"sources"`
	DataSources      []string       `json:"data_sources"`
	ProcessingTimeMS float64        `json:"processing_time_ms"`
}

// SourceStatus records the per-connector outcome of the fan-out
type SourceStatus struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}
