package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sentinelpharma/grounder/internal/model"
)

// Renderer writes reports to files and human-readable summaries
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// WriteJSON streams the report as indented JSON to a writer
func (r *Renderer) WriteJSON(report *model.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RenderSummary writes a short human-readable digest
func (r *Renderer) RenderSummary(report *model.Report, w io.Writer) {
	vs := report.Envelope.VerificationSummary

	fmt.Fprintf(w, "Molecule:  %s (profile: %s)\n", report.Molecule, report.Profile)
	fmt.Fprintf(w, "Evidence:  %d records (verified=%d partial=%d unverified=%d conflicting=%d)\n",
		len(report.Envelope.Evidence), vs.VerifiedCount, vs.PartialCount, vs.UnverifiedCount, vs.ConflictingCount)
	fmt.Fprintf(w, "Max age:   %.1fh\n", report.Envelope.FreshnessSummary.MaxAgeHours)

	for _, src := range report.Sources {
		if src.Error != "" {
			fmt.Fprintf(w, "Source:    %s FAILED (%s)\n", src.Name, src.Error)
			continue
		}
		fmt.Fprintf(w, "Source:    %s (%d rows)\n", src.Name, src.Rows)
	}

	if report.Envelope.Abstained {
		reason := ""
		if report.Envelope.AbstainReason != nil {
			reason = *report.Envelope.AbstainReason
		}
		fmt.Fprintf(w, "Decision:  ABSTAINED (%s)\n", reason)
		return
	}
	fmt.Fprintf(w, "Decision:  proceed (%.0fms)\n", report.ProcessingTimeMS)
}
