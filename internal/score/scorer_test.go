package score

import (
	"strings"
	"testing"

	"github.com/sentinelpharma/grounder/internal/model"
)

func tierRecord(tier model.SourceTier, snippet string) *model.EvidenceRecord {
	return &model.EvidenceRecord{
		ClaimID:   "claim-1",
		ClaimText: "claim text",
		Retrieval: model.EvidenceRetrieval{Snippet: snippet},
		Quality:   model.EvidenceQuality{SourceTier: tier},
	}
}

func TestDrugSeedDeterministic(t *testing.T) {
	if DrugSeed("Aspirin") != DrugSeed("  aspirin  ") {
		t.Error("expected seed to ignore case and whitespace")
	}
	if DrugSeed("aspirin") == DrugSeed("metformin") {
		t.Error("expected different molecules to have different seeds")
	}
}

func TestRegulatoryMetrics_StrongEvidence(t *testing.T) {
	scorer := NewScorer()

	evidence := []*model.EvidenceRecord{
		tierRecord(model.TierOfficial, ""),
		tierRecord(model.TierOfficial, ""),
		tierRecord(model.TierOfficial, ""),
		tierRecord(model.TierOfficial, ""),
		tierRecord(model.TierOfficial, ""),
	}
	vs := model.VerificationSummary{VerifiedCount: 4, PartialCount: 2}

	metrics := scorer.Regulatory("semaglutide", evidence, vs, false)

	risk := metrics["risk_score"].(float64)
	// 7.8 - min(5*0.4, 2.0) - min(6*0.25, 1.5) = 4.3
	if risk != 4.3 {
		t.Errorf("expected risk 4.3, got %v", risk)
	}
	if metrics["risk_level"] != "Moderate Risk" {
		t.Errorf("expected Moderate Risk, got %v", metrics["risk_level"])
	}

	prob := metrics["fda_approval_probability"].(float64)
	// 0.45 + 6*0.05 = 0.75
	if prob != 0.75 {
		t.Errorf("expected probability 0.75, got %v", prob)
	}

	timeline := metrics["estimated_timeline_months"].(int)
	// 30 - min(5*2, 10) = 20
	if timeline != 20 {
		t.Errorf("expected 20 months, got %d", timeline)
	}
	if metrics["approval_timeline"] != "14-20 months" {
		t.Errorf("unexpected approval_timeline %v", metrics["approval_timeline"])
	}

	// 62 + 6*4 + 5*3 = 101 -> capped 98 -> grade A
	if metrics["compliance_score"].(int) != 98 {
		t.Errorf("expected compliance 98, got %v", metrics["compliance_score"])
	}
	if metrics["compliance_grade"] != "A" {
		t.Errorf("expected grade A, got %v", metrics["compliance_grade"])
	}
	if metrics["warning_count"].(int) != 0 {
		t.Errorf("expected 0 warnings, got %v", metrics["warning_count"])
	}
	if metrics["ema_status"] != "Aligned" {
		t.Errorf("expected EMA Aligned, got %v", metrics["ema_status"])
	}
	if metrics["fda_status"] != "Evidence-backed" {
		t.Errorf("expected Evidence-backed, got %v", metrics["fda_status"])
	}
}

func TestRegulatoryMetrics_NoEvidence(t *testing.T) {
	scorer := NewScorer()

	metrics := scorer.Regulatory("unknowndrug", nil, model.VerificationSummary{}, true)

	risk := metrics["risk_score"].(float64)
	if risk != 7.8 {
		t.Errorf("expected baseline risk 7.8, got %v", risk)
	}
	if metrics["risk_level"] != "Very High Risk" {
		t.Errorf("expected Very High Risk, got %v", metrics["risk_level"])
	}
	if metrics["fda_approval_probability"].(float64) != 0.45 {
		t.Errorf("expected base probability 0.45, got %v", metrics["fda_approval_probability"])
	}
	if metrics["estimated_timeline_months"].(int) != 30 {
		t.Errorf("expected 30 months, got %v", metrics["estimated_timeline_months"])
	}
	if metrics["warning_count"].(int) != 3 {
		t.Errorf("expected 3 warnings, got %v", metrics["warning_count"])
	}
	if metrics["fda_status"] != "Insufficient verified evidence" {
		t.Errorf("expected abstained status, got %v", metrics["fda_status"])
	}
	if metrics["ema_status"] != "Unknown" {
		t.Errorf("expected EMA Unknown, got %v", metrics["ema_status"])
	}
	if metrics["safety_monitoring"] != "Enhanced" {
		t.Errorf("expected Enhanced monitoring at high risk, got %v", metrics["safety_monitoring"])
	}
}

func TestRegulatoryPathwayDeterministic(t *testing.T) {
	scorer := NewScorer()

	first := scorer.Regulatory("aspirin", nil, model.VerificationSummary{}, false)
	second := scorer.Regulatory("aspirin", nil, model.VerificationSummary{}, false)

	if first["recommended_pathway"] != second["recommended_pathway"] {
		t.Error("expected same pathway for same molecule")
	}

	pathway := first["recommended_pathway"].(string)
	found := false
	for _, candidate := range regulatoryPathways {
		if candidate == pathway {
			found = true
		}
	}
	if !found {
		t.Errorf("pathway %q not in known set", pathway)
	}

	justification := first["pathway_justification"].(string)
	if justification == "" || strings.Contains(justification, "per molecule profile") {
		t.Errorf("expected a specific justification, got %q", justification)
	}
}

func TestClinicalMetrics(t *testing.T) {
	scorer := NewScorer()

	evidence := []*model.EvidenceRecord{
		tierRecord(model.TierOfficial, "Trial A | status=RECRUITING phase=PHASE3"),
		tierRecord(model.TierOfficial, "Trial B | status=COMPLETED phase=PHASE2"),
		tierRecord(model.TierOfficial, "Trial C | status=TERMINATED phase=PHASE1"),
		tierRecord(model.TierPeerReviewed, "status=RECRUITING mention in a paper"),
	}
	phases := map[string]int{"PHASE2": 2, "PHASE3": 1}

	metrics := scorer.Clinical(42, phases, evidence)

	if metrics["total_trials_found"].(int) != 42 {
		t.Errorf("expected 42 total trials, got %v", metrics["total_trials_found"])
	}
	if metrics["active_trials"].(int) != 1 {
		t.Errorf("expected 1 active trial, got %v", metrics["active_trials"])
	}
	if metrics["completed_trials"].(int) != 1 {
		t.Errorf("expected 1 completed trial, got %v", metrics["completed_trials"])
	}
	if metrics["phase_distribution"].(map[string]int)["PHASE2"] != 2 {
		t.Errorf("unexpected phase distribution %v", metrics["phase_distribution"])
	}
}

func TestClinicalMetrics_NilPhases(t *testing.T) {
	scorer := NewScorer()

	metrics := scorer.Clinical(0, nil, nil)

	dist, ok := metrics["phase_distribution"].(map[string]int)
	if !ok || dist == nil {
		t.Error("expected empty phase distribution, not nil")
	}
}

func TestLiteratureMetrics(t *testing.T) {
	scorer := NewScorer()

	evidence := []*model.EvidenceRecord{
		tierRecord(model.TierPeerReviewed, ""),
		tierRecord(model.TierPeerReviewed, ""),
		tierRecord(model.TierNews, ""),
	}
	vs := model.VerificationSummary{VerifiedCount: 2, PartialCount: 1}

	metrics := scorer.Literature(evidence, vs)

	if metrics["publication_count"].(int) != 2 {
		t.Errorf("expected 2 publications, got %v", metrics["publication_count"])
	}
	if metrics["news_mentions"].(int) != 1 {
		t.Errorf("expected 1 news mention, got %v", metrics["news_mentions"])
	}
	// 2 + 1*0.5 = 2.5
	if metrics["opportunity_score"].(float64) != 2.5 {
		t.Errorf("expected opportunity 2.5, got %v", metrics["opportunity_score"])
	}
}

func TestLiteratureOpportunityClamped(t *testing.T) {
	scorer := NewScorer()

	low := scorer.Literature(nil, model.VerificationSummary{})
	if low["opportunity_score"].(float64) != 1.0 {
		t.Errorf("expected floor 1.0, got %v", low["opportunity_score"])
	}

	high := scorer.Literature(nil, model.VerificationSummary{VerifiedCount: 50})
	if high["opportunity_score"].(float64) != 9.5 {
		t.Errorf("expected cap 9.5, got %v", high["opportunity_score"])
	}
}
