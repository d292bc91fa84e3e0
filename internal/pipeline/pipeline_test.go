package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sentinelpharma/grounder/internal/llm"
	"github.com/sentinelpharma/grounder/internal/model"
)

// newTestServer serves canned openFDA, ClinicalTrials.gov and PubMed
// responses with current timestamps so freshness checks pass
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	today := time.Now().UTC().Format("2006-01-02")
	fdaDate := time.Now().UTC().Format("20060102")

	mux := http.NewServeMux()
	mux.HandleFunc("/drug/label.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results": [{"set_id": "set-1", "effective_time": "%s",
			"indications_and_usage": ["Indicated for treatment of type 2 diabetes. Shown effective in adults."]}]}`, fdaDate)
	})
	mux.HandleFunc("/studies", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("countTotal") == "true" {
			fmt.Fprint(w, `{"totalCount": 17}`)
			return
		}
		fmt.Fprintf(w, `{"studies": [{"protocolSection": {
			"identificationModule": {"nctId": "NCT00000001", "briefTitle": "Approved therapy study"},
			"statusModule": {"overallStatus": "RECRUITING", "lastUpdatePostDateStruct": {"date": "%s"}},
			"designModule": {"phases": ["PHASE3"]}}}]}`, today)
	})
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult": {"idlist": ["12345678"]}}`)
	})
	mux.HandleFunc("/esummary.fcgi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": {"12345678": {"uid": "12345678",
			"title": "Positive efficacy confirmed in randomized trial.", "pubdate": "2026 Jan 5",
			"fulljournalname": "NEJM"}}}`)
	})

	return httptest.NewServer(mux)
}

func testConfig(serverURL string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Connectors.FDABaseURL = serverURL
	cfg.Connectors.CTGovBaseURL = serverURL
	cfg.Connectors.PubMedBaseURL = serverURL
	cfg.Cache.Enabled = false
	return cfg
}

func TestAnalyzeRegulatoryProfile(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	p := NewPipeline(testConfig(server.URL))

	report, err := p.AnalyzeProfile(context.Background(), "semaglutide", ProfileRegulatory)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.AnalysisID == "" {
		t.Error("Expected analysis ID to be set")
	}
	if report.Molecule != "semaglutide" || report.Profile != "regulatory" {
		t.Errorf("Unexpected report identity: %s/%s", report.Molecule, report.Profile)
	}

	// openFDA label + CT.gov study
	if len(report.Envelope.Evidence) != 2 {
		t.Fatalf("Expected 2 evidence records, got %d", len(report.Envelope.Evidence))
	}
	if report.Envelope.Abstained {
		t.Fatalf("Fresh official evidence should not abstain, reason: %v", report.Envelope.AbstainReason)
	}
	if report.Envelope.AbstainReason != nil {
		t.Error("Expected no abstain reason on proceed")
	}

	if len(report.Envelope.Claims) != 2 {
		t.Errorf("Expected one claim per record, got %d", len(report.Envelope.Claims))
	}
	for _, claim := range report.Envelope.Claims {
		if claim.SupportCount != 1 {
			t.Errorf("Expected support_count 1, got %d", claim.SupportCount)
		}
	}

	if report.Envelope.VerificationSummary.Total() != 2 {
		t.Errorf("Summary counts must cover all records, got %d", report.Envelope.VerificationSummary.Total())
	}
	if report.Envelope.FreshnessSummary.MaxAgeHours >= model.MaxAgeSentinel {
		t.Error("Expected real max age, not the sentinel")
	}

	if report.Metrics["risk_score"] == nil {
		t.Error("Expected regulatory metrics on the report")
	}
	if len(report.Sources) != 2 {
		t.Errorf("Expected 2 source statuses, got %d", len(report.Sources))
	}

	// LLM disabled: narrative falls back to grounded claim listing
	if report.Narrative == "" || report.Narrative == llm.RefusalMessage {
		t.Errorf("Expected fallback narrative, got %q", report.Narrative)
	}
}

func TestAnalyzeClinicalProfileMetrics(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	p := NewPipeline(testConfig(server.URL))

	report, err := p.AnalyzeProfile(context.Background(), "semaglutide", ProfileClinical)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.Metrics["total_trials_found"].(int) != 17 {
		t.Errorf("Expected trial count 17, got %v", report.Metrics["total_trials_found"])
	}
	if report.Metrics["phase_distribution"].(map[string]int)["PHASE3"] != 1 {
		t.Errorf("Unexpected phase distribution: %v", report.Metrics["phase_distribution"])
	}
}

func TestAnalyzeAbstainsWithoutEvidence(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "esearch"):
			fmt.Fprint(w, `{"esearchresult": {"idlist": []}}`)
		case strings.Contains(r.URL.Path, "studies"):
			fmt.Fprint(w, `{"studies": []}`)
		default:
			fmt.Fprint(w, `{"results": []}`)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := NewPipeline(testConfig(server.URL))

	report, err := p.AnalyzeProfile(context.Background(), "nosuchcompound", ProfileRegulatory)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !report.Envelope.Abstained {
		t.Fatal("Expected abstention with no evidence")
	}
	if report.Envelope.AbstainReason == nil || !strings.Contains(*report.Envelope.AbstainReason, "No verified evidence") {
		t.Errorf("Unexpected abstain reason: %v", report.Envelope.AbstainReason)
	}
	if report.Narrative != llm.RefusalMessage {
		t.Errorf("Expected refusal narrative, got %q", report.Narrative)
	}
	if report.Envelope.FreshnessSummary.MaxAgeHours != model.MaxAgeSentinel {
		t.Errorf("Expected sentinel max age, got %v", report.Envelope.FreshnessSummary.MaxAgeHours)
	}
}

func TestAnalyzeSurvivesSourceFailure(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")

	mux := http.NewServeMux()
	mux.HandleFunc("/drug/label.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // openFDA down
	})
	mux.HandleFunc("/studies", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"studies": [{"protocolSection": {
			"identificationModule": {"nctId": "NCT00000002", "briefTitle": "Study"},
			"statusModule": {"overallStatus": "RECRUITING", "lastUpdatePostDateStruct": {"date": "%s"}},
			"designModule": {"phases": ["PHASE2"]}}}]}`, today)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := NewPipeline(testConfig(server.URL))

	report, err := p.AnalyzeProfile(context.Background(), "semaglutide", ProfileRegulatory)
	if err != nil {
		t.Fatalf("One failed source must not fail the analysis, got %v", err)
	}

	if len(report.Envelope.Evidence) != 1 {
		t.Fatalf("Expected 1 surviving record, got %d", len(report.Envelope.Evidence))
	}

	var failed, ok bool
	for _, src := range report.Sources {
		if src.Error != "" {
			failed = true
			if src.Rows != 0 {
				t.Errorf("Failed source must report 0 rows, got %d", src.Rows)
			}
		} else if src.Rows == 1 {
			ok = true
		}
	}
	if !failed || !ok {
		t.Errorf("Expected one failed and one healthy source, got %+v", report.Sources)
	}
}

func TestAnalyzeRequiresMolecule(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	p := NewPipeline(testConfig(server.URL))

	if _, err := p.AnalyzeProfile(context.Background(), "", ProfileRegulatory); err == nil {
		t.Fatal("Expected error for empty molecule")
	}
}

func TestParseProfile(t *testing.T) {
	cases := []struct {
		raw     string
		want    Profile
		wantErr bool
	}{
		{"", ProfileRegulatory, false},
		{"regulatory", ProfileRegulatory, false},
		{" Clinical ", ProfileClinical, false},
		{"literature", ProfileLiterature, false},
		{"financial", "", true},
	}
	for _, tc := range cases {
		got, err := ParseProfile(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseProfile(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProfile(%q): unexpected error %v", tc.raw, err)
		}
		if got != tc.want {
			t.Errorf("ParseProfile(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	p := NewPipeline(testConfig(server.URL))

	report, err := p.AnalyzeProfile(context.Background(), "semaglutide", ProfileRegulatory)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "report.json")
	if err := p.RenderReport(report, path, false); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected report file, got %v", err)
	}

	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Report JSON does not parse: %v", err)
	}
	if decoded.AnalysisID != report.AnalysisID {
		t.Error("Round-tripped analysis ID mismatch")
	}
	if decoded.Envelope.Abstained {
		t.Error("Round-tripped abstained flag mismatch")
	}
}

func TestRenderSummaryAbstained(t *testing.T) {
	reason := "No verified evidence found from configured real-time sources"
	report := &model.Report{
		Molecule: "x",
		Profile:  "regulatory",
		Envelope: model.GroundingEnvelope{
			Abstained:        true,
			AbstainReason:    &reason,
			FreshnessSummary: model.FreshnessSummary{MaxAgeHours: model.MaxAgeSentinel},
		},
	}

	var buf bytes.Buffer
	NewRenderer().RenderSummary(report, &buf)

	out := buf.String()
	if !strings.Contains(out, "ABSTAINED") || !strings.Contains(out, reason) {
		t.Errorf("Expected abstention in summary, got %q", out)
	}
}
