package connector

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sentinelpharma/grounder/internal/model"
)

const ctgovBaseURL = "https://clinicaltrials.gov/api/v2"

// ClinicalTrialsConnector searches studies via the ClinicalTrials.gov v2 API
type ClinicalTrialsConnector struct {
	client  *Client
	baseURL string
}

// NewClinicalTrialsConnector creates a ClinicalTrials.gov connector; an
// empty baseURL selects the production API
func NewClinicalTrialsConnector(client *Client, baseURL string) *ClinicalTrialsConnector {
	if baseURL == "" {
		baseURL = ctgovBaseURL
	}
	return &ClinicalTrialsConnector{client: client, baseURL: baseURL}
}

// Name returns the source name
func (c *ClinicalTrialsConnector) Name() string {
	return "ClinicalTrials.gov"
}

type ctgovResponse struct {
	Studies []ctgovStudy `json:"studies"`
}

type ctgovStudy struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID      string `json:"nctId"`
			BriefTitle string `json:"briefTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus         string `json:"overallStatus"`
			LastUpdatePostDateStruct struct {
				Date string `json:"date"`
			} `json:"lastUpdatePostDateStruct"`
		} `json:"statusModule"`
		DesignModule struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
	} `json:"protocolSection"`
}

// Search returns study rows for the molecule. Official tier.
func (c *ClinicalTrialsConnector) Search(ctx context.Context, molecule string, limit int) ([]model.RawRow, error) {
	params := url.Values{}
	params.Set("query.intr", molecule)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("fields", "protocolSection.identificationModule,protocolSection.statusModule,protocolSection.designModule")

	var body ctgovResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/studies", params, &body); err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov search: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]model.RawRow, 0, len(body.Studies))
	for i, study := range body.Studies {
		ident := study.ProtocolSection.IdentificationModule
		status := study.ProtocolSection.StatusModule

		nctID := ident.NCTID
		if nctID == "" {
			nctID = fmt.Sprintf("study-%d", i)
		}

		phase := "N/A"
		if phases := study.ProtocolSection.DesignModule.Phases; len(phases) > 0 {
			phase = strings.Join(phases, "/")
		}

		snippet := fmt.Sprintf("%s | status=%s phase=%s", ident.BriefTitle, status.OverallStatus, phase)

		publishedAt := ""
		// lastUpdatePostDateStruct.date arrives as YYYY-MM-DD
		if d := status.LastUpdatePostDateStruct.Date; d != "" {
			if ts, err := time.ParseInLocation("2006-01-02", d, time.UTC); err == nil {
				publishedAt = ts.Format(time.RFC3339)
			}
		}

		digest := sha256.Sum256([]byte(fmt.Sprintf("ctgov:%s:%s", nctID, status.OverallStatus)))

		rows = append(rows, model.RawRow{
			ClaimID:     "ctgov-" + nctID,
			ClaimText:   fmt.Sprintf("Registered clinical trial found for %s", molecule),
			Query:       molecule,
			URL:         "https://clinicaltrials.gov/study/" + nctID,
			SourceName:  "ClinicalTrials.gov",
			SourceTier:  string(model.TierOfficial),
			Snippet:     snippet,
			PublishedAt: publishedAt,
			FetchedAt:   now.Format(time.RFC3339),
			Hash:        fmt.Sprintf("%x", digest),
			DocumentID:  nctID,
		})
	}

	return rows, nil
}

// Count returns the total number of registered studies for the molecule.
func (c *ClinicalTrialsConnector) Count(ctx context.Context, molecule string) (int, error) {
	params := url.Values{}
	params.Set("query.intr", molecule)
	params.Set("pageSize", "1")
	params.Set("countTotal", "true")

	var body struct {
		TotalCount int `json:"totalCount"`
	}
	if err := c.client.GetJSON(ctx, c.baseURL+"/studies", params, &body); err != nil {
		return 0, fmt.Errorf("ClinicalTrials.gov count: %w", err)
	}
	return body.TotalCount, nil
}

// PhaseCounts tallies studies by declared phase, querying with a larger
// page size than Search so the buckets are representative.
func (c *ClinicalTrialsConnector) PhaseCounts(ctx context.Context, molecule string, pageSize int) (map[string]int, error) {
	params := url.Values{}
	params.Set("query.intr", molecule)
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("fields", "protocolSection.designModule")

	var body ctgovResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/studies", params, &body); err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov phases: %w", err)
	}

	counts := make(map[string]int)
	for _, study := range body.Studies {
		phases := study.ProtocolSection.DesignModule.Phases
		if len(phases) == 0 {
			counts["N/A"]++
			continue
		}
		counts[strings.Join(phases, "/")]++
	}
	return counts, nil
}
