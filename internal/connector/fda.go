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

const fdaBaseURL = "https://api.fda.gov"

// FDAConnector searches drug labels via the openFDA API
type FDAConnector struct {
	client  *Client
	baseURL string
}

// NewFDAConnector creates an openFDA connector; an empty baseURL selects
// the production API
func NewFDAConnector(client *Client, baseURL string) *FDAConnector {
	if baseURL == "" {
		baseURL = fdaBaseURL
	}
	return &FDAConnector{client: client, baseURL: baseURL}
}

// Name returns the source name
func (c *FDAConnector) Name() string {
	return "openFDA"
}

type fdaLabelResponse struct {
	Results []struct {
		SetID               string   `json:"set_id"`
		EffectiveTime       string   `json:"effective_time"`
		IndicationsAndUsage []string `json:"indications_and_usage"`
	} `json:"results"`
}

// Search returns label rows for the molecule. Official tier.
func (c *FDAConnector) Search(ctx context.Context, molecule string, limit int) ([]model.RawRow, error) {
	term := strings.TrimSpace(strings.ReplaceAll(molecule, `"`, ""))
	search := fmt.Sprintf(`openfda.generic_name:"%s"+openfda.brand_name:"%s"`, term, term)

	params := url.Values{}
	params.Set("search", search)
	params.Set("limit", strconv.Itoa(limit))

	var body fdaLabelResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/drug/label.json", params, &body); err != nil {
		return nil, fmt.Errorf("openFDA search: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]model.RawRow, 0, len(body.Results))
	for i, result := range body.Results {
		setID := result.SetID
		if setID == "" {
			setID = fmt.Sprintf("label-%d", i)
		}

		indication := ""
		if len(result.IndicationsAndUsage) > 0 {
			indication = result.IndicationsAndUsage[0]
			if len(indication) > 300 {
				indication = indication[:300]
			}
		}

		snippet := indication
		if snippet == "" {
			snippet = fmt.Sprintf("FDA label available for set_id=%s", setID)
		}

		publishedAt := ""
		// effective_time arrives as YYYYMMDD
		if len(result.EffectiveTime) == 8 {
			if ts, err := time.ParseInLocation("20060102", result.EffectiveTime, time.UTC); err == nil {
				publishedAt = ts.Format(time.RFC3339)
			}
		}

		digest := sha256.Sum256([]byte(fmt.Sprintf("fda:%s:%s", setID, indication)))

		rows = append(rows, model.RawRow{
			ClaimID:     "fda-label-" + setID,
			ClaimText:   fmt.Sprintf("FDA drug label entry found for %s", molecule),
			Query:       molecule,
			URL:         fmt.Sprintf("https://api.fda.gov/drug/label.json?search=set_id:%s", setID),
			SourceName:  "openFDA",
			SourceTier:  string(model.TierOfficial),
			Snippet:     snippet,
			PublishedAt: publishedAt,
			FetchedAt:   now.Format(time.RFC3339),
			Hash:        fmt.Sprintf("%x", digest),
			DocumentID:  setID,
		})
	}

	return rows, nil
}
