package connector

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sentinelpharma/grounder/internal/model"
)

const pubmedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// pubdate arrives in several shapes depending on the journal record
var pubmedDateLayouts = []string{
	"2006 Jan 2",
	"2006 Jan",
	"2006",
}

// PubMedConnector searches literature via the NCBI E-utilities API
type PubMedConnector struct {
	client  *Client
	baseURL string
}

// NewPubMedConnector creates a PubMed connector; an empty baseURL selects
// the production E-utilities endpoint
func NewPubMedConnector(client *Client, baseURL string) *PubMedConnector {
	if baseURL == "" {
		baseURL = pubmedBaseURL
	}
	return &PubMedConnector{client: client, baseURL: baseURL}
}

// Name returns the source name
func (c *PubMedConnector) Name() string {
	return "PubMed"
}

type pubmedSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDocSummary struct {
	UID      string `json:"uid"`
	Title    string `json:"title"`
	PubDate  string `json:"pubdate"`
	FullJrnl string `json:"fulljournalname"`
}

// Search runs esearch then esummary and returns article rows.
// Peer-reviewed tier.
func (c *PubMedConnector) Search(ctx context.Context, molecule string, limit int) ([]model.RawRow, error) {
	searchParams := url.Values{}
	searchParams.Set("db", "pubmed")
	searchParams.Set("term", molecule)
	searchParams.Set("retmax", strconv.Itoa(limit))
	searchParams.Set("retmode", "json")
	searchParams.Set("sort", "date")

	var search pubmedSearchResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/esearch.fcgi", searchParams, &search); err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}
	ids := search.ESearchResult.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	summaryParams := url.Values{}
	summaryParams.Set("db", "pubmed")
	summaryParams.Set("id", strings.Join(ids, ","))
	summaryParams.Set("retmode", "json")

	var summary pubmedSummaryResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/esummary.fcgi", summaryParams, &summary); err != nil {
		return nil, fmt.Errorf("PubMed esummary: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]model.RawRow, 0, len(ids))
	for _, pmid := range ids {
		raw, ok := summary.Result[pmid]
		if !ok {
			continue
		}
		var doc pubmedDocSummary
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}

		title := strings.TrimSpace(doc.Title)
		if title == "" {
			title = "PubMed article " + pmid
		}

		snippet := title
		if doc.FullJrnl != "" {
			snippet = fmt.Sprintf("%s (%s)", title, doc.FullJrnl)
		}

		digest := sha256.Sum256([]byte(fmt.Sprintf("pubmed:%s:%s", pmid, title)))

		rows = append(rows, model.RawRow{
			ClaimID:     "pubmed-" + pmid,
			ClaimText:   fmt.Sprintf("Peer-reviewed publication found for %s", molecule),
			Query:       molecule,
			URL:         "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
			SourceName:  "PubMed",
			SourceTier:  string(model.TierPeerReviewed),
			Snippet:     snippet,
			PublishedAt: parsePubmedDate(doc.PubDate),
			FetchedAt:   now.Format(time.RFC3339),
			Hash:        fmt.Sprintf("%x", digest),
			DocumentID:  pmid,
		})
	}

	return rows, nil
}

func parsePubmedDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// strip season/range suffixes like "2024 Jan-Feb" down to the first token set
	if idx := strings.IndexByte(raw, '-'); idx > 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	for _, layout := range pubmedDateLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts.Format(time.RFC3339)
		}
	}
	return ""
}
