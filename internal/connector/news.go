package connector

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sentinelpharma/grounder/internal/model"
	"github.com/sentinelpharma/grounder/internal/util"
)

// queryPlaceholder in a feed URL is replaced with the escaped molecule name.
// Feeds without it are fetched as-is and filtered by mention.
const queryPlaceholder = "{query}"

const newsSnippetMax = 300

// maxCrawlDelay caps publisher crawl-delay directives so one feed
// cannot stall the whole fan-out
const maxCrawlDelay = 2 * time.Second

// NewsConnector scans configured publisher pages for molecule mentions.
// Fetches are gated by each publisher's robots.txt.
type NewsConnector struct {
	client *Client
	robots *util.RobotsChecker
	feeds  []string
}

// NewNewsConnector creates a news connector over the configured feed URLs
func NewNewsConnector(client *Client, robots *util.RobotsChecker, feeds []string) *NewsConnector {
	return &NewsConnector{client: client, robots: robots, feeds: feeds}
}

// Name returns the source name
func (c *NewsConnector) Name() string {
	return "News"
}

// Search fetches each feed page, skipping robots-disallowed URLs, and
// emits one row per page that mentions the molecule. News tier.
func (c *NewsConnector) Search(ctx context.Context, molecule string, limit int) ([]model.RawRow, error) {
	now := time.Now().UTC()
	var rows []model.RawRow

	for _, feed := range c.feeds {
		if len(rows) >= limit {
			break
		}

		pageURL := feed
		templated := strings.Contains(feed, queryPlaceholder)
		if templated {
			pageURL = strings.ReplaceAll(feed, queryPlaceholder, url.QueryEscape(molecule))
		}

		if c.robots != nil {
			allowed, crawlDelay, err := c.robots.CanFetch(ctx, pageURL)
			if err != nil || !allowed {
				fmt.Fprintf(os.Stderr, "Warning: skipping %s (robots.txt)\n", pageURL)
				continue
			}
			if crawlDelay > 0 {
				if crawlDelay > maxCrawlDelay {
					crawlDelay = maxCrawlDelay
				}
				select {
				case <-time.After(crawlDelay):
				case <-ctx.Done():
					return rows, ctx.Err()
				}
			}
		}

		body, err := c.client.GetBody(ctx, pageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: news fetch failed for %s: %v\n", pageURL, err)
			continue
		}

		title, text := parsePage(body)
		// Untemplated feeds are general pages; require an actual mention.
		if !templated && !containsFold(title+" "+text, molecule) {
			continue
		}

		host := "news"
		if parsed, err := url.Parse(pageURL); err == nil && parsed.Host != "" {
			host = parsed.Host
		}

		snippet := mentionSnippet(text, molecule)
		if snippet == "" {
			snippet = title
		}

		digest := sha256.Sum256([]byte(fmt.Sprintf("news:%s:%s", pageURL, title)))

		rows = append(rows, model.RawRow{
			ClaimID:    fmt.Sprintf("news-%x", digest[:6]),
			ClaimText:  fmt.Sprintf("News coverage found for %s on %s", molecule, host),
			Query:      molecule,
			URL:        pageURL,
			SourceName: host,
			SourceTier: string(model.TierNews),
			Snippet:    snippet,
			FetchedAt:  now.Format(time.RFC3339),
			Hash:       fmt.Sprintf("%x", digest),
		})
	}

	return rows, nil
}

// parsePage returns the document title and its visible text
func parsePage(body []byte) (string, string) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", ""
	}

	var title string
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return title, strings.TrimSpace(buf.String())
}

// mentionSnippet returns a window of text around the first molecule mention
func mentionSnippet(text, molecule string) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(molecule))
	if idx < 0 {
		return ""
	}

	start := idx - 80
	if start < 0 {
		start = 0
	}
	end := start + newsSnippetMax
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
