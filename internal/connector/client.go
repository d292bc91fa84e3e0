package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sentinelpharma/grounder/internal/cache"
	"github.com/sentinelpharma/grounder/internal/model"
	"github.com/sentinelpharma/grounder/internal/util"
	"github.com/sentinelpharma/grounder/internal/worker"
)

const clientMaxRetries = 3

// clientSleepFunc is the sleep function used between retries (injectable for tests)
var clientSleepFunc = time.Sleep

// Client is the shared HTTP layer under every connector: bounded timeout,
// per-host rate limiting, optional response caching, and retry with
// exponential backoff on transient failures.
type Client struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	userAgent  string
	maxBytes   int64
}

// NewClient creates a connector HTTP client from configuration.
// A nil cache disables response caching.
func NewClient(cfg model.HTTPConfig, limiter *worker.Limiter, c cache.Cache, cacheTTL time.Duration) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 25 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes == 0 {
		maxBytes = 2_000_000
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:   limiter,
		cache:     c,
		cacheTTL:  cacheTTL,
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}
}

// GetJSON fetches the URL (with query params) and decodes the JSON body
// into out. Responses are cached by full URL when a cache is configured.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	fullURL := rawURL
	if len(params) > 0 {
		fullURL = rawURL + "?" + params.Encode()
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(cache.Key(fullURL)); ok {
			return json.Unmarshal(body, out)
		}
	}

	body, err := c.getWithRetry(ctx, fullURL)
	if err != nil {
		return err
	}

	if c.cache != nil {
		_ = c.cache.Set(cache.Key(fullURL), body, c.cacheTTL)
	}

	return json.Unmarshal(body, out)
}

// GetBody fetches the URL and returns the raw body (size-limited).
// Used by the news connector for HTML pages.
func (c *Client) GetBody(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(cache.Key(rawURL)); ok {
			return body, nil
		}
	}

	body, err := c.getWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.Set(cache.Key(rawURL), body, c.cacheTTL)
	}

	return body, nil
}

func (c *Client) getWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < clientMaxRetries; attempt++ {
		body, retryable, err := c.getOnce(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		if attempt < clientMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			clientSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, fullURL string) ([]byte, bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, fullURL); err != nil {
			return nil, false, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, isRetryableNetworkError(err.Error()), fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}

	return body, false, nil
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
