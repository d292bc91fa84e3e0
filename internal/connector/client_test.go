package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sentinelpharma/grounder/internal/cache"
	"github.com/sentinelpharma/grounder/internal/model"
)

func init() {
	// No real sleeping between retries in tests
	clientSleepFunc = func(time.Duration) {}
}

func testClient(c cache.Cache) *Client {
	return NewClient(model.HTTPConfig{
		Timeout:   5 * time.Second,
		UserAgent: "grounder-test",
	}, nil, c, time.Minute)
}

func TestClientGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "grounder-test" {
			t.Errorf("Expected test user agent, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "aspirin" {
			t.Errorf("Expected q=aspirin, got %q", got)
		}
		w.Write([]byte(`{"value": 42}`))
	}))
	defer server.Close()

	var out struct {
		Value int `json:"value"`
	}
	params := map[string][]string{"q": {"aspirin"}}
	if err := testClient(nil).GetJSON(context.Background(), server.URL, params, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Value != 42 {
		t.Errorf("Expected value 42, got %d", out.Value)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	if err := testClient(nil).GetJSON(context.Background(), server.URL, nil, &out); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if !out.OK {
		t.Error("Expected ok=true after retry")
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var out map[string]any
	if err := testClient(nil).GetJSON(context.Background(), server.URL, nil, &out); err == nil {
		t.Fatal("Expected error for 404")
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt for 404, got %d", attempts)
	}
}

func TestClientCachesResponses(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"value": 7}`))
	}))
	defer server.Close()

	client := testClient(cache.NewMemoryCache(time.Minute, time.Minute))

	var out struct {
		Value int `json:"value"`
	}
	for i := 0; i < 3; i++ {
		if err := client.GetJSON(context.Background(), server.URL, nil, &out); err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
	}

	if hits != 1 {
		t.Errorf("Expected 1 upstream hit with caching, got %d", hits)
	}
	if out.Value != 7 {
		t.Errorf("Expected cached value 7, got %d", out.Value)
	}
}

func TestClientLimitsBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 1000; i++ {
			w.Write([]byte("xxxxxxxxxx"))
		}
	}))
	defer server.Close()

	client := NewClient(model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "grounder-test",
		MaxBodyBytes: 100,
	}, nil, nil, 0)

	body, err := client.GetBody(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(body) != 100 {
		t.Errorf("Expected body capped at 100 bytes, got %d", len(body))
	}
}
