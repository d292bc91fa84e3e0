package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKeyIsStableAndNamespaced(t *testing.T) {
	k1 := Key("https://api.fda.gov/drug/label.json?search=x")
	k2 := Key("https://api.fda.gov/drug/label.json?search=x")
	k3 := Key("https://api.fda.gov/drug/label.json?search=y")

	if k1 != k2 {
		t.Error("expected identical URLs to produce identical keys")
	}
	if k1 == k3 {
		t.Error("expected different URLs to produce different keys")
	}
	if !strings.HasPrefix(k1, "grounder:v1:") {
		t.Errorf("expected namespaced key, got %q", k1)
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set("k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := c.Get("k")
	if !found || string(val) != "payload" {
		t.Errorf("expected payload back, got %q found=%v", val, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expected entry to expire")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set("a", []byte("1"), time.Minute)
	_ = c.Set("b", []byte("2"), time.Minute)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("expected empty cache after Clear")
	}
}
