package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datakith/cleanse/internal/cache"
	"github.com/datakith/cleanse/internal/model"
)

func testConfig(baseURL string) model.EnrichmentConfig {
	return model.EnrichmentConfig{
		Enabled:           true,
		BaseURL:           baseURL,
		Timeout:           5 * time.Second,
		Concurrency:       2,
		MaxRetries:        3,
		UserAgent:         "cleanse-test",
		RequestsPerSecond: 1000,
		BurstSize:         1000,
	}
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := lookupSleepFunc
	lookupSleepFunc = func(ctx context.Context, d time.Duration) error { return nil }
	t.Cleanup(func() { lookupSleepFunc = orig })
}

func TestLookup_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "john@example.com" {
			t.Errorf("expected email query param, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"company":"Acme"}`)
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(server.URL), nil, 0)
	if got := client.Lookup(context.Background(), "john@example.com"); got != "Acme" {
		t.Errorf("expected Acme, got %q", got)
	}
}

func TestLookup_ServerErrorResolvesUnknown(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(server.URL), nil, 0)
	if got := client.Lookup(context.Background(), "john@example.com"); got != Unknown {
		t.Errorf("expected Unknown, got %q", got)
	}
	// Initial attempt plus MaxRetries
	if attempts.Load() != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts.Load())
	}
}

func TestLookup_TransientThenSuccess(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, `{"company":"Acme"}`)
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(server.URL), nil, 0)
	if got := client.Lookup(context.Background(), "john@example.com"); got != "Acme" {
		t.Errorf("expected Acme after retries, got %q", got)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestLookup_NotFoundNoRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(server.URL), nil, 0)
	if got := client.Lookup(context.Background(), "john@example.com"); got != Unknown {
		t.Errorf("expected Unknown, got %q", got)
	}
	if attempts.Load() != 1 {
		t.Errorf("expected no retries on 404, got %d attempts", attempts.Load())
	}
}

func TestLookup_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `not json at all`)
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(server.URL), nil, 0)
	if got := client.Lookup(context.Background(), "john@example.com"); got != Unknown {
		t.Errorf("expected Unknown for malformed body, got %q", got)
	}
}

func TestLookup_MissingCompanyField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"name":"Acme"}`)
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(server.URL), nil, 0)
	if got := client.Lookup(context.Background(), "john@example.com"); got != Unknown {
		t.Errorf("expected Unknown for missing company field, got %q", got)
	}
}

func TestLookup_EmptyEmailShortCircuits(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprint(w, `{"company":"Acme"}`)
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(server.URL), nil, 0)
	if got := client.Lookup(context.Background(), ""); got != Unknown {
		t.Errorf("expected Unknown for empty email, got %q", got)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no HTTP call for empty email, got %d", calls.Load())
	}
}

func TestLookup_NetworkErrorResolvesUnknown(t *testing.T) {
	noSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewHTTPClient(testConfig(server.URL), nil, 0)
	if got := client.Lookup(context.Background(), "john@example.com"); got != Unknown {
		t.Errorf("expected Unknown on network error, got %q", got)
	}
}

func TestLookup_CacheHit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprint(w, `{"company":"Acme"}`)
	}))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, time.Minute)
	client := NewHTTPClient(testConfig(server.URL), store, time.Minute)

	for i := 0; i < 3; i++ {
		if got := client.Lookup(context.Background(), "john@example.com"); got != "Acme" {
			t.Fatalf("lookup %d: expected Acme, got %q", i, got)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call with caching, got %d", calls.Load())
	}
}

func TestLookup_UnknownNotCached(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, time.Minute)
	client := NewHTTPClient(testConfig(server.URL), store, time.Minute)

	_ = client.Lookup(context.Background(), "john@example.com")
	_ = client.Lookup(context.Background(), "john@example.com")
	if calls.Load() != 2 {
		t.Errorf("expected Unknown results to bypass the cache, got %d calls", calls.Load())
	}
}
