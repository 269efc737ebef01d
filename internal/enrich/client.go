// Package enrich looks up a company label for each record's normalized
// email against an external HTTP API. The lookup never fails past its
// boundary: every transport error, non-200 status, or malformed body
// resolves to Unknown.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/datakith/cleanse/internal/cache"
	"github.com/datakith/cleanse/internal/model"
	"github.com/datakith/cleanse/internal/util"
	"github.com/datakith/cleanse/internal/worker"
)

// Unknown is the value resolved for any lookup that cannot produce a
// company label.
const Unknown = "Unknown"

// maxLookupBody caps how much of a lookup response is read.
const maxLookupBody = 1 << 20

// lookupSleepFunc is the backoff sleep, overridable in tests.
var lookupSleepFunc = sleepCtx

// Client resolves a normalized email to a company label.
type Client interface {
	Lookup(ctx context.Context, email string) string
}

// HTTPClient is the production Client: GET <base-url>?email=<email>,
// expecting 200 with a JSON body carrying a "company" field. Transient
// failures (network errors, 5xx) are retried with exponential backoff;
// everything else resolves immediately.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	limiter    *worker.Limiter
	store      cache.Cache
	cacheTTL   time.Duration
}

// NewHTTPClient creates a lookup client from config. A nil store
// disables caching.
func NewHTTPClient(cfg model.EnrichmentConfig, store cache.Cache, cacheTTL time.Duration) *HTTPClient {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		maxRetries: maxRetries,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		store:      store,
		cacheTTL:   cacheTTL,
	}
}

type lookupPayload struct {
	Company string `json:"company"`
}

// Lookup resolves an email to a company label. An empty email
// short-circuits to Unknown without touching the network.
func (c *HTTPClient) Lookup(ctx context.Context, email string) string {
	if email == "" || c.baseURL == "" {
		return Unknown
	}

	key := cache.LookupKey(email)
	if c.store != nil {
		if cached, ok := c.store.Get(key); ok {
			return string(cached)
		}
	}

	company := c.lookupWithRetry(ctx, email)

	if c.store != nil && company != Unknown {
		_ = c.store.Set(key, []byte(company), c.cacheTTL)
	}
	return company
}

func (c *HTTPClient) lookupWithRetry(ctx context.Context, email string) string {
	delay := 500 * time.Millisecond

	for attempt := 0; ; attempt++ {
		company, transient := c.lookupOnce(ctx, email)
		if !transient || attempt >= c.maxRetries {
			return company
		}
		if err := lookupSleepFunc(ctx, delay); err != nil {
			return Unknown
		}
		delay *= 2
	}
}

// lookupOnce performs a single lookup. The second return value reports
// whether the failure is worth retrying.
func (c *HTTPClient) lookupOnce(ctx context.Context, email string) (string, bool) {
	reqURL, err := c.buildURL(email)
	if err != nil {
		return Unknown, false
	}

	if err := c.limiter.Wait(ctx, reqURL); err != nil {
		return Unknown, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Unknown, false
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and timeouts are transient unless the context
		// itself is finished.
		return Unknown, ctx.Err() == nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLookupBody))
		return Unknown, true
	}
	if resp.StatusCode != http.StatusOK {
		return Unknown, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBody))
	if err != nil {
		return Unknown, true
	}

	var payload lookupPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Unknown, false
	}
	if payload.Company == "" {
		return Unknown, false
	}
	return payload.Company, false
}

func (c *HTTPClient) buildURL(email string) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse enrichment URL: %w", err)
	}
	q := parsed.Query()
	q.Set("email", email)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
