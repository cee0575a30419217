package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/pkg/errors"
	"github.com/sensei-service/sensei_service/pkg/logger"
	"github.com/sensei-service/sensei_service/pkg/metrics"
	"github.com/sensei-service/sensei_service/pkg/retry"
)

const (
	userAgent = "CryptoSensei/1.0"

	// staleTTL keeps a long-lived copy of every payload so an upstream
	// outage degrades to slightly old data instead of errors.
	staleTTL = 24 * time.Hour
)

// Store is the cache surface the client needs
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Client proxies the CoinGecko public API with caching, retries and a
// circuit breaker. Responses are passed through as raw JSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      Store
	breaker    *gobreaker.CircuitBreaker
	retryCfg   retry.Config
	priceTTL   time.Duration
	historyTTL time.Duration
	logger     *logger.Logger
}

// NewClient creates a CoinGecko client
func NewClient(cfg config.CoinGeckoConfig, cache Store, logger *logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "coingecko",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.MaxRetries
	}

	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cache:      cache,
		breaker:    breaker,
		retryCfg:   retryCfg,
		priceTTL:   time.Duration(cfg.PriceTTL) * time.Second,
		historyTTL: time.Duration(cfg.HistoryTTL) * time.Second,
		logger:     logger,
	}
}

// Markets returns market listings ordered by market cap
func (c *Client) Markets(ctx context.Context, vsCurrency string, perPage, page int) (json.RawMessage, error) {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	if perPage <= 0 || perPage > 250 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}

	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h")

	key := fmt.Sprintf("market:list:%s:%d:%d", vsCurrency, perPage, page)
	return c.fetchCached(ctx, key, c.priceTTL, "/coins/markets", params)
}

// SimplePrice returns current prices for the given coin ids
func (c *Client) SimplePrice(ctx context.Context, ids, vsCurrencies string) (json.RawMessage, error) {
	if ids == "" {
		return nil, errors.ValidationError("coin ids are required")
	}
	if vsCurrencies == "" {
		vsCurrencies = "usd"
	}

	params := url.Values{}
	params.Set("ids", ids)
	params.Set("vs_currencies", vsCurrencies)
	params.Set("include_24hr_change", "true")

	key := fmt.Sprintf("market:price:%s:%s", ids, vsCurrencies)
	return c.fetchCached(ctx, key, c.priceTTL, "/simple/price", params)
}

// History returns a coin's market chart over the given number of days
func (c *Client) History(ctx context.Context, coinID string, days int) (json.RawMessage, error) {
	if coinID == "" {
		return nil, errors.ValidationError("coin id is required")
	}
	if days <= 0 {
		days = 7
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))

	key := fmt.Sprintf("market:history:%s:%d", coinID, days)
	endpoint := fmt.Sprintf("/coins/%s/market_chart", url.PathEscape(coinID))
	return c.fetchCached(ctx, key, c.historyTTL, endpoint, params)
}

// Search looks up coins by name or symbol. Results change rarely, so they
// share the history TTL.
func (c *Client) Search(ctx context.Context, query string) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.ValidationError("search query is required")
	}

	params := url.Values{}
	params.Set("query", query)

	key := "market:search:" + strings.ToLower(strings.TrimSpace(query))
	return c.fetchCached(ctx, key, c.historyTTL, "/search", params)
}

// WarmCache refreshes the default market listing so the first page loads
// from cache. Called periodically by the scheduler.
func (c *Client) WarmCache(ctx context.Context) error {
	_, err := c.Markets(ctx, "usd", 50, 1)
	return err
}

// fetchCached serves from the fresh cache when possible, otherwise hits the
// upstream API. Upstream failures fall back to the stale copy when one
// exists.
func (c *Client) fetchCached(ctx context.Context, key string, ttl time.Duration, endpoint string, params url.Values) (json.RawMessage, error) {
	if cached, err := c.cache.Get(ctx, key); err == nil && cached != "" {
		return json.RawMessage(cached), nil
	}

	body, err := c.fetch(ctx, endpoint, params)
	if err != nil {
		if stale, cacheErr := c.cache.Get(ctx, "stale:"+key); cacheErr == nil && stale != "" {
			c.logger.CtxWarn(ctx, "serving stale market data", "key", key, "error", err)
			return json.RawMessage(stale), nil
		}
		return nil, err
	}

	if err := c.cache.Set(ctx, key, string(body), ttl); err != nil {
		c.logger.CtxWarn(ctx, "failed to cache market data", "key", key, "error", err)
	}
	if err := c.cache.Set(ctx, "stale:"+key, string(body), staleTTL); err != nil {
		c.logger.CtxWarn(ctx, "failed to cache stale copy", "key", key, "error", err)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var body []byte
		err := retry.Do(ctx, c.retryCfg, func() error {
			var reqErr error
			body, reqErr = c.doRequest(ctx, endpoint, params)
			return reqErr
		}, isRetryable)
		return body, err
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, errors.ServiceUnavailable("market data")
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("coingecko", endpoint, "error").Inc()
		return nil, &upstreamError{status: 0, cause: err}
	}
	defer resp.Body.Close()

	metrics.ExternalAPICallsTotal.WithLabelValues("coingecko", endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &upstreamError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// upstreamError marks transport failures and non-200 responses so the retry
// policy can tell rate limits and outages apart from hard failures.
type upstreamError struct {
	status int
	cause  error
}

func (e *upstreamError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("coingecko request failed: %v", e.cause)
	}
	return fmt.Sprintf("coingecko returned status %d", e.status)
}

func isRetryable(err error) bool {
	ue, ok := err.(*upstreamError)
	if !ok {
		return false
	}
	// Network errors, rate limits and server errors are worth another try.
	return ue.status == 0 || ue.status == http.StatusTooManyRequests || ue.status >= 500
}
