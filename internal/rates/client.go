// Package rates looks up currency exchange rates from the public
// currency-api CDN and converts entry amounts into the display currency.
// Lookups are cached for a day; any failure falls back to the unconverted
// amount, never an error the caller has to handle.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"pennykeep/internal/log"
)

// DefaultBaseURL is the CDN mirror of github.com/fawazahmed0/exchange-api.
const DefaultBaseURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api"

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *log.Logger
	now        func() time.Time
}

type Option func(*Client)

// WithBaseURL points the client at a different endpoint (tests, mirrors).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the time source, for tests around the
// future-date-means-latest rule.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache.New(24*time.Hour, 48*time.Hour),
		logger:     logger.WithComponent(log.ComponentRates),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rates returns the code-to-rate mapping for base on the given date. Dates
// in the future query the latest snapshot, matching the entry form's rule
// for post-dated transactions.
func (c *Client) Rates(ctx context.Context, base string, date time.Time) (map[string]float64, error) {
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" {
		return nil, fmt.Errorf("empty base currency")
	}

	endpoint := "latest"
	if !date.After(c.now()) {
		endpoint = date.Format("2006-01-02")
	}

	cacheKey := "rates-" + base + "-" + endpoint
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(map[string]float64), nil
	}

	url := fmt.Sprintf("%s@%s/v1/currencies/%s.json", c.baseURL, endpoint, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %s", resp.Status)
	}

	rates, err := decodeRates(resp.Body, base)
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, rates, cache.DefaultExpiration)
	return rates, nil
}

// Convert converts amount from one currency into another as of date. Equal
// codes short-circuit with rate 1; every failure path returns the amount
// unconverted, logged as a warning.
func (c *Client) Convert(ctx context.Context, amount float64, from, to string, date time.Time) float64 {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == to || from == "" || to == "" {
		return amount
	}

	rates, err := c.Rates(ctx, from, date)
	if err != nil {
		c.logger.WarnContext(ctx, "Rate lookup failed, using unconverted amount",
			log.FieldOperation, log.OpConvert,
			"from", from, "to", to,
			log.FieldError, err)
		return amount
	}

	rate, ok := rates[to]
	if !ok {
		// The upstream payload omits some minor currencies; rate 1 mirrors
		// the entry form's behavior.
		c.logger.WarnContext(ctx, "Target currency missing from rates payload",
			"from", from, "to", to)
		rate = 1.0
	}
	return amount * rate
}

// decodeRates unpacks the dynamic payload shape
// {"date":"...","<base>":{"<code>":rate,...}}.
func decodeRates(r io.Reader, base string) (map[string]float64, error) {
	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode rates payload: %w", err)
	}

	raw, ok := envelope[base]
	if !ok {
		// The nested key is the base code, but guard against a payload keyed
		// differently from what was asked for.
		for key, value := range envelope {
			if key != "date" {
				raw = value
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("rates payload has no currency object")
	}

	var rates map[string]float64
	if err := json.Unmarshal(raw, &rates); err != nil {
		return nil, fmt.Errorf("decode nested rates: %w", err)
	}
	return rates, nil
}
