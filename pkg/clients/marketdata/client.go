package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"golang.org/x/sync/errgroup"

	"github.com/seelander09/home-marketing-sub001/pkg/cache"
	"github.com/seelander09/home-marketing-sub001/pkg/clients"
	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// Source names, used as cache-key prefixes and metric labels.
const (
	SourceCensus = "census"
	SourceFRED   = "fred"
	SourceHUD    = "hud"
	SourceRedfin = "redfin"
)

// Config points the client at the market-data gateway that fronts the
// upstream census/fred/hud/redfin fetchers.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
	Logger   logging.Logger
}

// Client fetches regional market data. Lookups for regions without data
// return nil, not an error. Responses are cached and concurrent identical
// lookups are collapsed into a single upstream call.
type Client struct {
	baseURL      string
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
	shouldRetry  func(resp *http.Response, err error) bool
	cache        *cache.Cache
	logger       logging.Logger
}

type censusAffordability struct {
	State              string  `json:"state"`
	AffordabilityScore float64 `json:"affordabilityScore"`
}

type fredRates struct {
	State           string  `json:"state"`
	MortgageRatePct float64 `json:"mortgageRatePct"`
}

type hudMarketHealth struct {
	Metro  string `json:"metro"`
	Health string `json:"health"`
}

type redfinVelocity struct {
	Zip            string  `json:"zip"`
	MarketVelocity float64 `json:"marketVelocity"`
}

// NewClient constructs a market-data client with retry, circuit breaker,
// rate limit and caching defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	executorConfig := clients.DefaultHTTPExecutorConfig()
	executorConfig.CircuitBreaker = clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
		Name:   "market-data",
		Logger: cfg.Logger,
	})
	executorConfig.RateLimiter = clients.NewHTTPRateLimiter(clients.RateLimiterConfig{
		MaxExecutions: 20,
		Period:        time.Second,
		MaxWaitTime:   2 * time.Second,
	})
	return &Client{
		baseURL:      cfg.BaseURL,
		client:       &http.Client{Timeout: timeout},
		httpExecutor: clients.NewHTTPExecutor(executorConfig),
		shouldRetry:  executorConfig.ShouldRetry,
		cache: cache.New(cache.Options{
			TTL:                  ttl,
			StaleWhileRevalidate: ttl / 2,
			NegativeTTL:          ttl / 4,
			MaxEntries:           2048,
		}, cache.MetricsHooks{}),
		logger: cfg.Logger,
	}
}

// getJSON fetches a resource through the cache and retry executor. A 404
// upstream is a cacheable not-found, surfaced as ok=false with nil error.
func (c *Client) getJSON(ctx context.Context, cacheKey, path string, out func() interface{}) (interface{}, bool, error) {
	return c.cache.Get(ctx, cacheKey, func(ctx context.Context, _ string) (interface{}, bool, error) {
		resp, err := clients.ExecuteHTTP(ctx, c.httpExecutor, func() (*http.Response, error) {
			req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if reqErr != nil {
				return nil, reqErr
			}
			req.Header.Set("Accept", "application/json")
			resp, doErr := c.client.Do(req)
			// Close bodies of responses the policy is about to retry.
			if c.shouldRetry != nil && c.shouldRetry(resp, doErr) {
				if resp != nil && resp.Body != nil {
					_ = resp.Body.Close()
				}
			}
			return resp, doErr
		})
		if err != nil {
			return nil, false, fmt.Errorf("market data fetch %s: %w", path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, false, fmt.Errorf("market data fetch %s: status %d", path, resp.StatusCode)
		}

		value := out()
		if err := json.NewDecoder(resp.Body).Decode(value); err != nil {
			return nil, false, fmt.Errorf("market data decode %s: %w", path, err)
		}
		return value, true, nil
	})
}

// AffordabilityByState returns the census-derived affordability score
// (0-100) for a state, or nil when the region is unknown.
func (c *Client) AffordabilityByState(ctx context.Context, state string) (*float64, error) {
	if state == "" {
		return nil, nil
	}
	key := SourceCensus + ":" + state
	path := "/census/affordability/" + url.PathEscape(state)
	val, ok, err := c.getJSON(ctx, key, path, func() interface{} { return &censusAffordability{} })
	if err != nil || !ok {
		return nil, err
	}
	score := val.(*censusAffordability).AffordabilityScore
	return &score, nil
}

// MortgageRateByState returns the FRED mortgage rate for a state, or nil.
func (c *Client) MortgageRateByState(ctx context.Context, state string) (*float64, error) {
	if state == "" {
		return nil, nil
	}
	key := SourceFRED + ":" + state
	path := "/fred/rates/" + url.PathEscape(state)
	val, ok, err := c.getJSON(ctx, key, path, func() interface{} { return &fredRates{} })
	if err != nil || !ok {
		return nil, err
	}
	rate := val.(*fredRates).MortgageRatePct
	return &rate, nil
}

// MarketHealthByMetro returns HUD's qualitative market health bucket for a
// metro (keyed here by city), or nil.
func (c *Client) MarketHealthByMetro(ctx context.Context, metro string) (*string, error) {
	if metro == "" {
		return nil, nil
	}
	key := SourceHUD + ":" + metro
	path := "/hud/market-health/" + url.PathEscape(metro)
	val, ok, err := c.getJSON(ctx, key, path, func() interface{} { return &hudMarketHealth{} })
	if err != nil || !ok {
		return nil, err
	}
	health := val.(*hudMarketHealth).Health
	return &health, nil
}

// VelocityByZip returns the Redfin market velocity (0-100) for a zip, or nil.
func (c *Client) VelocityByZip(ctx context.Context, zip string) (*float64, error) {
	if zip == "" {
		return nil, nil
	}
	key := SourceRedfin + ":" + zip
	path := "/redfin/velocity/" + url.PathEscape(zip)
	val, ok, err := c.getJSON(ctx, key, path, func() interface{} { return &redfinVelocity{} })
	if err != nil || !ok {
		return nil, err
	}
	velocity := val.(*redfinVelocity).MarketVelocity
	return &velocity, nil
}

// MacroSummary fans out to all sources for one geography and assembles the
// macro feature group. Individual source failures degrade to null fields;
// the error return is reserved for context cancellation.
func (c *Client) MacroSummary(ctx context.Context, geo models.Geography) (models.MacroSummary, error) {
	var summary models.MacroSummary

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		score, err := c.AffordabilityByState(ctx, geo.State)
		if err != nil {
			c.warn(SourceCensus, geo.State, err)
			return nil
		}
		summary.AffordabilityScore = score
		return nil
	})
	g.Go(func() error {
		rate, err := c.MortgageRateByState(ctx, geo.State)
		if err != nil {
			c.warn(SourceFRED, geo.State, err)
			return nil
		}
		summary.MortgageRatePct = rate
		return nil
	})
	g.Go(func() error {
		velocity, err := c.VelocityByZip(ctx, geo.Zip)
		if err != nil {
			c.warn(SourceRedfin, geo.Zip, err)
			return nil
		}
		summary.MarketVelocity = velocity
		return nil
	})
	g.Go(func() error {
		health, err := c.MarketHealthByMetro(ctx, geo.City)
		if err != nil {
			c.warn(SourceHUD, geo.City, err)
			return nil
		}
		summary.MarketHealth = health
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.MacroSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.MacroSummary{}, err
	}
	return summary, nil
}

func (c *Client) warn(source, region string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(logging.Fields{
		"source": source,
		"region": region,
		"error":  err.Error(),
	}).Warn("Market data source unavailable, degrading to null")
}
