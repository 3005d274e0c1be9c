package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/seelander09/home-marketing-sub001/pkg/clients"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// APIError reports a non-2xx response from the CRM webhook.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm webhook returned status: %d", e.StatusCode)
}

// Payload is the webhook body for one outreach push.
type Payload struct {
	Campaign   string                       `json:"campaign,omitempty"`
	PushedAt   time.Time                    `json:"pushedAt"`
	Properties []models.PropertyOpportunity `json:"properties"`
}

// Client delivers matched properties to the configured CRM webhook.
type Client struct {
	webhookURL   string
	authToken    string
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
	shouldRetry  func(resp *http.Response, err error) bool
}

type Option func(*Client)

func NewClient(webhookURL, authToken string, opts ...Option) *Client {
	defaultConfig := clients.DefaultHTTPExecutorConfig()
	defaultConfig.CircuitBreaker = clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
		Name: "crm-webhook",
	})
	defaultConfig.RateLimiter = clients.NewHTTPRateLimiter(clients.RateLimiterConfig{
		MaxExecutions: 5,
		Period:        time.Second,
		MaxWaitTime:   5 * time.Second,
	})
	c := &Client{
		webhookURL:   webhookURL,
		authToken:    authToken,
		client:       &http.Client{Timeout: 15 * time.Second},
		httpExecutor: clients.NewHTTPExecutor(defaultConfig),
		shouldRetry:  defaultConfig.ShouldRetry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

func WithHTTPExecutorConfig(cfg clients.HTTPExecutorConfig) Option {
	return func(c *Client) {
		if cfg.ShouldRetry == nil {
			cfg.ShouldRetry = clients.DefaultShouldRetry
		}
		c.httpExecutor = clients.NewHTTPExecutor(cfg)
		c.shouldRetry = cfg.ShouldRetry
	}
}

// SendToCRM posts the payload to the webhook, retrying per the executor's
// policy. Any terminal non-2xx status is returned as *APIError.
func (c *Client) SendToCRM(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal crm payload: %w", err)
	}

	resp, err := clients.ExecuteHTTP(ctx, c.httpExecutor, func() (*http.Response, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}
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
		return fmt.Errorf("crm webhook delivery: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}
