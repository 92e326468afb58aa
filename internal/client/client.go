package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/replbridge/internal/shared/id"
	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Config defines client behaviour
type Config struct {
	BaseURL string
	// Timeout bounds a whole request. Console commands can run for the
	// server's full execution timeout, so keep this above it.
	Timeout        time.Duration
	RetryCount     int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	RateLimit      float64
	MaxFailures    uint32
	BreakerTimeout time.Duration
	UserAgent      string
}

// DefaultConfig returns the client defaults for baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		Timeout:        2 * time.Minute,
		RetryCount:     3,
		RetryWaitMin:   500 * time.Millisecond,
		RetryWaitMax:   5 * time.Second,
		MaxFailures:    5,
		BreakerTimeout: 30 * time.Second,
		UserAgent:      "replctl/1.0",
	}
}

// APIError is a non-2xx reply from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to a replbridge server. Requests pass a rate limiter and a
// circuit breaker that counts transport errors and 5xx replies.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// New creates a client
func New(cfg Config) *Client {
	d := DefaultConfig(cfg.BaseURL)
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = d.RetryWaitMin
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = d.RetryWaitMax
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = d.MaxFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = d.BreakerTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}

	// Pooled transport from go-retryablehttp; retries are driven by resty.
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	restyClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetTransport(retryClient.HTTPClient.Transport).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitMin).
		SetRetryMaxWaitTime(cfg.RetryWaitMax).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			var raw *http.Response
			attempt := 1
			if resp != nil {
				raw = resp.RawResponse
				if resp.Request != nil {
					attempt = resp.Request.Attempt
				}
			}
			return retryablehttp.DefaultBackoff(cfg.RetryWaitMin, cfg.RetryWaitMax, attempt, raw), nil
		}).
		AddRetryCondition(retryable).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	breaker := resilience.New("replbridge-client", resilience.Settings{
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &Client{resty: restyClient, limiter: limiter, breaker: breaker}
}

// retryable retries reads on transport errors and 5xx replies. Tool calls
// are never retried: a command may have run even when the reply was lost.
func retryable(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || resp.StatusCode() >= http.StatusInternalServerError
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.resty.R().
		SetContext(ctx).
		SetHeader(tracing.HeaderRequestID, id.NewRequestID().String()).
		SetError(&errorBody{})
	tracing.Inject(ctx, req.Header)
	return req
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	return c.breaker.Do(func() error {
		req := c.request(ctx)
		if body != nil {
			req.SetBody(body)
		}
		if out != nil {
			req.SetResult(out)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.IsError() {
			msg := resp.Status()
			if e, ok := resp.Error().(*errorBody); ok && e.Error != "" {
				msg = e.Error
			}
			return &APIError{StatusCode: resp.StatusCode(), Message: msg}
		}
		return nil
	})
}

// Execute runs any tool by ID
func (c *Client) Execute(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	var result types.Result
	req := types.ExecuteRequest{ToolID: toolID, Params: params}
	if err := c.do(ctx, http.MethodPost, "/services/execute", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Run evaluates a command. A zero timeout uses the server default.
func (c *Client) Run(ctx context.Context, command string, timeout time.Duration) (*types.Result, error) {
	return c.Execute(ctx, "console.execute", withTimeout(map[string]interface{}{"command": command}, timeout))
}

// RunScript evaluates a multi-line script
func (c *Client) RunScript(ctx context.Context, script string, timeout time.Duration) (*types.Result, error) {
	return c.Execute(ctx, "console.execute_script", withTimeout(map[string]interface{}{"script": script}, timeout))
}

// Connect starts the server's console
func (c *Client) Connect(ctx context.Context) (*types.Result, error) {
	return c.Execute(ctx, "console.connect", nil)
}

// Disconnect stops the server's console
func (c *Client) Disconnect(ctx context.Context) (*types.Result, error) {
	return c.Execute(ctx, "console.disconnect", nil)
}

// Restart restarts the server's console
func (c *Client) Restart(ctx context.Context) (*types.Result, error) {
	return c.Execute(ctx, "console.restart", nil)
}

// Health is the /health reply
type Health struct {
	Status          string                 `json:"status"`
	Console         console.Status         `json:"console"`
	ServiceRegistry map[string]interface{} `json:"service_registry"`
}

// Health fetches server health
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Services lists the server's services
func (c *Client) Services(ctx context.Context) ([]types.Service, error) {
	var out struct {
		Services []types.Service `json:"services"`
	}
	if err := c.do(ctx, http.MethodGet, "/services", nil, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

func withTimeout(params map[string]interface{}, timeout time.Duration) map[string]interface{} {
	if timeout > 0 {
		params["timeout_ms"] = float64(timeout.Milliseconds())
	}
	return params
}
