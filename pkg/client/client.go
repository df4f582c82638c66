// Package client provides the HTTP client for the remote posts API.
// It issues one GET per call and reports failures as typed errors.
package client

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

	"github.com/Sternrassler/posts-sync/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public API the posts are synced from.
const DefaultBaseURL = "https://reqres.in/api"

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posts_sync_api_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "posts_sync_api_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posts_sync_api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// Client is the remote posts API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is prefixed to every request path, e.g. "https://reqres.in/api".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout for a single request. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the transport (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "posts-sync/0.1.0",
		Timeout:   30 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		config:     cfg,
		logger:     logging.NewLogger("api-client"),
	}, nil
}

// Get performs GET base_url+path[?query] and returns the JSON body.
// Any status other than 200 is returned as an *APIError; so are transport
// failures and bodies that are not valid JSON.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	endpoint := EndpointLabel(path)

	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	rawURL := c.baseURL + path
	if q := query.Encode(); q != "" {
		rawURL += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", rawURL).
		Msg("Executing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(endpoint, "network_error", &APIError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(endpoint, "network_error", &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		})
	}

	status := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(endpoint, status, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
		})
	}

	if !json.Valid(body) {
		return nil, c.fail(endpoint, "decode_error", &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "response body is not valid JSON",
		})
	}

	apiRequestsTotal.WithLabelValues(endpoint, status).Inc()
	return json.RawMessage(body), nil
}

// fail records metrics and logs for a failed request.
func (c *Client) fail(endpoint, status string, apiErr *APIError) error {
	apiErrorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()
	apiRequestsTotal.WithLabelValues(endpoint, status).Inc()

	c.logger.Warn().
		Err(apiErr.Err).
		Str("endpoint", endpoint).
		Int("status", apiErr.StatusCode).
		Str("error_class", string(apiErr.ErrorClass)).
		Msg("API request error")

	return apiErr
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// EndpointLabel collapses numeric path segments so that metric labels stay
// bounded: "/posts/12" becomes "/posts/{id}".
func EndpointLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.Atoi(s); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
