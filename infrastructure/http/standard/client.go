// ABOUTME: Standard HTTP client implementation with retry logic and timeout support
// ABOUTME: Adds bearer auth, request ids, and client-side rate limiting

package standard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"entity-cache-api/core/interfaces"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	maxRetries     = 3
	userAgent      = "EntityCacheAPI/1.0"
	defaultTimeout = 30 * time.Second
)

// Options configures the HTTP client.
type Options struct {
	// Timeout bounds each request including retries of the transport.
	// Zero means defaultTimeout.
	Timeout time.Duration

	// APIKey, when set, is sent as a bearer token on every request.
	APIKey string

	// RequestsPerSecond throttles outgoing requests client-side. Zero
	// disables throttling.
	RequestsPerSecond float64
}

// StandardHTTPClient implements the HTTPClient interface using the
// standard library, with exponential-backoff retries on 5xx and
// transport failures.
type StandardHTTPClient struct {
	client  *http.Client
	apiKey  string
	limiter *rate.Limiter
}

// NewStandardHTTPClient creates a new HTTP client with the specified
// timeout.
func NewStandardHTTPClient(timeout time.Duration) *StandardHTTPClient {
	return NewStandardHTTPClientWithOptions(Options{Timeout: timeout})
}

// NewStandardHTTPClientWithOptions creates a new HTTP client from the
// full option set.
func NewStandardHTTPClientWithOptions(opts Options) *StandardHTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &StandardHTTPClient{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		apiKey:  opts.APIKey,
		limiter: limiter,
	}
}

// Get performs an HTTP GET request with retries.
func (c *StandardHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 100ms, 200ms, 400ms
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
				// Continue with retry
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err = c.client.Do(req)
		if err != nil {
			lastErr = err
			resp = nil
			continue
		}

		// Don't retry on success or 4xx errors
		if resp.StatusCode < 500 {
			break
		}

		// Close body for retry
		resp.Body.Close()
		lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
		resp = nil
	}

	if resp == nil {
		return nil, lastErr
	}

	return &httpResponse{
		statusCode: resp.StatusCode,
		body:       resp.Body,
		headers:    resp.Header,
	}, nil
}

// Post performs an HTTP POST request. No retries: the body reader cannot
// be replayed safely.
func (c *StandardHTTPClient) Post(ctx context.Context, url string, body io.Reader) (interfaces.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	return &httpResponse{
		statusCode: resp.StatusCode,
		body:       resp.Body,
		headers:    resp.Header,
	}, nil
}

func (c *StandardHTTPClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *StandardHTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// httpResponse implements the Response interface
type httpResponse struct {
	statusCode int
	body       io.ReadCloser
	headers    http.Header
}

// StatusCode returns the HTTP status code
func (r *httpResponse) StatusCode() int {
	return r.statusCode
}

// Body returns the response body
func (r *httpResponse) Body() io.ReadCloser {
	return r.body
}

// Header returns the value of the specified header
func (r *httpResponse) Header(key string) string {
	return r.headers.Get(key)
}
