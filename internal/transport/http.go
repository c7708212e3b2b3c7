package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// APIError is defined in transport to avoid circular imports with the parent
// client package. It mirrors webull.APIError.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("webull: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// HTTPClient is a resilient HTTP client with retry logic, exponential backoff,
// and jitter for communicating with the Webull OpenAPI gateway. Signed headers
// are attached by the caller; the transport never inspects or logs them.
type HTTPClient struct {
	client     *http.Client
	baseURL    string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        zerolog.Logger
}

// Option is a functional option for configuring HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.baseDelay = d
	}
}

// WithMaxDelay sets the maximum delay cap for exponential backoff.
func WithMaxDelay(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithLogger sets the logger used for per-attempt debug output. Logging is
// disabled by default. Request and response bodies and header values are
// never logged.
func WithLogger(log zerolog.Logger) Option {
	return func(c *HTTPClient) {
		c.log = log
	}
}

// NewHTTPClient creates a new HTTPClient with the given base URL and options.
// Default configuration: timeout=10s, maxRetries=3, baseDelay=100ms, maxDelay=5s.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		client:     &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   5 * time.Second,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request. The query map must be the same one the
// caller signed; the transport only URL-encodes it.
func (c *HTTPClient) Get(ctx context.Context, path string, headers http.Header, query map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, headers, nil)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	return c.do(req)
}

// Post performs an HTTP POST request with a pre-serialized body. The body
// bytes must be exactly the bytes the caller signed.
func (c *HTTPClient) Post(ctx context.Context, path string, headers http.Header, body []byte) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, headers, body)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// do executes the HTTP request with retry logic, exponential backoff, and jitter.
// It buffers the request body upfront so retries can replay it.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("webull: reading request body: %w", err)
		}
		req.Body.Close()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := req.Context().Err(); err != nil {
			return nil, err
		}

		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		c.log.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("attempt", attempt).
			Msg("webull request")

		resp, err := c.client.Do(req)
		if err != nil {
			if !isRetryableError(err) {
				return nil, err
			}
			lastErr = err
			c.log.Debug().Err(err).Int("attempt", attempt).Msg("retryable network error")
			if attempt < c.maxRetries {
				if waitErr := c.backoff(req.Context(), attempt, 0); waitErr != nil {
					return nil, waitErr
				}
			}
			continue
		}

		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		// Retryable status: drain and close the body so the connection can
		// be reused.
		drainBody(resp)
		lastErr = &APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			Path:       req.URL.Path,
			Message:    http.StatusText(resp.StatusCode),
		}
		c.log.Debug().
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Msg("retryable status")

		if attempt < c.maxRetries {
			retryAfter := parseRetryAfter(resp)
			if waitErr := c.backoff(req.Context(), attempt, retryAfter); waitErr != nil {
				return nil, waitErr
			}
		}
	}

	return nil, fmt.Errorf("webull: request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// backoff sleeps for an exponentially increasing duration with jitter, capped
// at maxDelay. If retryAfterSec is positive (from a Retry-After header), that
// value is used instead.
func (c *HTTPClient) backoff(ctx context.Context, attempt int, retryAfterSec int) error {
	var delay time.Duration
	if retryAfterSec > 0 {
		delay = time.Duration(retryAfterSec) * time.Second
	} else {
		exp := math.Pow(2, float64(attempt))
		delay = time.Duration(float64(c.baseDelay) * exp)
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
		// Jitter factor in [0.75, 1.25].
		jitter := 0.75 + rand.Float64()*0.5
		delay = time.Duration(float64(delay) * jitter)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter extracts the Retry-After header value (in seconds) from an
// HTTP response. Returns 0 if the header is absent or unparseable.
func parseRetryAfter(resp *http.Response) int {
	val := resp.Header.Get("Retry-After")
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

// drainBody reads and closes the response body so the underlying connection
// can be returned to the pool.
func drainBody(resp *http.Response) {
	if resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

// isRetryableError reports whether a network-level error is transient and the
// request should be retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Only retry temporary DNS failures; NXDOMAIN is permanent.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return !dnsErr.IsNotFound
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") {
		return true
	}

	return false
}

// isRetryableStatus reports whether an HTTP status code indicates a transient
// failure that should be retried: 429 (Too Many Requests) and all 5xx.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// newRequest builds an *http.Request with the full URL, raw body, and headers.
func (c *HTTPClient) newRequest(ctx context.Context, method, path string, headers http.Header, body []byte) (*http.Request, error) {
	if path != "" && path[0] != '/' {
		path = "/" + path
	}
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("webull: creating request: %w", err)
	}

	// Caller headers first so they take precedence over defaults.
	for key, vals := range headers {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// ParseResponse reads the response body and checks for API errors.
// On success (2xx), it returns the raw body bytes. On error, it returns an
// *APIError with the status code, method, path, and message extracted from
// the response body.
func ParseResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("webull: reading response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Method:     resp.Request.Method,
		Path:       resp.Request.URL.Path,
		Message:    msg,
	}
}
