// Package webull is a client for the Webull OpenAPI. All requests are
// authenticated with the HMAC-SHA1 request-signing scheme; see
// internal/signing for the algorithm.
package webull

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantrail/webull-openapi-go/internal/signing"
	"github.com/quantrail/webull-openapi-go/internal/transport"
)

// DefaultBaseURL is the production Webull OpenAPI gateway.
const DefaultBaseURL = "https://api.webull.com"

// Credentials holds the app key pair issued by Webull. The secret is used
// only as HMAC key material; it is never logged or serialized.
type Credentials struct {
	AppKey    string
	AppSecret string
}

// Client is a Webull OpenAPI client. Every request is signed with the
// HMAC-SHA1 scheme implemented in internal/signing; the client stamps the
// timestamp and nonce immediately before signing so each call carries fresh
// volatile material. Safe for concurrent use.
type Client struct {
	http  *transport.HTTPClient
	creds Credentials
	host  string

	// Overridable for tests. Production values are wall-clock UTC and a
	// fresh uuid with hyphens stripped.
	now   func() time.Time
	nonce func() string
}

type clientConfig struct {
	baseURL       string
	transportOpts []transport.Option
}

// Option configures the Client.
type Option func(*clientConfig)

// WithBaseURL overrides the API gateway URL. The signed host header follows
// the URL's host.
func WithBaseURL(u string) Option {
	return func(cfg *clientConfig) { cfg.baseURL = u }
}

// WithTimeout sets the underlying HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.transportOpts = append(cfg.transportOpts, transport.WithTimeout(d))
	}
}

// WithMaxRetries sets the maximum number of transport retry attempts.
func WithMaxRetries(n int) Option {
	return func(cfg *clientConfig) {
		cfg.transportOpts = append(cfg.transportOpts, transport.WithMaxRetries(n))
	}
}

// WithLogger enables transport debug logging. Secret material and signed
// header values are never logged.
func WithLogger(log zerolog.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.transportOpts = append(cfg.transportOpts, transport.WithLogger(log))
	}
}

// NewClient creates a Webull OpenAPI client with the given credentials.
func NewClient(creds Credentials, opts ...Option) *Client {
	cfg := clientConfig{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{
		http:  transport.NewHTTPClient(cfg.baseURL, cfg.transportOpts...),
		creds: creds,
		host:  hostFromURL(cfg.baseURL),
		now:   time.Now,
		nonce: newNonce,
	}
}

// hostFromURL extracts the lowercase host (with port, if any) that
// participates in signing. It must match the wire Host derived from the
// request URL.
func hostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	return strings.ToLower(u.Host)
}

// newNonce returns a fresh collision-resistant token in the 32-hex-char
// shape the protocol uses.
func newNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// signedHeaders builds and signs the canonical header set for one request.
// The query map and body bytes must be exactly what goes on the wire.
func (c *Client) signedHeaders(path string, query map[string]string, body []byte) (http.Header, error) {
	if c.creds.AppKey == "" || c.creds.AppSecret == "" {
		return nil, &AuthError{Message: "app key and secret required for signed requests"}
	}
	req := signing.Request{
		Path:      path,
		Query:     query,
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Nonce:     c.nonce(),
		AppKey:    c.creds.AppKey,
		Algorithm: signing.AlgorithmHMACSHA1,
		Version:   signing.SignatureVersion,
		Host:      c.host,
		Body:      body,
	}
	sig, err := signing.Sign(req, c.creds.AppSecret)
	if err != nil {
		return nil, err
	}
	return signing.SignedHeaders(req, sig), nil
}

// getJSON performs a signed GET and returns the raw response body.
func (c *Client) getJSON(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	headers, err := c.signedHeaders(path, query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Get(ctx, path, headers, query)
	if err != nil {
		return nil, err
	}
	return transport.ParseResponse(resp)
}

// postJSON marshals body, signs the exact bytes, performs a POST, and
// returns the raw response body.
func (c *Client) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, &signing.EncodingError{Message: fmt.Sprintf("marshalling request body: %v", err)}
		}
	}
	headers, err := c.signedHeaders(path, nil, raw)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Post(ctx, path, headers, raw)
	if err != nil {
		return nil, err
	}
	return transport.ParseResponse(resp)
}

// paginate drives cursor-based pagination, yielding items one at a time and
// stopping on context cancellation, fetch error, or an empty next cursor.
func paginate[T any](ctx context.Context, fetch func(cursor string) (PaginatedResponse[T], error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		cursor := ""
		for {
			if err := ctx.Err(); err != nil {
				var zero T
				yield(zero, err)
				return
			}
			page, err := fetch(cursor)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Data {
				if !yield(item, nil) {
					return
				}
			}
			if page.NextCursor == "" {
				return
			}
			cursor = page.NextCursor
		}
	}
}
