// Package api is a typed client for the WireWave messaging REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tOgg1/wirewave/internal/logging"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 8 << 20
	userAgent        = "wirewave-cli"
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	AuthToken() (string, error)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is requests per second; 0 disables pacing.
	RateLimit float64
	RateBurst int
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client performs API calls on behalf of a session.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a client. tokens may be nil for unauthenticated use
// (login, register, health).
func New(opts Options, tokens TokenSource) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("api base url required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", raw)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		base:   base,
		http:   httpClient,
		tokens: tokens,
		logger: logging.Component("api"),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// request describes one call.
type request struct {
	method string
	// segments are joined and escaped individually.
	segments []string
	query    url.Values
	body     any
	auth     bool
}

func (r request) path() string {
	escaped := make([]string, len(r.segments))
	for i, s := range r.segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

// do executes req and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	raw, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.method, req.path(), err)
	}
	return nil
}

// send executes req and returns the raw 2xx body.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	path := req.path()

	var token string
	if req.auth {
		if c.tokens == nil {
			return nil, fmt.Errorf("%s %s: %w", req.method, path, ErrUnauthorized)
		}
		t, err := c.tokens.AuthToken()
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w: %w", req.method, path, ErrUnauthorized, err)
		}
		token = t
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode request: %w", req.method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	target := *c.base
	target.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.Join(req.segments, "/")
	target.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + path
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	if e := c.logger.Debug(); e.Enabled() {
		e.Str("method", req.method).
			Str("path", path).
			Interface("headers", logging.RedactHeaders(httpReq.Header)).
			Msg("sending request")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: req.method, Path: path, Err: err}
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug().Str("method", req.method).Str("path", path).Err(err).Msg("request failed")
		return nil, &TransportError{Method: req.method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: path, Err: err}
	}
	if len(raw) > maxResponseBytes {
		return nil, fmt.Errorf("%s %s: %w: body exceeds %s", req.method, path, ErrBadResponse, humanize.IBytes(maxResponseBytes))
	}

	c.logger.Debug().
		Str("method", req.method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Method:  req.method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
		}
		c.logger.Debug().Str("path", path).Str("body", logging.Redact(string(raw))).Msg("error response")
		return nil, apiErr
	}
	return raw, nil
}

// decodeList decodes a JSON array. An empty body or null is an empty list;
// anything else that is not a well-formed array is ErrBadResponse.
func decodeList[T any](req request, raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%s %s: %w: expected a list", req.method, req.path(), ErrBadResponse)
	}
	out := []T{}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", req.method, req.path(), ErrBadResponse, err)
	}
	return out, nil
}

func decodeInto(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
