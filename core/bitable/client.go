package bitable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"table-sync/core/telemetry"

	"go.uber.org/zap"
)

// Client issues authenticated bitable API calls with retry.
type Client struct {
	baseURL        string
	appToken       string
	httpClient     *http.Client
	tokens         TokenSource
	retrier        *Retrier
	transientCodes map[int]struct{}
	logger         *zap.Logger
	metrics        *telemetry.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API and token calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource overrides the token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithRetrier overrides the retry policy. The client keeps its own copy of
// r, so one Retrier can configure several clients.
func WithRetrier(r *Retrier) Option {
	return func(c *Client) {
		cp := *r
		c.retrier = &cp
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics sets the metrics sink. Nil disables metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		appToken:       cfg.AppToken,
		transientCodes: ParseCodes(cfg.RetryableCodes),
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		timeout := cfg.TimeoutSeconds
		if timeout <= 0 {
			timeout = 30
		}
		c.httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	}
	if c.tokens == nil {
		c.tokens = NewTokenManager(c.httpClient, c.baseURL, cfg.AppID, cfg.AppSecret)
	}
	if c.retrier == nil {
		c.retrier = NewRetrier()
		if cfg.MaxAttempts > 0 {
			c.retrier.MaxAttempts = cfg.MaxAttempts
		}
	}
	hook := c.retrier.OnEvent
	c.retrier.OnEvent = func(ev RetryEvent) {
		c.observeRetry(ev)
		if hook != nil {
			hook(ev)
		}
	}
	return c
}

// AppToken returns the bitable app token the client targets.
func (c *Client) AppToken() string { return c.appToken }

// Execute performs method on path and decodes the envelope's data into out.
// A nil out discards the data. Retryable failures are retried by the
// client's Retrier; the bearer token is fetched per attempt.
func (c *Client) Execute(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body for %s %s: %w", method, path, err)
		}
		payload = b
	}

	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.attempt(ctx, method, path, query, payload, out)
	})
	c.metrics.RecordRequest(ctx, method, err == nil)
	return err
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transportError{err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &EndpointNotFoundError{Method: method, Path: path}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("decode response of %s %s: %w", method, path, err)
	}
	if env.Code != 0 {
		_, transient := c.transientCodes[env.Code]
		return &APIError{Path: path, Code: env.Code, Message: env.Msg, transient: transient}
	}
	if resp.StatusCode >= 400 {
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data of %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) observeRetry(ev RetryEvent) {
	switch ev.State {
	case StateWaiting:
		reason := retryReason(ev.Err)
		c.logger.Warn("Retrying bitable request",
			zap.Int("attempt", ev.Attempt),
			zap.Duration("wait", ev.Wait),
			zap.String("reason", reason),
			zap.Error(ev.Err),
		)
		c.metrics.RecordRetry(context.Background(), reason)
	case StateExhausted:
		c.logger.Error("Bitable request retries exhausted",
			zap.Int("attempts", ev.Attempt),
			zap.Error(ev.Err),
		)
	}
}

func retryReason(err error) string {
	var te *transportError
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrServerError):
		return "server_error"
	case errors.Is(err, ErrTransient):
		return "transient_code"
	case errors.As(err, &te):
		return "transport"
	default:
		return "other"
	}
}

// ParseCodes parses a comma separated list of envelope codes. Invalid
// entries are ignored.
func ParseCodes(s string) map[int]struct{} {
	out := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out[code] = struct{}{}
	}
	return out
}
