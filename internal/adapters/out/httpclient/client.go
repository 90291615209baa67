// Package httpclient is the outbound JSON client shared by the provider
// adapters. It retries 429 and 5xx answers with exponential backoff, honours
// Retry-After and records every attempt in the provider metrics.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
)

const (
	errorBodyLimit       int64 = 1024
	maxRetryAfter              = time.Minute
	defaultTimeout             = 15 * time.Second
	defaultMaxRetries          = 4
	defaultInitialDelay        = 500 * time.Millisecond
	defaultMaxDelay            = 10 * time.Second
)

// StatusError is a non-2xx answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type Config struct {
	Timeout      time.Duration
	MaxRetries   uint64
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	return c
}

// Client performs GET requests for one named provider.
type Client struct {
	http     *http.Client
	provider string
	cfg      Config
	metrics  *metrics.ProviderMetrics
	logger   *slog.Logger
}

func New(provider string, cfg Config, m *metrics.ProviderMetrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		provider: provider,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With("component", "provider_client", "provider", provider),
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	clone := *c
	clone.http = hc
	return &clone
}

func (c *Client) Provider() string { return c.provider }

// GetJSON fetches url and decodes the body into out. Exhausted retries on
// 429 wrap ports.ErrRateLimited.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	// The context wrapper stays outermost so RetryNotify can abort its waits.
	hinted := &retryAfterBackOff{BackOff: c.exponential()}
	policy := backoff.WithContext(backoff.WithMaxRetries(hinted, c.cfg.MaxRetries), ctx)

	var body []byte
	operation := func() error {
		hinted.hint = 0

		var err error
		body, err = c.attempt(ctx, url, header, hinted)
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "provider request retried", "url", url, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%s: %w: %w", c.provider, ports.ErrRateLimited, err)
		}
		return fmt.Errorf("%s: %w", c.provider, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, url string, header http.Header, policy *retryAfterBackOff) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Observe(c.provider, "transport_error", time.Since(started))
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.Observe(c.provider, statusClass(resp.StatusCode), time.Since(started))

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		return body, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	if !statusErr.retryable() {
		return nil, backoff.Permanent(statusErr)
	}
	policy.hint = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	return nil, statusErr
}

func (c *Client) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialDelay
	b.MaxInterval = c.cfg.MaxDelay
	b.MaxElapsedTime = 0
	return b
}

// retryAfterBackOff waits at least as long as the server asked to.
type retryAfterBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop || b.hint <= next {
		return next
	}
	return b.hint
}

// parseRetryAfter reads either delay-seconds or an HTTP date, capped at maxRetryAfter.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = at.Sub(now)
	}

	switch {
	case d < 0:
		return 0
	case d > maxRetryAfter:
		return maxRetryAfter
	default:
		return d
	}
}

func statusClass(code int) string {
	if code == http.StatusTooManyRequests {
		return "429"
	}
	return strconv.Itoa(code/100) + "xx"
}
