package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseBody = 4 << 20

var (
	ErrUnavailable  = errors.New("backend unavailable")
	ErrRejected     = errors.New("backend rejected request")
	ErrNoValidItems = errors.New("no valid items to update stock")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Client talks to the storefront REST backend. Session cookies set by the
// backend are kept in a cookie jar and replayed on later calls.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client. Tests use it to
// talk to httptest servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(cfg config.BackendConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
			Jar:       jar,
		},
		logger: observability.OrNop(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// a 4xx is the backend working correctly
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c, nil
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	header      http.Header
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("marshal request failed: %w", err)
	}
	req.body = bytes.NewReader(data)
	req.contentType = "application/json"
	return req, nil
}

// do runs one exchange through the breaker and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.exchange(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, req request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for key, values := range req.header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", req.method, req.path, err)
	}

	observability.FromContextOr(ctx, c.logger).Debug("backend call",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// envelope holds the fields the backend uses to report outcomes.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) message(fallback string) string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return fallback
	}
}

// requireSuccess turns {"success": false} on a 2xx into ErrRejected.
func (e envelope) requireSuccess(fallback string) error {
	if e.Success == nil || !*e.Success {
		return fmt.Errorf("%w: %s", ErrRejected, e.message(fallback))
	}
	return nil
}

func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.message("")
}
