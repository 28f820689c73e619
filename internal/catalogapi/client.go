package catalogapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"PriceScout/internal/product"
)

const (
	SearchPath = "/api/products/search"

	maxBodyBytes = 4 << 20
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
	Log     *zap.Logger
	Metrics *Metrics

	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     zap.NewNop(),
	}
}

type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "catalog-search",
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// WithBreaker puts the search calls behind a circuit breaker. Transport
// failures and 5xx answers count against it; 4xx answers do not.
func (c *Client) WithBreaker(cfg BreakerConfig) *Client {
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && se.Status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger().Warn("catalog breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Search calls GET /api/products/search?name=<query> and decodes the
// result. Errors are *StatusError, ErrUnavailable or a *product.DecodeError.
func (c *Client) Search(ctx context.Context, query string) ([]product.Record, error) {
	start := time.Now()
	recs, err := c.search(ctx, query)
	c.Metrics.observe(ErrorLabel(err), time.Since(start))
	return recs, err
}

func (c *Client) search(ctx context.Context, query string) ([]product.Record, error) {
	body, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	recs, skipped, err := product.DecodeRecords(body)
	if err != nil {
		c.logger().Warn("catalog search: undecodable payload", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	c.Metrics.records(len(recs), skipped)
	if skipped > 0 {
		c.logger().Warn("catalog search: skipped malformed records",
			zap.String("query", query),
			zap.Int("skipped", skipped),
			zap.Int("kept", len(recs)),
		)
	}
	return recs, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]byte, error) {
	if c.breaker == nil {
		return c.roundTrip(ctx, query)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, query string) ([]byte, error) {
	u := c.BaseURL + SearchPath + "?" + url.Values{"name": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	if c.Tokens != nil {
		tok, err := c.Tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := newStatusError(resp.StatusCode, body)
		c.logger().Warn("catalog search: bad status",
			zap.String("query", query),
			zap.Int("status", resp.StatusCode),
			zap.String("message", se.Message),
		)
		return nil, se
	}

	return body, nil
}

func (c *Client) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}
