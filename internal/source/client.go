// Package source fetches listing collections from a remote JSON endpoint.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carlist/internal/domain"
)

// maxBodyBytes bounds how much of a response body is read
const maxBodyBytes = 32 << 20

var errUnexpectedStatus = errors.New("unexpected status")

// Client reads the full collection from a fixed endpoint
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each fetch; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for endpoint
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     http.DefaultClient,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("source")
	return c
}

// Endpoint returns the configured endpoint
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchAll retrieves and decodes the full collection.
// Every failure is reported as a *FetchError.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Item, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: c.endpoint, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("fetch failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, &FetchError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &FetchError{
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode,
			Err:        errUnexpectedStatus,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	items, err := DecodeCollection(body)
	if err != nil {
		return nil, &FetchError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("fetch completed",
		zap.String("request_id", requestID),
		zap.Int("items", len(items)),
		zap.Duration("elapsed", time.Since(start)))

	return items, nil
}
