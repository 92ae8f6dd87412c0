// Package catalog loads the session's product snapshot from the catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/state"
	"github.com/sony/gobreaker/v2"
)

// Loader fetches the product catalog. Failures are always *FetchError.
type Loader interface {
	Load(ctx context.Context) ([]state.Product, error)
}

// FetchError is the single failure kind of a catalog load.
type FetchError struct {
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return "catalog fetch failed: " + e.Reason
	}
	return fmt.Sprintf("catalog fetch failed: %s: %v", e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Config points the client at the catalog service.
type Config struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

type Client struct {
	endpoint *url.URL
	pageSize int
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
}

var _ Loader = (*Client)(nil)

// NewClient builds a catalog client. httpClient carries the transport (breaker, tracing).
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid catalog base url %q", cfg.BaseURL)
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("invalid catalog page size %d", cfg.PageSize)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint: u.JoinPath("api", "v1", "products"),
		pageSize: cfg.PageSize,
		timeout:  cfg.Timeout,
		http:     httpClient,
		logger:   logger.With("component", "catalog_client"),
	}, nil
}

// Load reads the product list page by page until a page comes back short.
// The timeout bounds the whole load; any failed page fails the load. It does not retry.
func (c *Client) Load(ctx context.Context) ([]state.Product, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	products := make([]state.Product, 0)
	for offset := 0; ; offset += c.pageSize {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		products = append(products, page...)
		if len(page) < c.pageSize {
			break
		}
	}
	if err := checkUnique(products); err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "catalog loaded", "count", len(products), "duration_ms", time.Since(start).Milliseconds())
	return products, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) ([]state.Product, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Reason: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &FetchError{Reason: "catalog service unavailable", Err: err}
		}
		return nil, &FetchError{Reason: "network", Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Reason: fmt.Sprintf("unexpected status %d at offset %d", resp.StatusCode, offset)}
	}

	var page []state.Product
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &FetchError{Reason: "decode", Err: err}
	}
	return page, nil
}

func checkUnique(products []state.Product) error {
	seen := make(map[int64]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return &FetchError{Reason: fmt.Sprintf("duplicate product id %d", p.ID)}
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
