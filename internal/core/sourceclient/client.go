// Package sourceclient is a read-only, paginated HTTP client for the
// upstream source store. Authentication is a static key/secret pair
// injected as query parameters, a fixed legacy choice on the server's
// side that the client doesn't get to negotiate.
package sourceclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/retailsync/catalog-sync/internal/core"
	"github.com/retailsync/catalog-sync/internal/core/product"
)

const perPage = 100

// Config holds the source store's base URL and credentials.
type Config struct {
	BaseURL      string
	ConsumerKey  string
	ConsumerSecret string
}

func (c Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("sourceclient: base URL is required")
	}
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return fmt.Errorf("sourceclient: key and secret are required")
	}
	return nil
}

// Client is the read-only source-store client.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New constructs a Client, validating configuration up front.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// UpstreamError wraps a non-2xx response from the source store, preserving
// the status code and body for the run report.
type UpstreamError struct {
	StatusCode int
	Body       string
	Path       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("sourceclient: %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// FetchAllProducts returns the full concatenated product list across
// pages of 100, terminating when a page returns fewer than 100 rows.
// filters is applied as additional query parameters; the only high-level
// filter the source server recognizes is stock_status=instock.
func (c *Client) FetchAllProducts(ctx context.Context, filters map[string]string) ([]product.Product, error) {
	var all []product.Product
	for page := 1; ; page++ {
		batch, err := c.fetchProductPage(ctx, page, filters)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			return all, nil
		}
	}
}

func (c *Client) fetchProductPage(ctx context.Context, page int, filters map[string]string) ([]product.Product, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	for k, v := range filters {
		q.Set(k, v)
	}

	var raw []rawProduct
	if err := c.getJSON(ctx, "products", q, &raw); err != nil {
		return nil, err
	}

	out := make([]product.Product, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toProduct())
	}
	return out, nil
}

// FetchVariations returns up to 100 variations of one variable parent in
// a single request; parents are assumed not to exceed that bound.
func (c *Client) FetchVariations(ctx context.Context, parentID int64) ([]product.Product, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))

	var raw []rawProduct
	path := fmt.Sprintf("products/%d/variations", parentID)
	if err := c.getJSON(ctx, path, q, &raw); err != nil {
		return nil, err
	}

	out := make([]product.Product, 0, len(raw))
	for _, r := range raw {
		p := r.toProduct()
		p.ParentID = parentID
		p.Kind = product.KindVariation
		out = append(out, p)
	}
	return out, nil
}

// FetchOne returns a single product by id, used by the event processor to
// rehydrate a parent after receiving only a variation.
func (c *Client) FetchOne(ctx context.Context, id int64) (product.Product, error) {
	var raw rawProduct
	path := fmt.Sprintf("products/%d", id)
	if err := c.getJSON(ctx, path, url.Values{}, &raw); err != nil {
		return product.Product{}, err
	}
	return raw.toProduct(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dest interface{}) error {
	q.Set("consumer_key", c.config.ConsumerKey)
	q.Set("consumer_secret", c.config.ConsumerSecret)

	reqURL := fmt.Sprintf("%s/%s?%s", c.config.BaseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("sourceclient: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Classify(core.Transport, fmt.Errorf("sourceclient: request %s: %w", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Classify(core.Transport, fmt.Errorf("sourceclient: read response for %s: %w", path, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.Classify(core.UpstreamAPI, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body), Path: path})
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("sourceclient: decode response for %s: %w", path, err)
	}
	return nil
}
