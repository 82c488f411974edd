// Package catalogclient is the bearer-authenticated client for the
// downstream advertising catalog's batch API.
package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/retailsync/catalog-sync/internal/core"
)

const maxBatchSize = 1000

// Config holds the ad catalog's base URL, catalog id, and bearer token.
type Config struct {
	BaseURL   string
	CatalogID string
	Token     string
}

func (c Config) validate() error {
	if c.BaseURL == "" || c.CatalogID == "" {
		return fmt.Errorf("catalogclient: base URL and catalog id are required")
	}
	if c.Token == "" {
		return fmt.Errorf("catalogclient: bearer token is required")
	}
	return nil
}

// Client is the ad-catalog client. Configuration is re-validated on every
// call, not just at construction, since the token can be rotated out from
// under a long-lived process.
type Client struct {
	config     Config
	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{config: cfg, httpClient: &http.Client{Timeout: 60 * time.Second}}, nil
}

// DefaultFields is the minimal tuple the reconciler needs, requested by
// Enumerate/LookupByRetailerID unless the caller asks for more.
var DefaultFields = []string{"retailer_id", "availability", "inventory"}

// Enumerate returns the full catalog state, following the opaque
// paging.next cursor chain until exhausted.
func (c *Client) Enumerate(ctx context.Context, fields []string, pageSize int) ([]RemoteRow, error) {
	if err := c.config.validate(); err != nil {
		return nil, err
	}

	var all []RemoteRow
	path := fmt.Sprintf("%s/products", c.config.CatalogID)
	q := url.Values{}
	q.Set("fields", joinFields(fields))
	q.Set("limit", strconv.Itoa(pageSize))

	next := fmt.Sprintf("%s?%s", path, q.Encode())
	for next != "" {
		var page pagingEnvelope
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		next = page.Paging.Next
	}
	return all, nil
}

// LookupByRetailerID returns the one remote row with that retailer-id, or
// (RemoteRow{}, false, nil) when absent.
func (c *Client) LookupByRetailerID(ctx context.Context, retailerID string) (RemoteRow, bool, error) {
	if err := c.config.validate(); err != nil {
		return RemoteRow{}, false, err
	}

	filter := fmt.Sprintf(`{"retailer_id":{"eq":"%s"}}`, retailerID)
	q := url.Values{}
	q.Set("filter", filter)
	q.Set("fields", joinFields(DefaultFields))

	path := fmt.Sprintf("%s/products?%s", c.config.CatalogID, q.Encode())
	var page pagingEnvelope
	if err := c.getJSON(ctx, path, &page); err != nil {
		return RemoteRow{}, false, err
	}
	if len(page.Data) == 0 {
		return RemoteRow{}, false, nil
	}
	return page.Data[0], true, nil
}

// BatchUpsert submits up to 1000 items per call. Splitting larger sets
// into chunks of 1000 is the caller's responsibility.
func (c *Client) BatchUpsert(ctx context.Context, items []BatchRequestItem) (*BatchResponse, error) {
	if len(items) == 0 {
		return &BatchResponse{}, nil
	}
	if len(items) > maxBatchSize {
		return nil, fmt.Errorf("catalogclient: batch of %d exceeds max %d", len(items), maxBatchSize)
	}
	if err := c.config.validate(); err != nil {
		return nil, err
	}

	envelope := BatchEnvelope{ItemType: "PRODUCT_ITEM", Requests: items}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("catalogclient: encode batch: %w", err)
	}

	var resp BatchResponse
	if err := c.postJSON(ctx, fmt.Sprintf("%s/items_batch", c.config.CatalogID), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PollHandle reads the processing status of one async batch handle
// (GET /<handle>). The engine's default posture is optimistic, so nothing
// in the sync paths calls this; it backs the operator API's batch-status
// view.
func (c *Client) PollHandle(ctx context.Context, handle string) (*HandleStatus, error) {
	if err := c.config.validate(); err != nil {
		return nil, err
	}
	var st HandleStatus
	if err := c.getJSON(ctx, handle, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// FetchMetadata reads the catalog's own descriptor
// (GET /<catalog>?fields=…).
func (c *Client) FetchMetadata(ctx context.Context) (*Metadata, error) {
	if err := c.config.validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("fields", joinFields([]string{"id", "name", "product_count"}))

	var meta Metadata
	if err := c.getJSON(ctx, fmt.Sprintf("%s?%s", c.config.CatalogID, q.Encode()), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// UpdateStock is a convenience wrapper building a single-item UPDATE batch.
func (c *Client) UpdateStock(ctx context.Context, retailerID, availability string, inventory *int) (*BatchResponse, error) {
	item := BatchRequestItem{
		Method:     MethodUpdate,
		RetailerID: retailerID,
		Data: ItemData{
			ID:           retailerID,
			Availability: availability,
			Inventory:    inventory,
		},
	}
	return c.BatchUpsert(ctx, []BatchRequestItem{item})
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	reqURL := fmt.Sprintf("%s/%s", c.config.BaseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("catalogclient: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	return c.do(req, dest)
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, dest interface{}) error {
	reqURL := fmt.Sprintf("%s/%s", c.config.BaseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("catalogclient: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Classify(core.Transport, fmt.Errorf("catalogclient: request %s: %w", req.URL.Path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Classify(core.Transport, fmt.Errorf("catalogclient: read response for %s: %w", req.URL.Path, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.Classify(core.DownstreamBatch, fmt.Errorf("catalogclient: %s returned %d: %s", req.URL.Path, resp.StatusCode, string(respBody)))
	}

	if len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("catalogclient: decode response for %s: %w", req.URL.Path, err)
	}
	return nil
}
