// Package replication implements the bulk and targeted sync paths:
// reading the source store, reconciling against the ad catalog's current
// state, and submitting batch upserts.
package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
	"github.com/retailsync/catalog-sync/internal/core/mapper"
	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/retailerid"
	"github.com/retailsync/catalog-sync/internal/core/sourceclient"
)

const (
	batchChunkSize = 1000
	enumeratePage  = 100
	defaultStyle   = "standard"
)

// Config carries the mapper constants the engine hands to every mapper.Map
// call.
type Config struct {
	Mapper mapper.Config
}

// Engine orchestrates both the bulk and targeted replication paths.
type Engine struct {
	source  *sourceclient.Client
	catalog *catalogclient.Client
	store   *cache.Store
	cfg     Config
	log     zerolog.Logger
}

func New(source *sourceclient.Client, catalog *catalogclient.Client, store *cache.Store, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{source: source, catalog: catalog, store: store, cfg: cfg, log: log}
}

// RunBulk executes the full bulk sync: fetch in-stock products, cache
// them, enumerate the remote catalog, emit one batch item per replicable
// row, submit in chunks, and record per-item sync-status.
func (e *Engine) RunBulk(ctx context.Context) (*BulkReport, error) {
	report := &BulkReport{StartedAt: time.Now().UTC()}

	products, err := e.source.FetchAllProducts(ctx, map[string]string{"stock_status": "instock"})
	if err != nil {
		return nil, fmt.Errorf("replication: fetch products: %w", err)
	}
	report.Fetched = len(products)

	if err := e.store.UpsertProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("replication: upsert products: %w", err)
	}

	remoteRows, err := e.catalog.Enumerate(ctx, catalogclient.DefaultFields, enumeratePage)
	if err != nil {
		return nil, fmt.Errorf("replication: enumerate catalog: %w", err)
	}
	remote := make(map[string]catalogclient.RemoteRow, len(remoteRows))
	for _, row := range remoteRows {
		remote[row.RetailerID] = row
	}

	byID := make(map[int64]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var items []catalogclient.BatchRequestItem
	var variableParentIDs []int64

	for _, p := range products {
		if p.InStock() {
			report.InStock++
		}
		switch p.Kind {
		case product.KindVariable:
			variableParentIDs = append(variableParentIDs, p.ID)
		case product.KindSimple:
			if !p.InStock() {
				report.Skipped++
				continue
			}
			it := mapper.Map(p, nil, defaultStyle, e.cfg.Mapper)
			items = append(items, toBatchItem(methodFor(remote, it.ID), it))
		}
	}

	err = fetchVariationsInGroups(ctx, e.source, variableParentIDs, func(variations []product.Product) error {
		if err := e.store.UpsertVariations(ctx, variations); err != nil {
			return fmt.Errorf("upsert variations: %w", err)
		}
		for _, v := range variations {
			if !v.InStock() {
				report.Skipped++
				continue
			}
			parent := byID[v.ParentID]
			it := mapper.Map(v, &parent, defaultStyle, e.cfg.Mapper)
			items = append(items, toBatchItem(methodFor(remote, it.ID), it))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replication: fetch variations: %w", err)
	}

	for _, chunk := range chunkItems(items, batchChunkSize) {
		resp, err := e.catalog.BatchUpsert(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("replication: submit batch: %w", err)
		}
		created, updated, errored := e.applyBatchResponse(ctx, chunk, resp, remote)
		report.Created += created
		report.Updated += updated
		report.Errors += errored
	}

	report.FinishedAt = time.Now().UTC()
	e.log.Info().
		Int("fetched", report.Fetched).
		Int("in_stock", report.InStock).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("errors", report.Errors).
		Int("skipped", report.Skipped).
		Dur("elapsed", report.Elapsed()).
		Msg("bulk replication run finished")

	return report, nil
}

// RefreshCache runs the bulk path's fetch-and-cache steps plus the
// variation fetch, without touching the ad catalog. The feed generator's
// refresh mode uses this to repopulate the cache before reading it back
// out as CSV.
func (e *Engine) RefreshCache(ctx context.Context) error {
	products, err := e.source.FetchAllProducts(ctx, map[string]string{"stock_status": "instock"})
	if err != nil {
		return fmt.Errorf("replication: refresh fetch products: %w", err)
	}
	if err := e.store.UpsertProducts(ctx, products); err != nil {
		return fmt.Errorf("replication: refresh upsert products: %w", err)
	}

	var variableParentIDs []int64
	for _, p := range products {
		if p.Kind == product.KindVariable {
			variableParentIDs = append(variableParentIDs, p.ID)
		}
	}

	return fetchVariationsInGroups(ctx, e.source, variableParentIDs, func(variations []product.Product) error {
		return e.store.UpsertVariations(ctx, variations)
	})
}

// methodFor decides CREATE vs UPDATE by whether the retailer-id is already
// known to the ad catalog, checked against the bulk-enumerated mapping
// instead of a per-item lookup.
func methodFor(remote map[string]catalogclient.RemoteRow, retailerID string) catalogclient.ItemMethod {
	if _, ok := remote[retailerID]; ok {
		return catalogclient.MethodUpdate
	}
	return catalogclient.MethodCreate
}

// applyBatchResponse interprets one chunk's response, updating sync-status
// for every item in the chunk and returning (created, updated, errored)
// counts. finishSingle in target.go applies the same rules to single-item
// submissions, so a bare-handles response is read identically on both
// paths.
func (e *Engine) applyBatchResponse(ctx context.Context, chunk []catalogclient.BatchRequestItem, resp *catalogclient.BatchResponse, remote map[string]catalogclient.RemoteRow) (created, updated, errored int) {
	errByRetailerID := map[string]string{}
	if resp.Error != nil {
		for _, item := range chunk {
			errByRetailerID[item.RetailerID] = resp.Error.Message
		}
	} else if len(resp.ValidationStatus) > 0 {
		for _, v := range resp.ValidationStatus {
			if len(v.Errors) > 0 {
				errByRetailerID[v.RetailerID] = v.Errors[0]
			}
		}
	}
	// Neither an error nor a validation-status array, but handles came
	// back: every item was accepted for async processing and is trusted
	// to apply eventually.

	for _, item := range chunk {
		wasCreate := item.Method == catalogclient.MethodCreate
		if msg, failed := errByRetailerID[item.RetailerID]; failed {
			errored++
			_ = e.store.UpsertSyncStatus(ctx, cache.SyncStatus{
				RetailerID:   item.RetailerID,
				ProductID:    productIDFromRetailerID(item.RetailerID),
				SyncState:    "error",
				ExistsRemote: !wasCreate,
				LastError:    msg,
			})
			continue
		}
		if wasCreate {
			created++
		} else {
			updated++
		}
		_ = e.store.UpsertSyncStatus(ctx, cache.SyncStatus{
			RetailerID:       item.RetailerID,
			ProductID:        productIDFromRetailerID(item.RetailerID),
			LastAvailability: item.Data.Availability,
			LastInventory:    item.Data.Inventory,
			SyncState:        "synced",
			ExistsRemote:     true,
		})
	}
	return created, updated, errored
}

// productIDFromRetailerID recovers the numeric source id a retailer-id
// was derived from. Safe because retailerid.ForProduct always emits
// "wc_<id>" or "wc_<id>_main"; sync_status only needs the id for the
// cascade-delete triggers to find it, so an unparsable value falls back
// to 0 rather than failing the whole sync.
func productIDFromRetailerID(id string) int64 {
	return retailerid.ParseProductID(id)
}

func chunkItems(items []catalogclient.BatchRequestItem, size int) [][]catalogclient.BatchRequestItem {
	if len(items) == 0 {
		return nil
	}
	var chunks [][]catalogclient.BatchRequestItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
