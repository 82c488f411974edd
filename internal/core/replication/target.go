package replication

import (
	"context"
	"fmt"

	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
	"github.com/retailsync/catalog-sync/internal/core/mapper"
	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/retailerid"
)

// TargetOutcome describes what SyncOne did, for the event processor's
// logging and the operator API's single-item refresh endpoint.
type TargetOutcome string

const (
	OutcomeNoop    TargetOutcome = "noop"
	OutcomeSynced  TargetOutcome = "synced"
	OutcomeErrored TargetOutcome = "errored"
)

// SyncOne runs the targeted sync path for one product or variation.
// parent is required when p is a variation (the mapper needs it for
// link/categories/attribute inheritance) and ignored otherwise.
func (e *Engine) SyncOne(ctx context.Context, p product.Product, parent *product.Product) (TargetOutcome, error) {
	retailerID := retailerid.ForProduct(p)

	if err := e.upsertOne(ctx, p); err != nil {
		return OutcomeErrored, fmt.Errorf("replication: cache upsert %s: %w", retailerID, err)
	}

	st, _, err := e.store.GetSyncStatus(ctx, retailerID)
	if err != nil {
		return OutcomeErrored, fmt.Errorf("replication: get sync status %s: %w", retailerID, err)
	}

	availability := retailerid.Availability(p.StockStatus)
	inventory := p.Inventory()

	if !p.InStock() {
		if !st.ExistsRemote {
			// out-of-stock and not known remotely: nothing to retract.
			return OutcomeNoop, nil
		}
		resp, err := e.catalog.UpdateStock(ctx, retailerID, "out of stock", inventory)
		return e.finishSingle(ctx, retailerID, p.ID, "out of stock", inventory, st.ExistsRemote, resp, err)
	}

	if st.SyncState == "synced" && !st.HasChanged(availability, inventory) {
		return OutcomeNoop, nil
	}

	it := mapper.Map(p, parent, defaultStyle, e.cfg.Mapper)
	_, found, err := e.catalog.LookupByRetailerID(ctx, retailerID)
	if err != nil {
		return OutcomeErrored, fmt.Errorf("replication: lookup %s: %w", retailerID, err)
	}
	method := catalogclient.MethodCreate
	if found {
		method = catalogclient.MethodUpdate
	}

	resp, err := e.catalog.BatchUpsert(ctx, []catalogclient.BatchRequestItem{toBatchItem(method, it)})
	return e.finishSingle(ctx, retailerID, p.ID, availability, inventory, found, resp, err)
}

// finishSingle records the outcome of a single-item submission in
// sync_status, sharing the same response-interpretation rules as the bulk
// path's applyBatchResponse (bare async handles are treated as optimistic
// success everywhere). wasRemote is the latch
// value going in; an errored submission preserves it, a successful one
// latches it to true.
func (e *Engine) finishSingle(ctx context.Context, retailerID string, productID int64, availability string, inventory *int, wasRemote bool, resp *catalogclient.BatchResponse, submitErr error) (TargetOutcome, error) {
	if submitErr != nil {
		_ = e.store.UpsertSyncStatus(ctx, cache.SyncStatus{
			RetailerID: retailerID, ProductID: productID, SyncState: "error",
			ExistsRemote: wasRemote, LastError: submitErr.Error(),
		})
		return OutcomeErrored, submitErr
	}

	if resp.Error != nil {
		_ = e.store.UpsertSyncStatus(ctx, cache.SyncStatus{
			RetailerID: retailerID, ProductID: productID, SyncState: "error",
			ExistsRemote: wasRemote, LastError: resp.Error.Message,
		})
		return OutcomeErrored, nil
	}
	for _, v := range resp.ValidationStatus {
		if v.RetailerID == retailerID && len(v.Errors) > 0 {
			_ = e.store.UpsertSyncStatus(ctx, cache.SyncStatus{
				RetailerID: retailerID, ProductID: productID, SyncState: "error",
				ExistsRemote: wasRemote, LastError: v.Errors[0],
			})
			return OutcomeErrored, nil
		}
	}

	_ = e.store.UpsertSyncStatus(ctx, cache.SyncStatus{
		RetailerID: retailerID, ProductID: productID,
		LastAvailability: availability, LastInventory: inventory,
		SyncState: "synced", ExistsRemote: true,
	})
	return OutcomeSynced, nil
}

func (e *Engine) upsertOne(ctx context.Context, p product.Product) error {
	if p.Kind == product.KindVariation {
		return e.store.UpsertVariations(ctx, []product.Product{p})
	}
	return e.store.UpsertProducts(ctx, []product.Product{p})
}

// SyncVariable fetches a variable parent's variations and runs the
// targeted path on each, skipping the parent itself: variant-level rows
// hold the authoritative price data, the parent only groups them.
func (e *Engine) SyncVariable(ctx context.Context, parent product.Product) error {
	if err := e.store.UpsertProducts(ctx, []product.Product{parent}); err != nil {
		return fmt.Errorf("replication: upsert variable parent %d: %w", parent.ID, err)
	}

	variations, err := e.source.FetchVariations(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("replication: fetch variations for %d: %w", parent.ID, err)
	}

	for _, v := range variations {
		if _, err := e.SyncOne(ctx, v, &parent); err != nil {
			return fmt.Errorf("replication: sync variation %d: %w", v.ID, err)
		}
	}
	return nil
}
