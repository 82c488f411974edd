// Package events implements the webhook validation and dispatch pipeline:
// a fail-fast header/signature check on the request path,
// and an asynchronous dispatch that reconciles the cache and submits to
// the ad catalog through the replication engine.
package events

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/retailsync/catalog-sync/internal/core"
	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/replication"
	"github.com/retailsync/catalog-sync/internal/core/retailerid"
	"github.com/retailsync/catalog-sync/internal/core/sourceclient"
)

// Config carries the shared HMAC secret and the hostname the source-url
// header must match.
type Config struct {
	Secret         string
	SourceHostname string
}

// RejectionError is returned by Validate when the request must be
// rejected before any event row is inserted.
type RejectionError struct {
	Status int
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("events: rejected (%d): %s", e.Status, e.Reason)
}

func reject(status int, reason string) *RejectionError {
	return &RejectionError{Status: status, Reason: reason}
}

// Headers is the fixed set of push-notification headers every delivery
// carries (x-wc-webhook-topic, x-wc-webhook-signature, x-wc-webhook-source,
// x-wc-webhook-delivery-id).
type Headers struct {
	Topic      string
	Signature  string
	SourceURL  string
	DeliveryID string
}

// Processor validates and dispatches webhook deliveries.
type Processor struct {
	store   *cache.Store
	source  *sourceclient.Client
	catalog *catalogclient.Client
	engine  *replication.Engine
	cfg     Config
	locks   *KeyLock
	log     zerolog.Logger
}

func New(store *cache.Store, source *sourceclient.Client, catalog *catalogclient.Client, engine *replication.Engine, cfg Config, log zerolog.Logger) *Processor {
	return &Processor{
		store:   store,
		source:  source,
		catalog: catalog,
		engine:  engine,
		cfg:     cfg,
		locks:   NewKeyLock(),
		log:     log,
	}
}

// Validate runs the fail-fast rejection pipeline: missing topic (400),
// hostname mismatch (403), signature mismatch (401), invalid JSON (400).
// Each step short-circuits with its own status.
func (p *Processor) Validate(h Headers, body []byte) *RejectionError {
	if h.Topic == "" {
		return reject(400, "missing topic")
	}

	u, err := url.Parse(h.SourceURL)
	if err != nil || !strings.EqualFold(u.Hostname(), p.cfg.SourceHostname) {
		return reject(403, "source-url hostname mismatch")
	}

	if !p.validSignature(h.Signature, body) {
		return reject(401, "signature mismatch")
	}

	if !json.Valid(body) {
		return reject(400, "invalid JSON body")
	}

	return nil
}

func (p *Processor) validSignature(signatureHeader string, body []byte) bool {
	mac := hmac.New(sha256.New, []byte(p.cfg.Secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	got, err := base64.StdEncoding.DecodeString(signatureHeader)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

// Receive logs one validated delivery and pre-computes its stock delta
// against the cached row, so the event record carries old/new stock even
// after the cache has moved on. The caller must have already run Validate.
func (p *Processor) Receive(ctx context.Context, h Headers, body []byte) (int64, error) {
	np, err := sourceclient.ParseProductPayload(body)
	if err != nil {
		return 0, fmt.Errorf("events: parse payload: %w", err)
	}

	action := strings.TrimPrefix(h.Topic, "product.")

	old, err := p.store.GetCachedStock(ctx, np.ID)
	if err != nil {
		return 0, fmt.Errorf("events: read cached stock for %d: %w", np.ID, err)
	}

	e := cache.Event{
		SourceProductID: np.ID,
		Action:          action,
		Topic:           h.Topic,
		DeliveryID:      h.DeliveryID,
		Name:            np.Name,
		Kind:            string(np.Kind),
		RetailerID:      retailerid.ForProduct(np),
		NewStockStatus:  string(np.StockStatus),
		NewQuantity:     np.StockQuantity,
		RawPayload:      string(body),
		Signature:       h.Signature,
	}
	if old.Found {
		e.OldStockStatus = old.StockStatus
		e.OldQuantity = old.StockQuantity
	}
	if old.Found && np.StockQuantity != nil && old.StockQuantity != nil {
		delta := *np.StockQuantity - *old.StockQuantity
		e.StockChange = &delta
	}

	id, err := p.store.InsertEvent(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("events: insert event: %w", err)
	}
	return id, nil
}

// Dispatch performs the asynchronous work for one already-inserted event.
// It is the asynq task handler's entry point, run outside the request's
// goroutine.
func (p *Processor) Dispatch(ctx context.Context, eventID int64) error {
	e, found, err := p.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("events: get event %d: %w", eventID, err)
	}
	if !found {
		return fmt.Errorf("events: event %d not found", eventID)
	}

	np, err := sourceclient.ParseProductPayload([]byte(e.RawPayload))
	if err != nil {
		p.fail(ctx, eventID, err)
		return err
	}

	unlock := p.locks.Lock(dispatchKey(np))
	defer unlock()

	if err := p.dispatch(ctx, e.Action, np); err != nil {
		p.fail(ctx, eventID, err)
		return err
	}

	if err := p.store.MarkEventProcessed(ctx, eventID); err != nil {
		p.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to mark event processed")
	}
	return nil
}

// dispatchKey normalizes a variation's key to its parent so that events
// about sibling variations of the same variable product still serialize
// against each other the way two events about the same simple product do.
func dispatchKey(p product.Product) int64 {
	if p.Kind == product.KindVariation && p.ParentID != 0 {
		return p.ParentID
	}
	return p.ID
}

func (p *Processor) dispatch(ctx context.Context, action string, np product.Product) error {
	switch action {
	case "created", "restored":
		return p.dispatchCreated(ctx, np)
	case "updated":
		return p.dispatchUpdated(ctx, np)
	case "deleted":
		return p.dispatchDeleted(ctx, np)
	default:
		return fmt.Errorf("events: unknown action %q", action)
	}
}

// dispatchCreated caches the new product and, when it is in stock,
// pushes it through the targeted sync path (recursively for a variable
// parent).
func (p *Processor) dispatchCreated(ctx context.Context, np product.Product) error {
	if !np.InStock() {
		return p.upsertOnly(ctx, np)
	}

	if np.Kind == product.KindVariable {
		if err := p.store.UpsertProducts(ctx, []product.Product{np}); err != nil {
			return fmt.Errorf("events: upsert variable parent %d: %w", np.ID, err)
		}
		return p.engine.SyncVariable(ctx, np)
	}

	var parent *product.Product
	if np.Kind == product.KindVariation {
		par, err := p.rehydrateParent(ctx, np.ParentID)
		if err != nil {
			return err
		}
		parent = &par
	}
	_, err := p.engine.SyncOne(ctx, np, parent)
	return err
}

// dispatchUpdated re-syncs the changed product: recursively for a
// variable parent, with a rehydrated parent for a variation, directly for
// a simple product.
func (p *Processor) dispatchUpdated(ctx context.Context, np product.Product) error {
	if np.Kind == product.KindVariable {
		if err := p.store.UpsertProducts(ctx, []product.Product{np}); err != nil {
			return fmt.Errorf("events: upsert variable parent %d: %w", np.ID, err)
		}
		return p.engine.SyncVariable(ctx, np)
	}

	var parent *product.Product
	if np.Kind == product.KindVariation {
		par, err := p.rehydrateParent(ctx, np.ParentID)
		if err != nil {
			return err
		}
		parent = &par
	}
	_, err := p.engine.SyncOne(ctx, np, parent)
	return err
}

// dispatchDeleted retracts the item (out-of-stock, inventory 0) when it
// ever reached the catalog, then deletes the cached row; sync-status
// cascades away with it. Remote existence comes from the sync-status
// latch, not a fresh catalog lookup: the row is about to be deleted
// anyway, so the latch is the last word on whether there is anything to
// retract.
func (p *Processor) dispatchDeleted(ctx context.Context, np product.Product) error {
	retailerID := retailerid.ForProduct(np)
	zero := 0

	st, found, err := p.store.GetSyncStatus(ctx, retailerID)
	if err != nil {
		return fmt.Errorf("events: read sync status %s before delete: %w", retailerID, err)
	}
	if found && st.ExistsRemote {
		if _, err := p.catalog.UpdateStock(ctx, retailerID, "out of stock", &zero); err != nil {
			return fmt.Errorf("events: retract %s: %w", retailerID, err)
		}
	}

	if np.Kind == product.KindVariation {
		return p.store.DeleteVariation(ctx, np.ID)
	}
	return p.store.DeleteProduct(ctx, np.ID)
}

// rehydrateParent fetches a variation's parent, from cache when possible
// and from the source store otherwise — a variation payload can arrive
// before its parent was ever seen. A parent fetched from the source is
// cached so the variation's row has a parent row to reference.
func (p *Processor) rehydrateParent(ctx context.Context, parentID int64) (product.Product, error) {
	if cached, found, err := p.store.GetProduct(ctx, parentID); err == nil && found {
		return cached, nil
	}
	parent, err := p.source.FetchOne(ctx, parentID)
	if err != nil {
		return product.Product{}, fmt.Errorf("events: rehydrate parent %d: %w", parentID, err)
	}
	if err := p.store.UpsertProducts(ctx, []product.Product{parent}); err != nil {
		return product.Product{}, fmt.Errorf("events: cache rehydrated parent %d: %w", parentID, err)
	}
	return parent, nil
}

func (p *Processor) upsertOnly(ctx context.Context, np product.Product) error {
	if np.Kind == product.KindVariation {
		return p.store.UpsertVariations(ctx, []product.Product{np})
	}
	return p.store.UpsertProducts(ctx, []product.Product{np})
}

func (p *Processor) fail(ctx context.Context, eventID int64, cause error) {
	if kind, ok := core.KindOf(cause); ok {
		p.log.Warn().Int64("event_id", eventID).Str("kind", string(kind)).Err(cause).Msg("event dispatch failed")
	}
	next := time.Now().UTC().Add(time.Minute)
	if err := p.store.MarkEventErrored(ctx, eventID, cause.Error(), &next); err != nil {
		p.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to mark event errored")
	}
}
