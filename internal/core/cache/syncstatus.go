package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SyncStatus is the per-item replication bookkeeping row.
type SyncStatus struct {
	RetailerID      string
	ProductID       int64
	LastAvailability string
	LastInventory   *int
	SyncState       string // "pending", "synced", "error"
	ExistsRemote    bool
	LastError       string
}

// GetSyncStatus returns the current sync-status row for one retailer-id,
// if any.
func (s *Store) GetSyncStatus(ctx context.Context, retailerID string) (SyncStatus, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT retailer_id, product_id, last_availability, last_inventory, sync_state, exists_remote, last_error
		FROM sync_status WHERE retailer_id = ?`, retailerID)

	var st SyncStatus
	err := row.Scan(&st.RetailerID, &st.ProductID, &st.LastAvailability, &st.LastInventory, &st.SyncState, &st.ExistsRemote, &st.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncStatus{}, false, nil
	}
	if err != nil {
		return SyncStatus{}, false, fmt.Errorf("cache: get sync status %s: %w", retailerID, err)
	}
	return st, true, nil
}

// UpsertSyncStatus records the outcome of a sync attempt for one item.
func (s *Store) UpsertSyncStatus(ctx context.Context, st SyncStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_status (retailer_id, product_id, last_availability, last_inventory, sync_state, exists_remote, last_error, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(retailer_id) DO UPDATE SET
			product_id=excluded.product_id, last_availability=excluded.last_availability,
			last_inventory=excluded.last_inventory, sync_state=excluded.sync_state,
			exists_remote=excluded.exists_remote, last_error=excluded.last_error,
			synced_at=excluded.synced_at
	`, st.RetailerID, st.ProductID, st.LastAvailability, st.LastInventory, st.SyncState, st.ExistsRemote, st.LastError, nowUTC())
	if err != nil {
		return fmt.Errorf("cache: upsert sync status %s: %w", st.RetailerID, err)
	}
	return nil
}

// HasChanged reports whether availability or inventory moved since the
// last recorded sync; equal values on both mean the remote side is
// already current.
func (st SyncStatus) HasChanged(newAvailability string, newInventory *int) bool {
	if st.LastAvailability != newAvailability {
		return true
	}
	return !equalIntPtr(st.LastInventory, newInventory)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StatusCounts is the aggregate summary for GET /sync/status.
type StatusCounts struct {
	TotalProducts   int
	InStockProducts int
	Synced          int
	Pending         int
	Error           int
}

func (s *Store) StatusCounts(ctx context.Context) (StatusCounts, error) {
	var c StatusCounts
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&c.TotalProducts); err != nil {
		return c, fmt.Errorf("cache: count products: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE stock_status != 'outofstock'`).Scan(&c.InStockProducts); err != nil {
		return c, fmt.Errorf("cache: count in-stock products: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_status WHERE sync_state = 'synced'`).Scan(&c.Synced); err != nil {
		return c, fmt.Errorf("cache: count synced: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_status WHERE sync_state = 'pending'`).Scan(&c.Pending); err != nil {
		return c, fmt.Errorf("cache: count pending: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_status WHERE sync_state = 'error'`).Scan(&c.Error); err != nil {
		return c, fmt.Errorf("cache: count error: %w", err)
	}
	return c, nil
}
