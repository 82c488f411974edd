package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Event is one logged webhook delivery, including the stock delta
// computed at receipt time.
type Event struct {
	ID               int64
	SourceProductID  int64
	Action           string
	Topic            string
	DeliveryID       string
	Name             string
	Kind             string
	RetailerID       string
	OldStockStatus   string
	NewStockStatus   string
	OldQuantity      *int
	NewQuantity      *int
	StockChange      *int
	Processed        bool
	ProcessedAt      *time.Time
	Error            string
	AttemptCount     int
	NextRetryAt      *time.Time
	RawPayload       string
	Signature        string
	CreatedAt        time.Time
}

// InsertEvent logs a webhook delivery before dispatching it asynchronously.
// The raw payload and signature are kept verbatim so a failed dispatch can
// be replayed without re-validating against the source.
func (s *Store) InsertEvent(ctx context.Context, e Event) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (source_product_id, action, topic, delivery_id, name, kind, retailer_id,
			old_stock_status, new_stock_status, old_quantity, new_quantity, stock_change, processed,
			raw_payload, signature, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`, e.SourceProductID, e.Action, e.Topic, e.DeliveryID, e.Name, e.Kind, e.RetailerID,
		e.OldStockStatus, e.NewStockStatus, e.OldQuantity, e.NewQuantity, e.StockChange,
		e.RawPayload, e.Signature, nowUTC())
	if err != nil {
		return 0, fmt.Errorf("cache: insert event: %w", err)
	}
	return res.LastInsertId()
}

// MarkEventProcessed records successful completion of an event's async
// work.
func (s *Store) MarkEventProcessed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE events SET processed = 1, processed_at = ?, error = '' WHERE id = ?`, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("cache: mark event %d processed: %w", id, err)
	}
	return nil
}

// MarkEventErrored records a failed async attempt and bumps the retry
// bookkeeping columns. nextRetryAt is nil when no further retry is
// scheduled (the queue's own backoff policy owns scheduling; this column
// exists so /sync/status can surface it without querying asynq).
func (s *Store) MarkEventErrored(ctx context.Context, id int64, errMsg string, nextRetryAt *time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET processed = 0, error = ?, attempt_count = attempt_count + 1, next_retry_at = ?
		WHERE id = ?
	`, errMsg, nextRetryAt, id)
	if err != nil {
		return fmt.Errorf("cache: mark event %d errored: %w", id, err)
	}
	return nil
}

// GetEvent fetches one event row, used by the worker to re-read delta
// context when processing a queued task.
func (s *Store) GetEvent(ctx context.Context, id int64) (Event, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_product_id, action, topic, delivery_id, name, kind, retailer_id,
			old_stock_status, new_stock_status, old_quantity, new_quantity, stock_change,
			processed, processed_at, error, attempt_count, next_retry_at,
			raw_payload, signature, created_at
		FROM events WHERE id = ?`, id)

	var e Event
	var processed int
	err := row.Scan(&e.ID, &e.SourceProductID, &e.Action, &e.Topic, &e.DeliveryID, &e.Name, &e.Kind, &e.RetailerID,
		&e.OldStockStatus, &e.NewStockStatus, &e.OldQuantity, &e.NewQuantity, &e.StockChange,
		&processed, &e.ProcessedAt, &e.Error, &e.AttemptCount, &e.NextRetryAt,
		&e.RawPayload, &e.Signature, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, fmt.Errorf("cache: get event %d: %w", id, err)
	}
	e.Processed = processed != 0
	return e, true, nil
}

// RecentEvents returns the last n events, newest first, for the
// /sync/status operator view.
func (s *Store) RecentEvents(ctx context.Context, n int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_product_id, action, topic, delivery_id, name, kind, retailer_id,
			old_stock_status, new_stock_status, old_quantity, new_quantity, stock_change,
			processed, processed_at, error, attempt_count, next_retry_at,
			raw_payload, signature, created_at
		FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("cache: recent events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var processed int
		if err := rows.Scan(&e.ID, &e.SourceProductID, &e.Action, &e.Topic, &e.DeliveryID, &e.Name, &e.Kind, &e.RetailerID,
			&e.OldStockStatus, &e.NewStockStatus, &e.OldQuantity, &e.NewQuantity, &e.StockChange,
			&processed, &e.ProcessedAt, &e.Error, &e.AttemptCount, &e.NextRetryAt,
			&e.RawPayload, &e.Signature, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("cache: scan event: %w", err)
		}
		e.Processed = processed != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// WebhookStats summarizes event throughput for /sync/status.
type WebhookStats struct {
	Total     int
	Processed int
	Errored   int
}

func (s *Store) WebhookStats(ctx context.Context) (WebhookStats, error) {
	var st WebhookStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&st.Total); err != nil {
		return st, fmt.Errorf("cache: count events: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE processed = 1`).Scan(&st.Processed); err != nil {
		return st, fmt.Errorf("cache: count processed events: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE error != ''`).Scan(&st.Errored); err != nil {
		return st, fmt.Errorf("cache: count errored events: %w", err)
	}
	return st, nil
}
