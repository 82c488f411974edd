package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/events"
	"github.com/retailsync/catalog-sync/internal/feedwriter"
)

// DispatchHandler runs events.Processor.Dispatch for a queued webhook
// event.
type DispatchHandler struct {
	Processor *events.Processor
	Log       zerolog.Logger
}

func (h *DispatchHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p DispatchEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("queue: unmarshal dispatch payload: %w", err)
	}
	if err := h.Processor.Dispatch(ctx, p.EventID); err != nil {
		h.Log.Error().Err(err).Int64("event_id", p.EventID).Msg("event dispatch failed, will retry")
		return err
	}
	return nil
}

// RefreshHandler regenerates and writes one style's CSV in refresh mode.
type RefreshHandler struct {
	Writer *feedwriter.Writer
	Log    zerolog.Logger
}

func (h *RefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p RefreshFeedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("queue: unmarshal refresh payload: %w", err)
	}
	res, err := h.Writer.WriteStyle(ctx, p.Style, true)
	if err != nil {
		return err
	}
	h.Log.Info().Str("style", p.Style).Int("rows", res.Rows).Msg("scheduled feed refresh finished")
	return nil
}

// PurgeSessionsHandler deletes expired admin sessions.
type PurgeSessionsHandler struct {
	Store *cache.Store
	Log   zerolog.Logger
}

func (h *PurgeSessionsHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	n, err := h.Store.PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		h.Log.Info().Int64("purged", n).Msg("expired sessions purged")
	}
	return nil
}
