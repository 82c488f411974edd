package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/retailsync/catalog-sync/internal/core/events"
	"github.com/retailsync/catalog-sync/internal/httpapi/response"
)

// Webhook validates and logs a push-notification delivery, then enqueues
// its asynchronous dispatch and answers 200 before the work runs, so the
// source store never times out and re-delivers.
func (d *Deps) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}

	h := events.Headers{
		Topic:      c.GetHeader("x-wc-webhook-topic"),
		Signature:  c.GetHeader("x-wc-webhook-signature"),
		SourceURL:  c.GetHeader("x-wc-webhook-source"),
		DeliveryID: c.GetHeader("x-wc-webhook-delivery-id"),
	}

	if rej := d.Processor.Validate(h, body); rej != nil {
		response.Fail(c, rej.Status, "WEBHOOK_REJECTED", rej.Reason)
		return
	}

	eventID, err := d.Processor.Receive(c.Request.Context(), h, body)
	if err != nil {
		response.InternalError(c, "failed to log event")
		return
	}

	if err := d.Queue.EnqueueDispatch(eventID); err != nil {
		d.Log.Error().Err(err).Int64("event_id", eventID).Msg("failed to enqueue dispatch")
	}

	response.OK(c, 200, gin.H{"event_id": eventID})
}
