package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/retailsync/catalog-sync/internal/httpapi/response"
)

// SyncInitial runs the bulk replication path synchronously and returns
// its report. A full run can take minutes and is not cancellable
// mid-flight, so this request simply blocks for the duration.
func (d *Deps) SyncInitial(c *gin.Context) {
	report, err := d.Engine.RunBulk(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.OK(c, 200, gin.H{
		"fetched":     report.Fetched,
		"in_stock":    report.InStock,
		"created":     report.Created,
		"updated":     report.Updated,
		"errors":      report.Errors,
		"skipped":     report.Skipped,
		"elapsed_ms":  report.Elapsed().Milliseconds(),
		"started_at":  report.StartedAt,
		"finished_at": report.FinishedAt,
	})
}

// SyncBatchStatus polls one async batch handle's processing status. The
// engine marks items synced optimistically when the catalog answers with
// bare handles, so this exists for the operator to check on the remote
// side after the fact, not for the sync paths themselves.
func (d *Deps) SyncBatchStatus(c *gin.Context) {
	handle := c.Param("handle")
	if handle == "" {
		response.BadRequest(c, "batch handle is required")
		return
	}
	st, err := d.Catalog.PollHandle(c.Request.Context(), handle)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.OK(c, 200, st)
}

// SyncStatus reports cache and webhook counters.
func (d *Deps) SyncStatus(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := d.Store.StatusCounts(ctx)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	webhooks, err := d.Store.WebhookStats(ctx)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	recent, err := d.Store.RecentEvents(ctx, 20)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.OK(c, 200, gin.H{
		"products": gin.H{
			"total":    counts.TotalProducts,
			"in_stock": counts.InStockProducts,
			"synced":   counts.Synced,
			"pending":  counts.Pending,
			"error":    counts.Error,
		},
		"webhooks":      webhooks,
		"recent_events": recent,
	})
}
