// Package queue wires the event processor's asynchronous dispatch and
// the scheduled feed refresh onto asynq.
package queue

const (
	// TypeDispatchEvent asynchronously runs events.Processor.Dispatch for
	// one already-logged event row, so the webhook endpoint can answer 200
	// before the work happens.
	TypeDispatchEvent = "event:dispatch"

	// TypeRefreshFeed regenerates and writes one style's CSV in refresh
	// mode, run on the cron schedule.
	TypeRefreshFeed = "feed:refresh"

	// TypePurgeSessions deletes expired admin sessions.
	TypePurgeSessions = "sessions:purge"
)

// DispatchEventPayload is TypeDispatchEvent's task payload.
type DispatchEventPayload struct {
	EventID int64 `json:"event_id"`
}

// RefreshFeedPayload is TypeRefreshFeed's task payload.
type RefreshFeedPayload struct {
	Style string `json:"style"`
}
