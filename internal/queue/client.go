package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Client enqueues tasks onto Redis for the worker process to pick up.
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr string) *Client {
	return &Client{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueDispatch submits eventID for asynchronous processing, called by
// the webhook handler right after it logs the event row.
func (c *Client) EnqueueDispatch(eventID int64) error {
	payload, err := json.Marshal(DispatchEventPayload{EventID: eventID})
	if err != nil {
		return fmt.Errorf("queue: marshal dispatch payload: %w", err)
	}
	task := asynq.NewTask(TypeDispatchEvent, payload)
	if _, err := c.client.Enqueue(task, asynq.Queue("default"), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("queue: enqueue dispatch event %d: %w", eventID, err)
	}
	return nil
}

// EnqueueRefresh submits a feed-refresh task for one style, used by the
// operator-triggered refresh endpoint when it chooses to run out-of-band.
// The cron scheduler registers its own refresh tasks and does not call it.
func (c *Client) EnqueueRefresh(style string) error {
	payload, err := json.Marshal(RefreshFeedPayload{Style: style})
	if err != nil {
		return fmt.Errorf("queue: marshal refresh payload: %w", err)
	}
	task := asynq.NewTask(TypeRefreshFeed, payload)
	if _, err := c.client.Enqueue(task, asynq.Queue("low"), asynq.MaxRetry(2)); err != nil {
		return fmt.Errorf("queue: enqueue refresh %s: %w", style, err)
	}
	return nil
}
