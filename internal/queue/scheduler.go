package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/retailsync/catalog-sync/internal/core/feed"
)

// Scheduler registers the cron-driven background jobs.
type Scheduler struct {
	scheduler   *asynq.Scheduler
	refreshCron string
}

func NewScheduler(redisAddr, refreshCron string) *Scheduler {
	s := asynq.NewScheduler(asynq.RedisClientOpt{Addr: redisAddr}, &asynq.SchedulerOpts{
		Location: time.UTC,
		LogLevel: asynq.InfoLevel,
	})
	return &Scheduler{scheduler: s, refreshCron: refreshCron}
}

// RegisterJobs schedules one feed-refresh task per style on refreshCron,
// plus a daily expired-session purge.
func (s *Scheduler) RegisterJobs() error {
	for _, style := range feed.Styles {
		payload, err := json.Marshal(RefreshFeedPayload{Style: style})
		if err != nil {
			return fmt.Errorf("queue: marshal refresh payload for %s: %w", style, err)
		}
		task := asynq.NewTask(TypeRefreshFeed, payload)
		if _, err := s.scheduler.Register(s.refreshCron, task, asynq.Queue("low"), asynq.MaxRetry(2), asynq.Timeout(10*time.Minute)); err != nil {
			return fmt.Errorf("queue: register refresh job for %s: %w", style, err)
		}
	}

	purge := asynq.NewTask(TypePurgeSessions, nil)
	if _, err := s.scheduler.Register("0 3 * * *", purge, asynq.Queue("low"), asynq.MaxRetry(1)); err != nil {
		return fmt.Errorf("queue: register session purge job: %w", err)
	}

	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
