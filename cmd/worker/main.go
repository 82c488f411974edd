// Command worker runs the asynchronous event-dispatch and scheduled
// feed-refresh jobs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/retailsync/catalog-sync/internal/app"
	"github.com/retailsync/catalog-sync/internal/config"
	"github.com/retailsync/catalog-sync/internal/queue"
	"github.com/retailsync/catalog-sync/internal/storage"
	"github.com/retailsync/catalog-sync/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.App.Environment)

	a, err := app.New(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Close()

	ctx := context.Background()
	archiver, err := storage.New(ctx, cfg.Archive)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize archive storage")
	}
	a.WithArchival(archiver, "public", log.Logger)

	startHealthServer(":9999", cfg.Redis.Addr)

	server := queue.NewServer(cfg.Redis.Addr)
	server.Handle(queue.TypeDispatchEvent, &queue.DispatchHandler{Processor: a.Processor, Log: log.Logger})
	server.Handle(queue.TypeRefreshFeed, &queue.RefreshHandler{Writer: a.Writer, Log: log.Logger})
	server.Handle(queue.TypePurgeSessions, &queue.PurgeSessionsHandler{Store: a.Store, Log: log.Logger})

	go func() {
		if err := server.Run(); err != nil {
			log.Fatal().Err(err).Msg("asynq server failed")
		}
	}()

	scheduler := queue.NewScheduler(cfg.Redis.Addr, cfg.Redis.RefreshCron)
	if err := scheduler.RegisterJobs(); err != nil {
		log.Fatal().Err(err).Msg("failed to register scheduled jobs")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	scheduler.Shutdown()
	server.Shutdown()
}
