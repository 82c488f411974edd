// Command server runs the operator HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/retailsync/catalog-sync/internal/app"
	"github.com/retailsync/catalog-sync/internal/config"
	"github.com/retailsync/catalog-sync/internal/httpapi"
	"github.com/retailsync/catalog-sync/internal/httpapi/handlers"
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

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

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

	queueClient := queue.NewClient(cfg.Redis.Addr)
	defer queueClient.Close()

	deps := &handlers.Deps{
		Store:     a.Store,
		Engine:    a.Engine,
		Catalog:   a.Catalog,
		Processor: a.Processor,
		Writer:    a.Writer,
		Queue:     queueClient,
		JWT:       a.JWT,
		JWTTTL:    cfg.JWT.Expiration,
		Admin:     cfg.Admin,
		OutputDir: "public",
		Log:       log.Logger,
	}

	router := httpapi.NewRouter(deps, a.JWT)

	// WriteTimeout must outlast a full replication run: POST /sync/initial
	// blocks for the duration and a short deadline would cut the response
	// off mid-run.
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   15 * time.Minute,
		IdleTimeout:    2 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("operator API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down operator API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
