// Package handlers implements the operator API's HTTP surface.
package handlers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/retailsync/catalog-sync/internal/config"
	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
	"github.com/retailsync/catalog-sync/internal/core/events"
	"github.com/retailsync/catalog-sync/internal/core/replication"
	"github.com/retailsync/catalog-sync/internal/feedwriter"
	"github.com/retailsync/catalog-sync/internal/queue"
	pkgjwt "github.com/retailsync/catalog-sync/pkg/jwt"
)

// Deps bundles every collaborator the handlers need; constructed once in
// cmd/server/main.go and shared across all routes.
type Deps struct {
	Store      *cache.Store
	Engine     *replication.Engine
	Catalog    *catalogclient.Client
	Processor  *events.Processor
	Writer     *feedwriter.Writer
	Queue      *queue.Client
	JWT        *pkgjwt.Manager
	JWTTTL     time.Duration
	Admin      config.AdminConfig
	OutputDir  string
	Log        zerolog.Logger
}
