// Package app constructs the shared set of collaborators cmd/server and
// cmd/worker both need.
package app

import (
	"github.com/rs/zerolog"

	"github.com/retailsync/catalog-sync/internal/config"
	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
	"github.com/retailsync/catalog-sync/internal/core/events"
	"github.com/retailsync/catalog-sync/internal/core/feed"
	"github.com/retailsync/catalog-sync/internal/core/mapper"
	"github.com/retailsync/catalog-sync/internal/core/replication"
	"github.com/retailsync/catalog-sync/internal/core/sourceclient"
	"github.com/retailsync/catalog-sync/internal/feedwriter"
	"github.com/retailsync/catalog-sync/internal/storage"
	pkgjwt "github.com/retailsync/catalog-sync/pkg/jwt"
)

// App holds every long-lived collaborator; cmd/server and cmd/worker
// each use the subset they need.
type App struct {
	Config    *config.Config
	Store     *cache.Store
	Source    *sourceclient.Client
	Catalog   *catalogclient.Client
	Engine    *replication.Engine
	Processor *events.Processor
	Generator *feed.Generator
	Writer    *feedwriter.Writer
	JWT       *pkgjwt.Manager
}

// New wires every component from cfg. The optional archiver is attached
// afterwards via WithArchival, since constructing it may hit the network.
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	source, err := sourceclient.New(sourceclient.Config{
		BaseURL:        cfg.Source.BaseURL,
		ConsumerKey:    cfg.Source.Key,
		ConsumerSecret: cfg.Source.Secret,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := catalogclient.New(catalogclient.Config{
		BaseURL:   cfg.Catalog.BaseURL,
		CatalogID: cfg.Catalog.CatalogID,
		Token:     cfg.Catalog.Token,
	})
	if err != nil {
		return nil, err
	}

	mapperCfg := mapper.Config{
		Brand:          cfg.Mapper.Brand,
		CurrencySuffix: cfg.Mapper.CurrencySuffix,
		ImageBaseURL:   cfg.Mapper.ImageBaseURL,
	}

	engine := replication.New(source, catalog, store, replication.Config{Mapper: mapperCfg}, log)

	processor := events.New(store, source, catalog, engine, events.Config{
		Secret:         cfg.Webhook.Secret,
		SourceHostname: cfg.Webhook.SourceHostname,
	}, log)

	generator := feed.New(store, engine, mapperCfg, log)

	return &App{
		Config:    cfg,
		Store:     store,
		Source:    source,
		Catalog:   catalog,
		Engine:    engine,
		Processor: processor,
		Generator: generator,
		JWT:       pkgjwt.NewManager(cfg.JWT.Secret),
	}, nil
}

// WithArchival finishes wiring the feed writer once an (optional)
// archiver has been constructed, kept separate from New because
// constructing the archiver needs a context and may hit the network.
func (a *App) WithArchival(archiver *storage.Archiver, outputDir string, log zerolog.Logger) {
	a.Writer = feedwriter.New(a.Generator, archiver, outputDir, log)
}

func (a *App) Close() error {
	return a.Store.Close()
}
