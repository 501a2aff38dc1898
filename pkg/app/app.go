// Package app assembles storeadmin: configuration, the remote client, the
// schema cache, image storage, the services and the editor session store.
// The CLI commands and the HTTP server both run on one Application.
//
//	a, err := app.New(ctx)
//	if err != nil { ... }
//	defer a.Close()
//
//	a.Catalog.ListCategories(ctx)
//	a.Serve(ctx)
package app

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/storeadmin/app/repositories"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/app/session"
	"github.com/shashiranjanraj/storeadmin/config"
	"github.com/shashiranjanraj/storeadmin/pkg/cache"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
	"github.com/shashiranjanraj/storeadmin/pkg/storage"
	"github.com/shashiranjanraj/storeadmin/pkg/workerpool"
)

// Application is the wired service graph.
type Application struct {
	Client     *repositories.RemoteClient
	Cache      cache.Store
	Storage    *storage.Manager
	Pool       *workerpool.Pool
	Resolver   *services.SchemaResolver
	Reconciler *services.Reconciler
	Images     *services.ImageManager
	Catalog    *services.CatalogService
	Orders     *services.OrderService
	Sessions   *session.Store

	closers []func()
}

// Option adjusts an Application before its services are built.
type Option func(*Application)

// WithClient replaces the client built from config.
func WithClient(c *repositories.RemoteClient) Option {
	return func(a *Application) { a.Client = c }
}

// WithCache replaces the cache chosen by CACHE_DRIVER.
func WithCache(s cache.Store) Option {
	return func(a *Application) { a.Cache = s }
}

// WithStorage replaces the storage manager built from config.
func WithStorage(m *storage.Manager) Option {
	return func(a *Application) { a.Storage = m }
}

// New loads config and builds every service. An unreachable Redis or Mongo
// degrades to no cache or no audit sink with a warning.
func New(ctx context.Context, opts ...Option) (*Application, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &Application{}
	for _, opt := range opts {
		opt(a)
	}

	if a.Client == nil {
		a.Client = repositories.NewRemoteClientFromConfig()
	}
	if a.Cache == nil {
		store, err := cache.Connect(config.CacheDriver())
		if err != nil {
			logger.Warn("schema cache disabled", "error", err)
		}
		a.Cache = store
	}
	if c, ok := a.Cache.(interface{ Close() error }); ok {
		a.closers = append(a.closers, func() { _ = c.Close() })
	}
	if a.Storage == nil {
		a.Storage = storage.Connect(ctx)
	}
	staging, err := a.Storage.Default()
	if err != nil {
		return nil, err
	}

	closeAudit, err := logger.EnableAudit(config.AuditMongoURI(), config.AuditMongoDB(), config.AuditMongoCollection())
	if err != nil {
		logger.Warn("audit sink disabled", "error", err)
	}
	a.closers = append(a.closers, closeAudit)

	a.Pool = workerpool.New(config.WriteConcurrency())
	a.closers = append(a.closers, a.Pool.Shutdown)

	a.Resolver = services.NewSchemaResolver(a.Client, a.Cache, config.SchemaCacheTTL())
	a.Reconciler = services.NewReconciler(a.Client, a.Resolver, a.Pool)
	a.Images = services.NewImageManager(a.Client)
	a.Catalog = services.NewCatalogService(a.Client, a.Resolver, a.Reconciler, a.Images)
	a.Orders = services.NewOrderService(a.Client)
	a.Sessions = session.NewStore(session.Deps{
		API:        a.Client,
		Resolver:   a.Resolver,
		Reconciler: a.Reconciler,
		Images:     a.Images,
		Staging:    staging,
		Debounce:   config.DebounceWindow(),
	})
	a.closers = append(a.closers, a.Sessions.CloseAll)

	return a, nil
}

// Disk returns a configured storage disk; "" selects the default.
func (a *Application) Disk(name string) (storage.Disk, error) {
	return a.Storage.Use(name)
}

// Close releases everything New started, in reverse order.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
