// Package di provides dependency injection configuration for the Shelfkeep server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfkeep/shelfkeep/internal/config"
	"github.com/shelfkeep/shelfkeep/internal/di/providers"
	"github.com/shelfkeep/shelfkeep/internal/logger"
	"github.com/shelfkeep/shelfkeep/internal/media/images"
	"github.com/shelfkeep/shelfkeep/internal/reorder"
	"github.com/shelfkeep/shelfkeep/internal/service"
	"github.com/shelfkeep/shelfkeep/internal/validation"
	"github.com/shelfkeep/shelfkeep/internal/view"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCoverStore)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideCompressor)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideDragController)
	do.Provide(injector, providers.ProvideViewPipeline)

	// Workers
	do.Provide(injector, providers.ProvideAutosaveJob)
	do.Provide(injector, providers.ProvideCoverWatcher)
	do.Provide(injector, providers.ProvideUploadLimiter)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services, loading the library and starting the
// HTTP server and background workers.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CoverStore](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*images.Compressor](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*reorder.Controller](injector)
	_ = do.MustInvoke[*view.Pipeline](injector)

	// Workers
	_ = do.MustInvoke[*providers.AutosaveJob](injector)
	_ = do.MustInvoke[*providers.CoverWatcherHandle](injector)
	_ = do.MustInvoke[*providers.UploadLimiterHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
