package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/shelfkeep/shelfkeep/internal/config"
	"github.com/shelfkeep/shelfkeep/internal/logger"
	"github.com/shelfkeep/shelfkeep/internal/media/images"
	"github.com/shelfkeep/shelfkeep/internal/reorder"
	"github.com/shelfkeep/shelfkeep/internal/service"
	"github.com/shelfkeep/shelfkeep/internal/validation"
	"github.com/shelfkeep/shelfkeep/internal/view"
)

// ProvideValidator provides the struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideCompressor provides the cover compressor.
func ProvideCompressor(i do.Injector) (*images.Compressor, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return images.NewCompressor(images.CompressOptions{
		MaxBytes:     cfg.Covers.MaxBytes,
		MaxDimension: cfg.Covers.MaxDimension,
		Quality:      cfg.Covers.Quality,
	}), nil
}

// ProvideLibraryService provides the library service with its collection
// already loaded.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	covers := do.MustInvoke[*CoverStore](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := service.NewLibraryService(service.Deps{
		Records:        storeHandle.Library,
		Goals:          storeHandle.Library,
		Covers:         covers.BlobStore,
		Sequence:       storeHandle.Library,
		Compressor:     do.MustInvoke[*images.Compressor](i),
		Validator:      do.MustInvoke[*validation.Validator](i),
		Events:         sseHandle.Manager,
		Notifier:       sseHandle.Manager,
		Logger:         log.Component("library").Logger,
		MaxUploadBytes: cfg.Covers.MaxUploadBytes,
	})

	if err := svc.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	sseHandle.SetGreeting(svc.Welcome)

	return svc, nil
}

// ProvideDragController provides the drag-and-drop reorder controller.
func ProvideDragController(i do.Injector) (*reorder.Controller, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	lib := do.MustInvoke[*service.LibraryService](i)

	return reorder.NewController(lib, cfg.Library.DragIdleTimeout, log.Component("reorder").Logger), nil
}

// ProvideViewPipeline provides the view renderer.
func ProvideViewPipeline(i do.Injector) (*view.Pipeline, error) {
	log := do.MustInvoke[*logger.Logger](i)
	lib := do.MustInvoke[*service.LibraryService](i)

	return view.NewPipeline(lib, log.Component("view").Logger), nil
}
