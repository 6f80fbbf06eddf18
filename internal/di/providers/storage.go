package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/shelfkeep/shelfkeep/internal/config"
	"github.com/shelfkeep/shelfkeep/internal/logger"
	"github.com/shelfkeep/shelfkeep/internal/media/images"
	"github.com/shelfkeep/shelfkeep/internal/store"
)

// CoverStore is the blob store covers are written to. Files is set only
// for the filesystem backend, which the cover watcher observes.
type CoverStore struct {
	store.BlobStore
	Files *images.Storage
}

// ProvideCoverStore provides cover storage: either the record backend
// itself or a covers directory under the data path.
func ProvideCoverStore(i do.Injector) (*CoverStore, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if cfg.Storage.CoverBackend != config.CoverBackendFilesystem {
		log.Info("Covers stored in database", "backend", cfg.Storage.Backend)
		return &CoverStore{BlobStore: storeHandle.Library}, nil
	}

	files, err := images.NewStorage(cfg.Storage.DataPath)
	if err != nil {
		return nil, fmt.Errorf("cover storage: %w", err)
	}

	log.Info("Covers stored on disk", "path", files.Dir())

	return &CoverStore{BlobStore: files, Files: files}, nil
}
