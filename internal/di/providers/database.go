package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/shelfkeep/shelfkeep/internal/config"
	"github.com/shelfkeep/shelfkeep/internal/logger"
	"github.com/shelfkeep/shelfkeep/internal/sse"
	"github.com/shelfkeep/shelfkeep/internal/store"
	"github.com/shelfkeep/shelfkeep/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse").Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the configured record backend with shutdown capability.
type StoreHandle struct {
	store.Library
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the record backend selected by configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, path, err := OpenLibrary(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", path)

	return &StoreHandle{Library: db}, nil
}

// OpenLibrary opens the backend named in cfg under its data path. It is
// shared with the command-line tools.
func OpenLibrary(cfg config.StorageConfig, log *logger.Logger) (store.Library, string, error) {
	if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
		return nil, "", fmt.Errorf("create data path: %w", err)
	}

	switch cfg.Backend {
	case config.StorageSQLite:
		path := filepath.Join(cfg.DataPath, "library.db")
		db, err := sqlite.Open(path, log.Component("sqlite").Logger)
		if err != nil {
			return nil, "", err
		}
		return db, path, nil
	default:
		path := filepath.Join(cfg.DataPath, "db")
		db, err := store.New(path, log.Component("badger").Logger)
		if err != nil {
			return nil, "", err
		}
		return db, path, nil
	}
}
