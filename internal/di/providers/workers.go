package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfkeep/shelfkeep/internal/config"
	"github.com/shelfkeep/shelfkeep/internal/logger"
	"github.com/shelfkeep/shelfkeep/internal/media/images"
	"github.com/shelfkeep/shelfkeep/internal/ratelimit"
	"github.com/shelfkeep/shelfkeep/internal/service"
	"github.com/shelfkeep/shelfkeep/internal/watcher"
)

// AutosaveJob periodically re-persists the library.
type AutosaveJob struct {
	lib    *service.LibraryService
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable. It stops the ticker and runs one
// last save so nothing held in memory is lost.
func (j *AutosaveJob) Shutdown() error {
	j.cancel()
	<-j.done

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	j.lib.Autosave(ctx)
	return nil
}

// ProvideAutosaveJob provides the periodic autosave job.
func ProvideAutosaveJob(i do.Injector) (*AutosaveJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	lib := do.MustInvoke[*service.LibraryService](i)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		lib.RunAutosave(ctx, cfg.Library.AutosaveInterval)
	}()

	log.Info("Autosave started", "interval", cfg.Library.AutosaveInterval)

	return &AutosaveJob{lib: lib, cancel: cancel, done: done}, nil
}

// CoverWatcherHandle wraps the cover directory watcher. Watcher is nil
// when covers live in the database.
type CoverWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CoverWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideCoverWatcher watches the filesystem cover directory and clears
// hasImage on books whose cover file is removed outside the app.
func ProvideCoverWatcher(i do.Injector) (*CoverWatcherHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	covers := do.MustInvoke[*CoverStore](i)
	lib := do.MustInvoke[*service.LibraryService](i)

	if covers.Files == nil {
		return &CoverWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Component("watcher").Logger, watcher.Options{Extensions: []string{".jpg"}})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(covers.Files.Dir()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Cover watcher error", "error", err)
		}
	}()

	go func() {
		for {
			select {
			case event := <-w.Events():
				if event.Type != watcher.EventRemoved {
					continue
				}
				bookID, ok := images.ParseCoverPath(event.Path)
				if !ok {
					continue
				}
				if lib.ReconcileCover(ctx, bookID) {
					log.Info("cover file removed", "book_id", bookID, "path", event.Path)
				}
			case err := <-w.Errors():
				log.Warn("cover watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Cover watcher started", "path", covers.Files.Dir())

	return &CoverWatcherHandle{Watcher: w, cancel: cancel}, nil
}

// UploadLimiterHandle wraps the per-client cover upload limiter.
type UploadLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *UploadLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideUploadLimiter provides the cover upload rate limiter.
func ProvideUploadLimiter(i do.Injector) (*UploadLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &UploadLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Server.UploadRate, cfg.Server.UploadBurst),
	}, nil
}
