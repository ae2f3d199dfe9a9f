package cache

import (
	"context"
	"log/slog"

	"github.com/EmilyChristy/weather-images/internal/cache/blobstore"
	"github.com/EmilyChristy/weather-images/internal/cache/fsstore"
	"github.com/EmilyChristy/weather-images/internal/cache/redistore"
	"github.com/EmilyChristy/weather-images/internal/core/config"
)

// Select returns the backend factory for the configured durable store.
// A blob or redis backend that fails to initialize (missing credentials,
// unreachable service) degrades to the filesystem backend with a warning;
// that substitution happens once and holds for the process lifetime.
func Select(cfg config.Config, logger *slog.Logger) BackendFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) Backend {
		var b Backend
		switch cfg.CacheBackend {
		case "blob":
			b = blobstore.New(logger, blobstore.Config{
				AccountURL:       cfg.BlobAccountURL,
				ConnectionString: cfg.BlobConnString,
				Container:        cfg.BlobContainer,
			})
		case "redis":
			b = redistore.New(cfg.RedisAddr)
		case "fs":
			b = fsstore.New(cfg.CacheDir)
		default:
			logger.Warn("unknown cache backend, using filesystem", "backend", cfg.CacheBackend)
			b = fsstore.New(cfg.CacheDir)
		}

		if err := b.Init(ctx); err != nil {
			if b.Name() == "fs" {
				// nothing left to fall back to; individual ops will fail and
				// be swallowed by the manager
				logger.Error("filesystem cache init failed", "dir", cfg.CacheDir, "err", err)
				return b
			}
			logger.Warn("durable backend init failed, falling back to filesystem",
				"backend", b.Name(), "err", err)
			fs := fsstore.New(cfg.CacheDir)
			if ferr := fs.Init(ctx); ferr != nil {
				logger.Error("filesystem fallback init failed", "dir", cfg.CacheDir, "err", ferr)
			}
			return fs
		}
		return b
	}
}
