package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/EmilyChristy/weather-images/internal/cache"
	"github.com/EmilyChristy/weather-images/internal/core/config"
	"github.com/EmilyChristy/weather-images/internal/core/httpclient"
	"github.com/EmilyChristy/weather-images/internal/core/observability"
	"github.com/EmilyChristy/weather-images/internal/core/server"
	"github.com/EmilyChristy/weather-images/internal/invalidation"
	"github.com/EmilyChristy/weather-images/internal/logger"
	"github.com/EmilyChristy/weather-images/internal/meteo"
	"github.com/EmilyChristy/weather-images/internal/service"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// optional local overrides, ignored when absent
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "weather-images",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting weather-images",
		"addr", cfg.Addr,
		"version", Version,
		"cache_backend", cfg.CacheBackend)

	httpClient := httpclient.NewOutbound()

	mc, err := meteo.New(appLog, httpClient, cfg.GeocodeURL, cfg.ArchiveURL, cfg.GeocodeCacheSize)
	if err != nil {
		appLog.Error("failed to initialize meteo client", "err", err)
		return 1
	}

	cm := cache.NewManager(appLog, cfg.MemoryCacheSize, cfg.CacheOpTimeout, cache.Select(cfg, appLog))
	svc := service.New(appLog, mc, cm)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Invalidation.Enabled {
		consumer := invalidation.New(invalidation.Config{
			Brokers: invalidation.ParseBrokers(cfg.Invalidation.Brokers),
			Topic:   cfg.Invalidation.Topic,
			GroupID: cfg.Invalidation.GroupID,
		}, appLog, cm)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("purge consumer stopped", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, svc, cm); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
