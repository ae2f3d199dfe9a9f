package cache

import (
	"context"
	"testing"
	"time"

	"github.com/EmilyChristy/weather-images/internal/core/config"
)

func TestSelect_UnreachableRedisFallsBackToFilesystem(t *testing.T) {
	cfg := config.Config{
		CacheBackend: "redis",
		RedisAddr:    "127.0.0.1:1",
		CacheDir:     t.TempDir(),
	}
	b := Select(cfg, nil)(context.Background())
	if b.Name() != "fs" {
		t.Fatalf("backend = %s, want fs fallback", b.Name())
	}
}

func TestSelect_BlobWithoutCredentialsFallsBackToFilesystem(t *testing.T) {
	cfg := config.Config{
		CacheBackend: "blob",
		CacheDir:     t.TempDir(),
	}
	b := Select(cfg, nil)(context.Background())
	if b.Name() != "fs" {
		t.Fatalf("backend = %s, want fs fallback", b.Name())
	}
}

func TestSelect_FallbackBackendServesGetAndSet(t *testing.T) {
	cfg := config.Config{
		CacheBackend: "redis",
		RedisAddr:    "127.0.0.1:1",
		CacheDir:     t.TempDir(),
	}
	m := NewManager(nil, 10, time.Second, Select(cfg, nil))
	ctx := context.Background()

	m.Set(ctx, "fp1", "svg", []byte("<svg/>"), "image/svg+xml")
	m.waitWrites()

	if _, ok := m.Get(ctx, "fp1", "svg"); !ok {
		t.Fatalf("get after fallback failed")
	}

	ready, name := m.Readiness()
	if !ready || name != "fs" {
		t.Fatalf("readiness = %v %q", ready, name)
	}
}

func TestSelect_UnknownBackendUsesFilesystem(t *testing.T) {
	cfg := config.Config{CacheBackend: "tape", CacheDir: t.TempDir()}
	b := Select(cfg, nil)(context.Background())
	if b.Name() != "fs" {
		t.Fatalf("backend = %s", b.Name())
	}
}
