package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EmilyChristy/weather-images/internal/core/apperr"
	"github.com/EmilyChristy/weather-images/internal/core/observability"
	"github.com/EmilyChristy/weather-images/internal/fingerprint"
)

// Entry is one cached rendered image.
type Entry struct {
	Data        []byte
	ContentType string
}

// BackendFactory builds the durable backend. It is invoked exactly once, on
// first access; selection and fallback policy live in the factory (see
// Select).
type BackendFactory func(ctx context.Context) Backend

// Manager orchestrates lookups and writes across the memory tier and the
// durable backend. Backend failures are logged and treated as misses; the
// cache is an optimization, never a dependency.
type Manager struct {
	logger    *slog.Logger
	mem       *memoryTier
	factory   BackendFactory
	opTimeout time.Duration

	// tri-state init guard: not started / in flight / done. Concurrent
	// first callers block on the same sync.Once rather than racing a
	// second initialization.
	initOnce sync.Once
	backend  atomic.Value // Backend, immutable once stored

	writes sync.WaitGroup
}

func NewManager(logger *slog.Logger, capacity int, opTimeout time.Duration, factory BackendFactory) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Manager{
		logger:    logger,
		mem:       newMemoryTier(capacity),
		factory:   factory,
		opTimeout: opTimeout,
	}
}

func (m *Manager) ensureBackend(ctx context.Context) Backend {
	m.initOnce.Do(func() {
		b := m.factory(ctx)
		m.backend.Store(&b)
		m.logger.Info("durable cache backend ready", "backend", b.Name())
	})
	return *m.backend.Load().(*Backend)
}

// Readiness reports whether the durable backend has been selected yet.
func (m *Manager) Readiness() (bool, string) {
	v := m.backend.Load()
	if v == nil {
		return false, ""
	}
	return true, (*v.(*Backend)).Name()
}

// Get checks the memory tier, then the durable backend. A durable hit
// repopulates the memory tier. Backend errors degrade to a miss.
func (m *Manager) Get(ctx context.Context, fp, format string) (Entry, bool) {
	key := fingerprint.Key(fp, format)

	if e, ok := m.mem.get(key); ok {
		observability.IncCacheResult("hit_memory")
		return Entry{Data: e.data, ContentType: e.contentType}, true
	}

	b := m.ensureBackend(ctx)
	opCtx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	data, ct, ok, err := b.Get(opCtx, key)
	observability.IncBackendOp(b.Name(), "get", err)
	if err != nil {
		cerr := &apperr.CacheError{Op: "get", Err: err}
		m.logger.Warn("durable cache read failed", "key", key, "backend", b.Name(), "err", cerr)
		observability.IncCacheResult("miss")
		return Entry{}, false
	}
	if !ok {
		observability.IncCacheResult("miss")
		return Entry{}, false
	}

	if ct == "" {
		ct = contentTypeFor(key)
	}
	m.mem.set(key, memEntry{data: data, contentType: ct})
	observability.IncCacheResult("hit_durable")
	return Entry{Data: data, ContentType: ct}, true
}

// Set writes through to the memory tier synchronously, then hands the
// durable write to a detached goroutine. The caller never waits on, or
// hears about, durable write failures.
func (m *Manager) Set(ctx context.Context, fp, format string, data []byte, contentType string) {
	key := fingerprint.Key(fp, format)
	m.mem.set(key, memEntry{data: data, contentType: contentType})

	b := m.ensureBackend(ctx)
	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		// detached from the request context: the response must not wait on
		// this write, and an early client disconnect must not cancel it
		opCtx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
		defer cancel()

		err := b.Put(opCtx, key, data, contentType)
		observability.IncBackendOp(b.Name(), "put", err)
		if err != nil {
			cerr := &apperr.CacheError{Op: "put", Err: err}
			m.logger.Warn("durable cache write failed", "key", key, "backend", b.Name(), "err", cerr)
		}
	}()
}

// Purge drops every cached format of a fingerprint from both tiers,
// best-effort.
func (m *Manager) Purge(ctx context.Context, fp string) {
	n := m.mem.deletePrefix(fp + ".")

	b := m.ensureBackend(ctx)
	for _, format := range []string{"svg", "png"} {
		key := fingerprint.Key(fp, format)
		opCtx, cancel := context.WithTimeout(ctx, m.opTimeout)
		err := b.Delete(opCtx, key)
		cancel()
		observability.IncBackendOp(b.Name(), "delete", err)
		if err != nil {
			m.logger.Warn("durable cache delete failed", "key", key, "err", err)
		}
	}
	m.logger.Info("purged fingerprint", "fingerprint", fp, "memory_entries", n)
}

// Flush empties the memory tier. The durable tier is untouched; entries
// simply fault back in on demand.
func (m *Manager) Flush() {
	n := m.mem.flush()
	m.logger.Info("memory cache flushed", "entries", n)
}

// waitWrites blocks until in-flight durable writes finish. Test hook.
func (m *Manager) waitWrites() { m.writes.Wait() }
