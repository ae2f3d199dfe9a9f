package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeBackend struct {
	mu      sync.Mutex
	data    map[string][]byte
	cts     map[string]string
	gets    int
	puts    int
	failGet bool
	failPut bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: map[string][]byte{}, cts: map[string]string{}}
}

func (f *fakeBackend) Name() string                   { return "fake" }
func (f *fakeBackend) Init(context.Context) error     { return nil }
func (f *fakeBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	delete(f.cts, key)
	return nil
}

func (f *fakeBackend) Get(_ context.Context, key string) ([]byte, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failGet {
		return nil, "", false, errors.New("backend down")
	}
	d, ok := f.data[key]
	return d, f.cts[key], ok, nil
}

func (f *fakeBackend) Put(_ context.Context, key string, data []byte, ct string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPut {
		return errors.New("backend down")
	}
	f.data[key] = data
	f.cts[key] = ct
	return nil
}

func newTestManager(capacity int, b Backend) *Manager {
	return NewManager(nil, capacity, time.Second, func(context.Context) Backend { return b })
}

func TestManager_SetThenGetRoundTrips(t *testing.T) {
	fb := newFakeBackend()
	m := newTestManager(10, fb)
	ctx := context.Background()

	payload := []byte("<svg>chart</svg>")
	m.Set(ctx, "fp1", "svg", payload, "image/svg+xml")

	e, ok := m.Get(ctx, "fp1", "svg")
	if !ok {
		t.Fatalf("expected hit")
	}
	if !bytes.Equal(e.Data, payload) {
		t.Fatalf("round trip mismatch: %q", e.Data)
	}
	if e.ContentType != "image/svg+xml" {
		t.Fatalf("content type = %q", e.ContentType)
	}

	m.waitWrites()
	if d := fb.data["fp1.svg"]; !bytes.Equal(d, payload) {
		t.Fatalf("durable copy = %q", d)
	}
}

func TestManager_WarmMemoryNeverReReadsDurable(t *testing.T) {
	fb := newFakeBackend()
	m := newTestManager(10, fb)
	ctx := context.Background()

	m.Set(ctx, "fp1", "svg", []byte("x"), "image/svg+xml")
	m.waitWrites()

	for i := 0; i < 5; i++ {
		if _, ok := m.Get(ctx, "fp1", "svg"); !ok {
			t.Fatalf("get %d missed", i)
		}
	}
	if fb.gets != 0 {
		t.Fatalf("durable reads = %d, want 0 while memory is warm", fb.gets)
	}
}

func TestManager_DurableHitRepopulatesMemory(t *testing.T) {
	fb := newFakeBackend()
	fb.data["fp1.png"] = []byte("png-bytes")
	fb.cts["fp1.png"] = "image/png"
	m := newTestManager(10, fb)
	ctx := context.Background()

	e, ok := m.Get(ctx, "fp1", "png")
	if !ok || string(e.Data) != "png-bytes" {
		t.Fatalf("durable hit failed: %v %q", ok, e.Data)
	}
	if fb.gets != 1 {
		t.Fatalf("durable reads = %d", fb.gets)
	}

	// now served from memory
	if _, ok := m.Get(ctx, "fp1", "png"); !ok {
		t.Fatalf("expected memory hit")
	}
	if fb.gets != 1 {
		t.Fatalf("durable reads = %d, want still 1", fb.gets)
	}
}

func TestManager_DurableHitWithoutContentTypeDerivesFromKey(t *testing.T) {
	fb := newFakeBackend()
	fb.data["fp1.png"] = []byte("png-bytes")
	m := newTestManager(10, fb)

	e, ok := m.Get(context.Background(), "fp1", "png")
	if !ok || e.ContentType != "image/png" {
		t.Fatalf("content type = %q", e.ContentType)
	}
}

func TestManager_EvictionIsFIFOWithoutPromotion(t *testing.T) {
	fb := newFakeBackend()
	m := newTestManager(3, fb)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m.Set(ctx, fmt.Sprintf("fp%d", i), "svg", []byte{byte(i)}, "image/svg+xml")
	}
	m.waitWrites()

	// a read hit must not promote fp0 out of eviction order
	if _, ok := m.Get(ctx, "fp0", "svg"); !ok {
		t.Fatalf("fp0 should be in memory")
	}

	m.Set(ctx, "fp3", "svg", []byte{3}, "image/svg+xml")
	m.waitWrites()

	if m.mem.len() != 3 {
		t.Fatalf("memory entries = %d, want capacity 3", m.mem.len())
	}
	if _, ok := m.mem.get("fp0.svg"); ok {
		t.Fatalf("fp0 must have been evicted despite the read hit")
	}

	// evicted from memory, still retrievable via the durable backend
	if e, ok := m.Get(ctx, "fp0", "svg"); !ok || e.Data[0] != 0 {
		t.Fatalf("fp0 lost from durable tier")
	}
}

func TestManager_OverwriteKeepsInsertionPosition(t *testing.T) {
	fb := newFakeBackend()
	m := newTestManager(2, fb)
	ctx := context.Background()

	m.Set(ctx, "a", "svg", []byte("a1"), "image/svg+xml")
	m.Set(ctx, "b", "svg", []byte("b1"), "image/svg+xml")
	m.Set(ctx, "a", "svg", []byte("a2"), "image/svg+xml") // overwrite, position kept
	m.Set(ctx, "c", "svg", []byte("c1"), "image/svg+xml") // evicts a, the oldest
	m.waitWrites()

	if _, ok := m.mem.get("a.svg"); ok {
		t.Fatalf("a must be evicted first")
	}
	if _, ok := m.mem.get("b.svg"); !ok {
		t.Fatalf("b should survive")
	}
}

func TestManager_SameContentTwoFormatsTwoSlots(t *testing.T) {
	fb := newFakeBackend()
	m := newTestManager(10, fb)
	ctx := context.Background()

	m.Set(ctx, "fp1", "svg", []byte("vector"), "image/svg+xml")
	m.Set(ctx, "fp1", "png", []byte("raster"), "image/png")
	m.waitWrites()

	if m.mem.len() != 2 {
		t.Fatalf("entries = %d, want 2", m.mem.len())
	}
}

func TestManager_BackendErrorsDegradeToMiss(t *testing.T) {
	fb := newFakeBackend()
	fb.failGet = true
	fb.failPut = true
	m := newTestManager(10, fb)
	ctx := context.Background()

	if _, ok := m.Get(ctx, "fp1", "svg"); ok {
		t.Fatalf("backend error must read as a miss")
	}

	// the memory write must survive a failing durable write
	m.Set(ctx, "fp1", "svg", []byte("x"), "image/svg+xml")
	m.waitWrites()
	if _, ok := m.Get(ctx, "fp1", "svg"); !ok {
		t.Fatalf("memory write rolled back on durable failure")
	}
}

func TestManager_InitRunsExactlyOnceUnderConcurrency(t *testing.T) {
	var inits int32
	fb := newFakeBackend()
	m := NewManager(nil, 10, time.Second, func(context.Context) Backend {
		atomic.AddInt32(&inits, 1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		return fb
	})

	if ready, _ := m.Readiness(); ready {
		t.Fatalf("manager ready before first access")
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Get(context.Background(), "fp", "svg")
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&inits); n != 1 {
		t.Fatalf("factory ran %d times, want 1", n)
	}
	ready, name := m.Readiness()
	if !ready || name != "fake" {
		t.Fatalf("readiness = %v %q", ready, name)
	}
}

func TestManager_PurgeDropsBothTiers(t *testing.T) {
	fb := newFakeBackend()
	m := newTestManager(10, fb)
	ctx := context.Background()

	m.Set(ctx, "fp1", "svg", []byte("v"), "image/svg+xml")
	m.Set(ctx, "fp1", "png", []byte("r"), "image/png")
	m.Set(ctx, "fp2", "svg", []byte("other"), "image/svg+xml")
	m.waitWrites()

	m.Purge(ctx, "fp1")

	if _, ok := m.mem.get("fp1.svg"); ok {
		t.Fatalf("fp1.svg still in memory")
	}
	if _, ok := fb.data["fp1.png"]; ok {
		t.Fatalf("fp1.png still durable")
	}
	if _, ok := m.mem.get("fp2.svg"); !ok {
		t.Fatalf("purge must not touch other fingerprints")
	}
}
