package cache

import (
	"strings"
	"sync"
)

type memEntry struct {
	data        []byte
	contentType string
}

// memoryTier is the process-local cache layer. Eviction is strict FIFO on
// insertion order: a read hit does not promote an entry, and overwriting a
// key keeps its original position.
type memoryTier struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]memEntry
	order    []string
}

func newMemoryTier(capacity int) *memoryTier {
	if capacity < 1 {
		capacity = 1
	}
	return &memoryTier{
		capacity: capacity,
		entries:  make(map[string]memEntry, capacity),
	}
}

func (m *memoryTier) get(key string) (memEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

// set inserts or replaces an entry. Replacing keeps the original insertion
// position; inserting at capacity evicts the oldest entry first.
func (m *memoryTier) set(key string, e memEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		m.entries[key] = e
		return
	}
	if len(m.order) >= m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	m.entries[key] = e
	m.order = append(m.order, key)
}

// deletePrefix drops every entry whose key starts with prefix and reports
// how many were removed.
func (m *memoryTier) deletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	kept := m.order[:0]
	for _, k := range m.order {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			n++
			continue
		}
		kept = append(kept, k)
	}
	m.order = kept
	return n
}

func (m *memoryTier) flush() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = make(map[string]memEntry, m.capacity)
	m.order = m.order[:0]
	return n
}

func (m *memoryTier) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
