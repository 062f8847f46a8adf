package cache

import (
	"sync"
	"time"
)

type memoryItem struct {
	value      interface{}
	expiresAt  time.Time
	accessedAt time.Time
}

func (m *memoryItem) expired(now time.Time) bool {
	return now.After(m.expiresAt)
}

// MemoryStore is the default in-memory Store with TTL expiry and
// least-recently-used eviction once maxEntries is reached.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]*memoryItem
	maxEntries int

	sweepTicker *time.Ticker
	stopSweep   chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates a memory store holding at most maxEntries items.
// Expired entries are swept in the background every sweepInterval.
func NewMemoryStore(maxEntries int, sweepInterval time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	s := &MemoryStore{
		items:       make(map[string]*memoryItem),
		maxEntries:  maxEntries,
		sweepTicker: time.NewTicker(sweepInterval),
		stopSweep:   make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Get returns the stored value; false on miss or expiry.
func (s *MemoryStore) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return nil, false
	}
	now := time.Now()
	if item.expired(now) {
		delete(s.items, key)
		return nil, false
	}
	item.accessedAt = now
	return item.value, true
}

// Set stores a value with a TTL, evicting the least recently used entry
// when full.
func (s *MemoryStore) Set(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok && len(s.items) >= s.maxEntries {
		s.evictLRU()
	}

	now := time.Now()
	s.items[key] = &memoryItem{
		value:      value,
		expiresAt:  now.Add(ttl),
		accessedAt: now,
	}
}

// Delete drops a key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Len returns the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, item := range s.items {
		if first || item.accessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.accessedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(s.items, oldestKey)
	}
}

func (s *MemoryStore) sweep() {
	for {
		select {
		case <-s.sweepTicker.C:
			now := time.Now()
			s.mu.Lock()
			for key, item := range s.items {
				if item.expired(now) {
					delete(s.items, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopSweep:
			return
		}
	}
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		s.sweepTicker.Stop()
		close(s.stopSweep)
	})
	return nil
}
