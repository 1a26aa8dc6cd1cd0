package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bluele/gcache"
)

// MemoryStore holds entries in a gcache LRU of fixed size. Entries are only
// touched by Save, so once the cap is reached the entry saved longest ago is
// evicted first, the same policy as SQLiteStore. Get and List never change
// which entry goes next.
type MemoryStore struct {
	cache gcache.Cache

	mu  sync.Mutex
	seq uint64
}

type memoryItem struct {
	entry Entry
	seq   uint64
}

// NewMemoryStore returns a store holding at most max entries.
func NewMemoryStore(max int) (*MemoryStore, error) {
	if max <= 0 {
		return nil, fmt.Errorf("history size must be positive, got %d", max)
	}
	return &MemoryStore{
		cache: gcache.New(max).LRU().Build(),
	}, nil
}

// Save stores a copy of e. Saving an existing ID makes it the newest entry.
func (s *MemoryStore) Save(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if err := s.cache.Set(e.ID, &memoryItem{entry: *e, seq: s.seq}); err != nil {
		return fmt.Errorf("save history entry: %w", err)
	}
	return nil
}

// Get returns a copy of the entry with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Entry, error) {
	// GetALL reads without promoting the entry inside the LRU.
	v, ok := s.cache.GetALL(false)[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := v.(*memoryItem).entry
	return &cp, nil
}

// List returns summaries newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]Summary, error) {
	all := s.cache.GetALL(false)
	items := make([]*memoryItem, 0, len(all))
	for _, v := range all {
		items = append(items, v.(*memoryItem))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].seq > items[j].seq })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	out := make([]Summary, len(items))
	for i, it := range items {
		out[i] = it.entry.Summary()
	}
	return out, nil
}

// Clear drops every entry.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.cache.Purge()
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
