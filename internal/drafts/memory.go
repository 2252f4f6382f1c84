package drafts

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded drafts in process memory. Drafts are stored in
// their serialized form so reads behave exactly like the durable stores.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose drafts expire after ttl. A ttl of 0
// keeps drafts until they are cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (*Draft, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.evictExpired(key)
		return nil, ErrNotFound
	}
	return decode(entry.data)
}

// evictExpired deletes key only if it is still expired under the write lock,
// so a Save that lands between the read and the delete survives.
func (s *MemoryStore) evictExpired(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if ok && !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
	}
}

func (s *MemoryStore) Save(ctx context.Context, key string, d *Draft) error {
	data, err := encode(d)
	if err != nil {
		return err
	}
	entry := memoryEntry{data: data}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored drafts, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// putRaw stores bytes as-is. Used to exercise corrupt drafts.
func (s *MemoryStore) putRaw(key string, data []byte) {
	s.mu.Lock()
	s.entries[key] = memoryEntry{data: data}
	s.mu.Unlock()
}
