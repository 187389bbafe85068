package pin

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store abstracts the per-user local cache (journal entries, settings,
// session bookkeeping) so the wipe path behaves identically whether state
// lives in a local persistent store or a remote one.
type Store interface {
	Set(ctx context.Context, userID uuid.UUID, key string, value []byte) error
	Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, bool, error)
	// Clear removes every cached key for the user. Used by the destructive
	// wipe; irreversible by contract.
	Clear(ctx context.Context, userID uuid.UUID) error
}

// MemoryStore is the in-process Store used for local caches and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[uuid.UUID]map[string][]byte)}
}

func (s *MemoryStore) Set(_ context.Context, userID uuid.UUID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.data[userID]
	if !ok {
		bucket = make(map[string][]byte)
		s.data[userID] = bucket
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	bucket[key] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[userID][key]
	return value, ok, nil
}

func (s *MemoryStore) Clear(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}
