package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session records in process memory. Intended for tests
// and local development; records do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Get returns a copy of the stored record or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneRecord(record), nil
}

// Set saves a copy of the record.
func (s *MemoryStore) Set(ctx context.Context, key string, record *Record) error {
	record.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = cloneRecord(record)
	return nil
}

// Delete removes the record for the key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func cloneRecord(record *Record) *Record {
	if record == nil {
		return nil
	}

	copied := *record
	if record.Bag != nil {
		bag := make(map[string]any, len(record.Bag))
		for k, v := range record.Bag {
			bag[k] = v
		}
		copied.Bag = bag
	}
	return &copied
}
