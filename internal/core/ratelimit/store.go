package ratelimit

import (
	"context"
	"sync"
)

// Store persists rate limit records by identifier.
type Store interface {
	Get(ctx context.Context, identifier string) (*Record, error)
	Put(ctx context.Context, identifier string, record *Record) error
	Delete(ctx context.Context, identifier string) error
	List(ctx context.Context) (map[string]*Record, error)
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, identifier string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[identifier]
	if !ok {
		return nil, nil
	}
	return cloneRecord(record), nil
}

func (s *MemoryStore) Put(ctx context.Context, identifier string, record *Record) error {
	if record == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[identifier] = *cloneRecord(*record)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) (map[string]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*Record, len(s.records))
	for identifier, record := range s.records {
		out[identifier] = cloneRecord(record)
	}
	return out, nil
}

func cloneRecord(record Record) *Record {
	out := record
	if record.BlockExpires != nil {
		expires := *record.BlockExpires
		out.BlockExpires = &expires
	}
	return &out
}
