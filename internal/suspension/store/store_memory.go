package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"confide/internal/suspension"
)

// MemoryStore keeps suspension records in a mutex-guarded map keyed by
// identity hash, mirroring the unique constraint of the Postgres table.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*suspension.SuspendedIdentity
	nextID  int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*suspension.SuspendedIdentity),
		nextID:  1,
	}
}

func (s *MemoryStore) Upsert(_ context.Context, record *suspension.SuspendedIdentity) (*suspension.SuspendedIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.records[record.IdentityHash]; ok {
		existing.IdentityEncrypted = record.IdentityEncrypted
		existing.Reason = record.Reason
		existing.SuspendedUntil = record.SuspendedUntil
		existing.RejectedMessageID = record.RejectedMessageID
		existing.CreatedBy = record.CreatedBy
		existing.UpdatedAt = now
		copied := *existing
		return &copied, nil
	}

	stored := *record
	stored.ID = s.nextID
	s.nextID++
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[record.IdentityHash] = &stored

	copied := stored
	return &copied, nil
}

func (s *MemoryStore) FindByHash(_ context.Context, identityHash string) (*suspension.SuspendedIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[identityHash]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*suspension.SuspendedIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*suspension.SuspendedIdentity, 0, len(s.records))
	for _, record := range s.records {
		copied := *record
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID > records[j].ID
	})
	return records, nil
}
