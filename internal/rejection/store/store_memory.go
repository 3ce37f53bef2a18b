package store

import (
	"context"
	"sync"
	"time"

	"confide/internal/rejection"
)

// MemoryStore keeps ledger entries in an append-only slice.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*rejection.RejectedMessage
	nextID  int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Append(_ context.Context, entry *rejection.RejectedMessage) (*rejection.RejectedMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	stored.ID = s.nextID
	s.nextID++
	stored.CreatedAt = time.Now()
	s.entries = append(s.entries, &stored)

	copied := stored
	return &copied, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*rejection.RejectedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) List(_ context.Context, page, perPage int) (*rejection.Page, error) {
	page, perPage = clampPage(page, perPage)

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.entries)
	totalPages := (total + perPage - 1) / perPage

	// Newest first: walk the slice backwards.
	start := (page - 1) * perPage
	result := make([]*rejection.RejectedMessage, 0, perPage)
	for i := total - 1 - start; i >= 0 && len(result) < perPage; i-- {
		copied := *s.entries[i]
		result = append(result, &copied)
	}

	return &rejection.Page{
		Entries:    result,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// clampPage guards stores called directly, outside the service's validation.
func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return page, perPage
}
