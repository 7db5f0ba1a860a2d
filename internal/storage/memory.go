package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob)}
}

func (s *MemoryStore) Put(_ context.Context, blob Blob) error {
	blob.Data = append([]byte(nil), blob.Data...)
	s.mu.Lock()
	s.blobs[ObjectKey(blob.TicketID, blob.AttachmentID)] = blob
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ticketID, attachmentID string) (*Blob, error) {
	s.mu.RLock()
	blob, ok := s.blobs[ObjectKey(ticketID, attachmentID)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	blob.Data = append([]byte(nil), blob.Data...)
	return &blob, nil
}

func (s *MemoryStore) Delete(_ context.Context, ticketID, attachmentID string) error {
	s.mu.Lock()
	delete(s.blobs, ObjectKey(ticketID, attachmentID))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListByTicket(_ context.Context, ticketID string) ([]string, error) {
	prefix := TicketPrefix(ticketID)
	s.mu.RLock()
	var ids []string
	for key := range s.blobs {
		if strings.HasPrefix(key, prefix) {
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// Len reports how many blobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
