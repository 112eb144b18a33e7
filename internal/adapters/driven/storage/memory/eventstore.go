package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
)

// Ensure EventStore implements the interface.
var _ driven.EventStore = (*EventStore)(nil)

// EventStore is an in-memory implementation of driven.EventStore.
type EventStore struct {
	mu       sync.RWMutex
	events   map[string][]domain.JobEvent
	imported map[string]map[string]struct{}
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events:   make(map[string][]domain.JobEvent),
		imported: make(map[string]map[string]struct{}),
	}
}

// SaveEvents stores events and marks their message IDs as imported.
func (s *EventStore) SaveEvents(_ context.Context, events []domain.JobEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range events {
		if event.UserID == "" || event.MessageID == "" {
			return domain.ErrInvalidInput
		}
		if s.imported[event.UserID] == nil {
			s.imported[event.UserID] = make(map[string]struct{})
		}
		if _, dup := s.imported[event.UserID][event.MessageID]; dup {
			continue
		}
		s.events[event.UserID] = append(s.events[event.UserID], event)
		s.imported[event.UserID][event.MessageID] = struct{}{}
	}
	return nil
}

// ListByUser returns a user's events, newest first.
func (s *EventStore) ListByUser(_ context.Context, userID string) ([]domain.JobEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.JobEvent, len(s.events[userID]))
	copy(out, s.events[userID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	return out, nil
}

// KnownMessageIDs returns the imported message IDs for a user.
func (s *EventStore) KnownMessageIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{}, len(s.imported[userID]))
	for id := range s.imported[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}
