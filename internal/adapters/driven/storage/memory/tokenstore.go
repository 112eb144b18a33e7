// Package memory provides in-memory store implementations, used in
// tests and as reference behaviour for the SQLite store.
package memory

import (
	"context"
	"sync"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory implementation of driven.TokenStore.
type TokenStore struct {
	mu      sync.RWMutex
	records map[string]domain.TokenRecord
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		records: make(map[string]domain.TokenRecord),
	}
}

// Get retrieves the token record for a user.
func (s *TokenStore) Get(_ context.Context, userID string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Save stores or updates a token record.
func (s *TokenStore) Save(_ context.Context, rec domain.TokenRecord) error {
	if rec.UserID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = rec
	return nil
}

// Delete removes a user's token record.
func (s *TokenStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}
