package repository

import (
	"context"
	"sync"

	"github.com/premiumgate/premiumgate/internal/model"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.Membership
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.Membership)}
}

func (s *MemoryStore) IsPremium(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[model.NormalizeEmail(email)].IsPremium, nil
}

func (s *MemoryStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[model.NormalizeEmail(email)]
	return ok, nil
}

func (s *MemoryStore) Insert(_ context.Context, email string, premium bool, date string) error {
	key := model.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = model.Membership{Email: key, IsPremium: premium, LastUpdated: date}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, email string, date string) error {
	key := model.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return ErrMembershipNotFound
	}
	rec.LastUpdated = date
	s.records[key] = rec
	return nil
}

// GetMembership returns a copy of the stored record.
func (s *MemoryStore) GetMembership(_ context.Context, email string) (*model.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[model.NormalizeEmail(email)]
	if !ok {
		return nil, ErrMembershipNotFound
	}
	return &rec, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}
