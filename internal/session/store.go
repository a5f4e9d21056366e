// Package session tracks revoked bearer tokens until they expire.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRevoked is returned for a token that was logged out.
var ErrRevoked = errors.New("token revoked")

// Store remembers revoked token ids. Entries only need to outlive the
// token they name.
type Store interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}

// Check returns ErrRevoked when tokenID has been revoked.
func Check(ctx context.Context, s Store, tokenID string) error {
	revoked, err := s.IsRevoked(ctx, tokenID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrRevoked
	}
	return nil
}

// MemoryStore keeps revocations in process memory. It serves single
// instance deployments that run without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = expiresAt
	s.sweepLocked()
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, id)
		}
	}
}
