package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and as the dev-mode
// fallback when no database is configured. It enforces the same uniqueness
// semantics as the Postgres schema under a single mutex.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore builds an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (s *MemoryStore) Upsert(_ context.Context, subjectID string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.users[subjectID]; ok {
		existing.SubjectID = subjectID
		existing.UpdatedAt = now
		s.users[subjectID] = existing
		return existing, nil
	}
	for _, u := range s.users {
		if u.SubjectID == subjectID {
			return User{}, &UniqueViolation{Field: FieldSubjectID}
		}
	}
	user := User{ID: subjectID, SubjectID: subjectID, CreatedAt: now, UpdatedAt: now}
	s.users[subjectID] = user
	return user, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) FindBySubject(_ context.Context, subjectID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.SubjectID == subjectID {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) FindByWallet(_ context.Context, address string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.WalletAddress != nil && *u.WalletAddress == address {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) SetWallet(_ context.Context, id string, address *string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if address != nil {
		for otherID, u := range s.users {
			if otherID != id && u.WalletAddress != nil && *u.WalletAddress == *address {
				return User{}, &UniqueViolation{Field: FieldWalletAddress}
			}
		}
		addr := *address
		user.WalletAddress = &addr
	} else {
		user.WalletAddress = nil
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return user, nil
}

// SetRoles assigns role names to a record. Roles are owned by a separate
// authority in production; tests seed them through this helper.
func (s *MemoryStore) SetRoles(id string, roles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		user.Roles = append([]string(nil), roles...)
		s.users[id] = user
	}
}

// Len reports how many records the store holds.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
