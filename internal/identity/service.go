package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoSubject reports that a caller presented an empty subject identifier.
var ErrNoSubject = errors.New("subject identifier is required")

// ErrInconsistent reports that a uniqueness violation implied an existing
// record but the fallback lookup found none. This means the store lost or
// deleted a row underneath us and needs operator attention.
var ErrInconsistent = errors.New("user record could not be reconciled")

// Service reconciles external subject identifiers to canonical user records.
type Service struct {
	store Store
}

// NewService creates a new identity service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Resolve returns the canonical record for subjectID, creating it on first
// sight. It is idempotent and safe under arbitrary concurrency: the upsert is
// the happy path for both new and repeat callers, and when a concurrent
// caller wins the insert race the resulting uniqueness violation is absorbed
// by reading the row the winner wrote. Callers never observe which path ran.
func (s *Service) Resolve(ctx context.Context, subjectID string) (User, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return User{}, ErrNoSubject
	}

	user, err := s.store.Upsert(ctx, subjectID)
	if err == nil {
		return user, nil
	}

	var uv *UniqueViolation
	if !errors.As(err, &uv) {
		return User{}, err
	}

	user, err = s.store.FindBySubject(ctx, subjectID)
	if errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("%w: subject exists per %s constraint but lookup found nothing", ErrInconsistent, uv.Field)
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}
