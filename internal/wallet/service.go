package wallet

import (
	"context"
	"errors"
	"strings"

	"github.com/linkvault/linkvault/internal/identity"
	"github.com/linkvault/linkvault/internal/notification"
)

var (
	// ErrEmptyAddress reports that the submitted wallet address was empty
	// after trimming.
	ErrEmptyAddress = errors.New("wallet address is required")

	// ErrAddressInUse reports that another user record already holds the
	// requested wallet address. Never auto-resolved; the caller picks a
	// different address.
	ErrAddressInUse = errors.New("wallet address is already linked to another user")
)

// Service manages the unique binding between user records and external
// wallet addresses. All operations require a record previously resolved by
// identity.Service.
type Service struct {
	store    identity.Store
	notifier notification.Notifier
}

// NewService builds a wallet binding service.
func NewService(store identity.Store, notifier notification.Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Get returns the wallet address bound to the principal, or nil when none is
// set. A principal without a record yet reads as unbound rather than failing.
func (s *Service) Get(ctx context.Context, user identity.User) (*string, error) {
	current, err := s.store.FindBySubject(ctx, user.SubjectID)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return current.WalletAddress, nil
}

// Link binds address to the caller's record. Addresses are compared as exact
// strings after trimming; format validation happens upstream of this
// service. Rebinding the already-bound address is a no-op, not a conflict.
func (s *Service) Link(ctx context.Context, user identity.User, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrEmptyAddress
	}

	current, err := s.currentRecord(ctx, user)
	if err != nil {
		return "", err
	}

	if current.WalletAddress != nil && *current.WalletAddress == address {
		return address, nil
	}

	owner, err := s.store.FindByWallet(ctx, address)
	if err == nil && owner.ID != current.ID {
		return "", ErrAddressInUse
	}
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		return "", err
	}

	updated, err := s.store.SetWallet(ctx, current.ID, &address)
	if err != nil {
		// The pre-check above is an optimization; the store's uniqueness
		// constraint is the arbiter when two binds race for one address.
		if identity.IsUniqueViolation(err, identity.FieldWalletAddress) {
			return "", ErrAddressInUse
		}
		return "", err
	}

	s.notify(ctx, notification.KindWalletLinked, current.ID, address)
	return updated.Wallet(), nil
}

// Unlink unconditionally clears the caller's wallet binding. Null addresses
// are not unique-constrained, so no conflict is possible.
func (s *Service) Unlink(ctx context.Context, user identity.User) error {
	current, err := s.currentRecord(ctx, user)
	if err != nil {
		return err
	}
	if _, err := s.store.SetWallet(ctx, current.ID, nil); err != nil {
		return err
	}
	s.notify(ctx, notification.KindWalletUnlinked, current.ID, "")
	return nil
}

// currentRecord re-resolves the caller's record immediately before mutating.
// The row addressed by the subject identifier is authoritative when it
// disagrees with the row addressed by primary key; realigning to it is a
// corrective path, not an error.
func (s *Service) currentRecord(ctx context.Context, user identity.User) (identity.User, error) {
	current, err := s.store.FindBySubject(ctx, user.SubjectID)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return identity.User{}, err
	}
	return s.store.FindByID(ctx, user.ID)
}

func (s *Service) notify(ctx context.Context, kind, userID, address string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{Kind: kind, UserID: userID, WalletAddress: address})
}
