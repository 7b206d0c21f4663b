package identity

import (
	"context"
	"errors"
	"fmt"
)

// Field names a unique key on the users table.
type Field string

const (
	FieldID            Field = "id"
	FieldSubjectID     Field = "subject_id"
	FieldWalletAddress Field = "wallet_address"
)

// ErrNotFound reports that a point lookup matched no record.
var ErrNotFound = errors.New("user not found")

// UniqueViolation reports that a conditional write was rejected because it
// would duplicate a value on the named unique key. Callers branch on Field
// to decide between a fallback read and a user-visible conflict.
type UniqueViolation struct {
	Field Field
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique violation on %s", e.Field)
}

// IsUniqueViolation reports whether err is a UniqueViolation on field.
func IsUniqueViolation(err error, field Field) bool {
	var uv *UniqueViolation
	return errors.As(err, &uv) && uv.Field == field
}

// Store persists user records. Every write is a single atomic operation at
// the storage boundary; uniqueness is enforced by the store, not advisory.
type Store interface {
	// Upsert inserts a record keyed on subjectID or, when the primary key
	// already exists, realigns its subject_id. A UniqueViolation on
	// subject_id means another record already claims the subject.
	Upsert(ctx context.Context, subjectID string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindBySubject(ctx context.Context, subjectID string) (User, error)
	FindByWallet(ctx context.Context, address string) (User, error)
	// SetWallet updates wallet_address for the identified record only.
	// address == nil clears the binding. A UniqueViolation on
	// wallet_address means a concurrent writer bound the address first.
	SetWallet(ctx context.Context, id string, address *string) (User, error)
}
