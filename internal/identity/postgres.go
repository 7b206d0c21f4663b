package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error code for unique_violation.
const uniqueViolationCode = "23505"

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed user store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, subject_id, wallet_address, created_at, updated_at`

// Upsert performs the insert-or-realign write in a single statement so that
// concurrent first-time callers race at the database, not in this process.
func (s *PostgresStore) Upsert(ctx context.Context, subjectID string) (User, error) {
	row := s.db.QueryRow(ctx, `INSERT INTO users (id, subject_id, created_at, updated_at)
        VALUES ($1, $1, now(), now())
        ON CONFLICT (id) DO UPDATE SET subject_id = EXCLUDED.subject_id, updated_at = now()
        RETURNING `+userColumns, subjectID)
	user, err := scanUser(row)
	if err != nil {
		return User{}, translateError(err)
	}
	return s.withRoles(ctx, user)
}

// FindByID fetches a user by primary key.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return User{}, translateError(err)
	}
	return s.withRoles(ctx, user)
}

// FindBySubject fetches a user by the auth provider's subject identifier.
func (s *PostgresStore) FindBySubject(ctx context.Context, subjectID string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE subject_id = $1`, subjectID)
	user, err := scanUser(row)
	if err != nil {
		return User{}, translateError(err)
	}
	return s.withRoles(ctx, user)
}

// FindByWallet fetches the user currently holding a wallet address.
func (s *PostgresStore) FindByWallet(ctx context.Context, address string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = $1`, address)
	user, err := scanUser(row)
	if err != nil {
		return User{}, translateError(err)
	}
	return s.withRoles(ctx, user)
}

// SetWallet updates the wallet binding for one record. The UNIQUE constraint
// on wallet_address is the arbiter when two writers race for one address.
func (s *PostgresStore) SetWallet(ctx context.Context, id string, address *string) (User, error) {
	row := s.db.QueryRow(ctx, `UPDATE users SET wallet_address = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, address)
	user, err := scanUser(row)
	if err != nil {
		return User{}, translateError(err)
	}
	return s.withRoles(ctx, user)
}

func (s *PostgresStore) withRoles(ctx context.Context, user User) (User, error) {
	rows, err := s.db.Query(ctx, `SELECT r.name FROM user_roles ur
        JOIN roles r ON r.id = ur.role_id
        WHERE ur.user_id = $1
        ORDER BY r.name`, user.ID)
	if err != nil {
		return User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return User{}, err
		}
		user.Roles = append(user.Roles, name)
	}
	if err := rows.Err(); err != nil {
		return User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user      User
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&user.ID, &user.SubjectID, &user.WalletAddress, &createdAt, &updatedAt); err != nil {
		return User{}, err
	}
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	return user, nil
}

// translateError converts driver errors into the two-outcome store contract:
// pgx.ErrNoRows becomes ErrNotFound, unique_violation becomes a
// UniqueViolation naming the constrained field, everything else passes
// through untouched.
func translateError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return &UniqueViolation{Field: constraintField(pgErr.ConstraintName)}
	}
	return err
}

func constraintField(constraint string) Field {
	switch constraint {
	case "users_pkey":
		return FieldID
	case "users_subject_id_key":
		return FieldSubjectID
	case "users_wallet_address_key":
		return FieldWalletAddress
	}
	// Constraint was renamed by a migration; fall back to name inspection.
	switch {
	case strings.Contains(constraint, "wallet"):
		return FieldWalletAddress
	case strings.Contains(constraint, "subject"):
		return FieldSubjectID
	default:
		return FieldID
	}
}
