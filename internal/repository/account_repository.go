package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/spec-kit/account-service/internal/domain"
)

var (
	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when a write would duplicate a normalized email.
	ErrEmailTaken = errors.New("email already registered")
)

// AccountRepository defines persistence access for accounts. Implementations
// must enforce email uniqueness themselves.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
}

// AccountFilter defines paging for account listing. Results are newest first.
type AccountFilter struct {
	Limit  int
	Offset int
}

// pgxPool is the subset of *pgxpool.Pool used here; pgxmock satisfies it too.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type accountRepository struct {
	pool pgxPool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool pgxPool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `id, email, password_hash, full_name, role, status, last_login, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO users (email, password_hash, full_name, role, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Email,
		account.PasswordHash,
		account.FullName,
		account.Role,
		account.Status,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_EMAIL_TAKEN").With("email", account.Email).Wrap(ErrEmailTaken)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").With("email", account.Email).Wrap(err)
	}
	return nil
}

// Update persists email, password hash, full name and status. Role is never
// written here.
func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE users SET email=$1, password_hash=$2, full_name=$3, status=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Email,
		account.PasswordHash,
		account.FullName,
		account.Status,
		account.ID,
	).Scan(&account.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), isInvalidID(err):
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", account.ID).Wrap(ErrNotFound)
	case isUniqueViolation(err):
		return oops.Code("ACCOUNT_EMAIL_TAKEN").With("email", account.Email).Wrap(ErrEmailTaken)
	default:
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("id", account.ID).Wrap(err)
	}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id=$1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
		}
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").With("id", id).Wrap(err)
	}
	return account, nil
}

// GetByEmail matches case-insensitively, the same way the unique index does.
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(ErrNotFound)
		}
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").With("email", email).Wrap(err)
	}
	return account, nil
}

func (r *accountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login=$1 WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		if isInvalidID(err) {
			return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
		}
		return oops.Code("ACCOUNT_TOUCH_LAST_LOGIN_FAILED").With("id", id).Wrap(err)
	}
	if cmd.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return nil
}

func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, oops.Code("ACCOUNT_COUNT_FAILED").Wrap(err)
	}
	return total, nil
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").
			With("limit", filter.Limit).
			With("offset", filter.Offset).
			Wrap(err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, filter.Limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "scan account row").Wrap(err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "iterate accounts").Wrap(err)
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.FullName,
		&account.Role,
		&account.Status,
		&account.LastLogin,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// A malformed UUID can never name an existing row.
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}
