package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

const (
	adminColumns = `admin_id, username, email, password_hash, created_at`

	uniqueViolation    = "23505"
	emailConstraint    = "admins_email_key"
	usernameConstraint = "admins_username_key"
)

// AdminRepo implements domain.AdminRepository.
type AdminRepo struct {
	pool *pgxpool.Pool
}

var _ domain.AdminRepository = (*AdminRepo)(nil)

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var a domain.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (r *AdminRepo) Create(ctx context.Context, username, email, passwordHash string) (*domain.Admin, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO admins (username, email, password_hash) VALUES ($1, $2, $3) RETURNING `+adminColumns,
		username, email, passwordHash)
	a, err := scanAdmin(row)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to insert admin: %w", err)
	}
	return a, nil
}

func (r *AdminRepo) GetByID(ctx context.Context, adminID int64) (*domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE admin_id = $1`, adminID)
}

func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email)
}

func (r *AdminRepo) getOne(ctx context.Context, sql string, arg any) (*domain.Admin, error) {
	a, err := scanAdmin(r.pool.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return a, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case emailConstraint:
		return domain.ErrEmailTaken
	case usernameConstraint:
		return domain.ErrUsernameTaken
	default:
		return nil
	}
}
