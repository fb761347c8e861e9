package domain

import (
	"context"
	"time"
)

type Admin struct {
	ID           int64     `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminIdentity is what a verified bearer token resolves to.
type AdminIdentity struct {
	ID       int64
	Username string
}

type AdminRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*Admin, error)
	GetByID(ctx context.Context, adminID int64) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}

// TokenVerifier resolves a bearer token to an admin identity. It never errors:
// any failure is reported as ok == false.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (identity AdminIdentity, ok bool)
}

// Credentials hashes passwords and issues bearer tokens for admins.
type Credentials interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) bool
	IssueToken(admin *Admin) (string, error)
}
