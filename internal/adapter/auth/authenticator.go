// Package auth issues and verifies admin bearer tokens and hashes admin
// passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

// adminLookupTimeout bounds a shared admin lookup, which outlives the
// request that started it.
const adminLookupTimeout = 5 * time.Second

type claims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator implements domain.Credentials and domain.TokenVerifier with
// HS256 tokens and bcrypt hashes.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	cost   int
	admins domain.AdminRepository
	clock  clockwork.Clock
	group  singleflight.Group
}

var (
	_ domain.Credentials   = (*Authenticator)(nil)
	_ domain.TokenVerifier = (*Authenticator)(nil)
)

func NewAuthenticator(secret string, ttl time.Duration, admins domain.AdminRepository, clock clockwork.Clock) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		admins: admins,
		clock:  clock,
	}
}

func (a *Authenticator) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

func (a *Authenticator) ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (a *Authenticator) IssueToken(admin *domain.Admin) (string, error) {
	now := a.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry, then confirms the admin still exists.
// Concurrent checks for the same admin share one store lookup.
func (a *Authenticator) Verify(ctx context.Context, token string) (domain.AdminIdentity, bool) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		slog.DebugContext(ctx, "Rejected bearer token", "error", err)
		return domain.AdminIdentity{}, false
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.AdminID <= 0 {
		return domain.AdminIdentity{}, false
	}

	admin, err, _ := a.group.Do(strconv.FormatInt(c.AdminID, 10), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), adminLookupTimeout)
		defer cancel()
		return a.admins.GetByID(lookupCtx, c.AdminID)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAdminNotFound) {
			slog.ErrorContext(ctx, "Admin lookup failed during token verification", "admin_id", c.AdminID, "error", err)
		}
		return domain.AdminIdentity{}, false
	}

	found := admin.(*domain.Admin)
	return domain.AdminIdentity{ID: found.ID, Username: found.Username}, true
}
