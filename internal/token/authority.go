// Package token issues and validates session tokens. A token is a signed
// HS256 payload carrying the user id and its own expiry, persisted as a row
// keyed by value so that revocation works by deletion: a token absent from
// the store is invalid no matter what its signature says.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/questionbank/backend/internal/store"
)

// TTL is the fixed lifetime of every issued token.
const TTL = 5 * time.Minute

// ErrInvalidToken reports a token whose signature or structure does not
// check out. It is deliberately distinct from "expired": an authentic token
// past its expiry and a forged token are different conditions.
var ErrInvalidToken = errors.New("invalid token")

// Repository is the slice of the store the authority needs.
type Repository interface {
	Create(ctx context.Context, token *store.Token) error
	Exists(ctx context.Context, value string) (bool, error)
	Delete(ctx context.Context, value string) (bool, error)
}

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

type Authority struct {
	repo   Repository
	secret []byte
	now    func() time.Time
}

func NewAuthority(repo Repository, secret string) *Authority {
	return &Authority{
		repo:   repo,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a token for userID expiring at now+TTL, persists it, and
// returns the encoded value.
func (a *Authority) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	now := a.now()
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", err
	}

	err = a.repo.Create(ctx, &store.Token{
		ID:        uuid.New(),
		UserID:    userID,
		Value:     value,
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}

	return value, nil
}

// ExistsInStore reports whether the token row is still present. Callers must
// check this before trusting any claim inside the value.
func (a *Authority) ExistsInStore(ctx context.Context, value string) (bool, error) {
	return a.repo.Exists(ctx, value)
}

// IsExpired decodes value and checks its embedded expiry. A signature or
// parse failure returns ErrInvalidToken, never (true, nil).
func (a *Authority) IsExpired(value string) (bool, error) {
	_, err := a.parse(value)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return true, nil
		}
		return false, ErrInvalidToken
	}
	return false, nil
}

// UserID extracts the user id from an authentic token. Expired tokens are
// accepted here so that logout of a just-expired session can still resolve
// its owner; forged tokens are not.
func (a *Authority) UserID(value string) (uuid.UUID, error) {
	claims, err := a.parse(value)
	if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return id, nil
}

// Revoke deletes the token row. An already-absent row is success: two
// requests can race to clean up the same expired token and the loser must
// not fail.
func (a *Authority) Revoke(ctx context.Context, value string) error {
	_, err := a.repo.Delete(ctx, value)
	return err
}

func (a *Authority) parse(value string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(value, claims,
		func(t *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return a.now() }),
	)
	return claims, err
}
