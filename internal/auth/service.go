package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/questionbank/backend/internal/credentials"
	"github.com/questionbank/backend/internal/store"
)

var (
	// ErrCredentialMismatch covers both an unknown username and a wrong
	// password; callers must render the two identically.
	ErrCredentialMismatch = errors.New("invalid username or password")

	ErrDuplicateUsername = errors.New("username already taken")
)

// UserStore is the slice of the store the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *store.User) error
	GetByUsername(ctx context.Context, username string) (*store.User, error)
}

// TokenAuthority issues, validates, and revokes session tokens.
type TokenAuthority interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	ExistsInStore(ctx context.Context, value string) (bool, error)
	IsExpired(value string) (bool, error)
	UserID(value string) (uuid.UUID, error)
	Revoke(ctx context.Context, value string) error
}

type Service struct {
	users  UserStore
	tokens TokenAuthority
}

func NewService(users UserStore, tokens TokenAuthority) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a user with a freshly encoded credential and issues a
// session token for the new identity.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	encoded, err := credentials.MakeEncoded(password)
	if err != nil {
		return "", fmt.Errorf("encode credential: %w", err)
	}

	user := &store.User{
		ID:        uuid.New(),
		Username:  username,
		Password:  encoded,
		CreatedAt: time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", ErrDuplicateUsername
		}
		return "", err
	}

	return s.tokens.Issue(ctx, user.ID)
}

// Login verifies the password against the stored encoding and issues a new
// token. Each successful login is its own authentication event; earlier
// tokens for the same user stay valid.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrCredentialMismatch
		}
		return "", err
	}

	ok, err := credentials.Verify(password, user.Password)
	if err != nil {
		// A stored encoding we cannot parse is a server-side fault, not a
		// login failure.
		return "", fmt.Errorf("verify credential for user %s: %w", user.ID, err)
	}
	if !ok {
		return "", ErrCredentialMismatch
	}

	return s.tokens.Issue(ctx, user.ID)
}

// Logout revokes the presented token. Revoking an already-absent token
// succeeds, so concurrent logouts of the same session cannot fail each other.
func (s *Service) Logout(ctx context.Context, value string) error {
	return s.tokens.Revoke(ctx, value)
}
