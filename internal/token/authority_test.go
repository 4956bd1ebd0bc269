package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/questionbank/backend/internal/store"
)

type fakeRepository struct {
	rows      map[string]*store.Token
	createErr error
	deleteErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: make(map[string]*store.Token)}
}

func (f *fakeRepository) Create(_ context.Context, token *store.Token) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[token.Value] = token
	return nil
}

func (f *fakeRepository) Exists(_ context.Context, value string) (bool, error) {
	_, ok := f.rows[value]
	return ok, nil
}

func (f *fakeRepository) Delete(_ context.Context, value string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	_, ok := f.rows[value]
	delete(f.rows, value)
	return ok, nil
}

func newTestAuthority(repo Repository, at time.Time) *Authority {
	a := NewAuthority(repo, "test-secret")
	a.now = func() time.Time { return at }
	return a
}

func TestIssuePersistsToken(t *testing.T) {
	repo := newFakeRepository()
	a := newTestAuthority(repo, time.Now())
	userID := uuid.New()

	value, err := a.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if value == "" {
		t.Fatal("expected non-empty token value")
	}

	row, ok := repo.rows[value]
	if !ok {
		t.Fatal("issued token should be persisted keyed by its value")
	}
	if row.UserID != userID {
		t.Errorf("persisted row bound to %s, want %s", row.UserID, userID)
	}

	got, err := a.UserID(value)
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if got != userID {
		t.Errorf("UserID() = %s, want %s", got, userID)
	}
}

func TestIssueEachAuthenticationEventGetsOwnToken(t *testing.T) {
	repo := newFakeRepository()
	a := newTestAuthority(repo, time.Now())
	userID := uuid.New()

	first, err := a.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(time.Second) }
	second, err := a.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if first == second {
		t.Fatal("two authentication events should yield distinct tokens")
	}
	if len(repo.rows) != 2 {
		t.Errorf("expected 2 persisted rows, got %d", len(repo.rows))
	}
}

func TestIssueStoreFailurePropagates(t *testing.T) {
	repo := newFakeRepository()
	repo.createErr = &store.Error{Op: "create token", Err: errors.New("boom")}
	a := newTestAuthority(repo, time.Now())

	_, err := a.Issue(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Errorf("expected *store.Error, got %T", err)
	}
}

func TestIsExpiredBoundary(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	a := newTestAuthority(repo, issuedAt)

	value, err := a.Issue(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		expired bool
	}{
		{"immediately after issue", issuedAt.Add(time.Second), false},
		{"just before expiry", issuedAt.Add(TTL - time.Second), false},
		{"exactly at expiry", issuedAt.Add(TTL), true},
		{"after expiry", issuedAt.Add(TTL + time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a.now = func() time.Time { return tt.at }
			expired, err := a.IsExpired(value)
			if err != nil {
				t.Fatalf("IsExpired: %v", err)
			}
			if expired != tt.expired {
				t.Errorf("IsExpired() = %v, want %v", expired, tt.expired)
			}
		})
	}
}

func TestIsExpiredRejectsForgedToken(t *testing.T) {
	repo := newFakeRepository()
	a := newTestAuthority(repo, time.Now())

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("attacker-secret"))
	if err != nil {
		t.Fatalf("signing forged token: %v", err)
	}

	_, err = a.IsExpired(forged)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("forged signature should be ErrInvalidToken, got %v", err)
	}

	_, err = a.IsExpired("not-a-token-at-all")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage value should be ErrInvalidToken, got %v", err)
	}

	if _, err := a.UserID(forged); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("UserID on forged token should be ErrInvalidToken, got %v", err)
	}
}

func TestUserIDAcceptsExpiredAuthenticToken(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	a := newTestAuthority(repo, issuedAt)
	userID := uuid.New()

	value, err := a.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	a.now = func() time.Time { return issuedAt.Add(TTL + time.Hour) }

	got, err := a.UserID(value)
	if err != nil {
		t.Fatalf("UserID on expired-but-authentic token: %v", err)
	}
	if got != userID {
		t.Errorf("UserID() = %s, want %s", got, userID)
	}
}

func TestRevokeRemovesFromStore(t *testing.T) {
	repo := newFakeRepository()
	a := newTestAuthority(repo, time.Now())

	value, err := a.Issue(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	exists, err := a.ExistsInStore(context.Background(), value)
	if err != nil || !exists {
		t.Fatalf("expected issued token in store, got exists=%v err=%v", exists, err)
	}

	if err := a.Revoke(context.Background(), value); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	exists, err = a.ExistsInStore(context.Background(), value)
	if err != nil {
		t.Fatalf("ExistsInStore: %v", err)
	}
	if exists {
		t.Error("revoked token should be absent from the store")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	a := newTestAuthority(repo, time.Now())

	value, err := a.Issue(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := a.Revoke(context.Background(), value); err != nil {
		t.Fatalf("first Revoke: %v", err)
	}
	if err := a.Revoke(context.Background(), value); err != nil {
		t.Errorf("second Revoke of the same token should succeed, got %v", err)
	}
	if err := a.Revoke(context.Background(), "never-issued"); err != nil {
		t.Errorf("Revoke of an unknown token should succeed, got %v", err)
	}
}

func TestRevokeStoreFailureSurfaces(t *testing.T) {
	repo := newFakeRepository()
	a := newTestAuthority(repo, time.Now())

	value, err := a.Issue(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	repo.deleteErr = &store.Error{Op: "delete token", Err: errors.New("connection lost")}
	err = a.Revoke(context.Background(), value)

	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Errorf("expected *store.Error, got %v", err)
	}
}
