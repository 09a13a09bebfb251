package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"banko/internal/auth"
	"banko/internal/core"
)

type fakeUserStore struct {
	users  map[string]core.User // keyed by email
	hashes map[string]string
	seeded map[string]int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[string]core.User),
		hashes: make(map[string]string),
		seeded: make(map[string]int64),
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u core.User, passwordHash string, initialCents int64) error {
	if _, ok := f.users[u.Email]; ok {
		return core.ErrEmailTaken
	}
	f.users[u.Email] = u
	f.hashes[u.Email] = passwordHash
	f.seeded[u.ID] = initialCents
	return nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (core.User, string, error) {
	u, ok := f.users[email]
	if !ok {
		return core.User{}, "", core.ErrNotFound
	}
	return u, f.hashes[email], nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (core.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func newAuthService(store UserStore) *AuthService {
	return NewAuthService(store, auth.NewManager("test-secret", time.Hour))
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newAuthService(store)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "Ana", "ana@example.com", "s3nh@forte")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.Token == "" || sess.User.ID == "" {
		t.Fatalf("session = %+v", sess)
	}
	if store.seeded[sess.User.ID] != InitialBalanceCents {
		t.Errorf("account seeded with %d, want %d", store.seeded[sess.User.ID], InitialBalanceCents)
	}
	if store.hashes["ana@example.com"] == "s3nh@forte" {
		t.Error("password stored in plaintext")
	}

	again, err := svc.Login(ctx, "ana@example.com", "s3nh@forte")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if again.User.ID != sess.User.ID {
		t.Errorf("Login returned user %s, want %s", again.User.ID, sess.User.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(newFakeUserStore())
	ctx := context.Background()

	tests := []struct {
		name, userName, email, password string
		want                            error
	}{
		{"empty name", "", "a@b.com", "longenough", core.ErrEmptyName},
		{"bad email", "Ana", "not-an-email", "longenough", core.ErrInvalidEmail},
		{"short password", "Ana", "a@b.com", "12345", core.ErrShortPassword},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.userName, tc.email, tc.password); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana@example.com", "s3nh@forte"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "Outra", "ana@example.com", "s3nh@forte"); !errors.Is(err, core.ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc := newAuthService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana@example.com", "s3nh@forte"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("wrong password err = %v, want ErrBadCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("unknown email err = %v, want ErrBadCredentials", err)
	}
}
