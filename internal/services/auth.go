package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"banko/internal/auth"
	"banko/internal/core"
)

// InitialBalanceCents seeds every new account with R$ 1000.
const InitialBalanceCents int64 = 100_000

// UserStore is the storage surface account management needs.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User, passwordHash string, initialCents int64) error
	GetUserByEmail(ctx context.Context, email string) (core.User, string, error)
	GetUserByID(ctx context.Context, id string) (core.User, error)
}

// Session is a logged-in user plus their bearer token.
type Session struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

// AuthService registers accounts and issues sessions.
type AuthService struct {
	store  UserStore
	tokens *auth.Manager
}

func NewAuthService(store UserStore, tokens *auth.Manager) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

// Register creates the user and their seeded account, then signs them
// in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (Session, error) {
	u := core.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return Session{}, err
	}
	if len(password) < 6 {
		return Session{}, core.ErrShortPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.CreateUser(ctx, u, hash, InitialBalanceCents); err != nil {
		if errors.Is(err, core.ErrEmailTaken) {
			return Session{}, core.ErrEmailTaken
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Sign(u.ID, u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}

	slog.InfoContext(ctx, "Account registered", "user_id", u.ID)
	return Session{User: u, Token: token}, nil
}

// Login verifies credentials and issues a session. Unknown emails and
// wrong passwords both map to ErrBadCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, hash, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, core.ErrBadCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("get user: %w", err)
	}

	if !auth.CheckPassword(hash, password) {
		return Session{}, core.ErrBadCredentials
	}

	token, err := s.tokens.Sign(u.ID, u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
	return Session{User: u, Token: token}, nil
}

// UserByID loads the profile behind a verified token.
func (s *AuthService) UserByID(ctx context.Context, id string) (core.User, error) {
	return s.store.GetUserByID(ctx, id)
}
