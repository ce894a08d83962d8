// Package auth implements user accounts: registration with bcrypt
// password hashing and login issuing signed bearer tokens. The core
// services only ever see the resolved {id, role} pair.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/college-event-tickets/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type Store interface {
	InsertUser(ctx context.Context, u domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Service struct {
	store   Store
	tokens  *TokenManager
	timeout time.Duration
}

func NewService(store Store, tokens *TokenManager, storageTimeout time.Duration) *Service {
	return &Service{store: store, tokens: tokens, timeout: storageTimeout}
}

// Session is a logged-in user plus their bearer token.
type Session struct {
	User  domain.User
	Token string
}

// Register creates an account. An empty role defaults to student; the
// unique-email constraint surfaces as domain.ErrConflict.
func (s *Service) Register(ctx context.Context, name, email, password string, role domain.Role) (*Session, error) {
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: email is invalid", domain.ErrInvalidInput)
	case len(password) < 6:
		return nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrInvalidInput)
	}
	if role == "" {
		role = domain.RoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.store.InsertUser(ctx, user)
	}); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

// Login verifies credentials. A missing user and a wrong password both
// come back as ErrInvalidInput so the response does not reveal which.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	var user *domain.User
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.store.GetUserByEmail(ctx, strings.ToLower(email))
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrInvalidInput)
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: *user, Token: token}, nil
}

func (s *Service) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := fn(tctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.ErrStorageTimeout
	}
	return err
}
