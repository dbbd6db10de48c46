/*
Package auth provides employee accounts and request identity.

PURPOSE:
  Employees sign up and log in to receive a JWT carried in an httpOnly
  cookie. Accounts are usable immediately after signup. The token
  resolves to an employee id on every request; an admin flag gates the
  cross-employee override operations.

PASSWORDS:
  Hashed with bcrypt at the default cost. Plaintext never leaves the
  signup/login call stack and is never stored or logged.

SEE ALSO:
  - token.go: JWT issue/verify
  - api/middleware.go: cookie extraction and context propagation
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when signing up with an email that
	// already has an account.
	ErrEmailTaken = errors.New("email already exists")

	// ErrNotAdmin is returned when an admin-only login or operation is
	// attempted by a regular account.
	ErrNotAdmin = errors.New("admin access required")

	// ErrAccountNotFound is returned when a token references an account
	// that no longer exists.
	ErrAccountNotFound = errors.New("account not found")

	// ErrWeakPassword is returned when a signup password is too short.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is an employee (or admin) login record.
type Account struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// AccountStore persists accounts. Implemented by store/sqlite.
type AccountStore interface {
	// CreateAccount persists a new account. Returns ErrEmailTaken on a
	// duplicate email.
	CreateAccount(ctx context.Context, a Account) error

	// AccountByEmail returns (nil, nil) when no account has the email.
	AccountByEmail(ctx context.Context, email string) (*Account, error)

	// AccountByID returns (nil, nil) when the id is unknown.
	AccountByID(ctx context.Context, id string) (*Account, error)
}

// =============================================================================
// SERVICE
// =============================================================================

// Service implements signup and login flows over an AccountStore.
type Service struct {
	store  AccountStore
	tokens *TokenIssuer

	// Now supplies timestamps. Override in tests.
	Now func() time.Time
}

func NewService(store AccountStore, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens, Now: time.Now}
}

// SignupInput carries the fields of a signup request. The HTTP layer
// validates presence and format before calling.
type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// Signup creates an account and returns it with a fresh session token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Account, string, error) {
	if len(in.Password) < 6 {
		return nil, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	a := Account{
		ID:           uuid.NewString(),
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.Now(),
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(a.ID, a.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return &a, token, nil
}

// Login verifies credentials and returns the account with a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	return s.login(ctx, email, password, false)
}

// AdminLogin is Login restricted to admin accounts.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*Account, string, error) {
	return s.login(ctx, email, password, true)
}

func (s *Service) login(ctx context.Context, email, password string, requireAdmin bool) (*Account, string, error) {
	a, err := s.store.AccountByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup account: %w", err)
	}
	if a == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if requireAdmin && !a.IsAdmin {
		return nil, "", ErrNotAdmin
	}

	token, err := s.tokens.Issue(a.ID, a.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return a, token, nil
}

// AccountByID resolves a token subject back to its account.
func (s *Service) AccountByID(ctx context.Context, id string) (*Account, error) {
	a, err := s.store.AccountByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	return a, nil
}
