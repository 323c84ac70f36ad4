// Package services – AuthService
//
// This file implements the AuthService, which owns the account lifecycle:
// registration with PBKDF2 password hashing, login (credential check, auth
// flag, login history, contact map for the client), and logout. Handlers map
// the sentinel errors returned here to protocol refusals (code 205).
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
)

// AuthRepo defines the repository contract required by AuthService.
type AuthRepo interface {
	// CreateUser inserts a new user row with an already-derived hash.
	CreateUser(ctx context.Context, db *gorm.DB, username, passwordHash string) (*domain.User, error)

	// GetUserByUsername fetches a user by its unique username.
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)

	// SetAuthState flips the authenticated flag.
	SetAuthState(ctx context.Context, db *gorm.DB, id uint, state bool) error

	// AddHistory records the peer address of a successful login.
	AddHistory(ctx context.Context, db *gorm.DB, clientID uint, address string) error

	// ListContacts returns the user's contact rows with users preloaded.
	ListContacts(ctx context.Context, db *gorm.DB, ownerID uint) ([]domain.Contact, error)
}

// LoginResult is the payload a successful login hands back to the handler,
// serialized to the client under the user_data response field.
type LoginResult struct {
	UserID   uint            `json:"user_id"`
	Username string          `json:"username"`
	Contacts map[string]uint `json:"contacts"`
	Avatar   string          `json:"file_name,omitempty"`
}

// AuthService provides register, login, and logout operations.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the account repository used by this service.
	Repo AuthRepo
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, r AuthRepo) *AuthService {
	return &AuthService{DB: db, Repo: r}
}

// Register creates a new user with a hashed password and empty contact and
// chat sets. Returns ErrUserExists when the username is taken.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if _, err := s.Repo.GetUserByUsername(ctx, s.DB, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.Repo.CreateUser(ctx, s.DB, username, HashPassword(password))
}

// Login verifies credentials, marks the user authenticated, records the
// peer address, and returns the login payload. Returns ErrUserNotFound for
// an unknown username and ErrWrongPassword on a hash mismatch.
func (s *AuthService) Login(ctx context.Context, username, password, address string) (*LoginResult, error) {
	user, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !VerifyPassword(user.Password, password) {
		return nil, ErrWrongPassword
	}

	if err := s.Repo.SetAuthState(ctx, s.DB, user.ID, true); err != nil {
		return nil, err
	}
	if err := s.Repo.AddHistory(ctx, s.DB, user.ID, address); err != nil {
		return nil, err
	}

	rows, err := s.Repo.ListContacts(ctx, s.DB, user.ID)
	if err != nil {
		return nil, err
	}
	contacts := make(map[string]uint, len(rows))
	for _, c := range rows {
		contacts[c.User.Username] = c.ContactID
	}

	return &LoginResult{
		UserID:   user.ID,
		Username: user.Username,
		Contacts: contacts,
		Avatar:   user.Avatar,
	}, nil
}

// Logout clears the authenticated flag. Returns ErrUserNotFound for an
// unknown username.
func (s *AuthService) Logout(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := s.Repo.SetAuthState(ctx, s.DB, user.ID, false); err != nil {
		return nil, err
	}
	return user, nil
}
