// Package services – ContactService
//
// Contact relations are directed: adding bob to alice's list says nothing
// about bob's list. The canonical handle on the wire is the contact user id;
// removal also accepts the legacy contact-relation row id for clients that
// predate the canonicalization.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
)

// ContactRepo defines the repository contract required by ContactService.
type ContactRepo interface {
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
	HasContact(ctx context.Context, db *gorm.DB, ownerID, contactID uint) (bool, error)
	AddContact(ctx context.Context, db *gorm.DB, ownerID, contactID uint) (*domain.Contact, error)
	RemoveContact(ctx context.Context, db *gorm.DB, ownerID, ref uint) error
}

// ContactService manages directed contact relations between users.
type ContactService struct {
	DB   *gorm.DB
	Repo ContactRepo
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB, r ContactRepo) *ContactService {
	return &ContactService{DB: db, Repo: r}
}

// Add lists contactUsername in ownerUsername's contacts and returns the
// contact user. Errors: ErrUserNotFound (owner missing), ErrContactNotFound
// (contact missing), ErrSelfContact, ErrContactExists.
func (s *ContactService) Add(ctx context.Context, ownerUsername, contactUsername string) (*domain.User, error) {
	owner, err := s.Repo.GetUserByUsername(ctx, s.DB, ownerUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	contact, err := s.Repo.GetUserByUsername(ctx, s.DB, contactUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	if owner.ID == contact.ID {
		return nil, ErrSelfContact
	}

	listed, err := s.Repo.HasContact(ctx, s.DB, owner.ID, contact.ID)
	if err != nil {
		return nil, err
	}
	if listed {
		return nil, ErrContactExists
	}
	if _, err := s.Repo.AddContact(ctx, s.DB, owner.ID, contact.ID); err != nil {
		return nil, err
	}
	return contact, nil
}

// Remove drops a contact from the owner's list. The ref is resolved as a
// contact user id first, then as a legacy relation row id. Removing an
// absent contact succeeds, making the operation idempotent.
func (s *ContactService) Remove(ctx context.Context, ownerUsername string, ref uint) error {
	owner, err := s.Repo.GetUserByUsername(ctx, s.DB, ownerUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.Repo.RemoveContact(ctx, s.DB, owner.ID, ref)
}
