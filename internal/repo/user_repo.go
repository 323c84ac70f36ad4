// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users,
// contacts, login history, and media records.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported in db.go as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
)

// CreateUser inserts a new User row with the given username and password
// hash. The hash must already be derived by the caller; this layer never
// sees plaintext. On a duplicate username the unique index violation is
// propagated as the raw gorm error.
func CreateUser(ctx context.Context, db *gorm.DB, username, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		Username:  username,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername fetches a user by its unique username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID fetches a user by primary key, or ErrNotFound.
func GetUserByID(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SetAuthState flips the IsAuthenticated flag for the user.
func SetAuthState(ctx context.Context, db *gorm.DB, id uint, state bool) error {
	return db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("is_authenticated", state).Error
}

// UpdateProfile overwrites the free-text profile fields of a user.
func UpdateProfile(ctx context.Context, db *gorm.DB, id uint, firstName, secondName, bio string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"first_name":  firstName,
			"second_name": secondName,
			"bio":         bio,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetAvatar replaces the avatar file-name token. An empty token clears it.
func SetAvatar(ctx context.Context, db *gorm.DB, id uint, token string) error {
	return db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("avatar", token).Error
}

// AddHistory records the peer address of a successful login.
func AddHistory(ctx context.Context, db *gorm.DB, clientID uint, address string) error {
	h := &domain.ClientHistory{
		ClientID:  clientID,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(h).Error
}

// AddContact inserts a directed owner→contact relation and returns the row.
func AddContact(ctx context.Context, db *gorm.DB, ownerID, contactID uint) (*domain.Contact, error) {
	c := &domain.Contact{
		OwnerID:   ownerID,
		ContactID: contactID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// HasContact reports whether ownerID already lists contactID.
func HasContact(ctx context.Context, db *gorm.DB, ownerID, contactID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("owner_id = ? AND contact_id = ?", ownerID, contactID).
		Count(&n).Error
	return n > 0, err
}

// ListContacts returns the owner's contact rows with the contact user
// preloaded, ordered by insertion.
func ListContacts(ctx context.Context, db *gorm.DB, ownerID uint) ([]domain.Contact, error) {
	var out []domain.Contact
	err := db.WithContext(ctx).
		Preload("User").
		Where("owner_id = ?", ownerID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// GetContactRelation fetches one of the owner's contact rows by its legacy
// relation row id, with the contact user preloaded. Used as a fallback when
// a client still references the relation id instead of the contact user id.
func GetContactRelation(ctx context.Context, db *gorm.DB, ownerID, relID uint) (*domain.Contact, error) {
	var c domain.Contact
	err := db.WithContext(ctx).
		Preload("User").
		Where("owner_id = ? AND id = ?", ownerID, relID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RemoveContact deletes the owner's relation to a contact. The ref value is
// matched against the contact user id first and the legacy relation row id
// second, so both client generations can delete. Deleting an absent
// relation is a no-op, which makes the operation idempotent.
func RemoveContact(ctx context.Context, db *gorm.DB, ownerID, ref uint) error {
	return db.WithContext(ctx).
		Where("owner_id = ? AND (contact_id = ? OR id = ?)", ownerID, ref, ref).
		Delete(&domain.Contact{}).Error
}

// CreateMedia records a blob-store object (e.g. an avatar token) owned by
// uploaderID. The row id is a UUID so that media keys stay opaque to
// clients, matching the tokens handed to the blob store.
func CreateMedia(ctx context.Context, db *gorm.DB, kind string, uploaderID uint, path string) (*domain.Media, error) {
	m := &domain.Media{
		ID:         uuid.NewString(),
		Kind:       kind,
		UploaderID: uploaderID,
		Path:       path,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}
