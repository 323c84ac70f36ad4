// Package services – ProfileService
//
// Profile reads and updates. An update with a truthy upload_status swaps
// the avatar file-name token to "<username>_avatar.png" (dropping any
// previous token) and records the upload in the media table; the binary
// payload itself never crosses the core, it lives in the external blob
// store under that token.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
)

// ProfileRepo defines the repository contract required by ProfileService.
type ProfileRepo interface {
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, db *gorm.DB, id uint, firstName, secondName, bio string) error
	SetAvatar(ctx context.Context, db *gorm.DB, id uint, token string) error
	CreateMedia(ctx context.Context, db *gorm.DB, kind string, uploaderID uint, path string) (*domain.Media, error)
}

// ProfileUpdate carries the mutable profile fields of an update_profile
// request. Nil Bio keeps the stored bio.
type ProfileUpdate struct {
	FirstName    string
	SecondName   string
	Bio          *string
	UploadStatus bool
}

// ProfileService reads and mutates user profiles.
type ProfileService struct {
	DB   *gorm.DB
	Repo ProfileRepo
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, r ProfileRepo) *ProfileService {
	return &ProfileService{DB: db, Repo: r}
}

// Get returns the user's profile. Errors: ErrUserNotFound.
func (s *ProfileService) Get(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Update overwrites the profile fields and, when upd.UploadStatus is set,
// replaces the avatar token and records the media row. It returns the
// refreshed user. Errors: ErrUserNotFound.
func (s *ProfileService) Update(ctx context.Context, username string, upd ProfileUpdate) (*domain.User, error) {
	user, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	bio := user.Bio
	if upd.Bio != nil {
		bio = *upd.Bio
	}
	if err := s.Repo.UpdateProfile(ctx, s.DB, user.ID, upd.FirstName, upd.SecondName, bio); err != nil {
		return nil, err
	}

	avatar := user.Avatar
	if upd.UploadStatus {
		avatar = fmt.Sprintf("%s_avatar.png", user.Username)
		if err := s.Repo.SetAvatar(ctx, s.DB, user.ID, avatar); err != nil {
			return nil, err
		}
		if _, err := s.Repo.CreateMedia(ctx, s.DB, "avatar", user.ID, avatar); err != nil {
			return nil, err
		}
	}

	user.FirstName = upd.FirstName
	user.SecondName = upd.SecondName
	user.Bio = bio
	user.Avatar = avatar
	return user, nil
}
