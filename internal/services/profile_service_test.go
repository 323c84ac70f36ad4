package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
)

type fakeProfileRepo struct {
	user       *domain.User
	setAvatar  []string
	mediaPaths []string
}

func (f *fakeProfileRepo) GetUserByUsername(_ context.Context, _ *gorm.DB, username string) (*domain.User, error) {
	if f.user == nil || f.user.Username != username {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f.user
	return &cp, nil
}

func (f *fakeProfileRepo) UpdateProfile(_ context.Context, _ *gorm.DB, id uint, firstName, secondName, bio string) error {
	f.user.FirstName = firstName
	f.user.SecondName = secondName
	f.user.Bio = bio
	return nil
}

func (f *fakeProfileRepo) SetAvatar(_ context.Context, _ *gorm.DB, id uint, token string) error {
	f.setAvatar = append(f.setAvatar, token)
	f.user.Avatar = token
	return nil
}

func (f *fakeProfileRepo) CreateMedia(_ context.Context, _ *gorm.DB, kind string, uploaderID uint, path string) (*domain.Media, error) {
	f.mediaPaths = append(f.mediaPaths, path)
	return &domain.Media{ID: "media-id", Kind: kind, UploaderID: uploaderID, Path: path}, nil
}

func TestProfileService_Get(t *testing.T) {
	fake := &fakeProfileRepo{user: &domain.User{ID: 1, Username: "alice", Bio: "hi"}}
	svc := NewProfileService(nil, fake)

	user, err := svc.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if user.Bio != "hi" {
		t.Errorf("bio = %q", user.Bio)
	}

	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestProfileService_Update(t *testing.T) {
	fake := &fakeProfileRepo{user: &domain.User{ID: 1, Username: "alice", Bio: "old bio"}}
	svc := NewProfileService(nil, fake)
	ctx := context.Background()

	bio := "new bio"
	user, err := svc.Update(ctx, "alice", ProfileUpdate{
		FirstName: "Alice",
		Bio:       &bio,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if user.FirstName != "Alice" || user.Bio != "new bio" {
		t.Errorf("user = %+v", user)
	}
	if user.Avatar != "" || len(fake.mediaPaths) != 0 {
		t.Error("avatar touched without upload_status")
	}

	// Nil bio keeps the stored value.
	user, err = svc.Update(ctx, "alice", ProfileUpdate{FirstName: "Alice"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if user.Bio != "new bio" {
		t.Errorf("bio after nil update = %q", user.Bio)
	}
}

func TestProfileService_Update_AvatarUpload(t *testing.T) {
	fake := &fakeProfileRepo{user: &domain.User{ID: 1, Username: "alice"}}
	svc := NewProfileService(nil, fake)

	user, err := svc.Update(context.Background(), "alice", ProfileUpdate{UploadStatus: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if user.Avatar != "alice_avatar.png" {
		t.Errorf("avatar = %q", user.Avatar)
	}
	if len(fake.setAvatar) != 1 || fake.setAvatar[0] != "alice_avatar.png" {
		t.Errorf("setAvatar calls = %v", fake.setAvatar)
	}
	if len(fake.mediaPaths) != 1 || fake.mediaPaths[0] != "alice_avatar.png" {
		t.Errorf("media rows = %v", fake.mediaPaths)
	}
}
