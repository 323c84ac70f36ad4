// Package services – ChatService
//
// This file implements the ChatService, which resolves the two chat kinds
// the protocol knows: the lazily created single chat per unordered user
// pair, and the system-wide common chat that users join on first access.
// Message history is returned alongside so the get_chat and common_chat
// handlers need a single call each.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
	"github.com/tbourn/go-messenger-server/internal/repo"
)

// ChatRepo defines the repository contract required by ChatService.
type ChatRepo interface {
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)
	GetContactRelation(ctx context.Context, db *gorm.DB, ownerID, relID uint) (*domain.Contact, error)
	GetOrCreateSingleChat(ctx context.Context, db *gorm.DB, a, b uint) (*domain.Chat, bool, error)
	GetOrCreateCommonChat(ctx context.Context, db *gorm.DB) (*domain.Chat, error)
	AddParticipant(ctx context.Context, db *gorm.DB, chatID, userID uint) error
	IsParticipant(ctx context.Context, db *gorm.DB, chatID, userID uint) (bool, error)
	ListMessages(ctx context.Context, db *gorm.DB, chatID uint) ([]repo.ChatMessage, error)
}

// SingleChatResult carries everything the get_chat handler serializes.
type SingleChatResult struct {
	Chat            *domain.Chat
	ContactUserID   uint
	ContactUsername string
	Messages        []repo.ChatMessage
}

// CommonChatResult carries everything the common_chat handler serializes.
type CommonChatResult struct {
	Chat     *domain.Chat
	Messages []repo.ChatMessage
}

// ChatService resolves single and common chats with their histories.
type ChatService struct {
	DB   *gorm.DB
	Repo ChatRepo
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB, r ChatRepo) *ChatService {
	return &ChatService{DB: db, Repo: r}
}

// GetSingleChat returns the unique non-common chat between the caller and
// the referenced contact, creating it on first call. The contactRef is
// resolved as a contact user id first; when no such user exists, it falls
// back to the caller's legacy contact-relation row id.
//
// Errors: ErrUserNotFound (caller), ErrContactNotFound (unresolvable ref or
// ref pointing back at the caller).
func (s *ChatService) GetSingleChat(ctx context.Context, username string, contactRef uint) (*SingleChatResult, error) {
	caller, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	contact, err := s.resolveContact(ctx, caller.ID, contactRef)
	if err != nil {
		return nil, err
	}
	if contact.ID == caller.ID {
		return nil, ErrContactNotFound
	}

	chat, created, err := s.Repo.GetOrCreateSingleChat(ctx, s.DB, caller.ID, contact.ID)
	if err != nil {
		return nil, err
	}

	res := &SingleChatResult{
		Chat:            chat,
		ContactUserID:   contact.ID,
		ContactUsername: contact.Username,
	}
	if !created {
		if res.Messages, err = s.Repo.ListMessages(ctx, s.DB, chat.ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// CommonChat returns the singleton common chat with its history, adding the
// caller to its participants on first access.
func (s *ChatService) CommonChat(ctx context.Context, username string) (*CommonChatResult, error) {
	caller, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	chat, err := s.Repo.GetOrCreateCommonChat(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	member, err := s.Repo.IsParticipant(ctx, s.DB, chat.ID, caller.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		if err := s.Repo.AddParticipant(ctx, s.DB, chat.ID, caller.ID); err != nil {
			return nil, err
		}
	}

	msgs, err := s.Repo.ListMessages(ctx, s.DB, chat.ID)
	if err != nil {
		return nil, err
	}
	return &CommonChatResult{Chat: chat, Messages: msgs}, nil
}

// resolveContact maps a wire contact reference onto a user: canonical
// contact user id first, legacy relation row id second.
func (s *ChatService) resolveContact(ctx context.Context, ownerID, ref uint) (*domain.User, error) {
	if user, err := s.Repo.GetUserByID(ctx, s.DB, ref); err == nil {
		return user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rel, err := s.Repo.GetContactRelation(ctx, s.DB, ownerID, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &rel.User, nil
}
