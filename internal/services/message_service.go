// Package services – MessageService
//
// Appending messages and searching chat history. Messages are append-only;
// the service enforces the send-time invariants (non-empty text, sender is
// a participant of the target chat) before touching the store.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
	"github.com/tbourn/go-messenger-server/internal/repo"
)

// MessageRepo defines the repository contract required by MessageService.
type MessageRepo interface {
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
	GetChatByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Chat, error)
	IsParticipant(ctx context.Context, db *gorm.DB, chatID, userID uint) (bool, error)
	AppendMessage(ctx context.Context, db *gorm.DB, chatID, senderID uint, text string) (*domain.Message, error)
	SearchMessages(ctx context.Context, db *gorm.DB, chatID uint, word string) ([]repo.ChatMessage, error)
}

// MessageService appends to and searches chat histories.
type MessageService struct {
	DB   *gorm.DB
	Repo MessageRepo
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB, r MessageRepo) *MessageService {
	return &MessageService{DB: db, Repo: r}
}

// Add appends a message sent by username to the chat. Errors:
// ErrEmptyMessage, ErrUserNotFound, ErrChatNotFound, ErrNotParticipant.
func (s *MessageService) Add(ctx context.Context, username string, chatID uint, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	sender, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	chat, err := s.Repo.GetChatByID(ctx, s.DB, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}

	member, err := s.Repo.IsParticipant(ctx, s.DB, chat.ID, sender.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotParticipant
	}
	return s.Repo.AppendMessage(ctx, s.DB, chat.ID, sender.ID, text)
}

// Search returns the chat's messages containing word as a case-insensitive
// substring, in chronological order. Errors: ErrChatNotFound.
func (s *MessageService) Search(ctx context.Context, chatID uint, word string) ([]repo.ChatMessage, error) {
	if _, err := s.Repo.GetChatByID(ctx, s.DB, chatID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return s.Repo.SearchMessages(ctx, s.DB, chatID, word)
}
