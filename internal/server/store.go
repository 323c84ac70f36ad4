// storeRepo adapts the repository free functions to the interfaces the
// services expect. This keeps services decoupled from the concrete repo
// package while reusing the existing functions.
package server

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
	"github.com/tbourn/go-messenger-server/internal/repo"
)

type storeRepo struct{}

// --- accounts ---

func (storeRepo) CreateUser(ctx context.Context, db *gorm.DB, username, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, username, passwordHash)
}

func (storeRepo) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return repo.GetUserByUsername(ctx, db, username)
}

func (storeRepo) GetUserByID(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUserByID(ctx, db, id)
}

func (storeRepo) SetAuthState(ctx context.Context, db *gorm.DB, id uint, state bool) error {
	return repo.SetAuthState(ctx, db, id, state)
}

func (storeRepo) AddHistory(ctx context.Context, db *gorm.DB, clientID uint, address string) error {
	return repo.AddHistory(ctx, db, clientID, address)
}

// --- contacts ---

func (storeRepo) ListContacts(ctx context.Context, db *gorm.DB, ownerID uint) ([]domain.Contact, error) {
	return repo.ListContacts(ctx, db, ownerID)
}

func (storeRepo) HasContact(ctx context.Context, db *gorm.DB, ownerID, contactID uint) (bool, error) {
	return repo.HasContact(ctx, db, ownerID, contactID)
}

func (storeRepo) AddContact(ctx context.Context, db *gorm.DB, ownerID, contactID uint) (*domain.Contact, error) {
	return repo.AddContact(ctx, db, ownerID, contactID)
}

func (storeRepo) RemoveContact(ctx context.Context, db *gorm.DB, ownerID, ref uint) error {
	return repo.RemoveContact(ctx, db, ownerID, ref)
}

func (storeRepo) GetContactRelation(ctx context.Context, db *gorm.DB, ownerID, relID uint) (*domain.Contact, error) {
	return repo.GetContactRelation(ctx, db, ownerID, relID)
}

// --- chats ---

func (storeRepo) GetChatByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Chat, error) {
	return repo.GetChatByID(ctx, db, id)
}

func (storeRepo) GetOrCreateSingleChat(ctx context.Context, db *gorm.DB, a, b uint) (*domain.Chat, bool, error) {
	return repo.GetOrCreateSingleChat(ctx, db, a, b)
}

func (storeRepo) GetOrCreateCommonChat(ctx context.Context, db *gorm.DB) (*domain.Chat, error) {
	return repo.GetOrCreateCommonChat(ctx, db)
}

func (storeRepo) AddParticipant(ctx context.Context, db *gorm.DB, chatID, userID uint) error {
	return repo.AddParticipant(ctx, db, chatID, userID)
}

func (storeRepo) IsParticipant(ctx context.Context, db *gorm.DB, chatID, userID uint) (bool, error) {
	return repo.IsParticipant(ctx, db, chatID, userID)
}

// --- messages ---

func (storeRepo) ListMessages(ctx context.Context, db *gorm.DB, chatID uint) ([]repo.ChatMessage, error) {
	return repo.ListMessages(ctx, db, chatID)
}

func (storeRepo) AppendMessage(ctx context.Context, db *gorm.DB, chatID, senderID uint, text string) (*domain.Message, error) {
	return repo.AppendMessage(ctx, db, chatID, senderID, text)
}

func (storeRepo) SearchMessages(ctx context.Context, db *gorm.DB, chatID uint, word string) ([]repo.ChatMessage, error) {
	return repo.SearchMessages(ctx, db, chatID, word)
}

// --- profiles ---

func (storeRepo) UpdateProfile(ctx context.Context, db *gorm.DB, id uint, firstName, secondName, bio string) error {
	return repo.UpdateProfile(ctx, db, id, firstName, secondName, bio)
}

func (storeRepo) SetAvatar(ctx context.Context, db *gorm.DB, id uint, token string) error {
	return repo.SetAvatar(ctx, db, id, token)
}

func (storeRepo) CreateMedia(ctx context.Context, db *gorm.DB, kind string, uploaderID uint, path string) (*domain.Media, error) {
	return repo.CreateMedia(ctx, db, kind, uploaderID, path)
}
