// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for messages:
// append, chronological listing, and case-insensitive substring search.
//
// Messages are append-only. Ids come from the sqlite autoincrement
// sequence, so ordering by id is chronological within a chat and message
// ids are strictly increasing in the order they were accepted.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
)

// ChatMessage is the read-side projection of a message joined with its
// sender's username, the shape the protocol serializes as
// [sender_username, text].
type ChatMessage struct {
	ID             uint      `json:"id"`
	SenderUsername string    `json:"sender_username"`
	Text           string    `json:"text"`
	Created        time.Time `json:"created"`
}

// AppendMessage inserts a message into a chat. The write runs in a
// transaction so id assignment and the row insert are atomic; per-chat
// monotonicity of ids follows from the global autoincrement sequence.
func AppendMessage(ctx context.Context, db *gorm.DB, chatID, senderID uint, text string) (*domain.Message, error) {
	m := &domain.Message{
		SenderID:  senderID,
		ChatID:    chatID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns all messages of a chat joined with sender usernames,
// ordered chronologically (by id).
func ListMessages(ctx context.Context, db *gorm.DB, chatID uint) ([]ChatMessage, error) {
	var out []ChatMessage
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("messages.id, users.username AS sender_username, messages.text, messages.created_at AS created").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("messages.chat_id = ?", chatID).
		Order("messages.id asc").
		Scan(&out).Error
	return out, err
}

// SearchMessages returns the chat's messages whose text contains word as a
// case-insensitive substring, in chronological order. SQLite LIKE is
// case-insensitive for ASCII only, so both sides are lowered explicitly.
func SearchMessages(ctx context.Context, db *gorm.DB, chatID uint, word string) ([]ChatMessage, error) {
	var out []ChatMessage
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("messages.id, users.username AS sender_username, messages.text, messages.created_at AS created").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("messages.chat_id = ? AND LOWER(messages.text) LIKE '%' || LOWER(?) || '%'", chatID, word).
		Order("messages.id asc").
		Scan(&out).Error
	return out, err
}

// CountMessages returns the number of messages in a chat.
func CountMessages(ctx context.Context, db *gorm.DB, chatID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ?", chatID).
		Count(&n).Error
	return n, err
}
