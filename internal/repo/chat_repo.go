// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for chats and
// their participant sets.
//
// Uniqueness of the system-wide common chat and of single chats per
// unordered user pair is enforced here at the store level: both creation
// paths run inside a transaction and rely on the partial unique indexes
// installed by AutoMigrate, so concurrent first-access races collapse onto
// the already-persisted row instead of duplicating it.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
)

// PairKey builds the canonical "minID:maxID" key identifying the unordered
// user pair of a single chat.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// GetChatByID fetches a chat by primary key, or ErrNotFound.
func GetChatByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Chat, error) {
	var c domain.Chat
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateSingleChat returns the unique single chat between users a and
// b, creating it together with both participant rows on first call. The
// second return value reports whether the chat was created by this call.
func GetOrCreateSingleChat(ctx context.Context, db *gorm.DB, a, b uint) (*domain.Chat, bool, error) {
	key := PairKey(a, b)

	var chat domain.Chat
	err := db.WithContext(ctx).Where("pair_key = ?", key).First(&chat).Error
	if err == nil {
		return &chat, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	created := domain.Chat{
		ChatType:  domain.ChatTypeSingle,
		PairKey:   key,
		CreatedAt: time.Now().UTC(),
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		for _, uid := range []uint{a, b} {
			if err := tx.Create(&domain.ChatParticipant{ChatID: created.ID, UserID: uid}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Lost a create race: the pair_key unique index rejected the insert,
		// so the winning row must exist now.
		var existing domain.Chat
		if err2 := db.WithContext(ctx).Where("pair_key = ?", key).First(&existing).Error; err2 == nil {
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &created, true, nil
}

// GetOrCreateCommonChat returns the singleton common chat, creating it on
// first access.
func GetOrCreateCommonChat(ctx context.Context, db *gorm.DB) (*domain.Chat, error) {
	var chat domain.Chat
	err := db.WithContext(ctx).Where("chat_type = ?", domain.ChatTypeCommon).First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	created := domain.Chat{
		ChatType:  domain.ChatTypeCommon,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&created).Error; err != nil {
		// Another connection created it first; the partial unique index on
		// chat_type guarantees there is exactly one to fall back to.
		var existing domain.Chat
		if err2 := db.WithContext(ctx).Where("chat_type = ?", domain.ChatTypeCommon).First(&existing).Error; err2 == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &created, nil
}

// AddParticipant adds a user to a chat. Adding an existing participant is a
// no-op thanks to the (chat_id, user_id) unique index.
func AddParticipant(ctx context.Context, db *gorm.DB, chatID, userID uint) error {
	p := domain.ChatParticipant{ChatID: chatID, UserID: userID}
	return db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		FirstOrCreate(&p).Error
}

// IsParticipant reports whether userID is a member of chatID.
func IsParticipant(ctx context.Context, db *gorm.DB, chatID, userID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&n).Error
	return n > 0, err
}

// ListParticipants returns the chat's members in join order.
func ListParticipants(ctx context.Context, db *gorm.DB, chatID uint) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN chat_participants cp ON cp.user_id = users.id").
		Where("cp.chat_id = ?", chatID).
		Order("cp.id asc").
		Find(&out).Error
	return out, err
}

// ListChatIDsForUser returns the ids of all chats the user participates in,
// in join order.
func ListChatIDsForUser(ctx context.Context, db *gorm.DB, userID uint) ([]uint, error) {
	var ids []uint
	err := db.WithContext(ctx).
		Model(&domain.ChatParticipant{}).
		Where("user_id = ?", userID).
		Order("id asc").
		Pluck("chat_id", &ids).Error
	return ids, err
}
