// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries consumed by
// the read-only ops listener.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/domain"
)

// Totals holds system-wide row counts for the ops /stats endpoint.
type Totals struct {
	Users    int64 `json:"users"`
	Chats    int64 `json:"chats"`
	Messages int64 `json:"messages"`
	Contacts int64 `json:"contacts"`
}

// CountTotals returns system-wide entity counts. Each count is a single
// lightweight query; the endpoint is informational, so the counts are not
// taken under one snapshot.
func CountTotals(ctx context.Context, db *gorm.DB) (Totals, error) {
	var t Totals
	if err := db.WithContext(ctx).Model(&domain.User{}).Count(&t.Users).Error; err != nil {
		return t, err
	}
	if err := db.WithContext(ctx).Model(&domain.Chat{}).Count(&t.Chats).Error; err != nil {
		return t, err
	}
	if err := db.WithContext(ctx).Model(&domain.Message{}).Count(&t.Messages).Error; err != nil {
		return t, err
	}
	if err := db.WithContext(ctx).Model(&domain.Contact{}).Count(&t.Contacts).Error; err != nil {
		return t, err
	}
	return t, nil
}
