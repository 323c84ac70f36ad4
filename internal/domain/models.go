// Package domain defines the persistence models for users, contacts, chats,
// and messages. These types are mapped with GORM and form the core data layer
// of the messenger server.
package domain

import (
	"time"
)

// Chat type discriminator values. Exactly one chat with ChatTypeCommon may
// exist across the whole system (enforced by a partial unique index); single
// chats hold exactly two distinct participants and are unique per unordered
// pair (enforced by the PairKey column).
const (
	ChatTypeSingle = "single"
	ChatTypeCommon = "common"
)

// User represents a registered client account.
//
// Fields:
//   - ID: surrogate integer primary key.
//   - Username: unique, case-sensitive login name.
//   - FirstName / SecondName / Bio: free-text profile fields.
//   - Password: PBKDF2-HMAC-SHA256 hex digest; plaintext is never stored
//     and the column is excluded from JSON serialization.
//   - Avatar: opaque file-name token referring to the external blob store,
//     empty when the user has no avatar.
//   - IsAuthenticated: login state flag, cleared by logout.
//   - CreatedAt: insertion timestamp.
//
// Contact and chat membership are derived from the Contact and
// ChatParticipant tables rather than embedded arrays.
type User struct {
	ID              uint      `json:"id"         gorm:"primaryKey"`
	Username        string    `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	FirstName       string    `json:"first_name" gorm:"type:varchar(64)"`
	SecondName      string    `json:"second_name" gorm:"type:varchar(64)"`
	Bio             string    `json:"bio"        gorm:"type:text"`
	Password        string    `json:"-"          gorm:"type:varchar(128);not null"`
	Avatar          string    `json:"file_name,omitempty" gorm:"type:varchar(255)"`
	IsAuthenticated bool      `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Contact is a directed relation from an owner user to a contact user.
// Listing is not reciprocal, and a user never lists themselves. The row
// keeps its own surrogate id for legacy clients that still reference the
// relation id, but the canonical handle is the contact user id.
type Contact struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	OwnerID   uint      `json:"owner_id"   gorm:"not null;index;uniqueIndex:ux_contacts_pair"`
	ContactID uint      `json:"contact_id" gorm:"not null;uniqueIndex:ux_contacts_pair"`
	CreatedAt time.Time `json:"created_at"`

	Owner User `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
	User  User `json:"-" gorm:"foreignKey:ContactID;references:ID"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }

// Chat is a conversation. ChatType is "single" or "common". PairKey is
// "minUserID:maxUserID" for single chats and empty for the common chat;
// its unique index prevents two single chats over the same pair.
type Chat struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	ChatType  string    `json:"chat_type" gorm:"type:varchar(16);not null;check:chat_type IN ('single','common');index"`
	PairKey   string    `json:"-"         gorm:"type:varchar(64)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// ChatParticipant records chat membership. Row ids grow with insertion, so
// ordering by id reproduces join order.
type ChatParticipant struct {
	ID     uint `json:"id"      gorm:"primaryKey"`
	ChatID uint `json:"chat_id" gorm:"not null;uniqueIndex:ux_chat_user"`
	UserID uint `json:"user_id" gorm:"not null;uniqueIndex:ux_chat_user;index"`

	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE"`
	User User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for ChatParticipant.
func (ChatParticipant) TableName() string { return "chat_participants" }

// Message is a single utterance within a chat. Messages are append-only:
// the protocol has no edit or delete verbs. Ids are assigned by the sqlite
// autoincrement sequence, so within any chat they are strictly increasing
// in send order.
type Message struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	SenderID  uint      `json:"sender_id" gorm:"not null;index"`
	ChatID    uint      `json:"chat_id"   gorm:"not null;index:idx_chat_msgs"`
	Text      string    `json:"text"      gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created"`

	Sender User `json:"-" gorm:"foreignKey:SenderID;references:ID"`
	Chat   Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// ClientHistory records the peer address of every successful login.
type ClientHistory struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	ClientID  uint      `json:"client_id" gorm:"not null;index"`
	Address   string    `json:"address"   gorm:"type:varchar(64)"`
	CreatedAt time.Time `json:"created"`

	Client User `json:"-" gorm:"foreignKey:ClientID;references:ID"`
}

// TableName returns the database table name for ClientHistory.
func (ClientHistory) TableName() string { return "client_history" }

// Media records a blob-store object owned by a user, currently only avatar
// tokens. Path is the opaque file-name token; the binary payload lives in
// the external blob store.
type Media struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Kind       string    `json:"kind"        gorm:"type:varchar(32);not null;index"`
	UploaderID uint      `json:"uploader_id" gorm:"not null;index"`
	Path       string    `json:"path"        gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time `json:"created_at"`

	Uploader User `json:"-" gorm:"foreignKey:UploaderID;references:ID"`
}

// TableName returns the database table name for Media.
func (Media) TableName() string { return "media" }
