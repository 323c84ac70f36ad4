// Package services defines the business logic for accounts, contacts, chats,
// and messages. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; handlers
// translate them into protocol status codes (205 for application refusals)
// and the human-readable info strings the legacy clients expect.
package services

import "errors"

// Account-related errors.
var (
	// ErrUserExists is returned by Register when the username is taken.
	ErrUserExists = errors.New("username already exists")

	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrWrongPassword is returned by Login when the password hash does not
	// match the stored one.
	ErrWrongPassword = errors.New("wrong password")
)

// Contact-related errors.
var (
	// ErrContactNotFound indicates the contact username is not registered.
	ErrContactNotFound = errors.New("contact not found")

	// ErrContactExists is returned when the contact is already listed.
	ErrContactExists = errors.New("contact already in list")

	// ErrSelfContact is returned when a user tries to list themselves.
	ErrSelfContact = errors.New("cannot add self to contacts")
)

// Chat- and message-related errors.
var (
	// ErrChatNotFound indicates that the requested chat does not exist.
	ErrChatNotFound = errors.New("chat not found")

	// ErrNotParticipant is returned when the sender of a message is not a
	// member of the target chat.
	ErrNotParticipant = errors.New("sender is not a participant of the chat")

	// ErrEmptyMessage is returned when a message has no text.
	ErrEmptyMessage = errors.New("message text is empty")
)
