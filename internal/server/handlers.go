// Shared handler plumbing: the dependency bundle handed to every route
// table, the context key carrying the connection sink, and the mapping from
// service errors to protocol responses.
package server

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-messenger-server/internal/protocol"
	"github.com/tbourn/go-messenger-server/internal/repo"
	"github.com/tbourn/go-messenger-server/internal/services"
)

// Deps bundles everything the verb handlers need: the services over the
// store, the session registry, and the codec used to encode fan-out frames.
type Deps struct {
	Auth     *services.AuthService
	Contacts *services.ContactService
	Chats    *services.ChatService
	Messages *services.MessageService
	Profiles *services.ProfileService

	Sessions *Registry
	Codec    *protocol.Codec
	Log      zerolog.Logger
}

type ctxKey int

const sinkKey ctxKey = iota

// WithSink attaches the connection's sink to the context handed to
// handlers. Login uses it to bind the session; add_message to exclude the
// sender from common-chat fan-out.
func WithSink(ctx context.Context, s Sink) context.Context {
	return context.WithValue(ctx, sinkKey, s)
}

// SinkFrom extracts the connection sink, if any.
func SinkFrom(ctx context.Context) (Sink, bool) {
	s, ok := ctx.Value(sinkKey).(Sink)
	return s, ok
}

// refusal maps a service sentinel error to its 205 response, or returns nil
// when the error is not an application refusal.
func refusal(action string, err error) *protocol.Response {
	switch {
	case errors.Is(err, services.ErrUserExists):
		return protocol.Refused(action, "Clientname already exists")
	case errors.Is(err, services.ErrUserNotFound):
		return protocol.Refused(action, "Username does not exists")
	case errors.Is(err, services.ErrWrongPassword):
		return protocol.Refused(action, "Wrong password")
	case errors.Is(err, services.ErrContactNotFound):
		return protocol.Refused(action, "Contact does not exist in database")
	case errors.Is(err, services.ErrContactExists):
		return protocol.Refused(action, "User already in your contact list.")
	case errors.Is(err, services.ErrSelfContact):
		return protocol.Refused(action, "Cannot add yourself to contact list")
	case errors.Is(err, services.ErrChatNotFound):
		return protocol.Refused(action, "Chat does not exist in database")
	case errors.Is(err, services.ErrNotParticipant):
		return protocol.Refused(action, "Sender is not a participant of the chat")
	}
	return nil
}

// respondErr turns a service error into the response to write: a 205 for
// refusals, a logged 500 otherwise.
func (d *Deps) respondErr(action string, err error) *protocol.Response {
	if r := refusal(action, err); r != nil {
		return r
	}
	d.Log.Error().Err(err).Str("action", action).Msg("handler failed")
	return protocol.Internal(action)
}

// messagePairs converts stored messages into the [sender_username, text]
// pairs the wire format uses, preserving chronological order.
func messagePairs(msgs []repo.ChatMessage) [][2]string {
	out := make([][2]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, [2]string{m.SenderUsername, m.Text})
	}
	return out
}
