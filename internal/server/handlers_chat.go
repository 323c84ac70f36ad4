// Handlers of the chat module: contacts, single and common chats, message
// append with fan-out, profile reads/updates, and history search.
package server

import (
	"context"

	"github.com/tbourn/go-messenger-server/internal/protocol"
	"github.com/tbourn/go-messenger-server/internal/services"
)

// ChatRoutes returns the route table of the chat module.
func ChatRoutes(d *Deps) []Route {
	return []Route{
		{Action: protocol.ActionAddContact, Handler: d.handleAddContact},
		{Action: protocol.ActionDeleteContact, Handler: d.handleDeleteContact},
		{Action: protocol.ActionGetChat, Handler: d.handleGetChat},
		{Action: protocol.ActionCommonChat, Handler: d.handleCommonChat},
		{Action: protocol.ActionAddMessage, Handler: d.handleAddMessage},
		{Action: protocol.ActionProfile, Handler: d.handleProfile},
		{Action: protocol.ActionUpdateProfile, Handler: d.handleUpdateProfile},
		{Action: protocol.ActionSearchInChat, Handler: d.handleSearchInChat},
	}
}

func (d *Deps) handleAddContact(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username string `json:"username"`
		Contact  string `json:"contact"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" || data.Contact == "" {
		return protocol.Bad(req.Action)
	}

	contact, err := d.Contacts.Add(ctx, data.Username, data.Contact)
	if err != nil {
		return d.respondErr(req.Action, err)
	}
	return protocol.OK(req.Action, "User was added to your contact list").
		With("new_contact", map[string]uint{contact.Username: contact.ID})
}

func (d *Deps) handleDeleteContact(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username  string          `json:"username"`
		ContactID protocol.FlexID `json:"contact_id"`
		Contact   string          `json:"contact"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" {
		return protocol.Bad(req.Action)
	}

	if err := d.Contacts.Remove(ctx, data.Username, data.ContactID.Uint()); err != nil {
		return d.respondErr(req.Action, err)
	}
	return protocol.OK(req.Action, "Contact has been deleted.").
		With("contact", data.Contact)
}

func (d *Deps) handleGetChat(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username  string          `json:"username"`
		UserID    protocol.FlexID `json:"user_id"`
		ContactID protocol.FlexID `json:"contact_id"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" {
		return protocol.Bad(req.Action)
	}

	res, err := d.Chats.GetSingleChat(ctx, data.Username, data.ContactID.Uint())
	if err != nil {
		return d.respondErr(req.Action, err)
	}

	// "lenght" is what the deployed clients parse.
	resp := protocol.OK(req.Action, "Ok").
		With("chat_id", res.Chat.ID).
		With("contact_user_id", res.ContactUserID).
		With("contact_username", res.ContactUsername).
		With("lenght", len(res.Messages))
	if len(res.Messages) > 0 {
		resp.With("messages", messagePairs(res.Messages))
	}
	return resp
}

func (d *Deps) handleCommonChat(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username string `json:"username"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" {
		return protocol.Bad(req.Action)
	}

	res, err := d.Chats.CommonChat(ctx, data.Username)
	if err != nil {
		return d.respondErr(req.Action, err)
	}

	resp := protocol.OK(req.Action, "Ok").
		With("chat_id", res.Chat.ID)
	if len(res.Messages) > 0 {
		resp.With("messages", messagePairs(res.Messages)).
			With("lenght", len(res.Messages))
	}
	return resp
}

func (d *Deps) handleAddMessage(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username        string          `json:"username"`
		UserID          protocol.FlexID `json:"user_id"`
		ChatID          protocol.FlexID `json:"chat_id"`
		Message         string          `json:"message"`
		ContactUsername string          `json:"contact_username"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" || data.Message == "" {
		return protocol.Bad(req.Action)
	}

	msg, err := d.Messages.Add(ctx, data.Username, data.ChatID.Uint(), data.Message)
	if err != nil {
		if err == services.ErrEmptyMessage {
			return protocol.Bad(req.Action)
		}
		return d.respondErr(req.Action, err)
	}

	resp := protocol.OK(req.Action, "Message has been added to database").
		With("chat_id", msg.ChatID).
		With("contact_username", data.ContactUsername).
		With("message", [2]string{data.Username, msg.Text})

	d.fanOut(ctx, resp, data.Username, data.ContactUsername)
	return resp
}

// fanOut delivers an add_message response beyond the caller: to the named
// contact's session when contact_username is present, otherwise (common
// chat) to every active session except the sender. Delivery is best-effort;
// a failed send unbinds the peer and is logged, never failing the
// originating request.
func (d *Deps) fanOut(ctx context.Context, resp *protocol.Response, sender, contactUsername string) {
	frame, err := d.Codec.EncodeResponse(resp)
	if err != nil {
		d.Log.Error().Err(err).Msg("fan-out encode failed")
		return
	}

	deliver := func(username string, sink Sink) {
		if err := sink.Send(frame); err != nil {
			d.Log.Warn().Err(err).Str("peer", username).Msg("fan-out send failed, unbinding")
			d.Sessions.Unbind(username)
			fanoutTotal.WithLabelValues("failed").Inc()
			return
		}
		fanoutTotal.WithLabelValues("delivered").Inc()
	}

	if contactUsername != "" {
		if sink, ok := d.Sessions.Lookup(contactUsername); ok {
			deliver(contactUsername, sink)
		}
		return
	}

	self, _ := SinkFrom(ctx)
	for _, username := range d.Sessions.ActiveUsernames() {
		if username == sender {
			continue
		}
		sink, ok := d.Sessions.Lookup(username)
		if !ok || sink == self {
			continue
		}
		deliver(username, sink)
	}
}

func (d *Deps) handleProfile(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username string `json:"username"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" {
		return protocol.Bad(req.Action)
	}

	user, err := d.Profiles.Get(ctx, data.Username)
	if err != nil {
		return d.respondErr(req.Action, err)
	}

	userData := map[string]any{
		"first_name":  user.FirstName,
		"second_name": user.SecondName,
		"bio":         user.Bio,
	}
	if user.Avatar != "" {
		userData["file_name"] = user.Avatar
	}
	return protocol.OK(req.Action, "Profile data were retrieved from database").
		With("user_data", userData)
}

func (d *Deps) handleUpdateProfile(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username     string            `json:"username"`
		FirstName    string            `json:"first_name"`
		SecondName   string            `json:"second_name"`
		Bio          *string           `json:"bio"`
		UploadStatus protocol.FlexBool `json:"upload_status"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" {
		return protocol.Bad(req.Action)
	}

	user, err := d.Profiles.Update(ctx, data.Username, services.ProfileUpdate{
		FirstName:    data.FirstName,
		SecondName:   data.SecondName,
		Bio:          data.Bio,
		UploadStatus: data.UploadStatus.Bool(),
	})
	if err != nil {
		return d.respondErr(req.Action, err)
	}

	return protocol.OK(req.Action, "Profile data were retrieved from database").
		With("user_data", map[string]any{
			"first_name":  user.FirstName,
			"second_name": user.SecondName,
			"bio":         user.Bio,
			"file_name":   user.Avatar,
		})
}

func (d *Deps) handleSearchInChat(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username string          `json:"username"`
		ChatID   protocol.FlexID `json:"chat_id"`
		Word     string          `json:"word"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" {
		return protocol.Bad(req.Action)
	}

	found, err := d.Messages.Search(ctx, data.ChatID.Uint(), data.Word)
	if err != nil {
		return d.respondErr(req.Action, err)
	}

	info := "Messages were retrived from database"
	if len(found) == 0 {
		info = "Found zero messages"
	}
	return protocol.OK(req.Action, info).
		With("messages", messagePairs(found))
}
