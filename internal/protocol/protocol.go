// Package protocol defines the wire records of the messenger protocol and
// the codec that frames them.
//
// Every record traversing the wire is a UTF-8 JSON object delivered in a
// single peer recv: there is no length prefix, one recv is one frame, and a
// frame never exceeds the configured buffer size. Legacy clients emit
// frames as json_encode(json_encode(record)); the codec accepts both the
// double-encoded and the plain form on input and always emits the plain
// single-encoded form on output.
package protocol

import (
	"time"
)

// Status codes carried in the response envelope.
const (
	CodeOK       = 200 // success
	CodeRefused  = 205 // application-level refusal, info says why
	CodeBad      = 400 // malformed request
	CodeDenied   = 403 // forbidden (reserved)
	CodeUnknown  = 404 // unknown action
	CodeInternal = 500 // handler exception
)

// Canonical info strings for the generic failure responses. The literals
// are pinned by the deployed clients.
const (
	InfoBad      = "Wrong request format"
	InfoUnknown  = "Action is not supported"
	InfoDenied   = "Access denied"
	InfoInternal = "Internal server error"
)

// Verb names of the installed modules.
const (
	ActionRegister      = "register"
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionAddContact    = "add_contact"
	ActionDeleteContact = "delete_contact"
	ActionGetChat       = "get_chat"
	ActionCommonChat    = "common_chat"
	ActionAddMessage    = "add_message"
	ActionProfile       = "profile"
	ActionUpdateProfile = "update_profile"
	ActionSearchInChat  = "search_in_chat"
)

// Timestamp returns the current server time as floating-point seconds since
// the epoch, the representation both envelopes use.
func Timestamp() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
