package protocol

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Request is the decoded request envelope. Unknown top-level fields are
// ignored; the verb-specific payload stays raw until a handler binds it.
type Request struct {
	Action string          `json:"action"`
	Time   float64         `json:"time"`
	Data   json.RawMessage `json:"data"`

	// RemoteAddr is the peer address of the connection the request arrived
	// on. Set by the connection loop, never by the client.
	RemoteAddr string `json:"-"`
}

// IsValid reports whether the envelope carries an action verb.
func (r *Request) IsValid() bool {
	return r != nil && r.Action != ""
}

// Bind decodes the verb-specific data payload into dst. A missing data
// object binds nothing and returns nil so handlers surface their own field
// validation instead of a decode error.
func (r *Request) Bind(dst any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, dst)
}

// FlexID is an entity reference that legacy clients serialize either as a
// JSON number or as a decimal string. It unmarshals both into a uint.
type FlexID uint

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}

// Uint returns the plain uint value.
func (f FlexID) Uint() uint { return uint(f) }

// FlexBool is a truthiness flag that legacy clients serialize as a bool, a
// number, or a string ("1", "true", "yes", "on").
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexBool) UnmarshalJSON(b []byte) error {
	switch s := strings.ToLower(strings.Trim(string(b), `"`)); s {
	case "1", "true", "yes", "y", "on":
		*f = true
	default:
		*f = false
	}
	return nil
}

// Bool returns the plain bool value.
func (f FlexBool) Bool() bool { return bool(f) }
