package protocol

import (
	"encoding/json"
	"sort"
)

// Response is the response envelope. Besides the fixed fields it carries
// verb-specific fields at the top level of the serialized object.
type Response struct {
	Action    string
	Timestamp float64
	Code      int
	Info      string

	fields map[string]any
}

// NewResponse builds a response echoing the request's action.
func NewResponse(action string, code int, info string) *Response {
	return &Response{
		Action:    action,
		Timestamp: Timestamp(),
		Code:      code,
		Info:      info,
	}
}

// OK builds a 200 response.
func OK(action, info string) *Response {
	return NewResponse(action, CodeOK, info)
}

// Refused builds a 205 application-refusal response.
func Refused(action, info string) *Response {
	return NewResponse(action, CodeRefused, info)
}

// Bad builds the 400 malformed-request response.
func Bad(action string) *Response {
	return NewResponse(action, CodeBad, InfoBad)
}

// Unknown builds the 404 unknown-action response.
func Unknown(action string) *Response {
	return NewResponse(action, CodeUnknown, InfoUnknown)
}

// Internal builds the 500 handler-exception response.
func Internal(action string) *Response {
	return NewResponse(action, CodeInternal, InfoInternal)
}

// With attaches a verb-specific top-level field and returns the response
// for chaining. Envelope field names are reserved and silently skipped.
func (r *Response) With(key string, value any) *Response {
	switch key {
	case "action", "timestamp", "code", "info":
		return r
	}
	if r.fields == nil {
		r.fields = make(map[string]any, 4)
	}
	r.fields[key] = value
	return r
}

// Field returns a previously attached verb-specific field.
func (r *Response) Field(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// MarshalJSON flattens the envelope and the verb-specific fields into a
// single JSON object. Keys are emitted in deterministic order so identical
// responses serialize to identical frames (fan-out sends the same bytes to
// every sink).
func (r *Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.fields)+4)
	out["action"] = r.Action
	out["timestamp"] = r.Timestamp
	out["code"] = r.Code
	out["info"] = r.Info
	for k, v := range r.fields {
		out[k] = v
	}
	// encoding/json already sorts map keys; the map merge alone is enough
	// for deterministic output.
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a response from its flattened wire form. Mostly
// used by tests and by event bus subscribers that inspect raw frames.
func (r *Response) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	take := func(key string, dst any) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		return json.Unmarshal(v, dst)
	}
	if err := take("action", &r.Action); err != nil {
		return err
	}
	if err := take("timestamp", &r.Timestamp); err != nil {
		return err
	}
	if err := take("code", &r.Code); err != nil {
		return err
	}
	if err := take("info", &r.Info); err != nil {
		return err
	}
	if len(raw) > 0 {
		r.fields = make(map[string]any, len(raw))
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var v any
			if err := json.Unmarshal(raw[k], &v); err != nil {
				return err
			}
			r.fields[k] = v
		}
	}
	return nil
}
