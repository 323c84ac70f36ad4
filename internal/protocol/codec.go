package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ErrMalformedFrame is returned when a received frame does not contain a
// complete JSON record. Short receives (a frame split across recvs) surface
// here as well: without a length prefix the codec cannot resynchronize, so
// the frame is rejected and the connection keeps going.
var ErrMalformedFrame = errors.New("malformed_frame")

// Codec frames and decodes protocol records for one configured text
// encoding. The zero value is not usable; construct with NewCodec.
//
// Input tolerates both frame generations: json_encode(record) and the
// legacy json_encode(json_encode(record)). Output is always the plain
// single-encoded form.
type Codec struct {
	enc encoding.Encoding
}

// NewCodec builds a codec for the IANA-named text encoding, e.g. "utf-8".
func NewCodec(encodingName string) (*Codec, error) {
	name := strings.TrimSpace(encodingName)
	if name == "" {
		name = "utf-8"
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("protocol: unknown encoding %q: %w", encodingName, err)
	}
	if enc == nil {
		// ianaindex returns a nil Encoding for names it knows but has no
		// implementation for; UTF-8 also lands here as the identity mapping.
		enc = unicode.UTF8
	}
	return &Codec{enc: enc}, nil
}

// DecodeRequest parses one received frame into a request envelope.
// A frame that is not a complete JSON value fails with ErrMalformedFrame;
// an envelope without an action decodes fine and fails validation later.
func (c *Codec) DecodeRequest(frame []byte) (*Request, error) {
	payload, err := c.unwrap(frame)
	if err != nil {
		return nil, err
	}
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ErrMalformedFrame
	}
	return &req, nil
}

// EncodeResponse serializes a response into a single-encoded output frame.
func (c *Codec) EncodeResponse(resp *Response) ([]byte, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	out, err := c.enc.NewEncoder().Bytes(raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// unwrap transcodes the frame to UTF-8 and strips the legacy inner
// encoding layer when present.
func (c *Codec) unwrap(frame []byte) ([]byte, error) {
	raw, err := c.enc.NewDecoder().Bytes(frame)
	if err != nil {
		return nil, ErrMalformedFrame
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrMalformedFrame
	}

	if raw[0] == '"' {
		// Double-encoded: the outer JSON value is a string holding the
		// actual record.
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, ErrMalformedFrame
		}
		raw = []byte(inner)
	}

	if !json.Valid(raw) {
		return nil, ErrMalformedFrame
	}
	return raw, nil
}
