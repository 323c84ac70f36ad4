package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec("utf-8")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestDecodeRequest_SingleEncoded(t *testing.T) {
	c := mustCodec(t)
	frame := []byte(`{"action":"login","time":2.0,"data":{"username":"alice","password":"x"}}`)

	req, err := c.DecodeRequest(frame)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.Action != "login" || req.Time != 2.0 {
		t.Errorf("envelope = %+v", req)
	}
	var data struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := req.Bind(&data); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if data.Username != "alice" || data.Password != "x" {
		t.Errorf("data = %+v", data)
	}
}

func TestDecodeRequest_DoubleEncoded(t *testing.T) {
	c := mustCodec(t)
	record := `{"action":"register","time":1.0,"data":{"username":"alice"}}`
	outer, _ := json.Marshal(record) // json_encode(json_encode(record))

	req, err := c.DecodeRequest(outer)
	if err != nil {
		t.Fatalf("DecodeRequest(double): %v", err)
	}
	if req.Action != "register" {
		t.Errorf("action = %q", req.Action)
	}
}

func TestDecodeRequest_Malformed(t *testing.T) {
	c := mustCodec(t)
	for _, frame := range []string{
		"",
		"   ",
		`{"action":"login"`,          // short recv, incomplete JSON
		`"{\"action\":\"truncated`,   // incomplete inner record
		`"not a json object at all"`, // double-encoded garbage
		`garbage`,
	} {
		if _, err := c.DecodeRequest([]byte(frame)); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("DecodeRequest(%q): err = %v, want ErrMalformedFrame", frame, err)
		}
	}
}

func TestDecodeRequest_MissingActionFailsValidationNotDecode(t *testing.T) {
	c := mustCodec(t)
	req, err := c.DecodeRequest([]byte(`{"time":1.0,"data":{}}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.IsValid() {
		t.Error("request without action must not validate")
	}
}

func TestEncodeResponse_SingleEncodedEnvelope(t *testing.T) {
	c := mustCodec(t)
	resp := OK("login", "Client logged in").
		With("user_data", map[string]any{"username": "alice"})

	frame, err := c.EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	// single-encoded: the frame is a JSON object, not a JSON string
	if frame[0] != '{' {
		t.Fatalf("frame is not single-encoded: %s", frame)
	}

	var out map[string]any
	if err := json.Unmarshal(frame, &out); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	if out["action"] != "login" || out["code"] != float64(200) || out["info"] != "Client logged in" {
		t.Errorf("envelope = %v", out)
	}
	ud, ok := out["user_data"].(map[string]any)
	if !ok || ud["username"] != "alice" {
		t.Errorf("user_data = %v", out["user_data"])
	}
	if _, ok := out["timestamp"].(float64); !ok {
		t.Errorf("timestamp missing or not a number: %v", out["timestamp"])
	}
}

func TestEncodeResponse_Deterministic(t *testing.T) {
	c := mustCodec(t)
	resp := OK("add_message", "Message has been added to database").
		With("chat_id", 7).
		With("message", []any{"alice", "hi"}).
		With("contact_username", "bob")

	a, err := c.EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	b, _ := c.EncodeResponse(resp)
	if string(a) != string(b) {
		t.Fatalf("same response produced different frames:\n%s\n%s", a, b)
	}
}

func TestResponse_WithProtectsEnvelope(t *testing.T) {
	resp := OK("profile", "ok").With("code", 999).With("extra", 1)
	b, _ := json.Marshal(resp)
	if strings.Contains(string(b), "999") {
		t.Fatalf("envelope field overwritten: %s", b)
	}
	if v, ok := resp.Field("extra"); !ok || v != 1 {
		t.Errorf("Field(extra) = %v, %v", v, ok)
	}
}

func TestResponse_RoundTrip(t *testing.T) {
	orig := Refused("register", "Clientname already exists").With("attempt", 2)
	b, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Response
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Action != "register" || back.Code != CodeRefused || back.Info != "Clientname already exists" {
		t.Errorf("round trip = %+v", back)
	}
	if v, ok := back.Field("attempt"); !ok || v != float64(2) {
		t.Errorf("field attempt = %v, %v", v, ok)
	}
}

func TestFlexID(t *testing.T) {
	var payload struct {
		ChatID    FlexID `json:"chat_id"`
		ContactID FlexID `json:"contact_id"`
	}
	if err := json.Unmarshal([]byte(`{"chat_id":7,"contact_id":"12"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.ChatID.Uint() != 7 || payload.ContactID.Uint() != 12 {
		t.Errorf("ids = %d, %d", payload.ChatID, payload.ContactID)
	}
	if err := json.Unmarshal([]byte(`{"chat_id":null}`), &payload); err != nil || payload.ChatID != 0 {
		t.Errorf("null id: %v, %d", err, payload.ChatID)
	}
	if err := json.Unmarshal([]byte(`{"chat_id":"seven"}`), &payload); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestFlexBool(t *testing.T) {
	var payload struct {
		Upload FlexBool `json:"upload_status"`
	}
	for _, in := range []string{`{"upload_status":true}`, `{"upload_status":1}`, `{"upload_status":"yes"}`} {
		payload.Upload = false
		if err := json.Unmarshal([]byte(in), &payload); err != nil || !payload.Upload.Bool() {
			t.Errorf("truthy %s: err=%v val=%v", in, err, payload.Upload)
		}
	}
	for _, in := range []string{`{"upload_status":false}`, `{"upload_status":0}`, `{"upload_status":""}`, `{"upload_status":null}`} {
		payload.Upload = true
		if err := json.Unmarshal([]byte(in), &payload); err != nil || payload.Upload.Bool() {
			t.Errorf("falsy %s: err=%v val=%v", in, err, payload.Upload)
		}
	}
}

func TestNewCodec_UnknownEncoding(t *testing.T) {
	if _, err := NewCodec("no-such-charset"); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
	if c, err := NewCodec(""); err != nil || c == nil {
		t.Fatalf("blank encoding should default to utf-8: %v", err)
	}
}
