package server

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-messenger-server/internal/config"
	"github.com/tbourn/go-messenger-server/internal/events"
	"github.com/tbourn/go-messenger-server/internal/protocol"
	"github.com/tbourn/go-messenger-server/internal/repo"
)

func newTestSupervisor(t *testing.T) (*Supervisor, *config.Config) {
	return newTestSupervisorBacklog(t, 4)
}

func newTestSupervisorBacklog(t *testing.T, backlog int) (*Supervisor, *config.Config) {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	cfg := &config.Config{
		Host:       "127.0.0.1",
		Port:       0,
		BufferSize: 65536,
		Encoding:   "utf-8",
		Backlog:    backlog,
		Modules:    []string{"auth", "chat"},
	}
	sup, err := New(cfg, db, events.NewBus(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sup, cfg
}

func TestNew_RejectsBadConfig(t *testing.T) {
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	bad := &config.Config{Encoding: "no-such-charset", Modules: []string{"auth"}}
	if _, err := New(bad, db, events.NewBus(), zerolog.Nop()); err == nil {
		t.Error("unknown encoding accepted")
	}

	bad = &config.Config{Encoding: "utf-8", Modules: []string{"mystery"}}
	if _, err := New(bad, db, events.NewBus(), zerolog.Nop()); err == nil {
		t.Error("unknown module accepted")
	}
}

func TestProcess_FrameHandling(t *testing.T) {
	sup, _ := newTestSupervisor(t)
	ctx := context.Background()

	resp := sup.process(ctx, []byte("not json at all"), "test:1")
	if resp.Code != protocol.CodeBad || resp.Info != protocol.InfoBad {
		t.Errorf("garbage frame: code %d info %q", resp.Code, resp.Info)
	}

	resp = sup.process(ctx, []byte(`{"time": 1.0, "data": {}}`), "test:1")
	if resp.Code != protocol.CodeBad {
		t.Errorf("missing action: code %d", resp.Code)
	}

	resp = sup.process(ctx, []byte(`{"action": "teleport", "time": 1.0, "data": {}}`), "test:1")
	if resp.Code != protocol.CodeUnknown || resp.Info != protocol.InfoUnknown {
		t.Errorf("unknown verb: code %d info %q", resp.Code, resp.Info)
	}

	frame := []byte(`{"action": "register", "time": 1.0, "data": {"username": "alice", "password": "pw", "repeat_password": "pw"}}`)
	resp = sup.process(ctx, frame, "test:1")
	if resp.Code != protocol.CodeOK || resp.Info != "Register completed" {
		t.Errorf("register via process: code %d info %q", resp.Code, resp.Info)
	}

	// The double-encoded legacy shape decodes the same way.
	double, err := json.Marshal(string(frame))
	if err != nil {
		t.Fatal(err)
	}
	resp = sup.process(ctx, double, "test:1")
	if resp.Code != protocol.CodeRefused || resp.Info != "Clientname already exists" {
		t.Errorf("double-encoded register: code %d info %q", resp.Code, resp.Info)
	}
}

func TestSupervisor_ServesTCP(t *testing.T) {
	sup, cfg := newTestSupervisor(t)
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sup.Stop()

	if !cfg.Frozen() {
		t.Error("config not frozen while running")
	}
	if err := sup.Start(ctx); err == nil {
		t.Error("second Start succeeded")
	}

	conn, err := net.DialTimeout("tcp", sup.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req := `{"action": "register", "time": 1.0, "data": {"username": "tcpuser", "password": "pw", "repeat_password": "pw"}}`
	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 65536)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var out struct {
		Action string `json:"action"`
		Code   int    `json:"code"`
		Info   string `json:"info"`
	}
	if err := json.Unmarshal(buf[:n], &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", buf[:n], err)
	}
	if out.Action != "register" || out.Code != protocol.CodeOK || out.Info != "Register completed" {
		t.Errorf("response = %+v", out)
	}
}

func TestSupervisor_StopDrainsConnBlockedOnBacklog(t *testing.T) {
	sup, _ := newTestSupervisorBacklog(t, 1)
	if err := sup.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// First conn holds the single serving slot.
	first, err := net.DialTimeout("tcp", sup.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial first: %v", err)
	}
	defer first.Close()

	// Second conn is accepted but cannot be served until a slot frees.
	second, err := net.DialTimeout("tcp", sup.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial second: %v", err)
	}
	defer second.Close()

	// Both must be tracked before Stop, including the one waiting for a
	// slot; otherwise the shutdown close pass cannot reach it.
	deadline := time.Now().Add(2 * time.Second)
	for sup.sessions.ConnCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("tracked conns = %d, want 2", sup.sessions.ConnCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		sup.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return with a connection waiting on the backlog")
	}
}

func TestProcess_PublishesDecodedRequest(t *testing.T) {
	sup, _ := newTestSupervisor(t)

	var published [][]byte
	sup.bus.Subscribe(events.KindRequest, func(ev events.Event) {
		published = append(published, ev.Raw)
	})

	frame := `{"action": "register", "time": 1.0, "data": {"username": "evelyn", "password": "pw", "repeat_password": "pw"}}`
	double, err := json.Marshal(frame)
	if err != nil {
		t.Fatal(err)
	}
	if resp := sup.process(context.Background(), double, "test:1"); resp.Code != protocol.CodeOK {
		t.Fatalf("register: code %d info %q", resp.Code, resp.Info)
	}

	if len(published) != 1 {
		t.Fatalf("published %d request events, want 1", len(published))
	}
	var env struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(published[0], &env); err != nil {
		t.Fatalf("request event is not a JSON object: %v (%q)", err, published[0])
	}
	if env.Action != "register" {
		t.Errorf("event action = %q", env.Action)
	}
}

func TestProcess_TruncatedFrameKeepsServing(t *testing.T) {
	sup, _ := newTestSupervisor(t)
	ctx := context.Background()

	frame := []byte(`{"action": "register", "time": 1.0, "data": {"username": "trunc", "password": "pw", "repeat_password": "pw"}}`)

	// A frame cut off mid-record (the shape a recv produces when the
	// sender's frame exceeds the buffer size) is a 400, nothing worse.
	resp := sup.process(ctx, frame[:len(frame)/2], "test:1")
	if resp.Code != protocol.CodeBad || resp.Info != protocol.InfoBad {
		t.Fatalf("truncated frame: code %d info %q", resp.Code, resp.Info)
	}

	// The connection stays usable: the next complete frame dispatches.
	resp = sup.process(ctx, frame, "test:1")
	if resp.Code != protocol.CodeOK || resp.Info != "Register completed" {
		t.Errorf("frame after truncation: code %d info %q", resp.Code, resp.Info)
	}
}

func TestSupervisor_StopThawsConfig(t *testing.T) {
	sup, cfg := newTestSupervisor(t)
	if err := sup.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sup.Stop()
	if cfg.Frozen() {
		t.Error("config still frozen after Stop")
	}
	// A second Stop is a no-op.
	sup.Stop()
}
