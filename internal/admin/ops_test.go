package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/events"
	"github.com/tbourn/go-messenger-server/internal/repo"
	"github.com/tbourn/go-messenger-server/internal/server"
)

type stubSink struct{}

func (stubSink) Send([]byte) error { return nil }
func (stubSink) Close() error      { return nil }
func (stubSink) RemoteAddr() string {
	return "test:0"
}

func newOpsTestRouter(t *testing.T) (http.Handler, *server.Registry, *gorm.DB) {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sessions := server.NewRegistry(events.NewBus())
	return opsRouter(sessions, db), sessions, db
}

func TestOps_Healthz(t *testing.T) {
	r, _, _ := newOpsTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
}

func TestOps_Metrics(t *testing.T) {
	r, _, _ := newOpsTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
}

func TestOps_Sessions(t *testing.T) {
	r, sessions, _ := newOpsTestRouter(t)
	sessions.Bind("alice", stubSink{})
	sessions.AddConn(stubSink{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("sessions status = %d", w.Code)
	}

	var body struct {
		Usernames   []string `json:"usernames"`
		Connections int      `json:"connections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Usernames) != 1 || body.Usernames[0] != "alice" || body.Connections != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestOps_Stats(t *testing.T) {
	r, _, db := newOpsTestRouter(t)
	if _, err := repo.CreateUser(context.Background(), db, "alice", "hash"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}

	var totals repo.Totals
	if err := json.Unmarshal(w.Body.Bytes(), &totals); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if totals.Users != 1 {
		t.Errorf("totals = %+v", totals)
	}
}
