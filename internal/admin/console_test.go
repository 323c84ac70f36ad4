package admin

import (
	"strings"
	"testing"

	"github.com/tbourn/go-messenger-server/internal/events"
)

func TestConsole_MirrorsEvents(t *testing.T) {
	bus := events.NewBus()
	var out strings.Builder
	NewConsole(&out, bus, false)

	bus.State(true, "127.0.0.1:7777")
	bus.Client(events.ClientAdd, "alice")
	bus.Log("maintenance window")
	bus.Client(events.ClientDelete, "alice")
	bus.State(false, "127.0.0.1:7777")
	bus.Request([]byte(`{"action":"login"}`)) // not subscribed without verbose

	got := out.String()
	for _, want := range []string{
		"server listening on 127.0.0.1:7777",
		"client logged in: alice",
		"maintenance window",
		"client gone: alice",
		"server stopped",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "login") {
		t.Error("non-verbose console printed a raw frame")
	}
}

func TestConsole_VerbosePrintsFrames(t *testing.T) {
	bus := events.NewBus()
	var out strings.Builder
	NewConsole(&out, bus, true)

	bus.Request([]byte(`{"action":"login"}`))
	bus.Response([]byte(`{"code":200}`))

	got := out.String()
	if !strings.Contains(got, `<- {"action":"login"}`) || !strings.Contains(got, `-> {"code":200}`) {
		t.Errorf("verbose output = %q", got)
	}
}
