// Handlers of the auth module: register, login, logout. Every handler
// validates its payload first; the base rule is a non-empty username, and
// register/login additionally require a non-empty password.
package server

import (
	"context"

	"github.com/tbourn/go-messenger-server/internal/protocol"
)

// AuthRoutes returns the route table of the auth module.
func AuthRoutes(d *Deps) []Route {
	return []Route{
		{Action: protocol.ActionRegister, Handler: d.handleRegister},
		{Action: protocol.ActionLogin, Handler: d.handleLogin},
		{Action: protocol.ActionLogout, Handler: d.handleLogout},
	}
}

func (d *Deps) handleRegister(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username       string `json:"username"`
		Password       string `json:"password"`
		RepeatPassword string `json:"repeat_password"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" || data.Password == "" || data.Password != data.RepeatPassword {
		return protocol.Bad(req.Action)
	}

	if _, err := d.Auth.Register(ctx, data.Username, data.Password); err != nil {
		return d.respondErr(req.Action, err)
	}
	return protocol.OK(req.Action, "Register completed")
}

func (d *Deps) handleLogin(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" || data.Password == "" {
		return protocol.Bad(req.Action)
	}

	result, err := d.Auth.Login(ctx, data.Username, data.Password, req.RemoteAddr)
	if err != nil {
		return d.respondErr(req.Action, err)
	}

	// Bind before returning so the session is visible to fan-outs before
	// this login's own response is dispatched.
	if sink, ok := SinkFrom(ctx); ok {
		d.Sessions.Bind(result.Username, sink)
	}
	return protocol.OK(req.Action, "Client logged in").
		With("user_data", result)
}

func (d *Deps) handleLogout(ctx context.Context, req *protocol.Request) *protocol.Response {
	var data struct {
		Username string `json:"username"`
	}
	if err := req.Bind(&data); err != nil {
		return protocol.Bad(req.Action)
	}
	if data.Username == "" {
		return protocol.Bad(req.Action)
	}

	user, err := d.Auth.Logout(ctx, data.Username)
	if err != nil {
		return d.respondErr(req.Action, err)
	}
	d.Sessions.Unbind(user.Username)
	return protocol.OK(req.Action, "Client logged out").
		With("username", user.Username).
		With("user_id", user.ID)
}
