// Per-connection plumbing: the tcpConn sink wrapping a net.Conn, and the
// read/decode/dispatch/write loop the supervisor runs for every accepted
// connection.
package server

import (
	"context"
	"encoding/json"
	"net"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/tbourn/go-messenger-server/internal/protocol"
)

// tcpConn is the Sink over a TCP connection. Writes are serialized so a
// fan-out frame from another connection's handler never interleaves with
// this connection's own response.
type tcpConn struct {
	id string
	nc net.Conn

	wmu sync.Mutex
}

func newTCPConn(nc net.Conn) *tcpConn {
	return &tcpConn{id: uuid.NewString(), nc: nc}
}

// Send writes one complete output frame.
func (c *tcpConn) Send(frame []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.nc.Write(frame)
	return err
}

func (c *tcpConn) Close() error { return c.nc.Close() }

func (c *tcpConn) RemoteAddr() string { return c.nc.RemoteAddr().String() }

// serveConn owns one connection for its lifetime: one Read is one input
// frame, bounded by the configured buffer size. A zero-length read means
// the peer is gone. On exit every binding pointing at this sink is dropped
// so a crashed client never leaves a stale fan-out target behind.
//
// The accept loop registers the sink with the registry before this runs,
// so a shutdown between accept and serve already closed the conn; the
// first Read then fails and the loop drains immediately.
func (s *Supervisor) serveConn(ctx context.Context, sink *tcpConn) {
	remote := sink.RemoteAddr()
	log := s.log.With().Str("conn_id", sink.id).Str("remote", remote).Logger()

	connectionsOpen.Inc()
	log.Info().Msg("connection accepted")

	defer func() {
		s.sessions.UnbindSink(sink)
		s.sessions.RemoveConn(sink)
		connectionsOpen.Dec()
		_ = sink.Close()
		log.Info().Msg("connection closed")
	}()

	ctx = WithSink(ctx, sink)
	buf := make([]byte, s.cfg.BufferSize)
	for {
		n, err := sink.nc.Read(buf)
		if err != nil || n == 0 {
			return
		}

		raw := make([]byte, n)
		copy(raw, buf[:n])

		resp := s.process(ctx, raw, remote)
		frame, err := s.codec.EncodeResponse(resp)
		if err != nil {
			log.Error().Err(err).Str("action", resp.Action).Msg("response encode failed")
			continue
		}
		s.bus.Response(frame)
		if err := sink.Send(frame); err != nil {
			log.Warn().Err(err).Msg("response write failed")
			return
		}
	}
}

// process decodes one input frame and dispatches it: malformed → 400,
// unroutable verb → 404, handler panic → logged 500. Request and response
// shapes are published on the event bus for observers.
func (s *Supervisor) process(ctx context.Context, raw []byte, remote string) (resp *protocol.Response) {
	start := protocol.Timestamp()

	req, err := s.codec.DecodeRequest(raw)
	if err != nil {
		s.log.Debug().Err(err).Str("remote", remote).Msg("malformed frame")
		resp = protocol.Bad("")
		observeRequest("malformed", resp.Code, protocol.Timestamp()-start)
		return resp
	}
	req.RemoteAddr = remote

	if !req.IsValid() {
		resp = protocol.Bad(req.Action)
		observeRequest("malformed", resp.Code, protocol.Timestamp()-start)
		return resp
	}

	// Observers get the decoded envelope, not the wire bytes: a legacy
	// double-encoded frame would otherwise surface as a JSON string.
	if decoded, err := json.Marshal(req); err == nil {
		s.bus.Request(decoded)
	}

	handler, ok := s.router.Resolve(req.Action)
	if !ok {
		resp = protocol.Unknown(req.Action)
		observeRequest(req.Action, resp.Code, protocol.Timestamp()-start)
		return resp
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Interface("panic", r).
				Str("action", req.Action).
				Str("stack", string(debug.Stack())).
				Msg("handler panicked")
			resp = protocol.Internal(req.Action)
		}
		observeRequest(req.Action, resp.Code, protocol.Timestamp()-start)
		sessionsActive.Set(float64(len(s.sessions.ActiveUsernames())))
		s.log.Info().
			Str("action", req.Action).
			Int("code", resp.Code).
			Str("remote", remote).
			Msg("request handled")
	}()

	resp = handler(ctx, req)
	return resp
}
