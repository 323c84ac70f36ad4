// Supervisor: owns the protocol listener lifecycle. It assembles the
// services over the store, builds the router from the configured modules,
// accepts connections under the configured concurrency cap, and drains
// everything on Stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/config"
	"github.com/tbourn/go-messenger-server/internal/events"
	"github.com/tbourn/go-messenger-server/internal/protocol"
	"github.com/tbourn/go-messenger-server/internal/services"
)

// Supervisor runs the TCP protocol endpoint.
type Supervisor struct {
	cfg      *config.Config
	bus      *events.Bus
	log      zerolog.Logger
	codec    *protocol.Codec
	sessions *Registry
	router   *Router
	deps     *Deps

	mu       sync.Mutex
	listener net.Listener
	running  bool
	wg       sync.WaitGroup
}

// New assembles a supervisor over an opened, migrated database. The module
// list in cfg decides which route tables the router carries; an unknown
// module or an unknown wire encoding fails construction.
func New(cfg *config.Config, db *gorm.DB, bus *events.Bus, log zerolog.Logger) (*Supervisor, error) {
	codec, err := protocol.NewCodec(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	sessions := NewRegistry(bus)
	deps := NewDeps(db, sessions, codec, log)

	router, err := BuildRouter(cfg.Modules, deps)
	if err != nil {
		return nil, err
	}

	return &Supervisor{
		cfg:      cfg,
		bus:      bus,
		log:      log.With().Str("component", "server").Logger(),
		codec:    codec,
		sessions: sessions,
		router:   router,
		deps:     deps,
	}, nil
}

// Sessions exposes the session registry for the ops surface.
func (s *Supervisor) Sessions() *Registry { return s.sessions }

// Router exposes the assembled router.
func (s *Supervisor) Router() *Router { return s.router }

// Start binds the listener and begins accepting. The configuration is
// frozen for as long as the server runs. Returns once the listener is
// bound; connections are served on their own goroutines, at most
// cfg.Backlog of them concurrently.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server: already running")
	}

	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}

	s.cfg.Freeze()
	s.listener = ln
	s.running = true
	s.bus.State(true, addr)
	s.log.Info().Str("addr", addr).Strs("modules", s.cfg.Modules).Msg("listening")

	sem := make(chan struct{}, s.cfg.Backlog)
	s.wg.Add(1)
	go s.acceptLoop(ctx, ln, sem)
	return nil
}

func (s *Supervisor) acceptLoop(ctx context.Context, ln net.Listener, sem chan struct{}) {
	defer s.wg.Done()
	for {
		nc, err := ln.Accept()
		if err != nil {
			// Listener closed by Stop, or fatal accept error.
			if !errors.Is(err, net.ErrClosed) {
				s.log.Error().Err(err).Msg("accept failed")
			}
			return
		}

		// Track the conn before waiting for a free slot: Stop's CloseAll
		// must reach connections parked here, or a shutdown would hang on
		// a reader that nothing ever closes.
		sink := newTCPConn(nc)
		s.sessions.AddConn(sink)

		// A conn accepted in the instant before the listener closed can
		// land after CloseAll's snapshot; when Stop already ran, close it
		// here instead of serving it.
		s.mu.Lock()
		stopping := !s.running
		s.mu.Unlock()
		if stopping {
			s.sessions.RemoveConn(sink)
			_ = sink.Close()
			return
		}

		sem <- struct{}{}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-sem }()
			s.serveConn(ctx, sink)
		}()
	}
}

// Stop closes the listener, closes every open connection, and waits for all
// connection loops to drain. Safe to call once after Start; the
// configuration thaws when everything is down.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	ln := s.listener
	s.listener = nil
	s.running = false
	s.mu.Unlock()

	_ = ln.Close()
	s.sessions.CloseAll()
	s.wg.Wait()

	s.bus.State(false, s.cfg.Addr())
	s.cfg.Thaw()
	s.log.Info().Msg("stopped")
}

// Addr returns the listener's bound address, useful when the configured
// port was 0.
func (s *Supervisor) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// NewDeps wires the services over the shared repository shim and bundles
// them with the registry and codec for the handlers.
func NewDeps(db *gorm.DB, sessions *Registry, codec *protocol.Codec, log zerolog.Logger) *Deps {
	store := storeRepo{}
	return &Deps{
		Auth:     services.NewAuthService(db, store),
		Contacts: services.NewContactService(db, store),
		Chats:    services.NewChatService(db, store),
		Messages: services.NewMessageService(db, store),
		Profiles: services.NewProfileService(db, store),
		Sessions: sessions,
		Codec:    codec,
		Log:      log.With().Str("component", "handlers").Logger(),
	}
}
