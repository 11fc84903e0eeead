// Package channel implements the notification channel server: a WebSocket
// endpoint browsers connect to for reload signals.
//
// The server registers each accepted connection in a registry, holds it
// open until the peer closes, and exposes Broadcast for pushing a signal
// to every registered client. A failing client never blocks delivery to
// the others; it is dropped from the registry after the broadcast pass.
package channel

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/0xmhha/liveserve/pkg/logger"
	"github.com/0xmhha/liveserve/pkg/registry"
)

// Server accepts browser connections and broadcasts reload signals.
type Server struct {
	registry *registry.Registry
	logger   logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	httpSrv *http.Server
}

// New creates a notification channel server backed by the given registry.
func New(reg *registry.Registry, log logger.Logger) *Server {
	return &Server{
		registry: reg,
		logger:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local development tool: pages are served from a
			// different port than the channel, so cross-origin
			// upgrades are the normal case.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and holds it
// open until the peer closes.
//
// The read loop discards anything the peer sends; its only purpose is to
// detect closure.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			"remote", r.RemoteAddr,
			"error", err)
		return
	}

	c := &client{conn: conn}

	s.registry.Register(c)
	s.logger.Info("client connected",
		"remote", c.remoteAddr(),
		"clients", s.registry.Len())

	for {
		if _, _, readErr := conn.ReadMessage(); readErr != nil {
			break
		}
	}

	s.registry.Unregister(c)
	c.Close()
	s.logger.Info("client disconnected",
		"remote", c.remoteAddr(),
		"clients", s.registry.Len())
}

// Broadcast sends the signal to every registered client.
//
// Iteration happens over a snapshot so no registry lock is held across
// network writes. Clients whose send fails are removed after the pass;
// with zero clients registered this is a no-op.
func (s *Server) Broadcast(signal []byte) {
	clients := s.registry.Snapshot()
	if len(clients) == 0 {
		s.logger.Debug("no clients connected, skipping broadcast")
		return
	}

	s.logger.Info("notifying clients to reload", "clients", len(clients))

	var failed []registry.Client
	for _, c := range clients {
		if err := c.Send(signal); err != nil {
			s.logger.Warn("send failed, dropping client", "error", err)
			failed = append(failed, c)
		}
	}

	for _, c := range failed {
		s.registry.Unregister(c)
		c.Close()
	}
}

// Start runs the server on the given address, blocking until Shutdown or
// a listener error.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info("notification server listening", "addr", addr)

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes all registered clients.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, c := range s.registry.Snapshot() {
		s.registry.Unregister(c)
		c.Close()
	}

	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
