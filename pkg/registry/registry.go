// Package registry provides a concurrency-safe set of connected
// notification clients.
//
// The registry is the only state shared between the notification channel
// server's connection handlers and the broadcaster. Snapshot exists so a
// broadcast can iterate the membership without holding the registry lock
// across network writes.
package registry

import "sync"

// Client is the minimal interface the registry needs from a connection.
//
// Send and Close are implemented by the notification channel server; the
// registry itself never performs network I/O.
type Client interface {
	// Send delivers a text message to the peer.
	Send(data []byte) error

	// Close closes the underlying connection. Safe to call more than once.
	Close()
}

// Registry is a concurrency-safe set of clients.
//
// The zero value is not usable; use New.
type Registry struct {
	mu      sync.RWMutex
	clients map[Client]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		clients: make(map[Client]struct{}),
	}
}

// Register adds a client to the set. Registering an already-registered
// client is a no-op.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c] = struct{}{}
}

// Unregister removes a client from the set. Removing an absent client is
// a no-op.
func (r *Registry) Unregister(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, c)
}

// Snapshot returns the current membership as a slice.
//
// The slice is a point-in-time copy; callers may iterate and perform
// network I/O without blocking registry mutation.
func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}

// Len returns the current number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}
