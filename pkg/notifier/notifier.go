// Package notifier coalesces bursts of file change events into single
// reload broadcasts.
//
// Editors and build tools frequently produce several filesystem events per
// logical save; broadcasting each one would make connected browsers flicker
// through redundant reloads. The notifier keeps at most one pending reload:
// every qualifying event cancels and replaces the scheduled broadcast, so a
// single reload fires once the files have been quiet for the configured
// window.
package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/0xmhha/liveserve/pkg/logger"
	"github.com/0xmhha/liveserve/pkg/watcher"
)

// ReloadSignal is the opaque payload broadcast to clients. Clients reload
// on any message regardless of content.
var ReloadSignal = []byte("reload")

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 100 * time.Millisecond

// Broadcaster delivers a signal to all connected clients. Per-client send
// failures are the broadcaster's problem; they never propagate back here.
type Broadcaster interface {
	Broadcast(signal []byte)
}

// Notifier debounces change events and triggers reload broadcasts.
type Notifier struct {
	broadcaster Broadcaster
	logger      logger.Logger
	window      time.Duration

	mu    sync.Mutex
	timer *time.Timer
	// gen guards the race between a timer firing and a newer event
	// cancelling it: a fire whose generation is stale is a no-op.
	gen uint64
}

// New creates a notifier that broadcasts via b after the given quiet window.
//
// A window of 0 uses DefaultWindow.
func New(window time.Duration, b Broadcaster, log logger.Logger) *Notifier {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Notifier{
		broadcaster: b,
		logger:      log,
		window:      window,
	}
}

// Notify records a qualifying change event.
//
// Any previously scheduled broadcast that has not yet fired is cancelled
// and replaced; the broadcast fires once the window elapses with no
// further events. Safe for concurrent use.
func (n *Notifier) Notify(event watcher.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}

	n.gen++
	gen := n.gen

	n.logger.Debug("change noted, debounce window restarted",
		"path", event.Path,
		"op", event.Op.String(),
		"window", n.window)

	n.timer = time.AfterFunc(n.window, func() {
		n.fire(gen)
	})
}

// fire performs the broadcast scheduled for the given generation. A stale
// generation means a later event replaced this schedule; do nothing.
func (n *Notifier) fire(gen uint64) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.mu.Unlock()

	n.logger.Debug("debounce window elapsed, broadcasting reload")
	n.broadcaster.Broadcast(ReloadSignal)
}

// Stop cancels any pending broadcast.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	// Invalidate any fire already racing towards the lock.
	n.gen++
}

// Run consumes events from the channel until it closes or the context is
// cancelled. This is the hand-off point between the watcher's goroutine
// and the debounce state: events cross over the channel, and all timer
// mutation happens under the notifier's own lock.
func (n *Notifier) Run(ctx context.Context, events <-chan watcher.Event) {
	defer n.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Debug("notifier stopped", "reason", "context cancelled")
			return

		case event, ok := <-events:
			if !ok {
				n.logger.Debug("notifier stopped", "reason", "event channel closed")
				return
			}
			n.Notify(event)
		}
	}
}
