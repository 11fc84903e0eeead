// Package watcher provides real-time file system monitoring for liveserve.
//
// It uses fsnotify to watch a directory tree recursively and forwards
// create/modify events for files whose extension is in the watched set.
// Directory events and irrelevant extensions are discarded. Coalescing of
// event bursts is not this package's job; see pkg/notifier.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, "./site"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("%s: %s\n", event.Op, event.Path)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types forwarded by the watcher.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// Event represents a qualifying file system change.
type Event struct {
	// Path is the path to the file that triggered the event.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start begins watching the root directory tree recursively.
	//
	// Directories created under the root after Start are added to the
	// watch as they appear.
	//
	// Returns an error if root is not an existing directory or the
	// watcher is already running.
	Start(ctx context.Context, root string) error

	// Stop gracefully shuts down the watcher.
	Stop() error

	// Events returns the channel for receiving qualifying file events.
	//
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel for receiving watcher errors.
	//
	// Errors are surfaced for logging; the watcher itself never retries.
	// The channel is closed when the watcher is closed.
	Errors() <-chan error

	// Close closes the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// Extensions is the set of file extensions (with leading dot) whose
	// changes are forwarded. Matching is case-insensitive.
	// Default: .html, .htm, .css, .js, .json.
	Extensions []string
}
