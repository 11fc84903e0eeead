// Package main provides the liveserve CLI application.
//
// liveserve is a static file server for local web development. It watches
// the served directory for changes and pushes reload notifications to
// connected browsers over a WebSocket channel, with the reload client
// script injected into served HTML pages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/0xmhha/liveserve/pkg/channel"
	"github.com/0xmhha/liveserve/pkg/config"
	"github.com/0xmhha/liveserve/pkg/display"
	"github.com/0xmhha/liveserve/pkg/inject"
	"github.com/0xmhha/liveserve/pkg/logger"
	"github.com/0xmhha/liveserve/pkg/notifier"
	"github.com/0xmhha/liveserve/pkg/registry"
	"github.com/0xmhha/liveserve/pkg/watcher"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	// Define flags.
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")

	var host string
	flag.StringVar(&host, "host", "", "host to bind to (default: localhost)")

	var port int
	flag.IntVar(&port, "port", 0, "HTTP server port (default: 8000)")
	flag.IntVar(&port, "p", 0, "HTTP server port (shorthand)")

	var dir string
	flag.StringVar(&dir, "dir", "", "directory to serve (default: current directory)")
	flag.StringVar(&dir, "d", "", "directory to serve (shorthand)")

	wsPort := flag.Int("ws-port", 0, "WebSocket port (default: HTTP port + 1)")

	flag.Parse()

	// Handle version flag.
	if *showVersion {
		fmt.Printf("liveserve %s\n", version)
		return nil
	}

	// Load configuration; flags take precedence over file and env.
	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		return err
	}

	o := overrides{
		host:     host,
		port:     port,
		dir:      dir,
		wsPort:   *wsPort,
		logLevel: *logLevel,
	}
	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	// The served root must exist before any component starts.
	root, err := resolveRoot(cfg.Root)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})

	return serve(cfg, root, log)
}

// overrides holds flag values that take precedence over file and env
// configuration. Zero values mean "not set".
type overrides struct {
	host     string
	port     int
	dir      string
	wsPort   int
	logLevel string
}

// apply writes the set overrides into the configuration.
func (o overrides) apply(cfg *config.Config) {
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
	if o.dir != "" {
		cfg.Root = o.dir
	}
	if o.wsPort != 0 {
		cfg.Server.NotifyPort = o.wsPort
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
}

// resolveRoot resolves the served directory to an absolute path and
// verifies it exists.
func resolveRoot(dir string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("directory not found: %s", root)
	}

	return root, nil
}

// serve wires the components together and runs until a signal or a server
// error.
func serve(cfg *config.Config, root string, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpAddr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	// The injected script always dials localhost, so the channel binds
	// there regardless of the HTTP host.
	notifyAddr := net.JoinHostPort("localhost", strconv.Itoa(cfg.NotificationPort()))

	// Notification channel.
	reg := registry.New()
	chSrv := channel.New(reg, log)

	// Watcher feeding the debounced notifier.
	w, err := watcher.New(watcher.Config{
		Extensions: cfg.Watch.Extensions,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			log.Warn("failed to close watcher", "error", closeErr)
		}
	}()

	if err := w.Start(ctx, root); err != nil {
		return err
	}

	n := notifier.New(time.Duration(cfg.Watch.DebounceWindow), chSrv, log)
	go n.Run(ctx, w.Events())

	// Watcher errors are surfaced here and logged; the watcher never
	// retries on its own.
	go func() {
		for watchErr := range w.Errors() {
			log.Error("watcher error", "error", watchErr)
		}
	}()

	// HTTP responder.
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           inject.New(root, cfg.NotificationPort(), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	display.Banner(os.Stdout, display.Info{
		Root:       root,
		HTTPAddr:   httpAddr,
		NotifyAddr: notifyAddr,
	})

	errCh := make(chan error, 2)

	go func() {
		errCh <- chSrv.Start(notifyAddr)
	}()

	go func() {
		log.Info("http server listening", "addr", httpAddr)
		serveErr := httpSrv.ListenAndServe()
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
		errCh <- serveErr
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", "error", err)
	}
	if err := chSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("notification server shutdown", "error", err)
	}

	log.Info("goodbye")
	return nil
}
