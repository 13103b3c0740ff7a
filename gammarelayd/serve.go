package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/pgaskin/gammahook/coordinator"
	"github.com/pgaskin/gammahook/redshift"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the coordinator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lock, err := acquireLock(lockPath())
			if err != nil {
				return err
			}
			defer lock.Unlock()

			mgr, fatal, err := redshift.New(a.logger)
			if err != nil {
				return fmt.Errorf("open display manager: %w", err)
			}
			defer mgr.Close()

			return serve(ctx, a, coordinator.New(mgr, a.cfg.Settings(), a.logger), fatal)
		},
	}
}

func lockPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gammarelayd.lock")
}

// acquireLock ensures only one coordinator is running.
func acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another gammarelayd instance is already running (lock %s)", path)
	}
	return lock, nil
}

// serve runs the coordinator until ctx is canceled or the display manager
// fails.
func serve(ctx context.Context, a *app, srv *coordinator.Server, fatal <-chan error) error {
	cfg, logger := a.cfg, a.logger

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	hs := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- hs.Serve(ln)
	}()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		hs.Shutdown(sctx)
	}()
	logger.Info("gammarelayd: listening", "addr", ln.Addr().String(), "config", a.path, "config_exists", a.exists)

	reload := make(chan *Config, 1)
	go watchConfig(ctx, logger, a.path, reload)

	var (
		solar     = time.NewTicker(time.Minute)
		solarTemp redshift.Temperature
	)
	defer solar.Stop()
	applySolar := func() {
		if !cfg.Solar.Enabled {
			return
		}
		if t := cfg.SolarTemperature(time.Now()); t != solarTemp {
			solarTemp = t
			white, _ := redshift.GetWhitePoint(t)
			logger.Info("gammarelayd: solar schedule", "temperature", int(t))
			srv.Request(white)
		}
	}
	applySolar()

	for {
		select {
		case <-ctx.Done():
			logger.Info("gammarelayd: shutting down")
			return nil
		case err := <-fatal:
			return fmt.Errorf("display manager: %w", err)
		case err := <-httpErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve: %w", err)
		case c := <-reload:
			if c.Server != cfg.Server {
				logger.Warn("gammarelayd: server address changes require a restart")
			}
			if c.Solar != cfg.Solar {
				solarTemp = 0
			}
			cfg = c
			srv.SetSettings(cfg.Settings())
			logger.Info("gammarelayd: reloaded config")
			applySolar()
		case <-solar.C:
			applySolar()
		}
	}
}

// watchConfig sends the new config to ch when the file at path changes. The
// directory is watched since editors usually replace the file.
func watchConfig(ctx context.Context, logger *slog.Logger, path string, ch chan<- *Config) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("gammarelayd: failed to watch config: create watcher", "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("gammarelayd: failed to watch config: update watcher", "error", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			cfg, _, exists, err := Load(path)
			if err != nil {
				logger.Warn("gammarelayd: ignoring invalid config", "error", err)
				continue
			}
			if !exists {
				continue
			}
			select {
			case ch <- cfg:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("gammarelayd: config watcher", "error", err)
		}
	}
}
