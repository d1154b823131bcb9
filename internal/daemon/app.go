// SPDX-License-Identifier: MIT

// Package daemon runs the periodic refresh loop and the HTTP server of
// serve mode.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/senvora/epg/internal/config"
	xglog "github.com/senvora/epg/internal/log"
	"github.com/senvora/epg/internal/metrics"
)

// ErrMissingRunner is returned when an App has nothing to run.
var ErrMissingRunner = errors.New("daemon: refresh function is required")

// RunFunc performs one refresh with the configuration current at call time.
type RunFunc func(ctx context.Context, cfg config.AppConfig) error

// Option customizes an App.
type Option func(*App)

// WithListener serves on ln instead of listening on Server.ListenAddr.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// WithReloadSignal replaces SIGHUP as the reload trigger. nil disables it.
func WithReloadSignal(sig os.Signal) Option {
	return func(a *App) { a.reloadSignal = sig }
}

// App owns the long-lived runtime: refresh scheduling, config reload wiring
// and the HTTP server.
type App struct {
	logger       zerolog.Logger
	holder       *config.ConfigHolder
	run          RunFunc
	handler      http.Handler
	listener     net.Listener
	reloadSignal os.Signal
}

// NewApp creates an App. handler may be nil to run without an HTTP server.
func NewApp(holder *config.ConfigHolder, run RunFunc, handler http.Handler, opts ...Option) *App {
	a := &App{
		logger:       xglog.WithComponent("daemon"),
		holder:       holder,
		run:          run,
		handler:      handler,
		reloadSignal: syscall.SIGHUP,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run blocks until ctx is cancelled or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	if a.run == nil {
		return ErrMissingRunner
	}

	g, ctx := errgroup.WithContext(ctx)

	if err := a.holder.StartWatcher(ctx); err != nil {
		a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
	}

	reloads := make(chan config.AppConfig, 1)
	a.holder.RegisterListener(reloads)

	g.Go(func() error {
		a.refreshLoop(ctx, reloads)
		return nil
	})

	if a.reloadSignal != nil {
		g.Go(func() error {
			a.signalLoop(ctx)
			return nil
		})
	}

	if a.handler != nil {
		g.Go(func() error { return a.serve(ctx) })
	}

	return g.Wait()
}

func (a *App) refreshLoop(ctx context.Context, reloads <-chan config.AppConfig) {
	interval := refreshInterval(a.holder.Get())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refresh(ctx)
		case cfg := <-reloads:
			metrics.RecordConfigReload(true)
			if cfg.Log.Level != "" {
				if err := xglog.SetLevel(cfg.Log.Level); err != nil {
					a.logger.Warn().Err(err).Str("level", cfg.Log.Level).Msg("ignoring invalid log level")
				}
			}
			if next := refreshInterval(cfg); next != interval {
				interval = next
				ticker.Reset(interval)
				a.logger.Info().
					Str(xglog.FieldEvent, "refresh.interval_changed").
					Dur("interval", interval).
					Msg("refresh interval updated")
			}
			a.refresh(ctx)
		}
	}
}

func refreshInterval(cfg config.AppConfig) time.Duration {
	if cfg.Server.RefreshInterval <= 0 {
		return config.DefaultRefreshInterval
	}
	return cfg.Server.RefreshInterval
}

func (a *App) refresh(ctx context.Context) {
	start := time.Now()
	a.logger.Info().Str(xglog.FieldEvent, "refresh.start").Msg("starting refresh")
	if err := a.run(ctx, a.holder.Get()); err != nil {
		a.logger.Error().Err(err).Str(xglog.FieldEvent, "refresh.failed").Msg("refresh finished with errors")
		return
	}
	a.logger.Info().
		Str(xglog.FieldEvent, "refresh.done").
		Int64(xglog.FieldDuration, time.Since(start).Milliseconds()).
		Msg("refresh complete")
}

func (a *App) signalLoop(ctx context.Context) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, a.reloadSignal)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			a.logger.Info().
				Str(xglog.FieldEvent, "config.reload_signal").
				Str("signal", a.reloadSignal.String()).
				Msg("received reload signal, reloading config")
			if err := a.holder.Reload(ctx); err != nil {
				metrics.RecordConfigReload(false)
				a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.reload_failed").Msg("config reload failed")
			}
		}
	}
}

func (a *App) serve(ctx context.Context) error {
	cfg := a.holder.Get().Server
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if a.listener != nil {
			err = srv.Serve(a.listener)
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()
	a.logger.Info().Str(xglog.FieldEvent, "http.listening").Str("addr", a.addr(cfg.ListenAddr)).Msg("serving")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info().Str(xglog.FieldEvent, "http.stopped").Msg("server stopped")
	return nil
}

func (a *App) addr(fallback string) string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return fallback
}
