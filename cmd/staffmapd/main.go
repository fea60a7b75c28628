// Command staffmapd serves the venue staffing editor and its public
// projection over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"staffmap/internal/blob"
	"staffmap/internal/broadcast"
	"staffmap/internal/config"
	"staffmap/internal/core"
	"staffmap/internal/projection"
	"staffmap/internal/registry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zapLogger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := core.NewZapLogger(zapLogger)

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	channel, err := broadcast.Open()
	if err != nil {
		return fmt.Errorf("open broadcast channel: %w", err)
	}
	defer func() { _ = channel.Close() }()

	state, err := registry.LoadClientState(cfg.ClientStatePath)
	if err != nil {
		return fmt.Errorf("load client state: %w", err)
	}

	metrics, err := core.OpenMetricsRecorder()
	if err != nil {
		return fmt.Errorf("open metrics recorder: %w", err)
	}
	opts := []core.Option{core.WithLogger(logger), core.WithMetrics(metrics)}
	if cfg.Verbose {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(os.Stderr)))
	}
	svc := core.NewService(store, opts...)
	reg := registry.New(store, state, registry.WithLogger(logger), registry.WithBroadcast(channel))
	gate := projection.NewGate(store, logger)

	srv := newServer(cfg, svc, reg, gate, blobs, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr, "owner", cfg.OwnerID)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
