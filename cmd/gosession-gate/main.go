// Command gosession-gate runs the session gate in front of the frontend renderer and the
// backend API. It serves the session endpoints itself and proxies everything else.
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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/internal/config"
	"github.com/MrEthical07/goSession/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gosession-gate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	b := goSession.New().
		WithConfig(cfg.Session).
		WithLogger(lg).
		WithAuditSink(goSession.NewZapSink(lg))

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			lg.Warn("redis unreachable at startup; logins will be refused until it recovers",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		b.WithRedis(rdb)
	}

	if cfg.BackendURL != "" {
		client, err := backend.New(backend.Config{BaseURL: cfg.BackendURL}, nil)
		if err != nil {
			return err
		}
		b.WithIdentityProvider(client)
	} else {
		lg.Warn("BACKEND_URL not set; login endpoint will answer 503")
	}

	engine, err := b.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	handler, err := newHandler(cfg, engine, lg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("env", cfg.Env),
			zap.Strings("protected", cfg.Session.Access.ProtectedPrefixes),
			zap.Bool("rate_limit", cfg.Session.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http server shutdown failed", zap.Error(err))
	}
	lg.Info("goodbye", zap.Uint64("audit_dropped", engine.AuditDropped()))
	return nil
}
