// Package server owns the listen / serve / graceful-shutdown lifecycle of the
// HTTP and gRPC listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// GRPCServer is satisfied by *grpc.Server from pkg/grpc.
type GRPCServer interface {
	Serve(lis net.Listener) error
	SetServing(ok bool)
	Stop()
}

// Config describes what to serve. GRPC is optional.
type Config struct {
	HTTPAddr        string
	Handler         http.Handler
	GRPCAddr        string
	GRPC            GRPCServer
	ShutdownTimeout time.Duration
}

// Run serves until ctx is cancelled or a listener fails, then drains both
// servers within ShutdownTimeout.
func Run(ctx context.Context, cfg Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("server: listen http %s: %w", cfg.HTTPAddr, err)
	}
	var grpcLis net.Listener
	if cfg.GRPC != nil {
		if grpcLis, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
			httpLis.Close()
			return fmt.Errorf("server: listen grpc %s: %w", cfg.GRPCAddr, err)
		}
	}
	return serve(ctx, cfg, httpLis, grpcLis, log)
}

func serve(ctx context.Context, cfg Config, httpLis, grpcLis net.Listener, log *slog.Logger) error {
	srv := &http.Server{
		Handler:           cfg.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server starting", "addr", httpLis.Addr().String())
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: http: %w", err)
		}
		return nil
	})
	if grpcLis != nil {
		g.Go(func() error {
			cfg.GRPC.SetServing(true)
			return cfg.GRPC.Serve(grpcLis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if cfg.GRPC != nil {
			cfg.GRPC.SetServing(false)
			cfg.GRPC.Stop()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: http shutdown: %w", err)
		}
		log.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
