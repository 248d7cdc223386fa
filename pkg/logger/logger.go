// Package logger builds the structured slog logger used across the service.
//
// The key extension over plain slog is WithCtx: the request middleware injects
// a logger already tagged with request_id, so every log line from a handler or
// service is correlated:
//
//	log := logger.WithCtx(ctx)
//	log.Info("order placed", "order_id", id)
//	// → time=... level=INFO msg="order placed" request_id=5f0c… order_id=42
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kwanzatukule/marketplace/config"
)

// New returns a JSON logger for production environments and a text logger
// everywhere else.
func New(env string, w io.Writer) *slog.Logger {
	return slog.New(newHandler(env, w))
}

func newHandler(env string, w io.Writer) slog.Handler {
	if w == nil {
		w = os.Stdout
	}
	switch strings.ToLower(env) {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}) // structured JSON for log aggregators
	case "testing", "test":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}) // human-readable for dev
	}
}

// Setup builds the process logger from cfg, installs it as slog's default and
// returns a close func. When LOG_MONGO_URI is set, records are also shipped to
// MongoDB; a Mongo connection failure is returned so the caller decides
// whether to continue without it.
func Setup(cfg *config.Config) (*slog.Logger, func(), error) {
	base := newHandler(cfg.AppEnv(), os.Stdout)
	closer := func() {}

	var err error
	if uri := cfg.LogMongoURI(); uri != "" {
		var mh *MongoHandler
		mh, err = NewMongoHandler(uri, cfg.LogMongoDB(), "logs")
		if err == nil {
			base = NewMultiHandler(base, mh)
			closer = mh.Close
		} else {
			err = fmt.Errorf("logger: mongo sink disabled: %w", err)
		}
	}

	log := slog.New(base).With("service", cfg.ServiceName())
	slog.SetDefault(log)
	return log, closer, err
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or slog's default
// when none was injected.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return slog.Default()
}

// InjectLogger stores log in ctx. Called by the request logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}
