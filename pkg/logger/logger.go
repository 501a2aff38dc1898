// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns a logger with the request ID already attached, so every
// log line from a handler or a service call it triggers is correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("specification written", "product_id", 42)
//	// → time=... level=INFO msg="specification written" request_id=a1b2c3d4 product_id=42
//
// Catalog-mutating operations are additionally reported through Audit, which
// fans out to MongoDB when AUDIT_MONGO_URI is configured (see EnableAudit).
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/shashiranjanraj/storeadmin/config"
)

var (
	L *slog.Logger

	auditMu sync.RWMutex
	audit   *slog.Logger
)

func init() {
	L = New(os.Stdout, config.AppEnv())
	slog.SetDefault(L)
	audit = L.With("channel", "audit")
}

// New builds the logger used for env: JSON for production log aggregators,
// human-readable text everywhere else.
func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the *slog.Logger stored in ctx by the Logger middleware,
// or the base logger when there is none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Audit trail
// ─────────────────────────────────────────────

// Audit records a catalog mutation (spec value written, image attached,
// order status changed). ctx contributes the request_id when present.
func Audit(ctx context.Context, action string, args ...any) {
	auditMu.RLock()
	log := audit
	auditMu.RUnlock()

	if rid := requestID(ctx); rid != "" {
		args = append(args, "request_id", rid)
	}
	log.InfoContext(ctx, action, args...)
}

// SetAuditHandler routes audit records to h in addition to the base logger.
// Passing nil restores the base-logger-only behaviour.
func SetAuditHandler(h slog.Handler) {
	auditMu.Lock()
	defer auditMu.Unlock()
	if h == nil {
		audit = L.With("channel", "audit")
		return
	}
	audit = slog.New(NewMultiHandler(L.Handler(), h)).With("channel", "audit")
}

// requestID returns the id stored by InjectRequestID; slog attrs cannot be
// read back from a *slog.Logger.
func requestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ridKey{}).(string); ok {
		return id
	}
	return ""
}

type ridKey struct{}

// InjectRequestID stores the raw request id for Audit.
func InjectRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ridKey{}, id)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
