package hp

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var (
	slogCtxKey = ctxKey{}
)

// LoggingContext returns a copy of ctx carrying logger. Render, and anything
// else rendering pages, logs through it.
func LoggingContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, slogCtxKey, logger)
}

// Logger returns the logger attached to ctx with LoggingContext. If there
// isn't one, the returned logger discards everything.
func Logger(ctx context.Context) *slog.Logger {
	return logger(ctx)
}

func logger(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(slogCtxKey).(*slog.Logger)
	if !ok || l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
