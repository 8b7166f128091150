package guard

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

// Reporter receives the outcome of failed guarded calls. Implementations
// must not panic back into the caller.
type Reporter interface {
	// Report records an unexpected failure.
	Report(ctx context.Context, err error)
	Warn(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
}

// LogReporter reports through slog. A nil Logger uses the context logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) Report(ctx context.Context, err error) {
	defer func() { _ = recover() }()
	r.logger(ctx).Error("unexpected error", slog.Any("error", err))
}

func (r LogReporter) Warn(ctx context.Context, msg string, args ...any) {
	defer func() { _ = recover() }()
	r.logger(ctx).Warn(msg, args...)
}

func (r LogReporter) Info(ctx context.Context, msg string, args ...any) {
	defer func() { _ = recover() }()
	r.logger(ctx).Info(msg, args...)
}

func (r LogReporter) logger(ctx context.Context) *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slogx.FromContext(ctx)
}
