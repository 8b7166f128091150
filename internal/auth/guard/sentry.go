package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryReporter sends unexpected failures to Sentry and passes every call
// on to Next. Warn and Info become breadcrumbs of the next captured event.
type SentryReporter struct {
	Hub  *sentry.Hub
	Next Reporter
}

// NewSentryReporter builds a reporter on its own hub, so nothing touches the
// sentry package globals.
func NewSentryReporter(opts sentry.ClientOptions, next Reporter) (*SentryReporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("guard: sentry client: %w", err)
	}
	if next == nil {
		next = LogReporter{}
	}
	return &SentryReporter{Hub: sentry.NewHub(client, sentry.NewScope()), Next: next}, nil
}

func (r *SentryReporter) Report(ctx context.Context, err error) {
	r.Next.Report(ctx, err)

	defer func() { _ = recover() }()
	r.Hub.WithScope(func(scope *sentry.Scope) {
		var ge *Error
		if errors.As(err, &ge) {
			scope.SetTag("kind", ge.Kind.String())
			if ge.Op != "" {
				scope.SetTag("op", ge.Op)
			}
		}
		r.Hub.CaptureException(err)
	})
}

func (r *SentryReporter) Warn(ctx context.Context, msg string, args ...any) {
	r.Next.Warn(ctx, msg, args...)
	r.breadcrumb(sentry.LevelWarning, msg)
}

func (r *SentryReporter) Info(ctx context.Context, msg string, args ...any) {
	r.Next.Info(ctx, msg, args...)
	r.breadcrumb(sentry.LevelInfo, msg)
}

// Flush waits up to timeout for queued events to be sent.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.Hub.Flush(timeout)
}

func (r *SentryReporter) breadcrumb(level sentry.Level, msg string) {
	defer func() { _ = recover() }()
	r.Hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "guard",
		Level:    level,
		Message:  msg,
	}, nil)
}
