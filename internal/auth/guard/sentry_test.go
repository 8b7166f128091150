package guard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/epicevents/internal/auth/guard"
	"github.com/aussiebroadwan/epicevents/internal/auth/policy"
)

// capturedEvents collects events in BeforeSend and drops them, so nothing
// leaves the process.
type capturedEvents struct {
	mu     sync.Mutex
	events []*sentry.Event
	hints  []*sentry.EventHint
}

func (c *capturedEvents) beforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	c.hints = append(c.hints, hint)
	return nil
}

func newSentryReporter(t *testing.T) (*guard.SentryReporter, *recordingReporter, *capturedEvents) {
	t.Helper()
	captured := &capturedEvents{}
	next := &recordingReporter{}
	r, err := guard.NewSentryReporter(sentry.ClientOptions{
		Dsn:         "https://public@sentry.example.com/1",
		Environment: "test",
		SampleRate:  1.0,
		BeforeSend:  captured.beforeSend,
	}, next)
	require.NoError(t, err)
	t.Cleanup(func() { r.Flush(time.Second) })
	return r, next, captured
}

func TestSentryReporter(t *testing.T) {
	ctx := context.Background()

	t.Run("unexpected failures are captured with their kind", func(t *testing.T) {
		r, next, captured := newSentryReporter(t)
		g, _ := newGuard()
		g.Reporter = r

		op := guard.Protect(g, policy.GetAllClients, func(context.Context, guard.Caller, string) (string, error) {
			return "", errors.New("disk on fire")
		})
		_, err := op(ctx, guard.Caller{UserID: "u-manager", Token: "tok-manager"}, "x")
		require.Error(t, err)

		require.Len(t, next.reported, 1, "the log reporter still sees it")
		require.Len(t, captured.events, 1)
		require.Equal(t, next.reported[0], captured.hints[0].OriginalException)
		require.Equal(t, "unexpected", captured.events[0].Tags["kind"])
		require.Equal(t, string(policy.GetAllClients), captured.events[0].Tags["op"])
	})

	t.Run("expected failures become breadcrumbs only", func(t *testing.T) {
		r, next, captured := newSentryReporter(t)
		g, _ := newGuard()
		g.Reporter = r

		op := guard.Protect(g, policy.DeleteClient, func(context.Context, guard.Caller, string) (string, error) {
			return "unreachable", nil
		})
		_, err := op(ctx, guard.Caller{UserID: "u-support", Token: "tok-support"}, "x")
		require.Equal(t, guard.KindPermissionDenied, guard.Classify(err))
		require.Equal(t, 1, next.warned)
		require.Empty(t, captured.events)

		r.Report(ctx, errors.New("later failure"))
		require.Len(t, captured.events, 1)
		require.NotEmpty(t, captured.events[0].Breadcrumbs)
		require.Equal(t, "operation denied", captured.events[0].Breadcrumbs[0].Message)
	})

	t.Run("invalid dsn is rejected", func(t *testing.T) {
		_, err := guard.NewSentryReporter(sentry.ClientOptions{Dsn: "not a dsn"}, nil)
		require.Error(t, err)
	})
}
