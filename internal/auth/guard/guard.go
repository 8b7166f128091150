// Package guard enforces the permission policy around privileged operations
// and is the single place where failures are classified for the UI.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/policy"
	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

// Authenticator resolves who a caller is.
type Authenticator interface {
	ResolveUser(ctx context.Context, token string) (domain.User, error)
	DepartmentOf(ctx context.Context, userID string) (string, bool, error)
}

// Caller is the identity claimed by whoever invokes an operation.
type Caller struct {
	UserID string
	Token  string
}

// Operation is the shape of every guarded call.
type Operation[In, Out any] func(ctx context.Context, caller Caller, in In) (Out, error)

type Guard struct {
	Auth     Authenticator
	Policy   *policy.Policy
	Reporter Reporter
}

func New(auth Authenticator, p *policy.Policy, r Reporter) *Guard {
	if r == nil {
		r = LogReporter{}
	}
	return &Guard{Auth: auth, Policy: p, Reporter: r}
}

// Protect wraps op so that every call first authenticates the caller and
// checks action against the policy. A denied call never reaches op. Any
// failure, panics included, comes back as *Error.
func Protect[In, Out any](g *Guard, action policy.Action, op Operation[In, Out]) Operation[In, Out] {
	return wrap(g, action.String(), func(ctx context.Context, dept string) error {
		if !g.Policy.CanPerform(dept, action) {
			if dept == "" {
				dept = policy.DefaultRow
			}
			return fmt.Errorf("%w: %s may not %s", domain.ErrPermissionDenied, dept, action)
		}
		return nil
	}, op)
}

// Authenticated is Protect without the policy check, for operations every
// logged in user may run on their own account.
func Authenticated[In, Out any](g *Guard, name string, op Operation[In, Out]) Operation[In, Out] {
	return wrap(g, name, nil, op)
}

func wrap[In, Out any](
	g *Guard,
	name string,
	authorize func(ctx context.Context, dept string) error,
	op Operation[In, Out],
) Operation[In, Out] {
	return func(ctx context.Context, caller Caller, in In) (out Out, err error) {
		defer func() {
			if r := recover(); r != nil {
				var zero Out
				out = zero
				err = g.fail(ctx, name, fmt.Errorf("panic: %v", r))
			}
		}()

		dept, err := g.identify(ctx, caller)
		if err != nil {
			return out, g.fail(ctx, name, err)
		}
		if authorize != nil {
			if err := authorize(ctx, dept); err != nil {
				return out, g.fail(ctx, name, err)
			}
		}

		ctx = slogx.WithUser(ctx, caller.UserID)
		res, err := op(ctx, caller, in)
		if err != nil {
			return out, g.fail(ctx, name, err)
		}
		return res, nil
	}
}

// identify checks the token and that it belongs to the claimed user, then
// returns the user's department ("" when the link is missing).
func (g *Guard) identify(ctx context.Context, caller Caller) (string, error) {
	if caller.Token == "" {
		return "", domain.ErrNoSession
	}

	u, err := g.Auth.ResolveUser(ctx, caller.Token)
	if err != nil {
		return "", err
	}
	if u.ID != caller.UserID {
		return "", fmt.Errorf("%w: token does not belong to caller", domain.ErrPermissionDenied)
	}

	dept, ok, err := g.Auth.DepartmentOf(ctx, u.ID)
	if err != nil {
		return "", err
	}
	if !ok {
		slogx.FromContext(ctx).Warn("user has no department, applying default row", slog.String("user_id", u.ID))
	}
	return dept, nil
}

// fail classifies err, reports it and returns it as *Error.
func (g *Guard) fail(ctx context.Context, name string, err error) error {
	if ge, ok := err.(*Error); ok {
		return ge
	}

	e := &Error{Kind: Classify(err), Op: name, Err: err}
	switch e.Kind {
	case KindUnexpected:
		g.Reporter.Report(ctx, e)
	case KindPermissionDenied:
		g.Reporter.Warn(ctx, "operation denied", slog.String("op", name), slog.Any("error", err))
	default:
		g.Reporter.Info(ctx, "operation failed", slog.String("op", name), slog.String("kind", e.Kind.String()))
	}
	return e
}
