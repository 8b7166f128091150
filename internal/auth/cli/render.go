package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/guard"
	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(16)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

func (c *CLI) info(msg string) {
	fmt.Fprintln(c.output(), infoStyle.Render(msg))
}

func (c *CLI) success(msg string) {
	fmt.Fprintln(c.output(), successStyle.Render(msg))
}

func (c *CLI) field(label, value string) {
	fmt.Fprintln(c.output(), labelStyle.Render(label)+value)
}

// printError shows err the way the user should see it. Unexpected failures
// that did not come through the guard are reported here.
func (c *CLI) printError(ctx context.Context, err error) {
	err = usageError(err)
	msg, style := describe(err)
	fmt.Fprintln(c.output(), style.Render(msg))

	var ge *guard.Error
	var se setupError
	if guard.Classify(err) != guard.KindUnexpected || errors.As(err, &ge) || errors.As(err, &se) {
		return
	}
	if c.app != nil {
		c.app.Guard.Reporter.Report(ctx, &guard.Error{Kind: guard.KindUnexpected, Err: err})
		return
	}
	slogx.FromContext(ctx).Error("command failed", slog.Any("error", err))
}

// usageError turns cobra's unknown command error into a validation error.
func usageError(err error) error {
	if strings.HasPrefix(err.Error(), "unknown command ") {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return err
}

// describe maps err onto the message and style shown to the user.
func describe(err error) (string, lipgloss.Style) {
	var se setupError
	if errors.As(err, &se) {
		return "Cannot start: " + se.err.Error(), errorStyle
	}

	var ge *guard.Error
	isGuarded := errors.As(err, &ge)

	switch kind := guard.Classify(err); kind {
	case guard.KindInvalidCredentials:
		if errors.Is(err, domain.ErrTooManyAttempts) {
			return "Too many login attempts, please wait a minute and try again.", errorStyle
		}
		return "Invalid employee number or password.", errorStyle
	case guard.KindExpiredToken:
		return "Your session has expired, please log in again.", warnStyle
	case guard.KindInvalidToken:
		if errors.Is(err, domain.ErrNoSession) {
			return "You are not logged in. Run 'login <employee-number>' first.", warnStyle
		}
		return "Your session is not valid, please log in again.", warnStyle
	case guard.KindUserNotFound:
		return "Your account no longer exists, please log in again.", errorStyle
	case guard.KindPermissionDenied:
		if isGuarded {
			return fmt.Sprintf("Permission denied: your department may not %s.", humanize(ge.Op)), errorStyle
		}
		return "Permission denied.", errorStyle
	case guard.KindValidation:
		return "Invalid input: " + validationDetail(err), warnStyle
	default:
		return "An unexpected error occurred. It has been reported.", errorStyle
	}
}

// validationDetail extracts what the user typed wrong.
func validationDetail(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve))
		for _, fe := range ve {
			parts = append(parts, fieldProblem(fe))
		}
		return strings.Join(parts, "; ")
	}

	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

func fieldProblem(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "nefield":
		return field + " must differ from the current one"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// humanize turns an action name like "delete_user" into "delete user".
func humanize(op string) string {
	return strings.ReplaceAll(op, "_", " ")
}
