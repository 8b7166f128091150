// Package cli is the command line front end: a cobra command tree and an
// interactive shell that share one Application per process.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/epicevents/internal/auth/app"
	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/guard"
	"github.com/aussiebroadwan/epicevents/pkg/jwtx"
	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

// CLI holds the process wide state behind every command. The zero value
// reads os.Stdin and writes os.Stdout.
type CLI struct {
	In  io.Reader
	Out io.Writer

	// ReadPassword prompts for a secret. Defaults to a no-echo terminal read,
	// or a plain line read when In is not a terminal.
	ReadPassword func(prompt string) (string, error)

	// Options are passed to app.New.
	Options app.Options

	configPath string
	reader     *bufio.Reader
	app        *app.Application
	inShell    bool
}

// Execute runs one command line and returns the process exit code.
func (c *CLI) Execute(ctx context.Context, args []string) int {
	defer c.Close()

	root := c.Command()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		c.printError(ctx, err)
		return 1
	}
	return 0
}

// Close releases the application, if one was started.
func (c *CLI) Close() {
	if c.app != nil {
		_ = c.app.Close()
		c.app = nil
	}
}

// Command builds a fresh command tree bound to c.
func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "epicevents",
		Short: "Epic Events CRM",
		Long: `epicevents is the command line interface of the Epic Events CRM.

Log in with your employee number, then run commands or start the
interactive shell. Your session lasts until it expires or you log out.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.SetIn(c.input())
	root.SetOut(c.output())
	root.SetErr(c.output())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	})
	if !c.inShell {
		root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: environment only)")
	}

	root.AddCommand(
		c.bootstrapCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.passwdCmd(),
		c.usersCmd(),
		c.policyCmd(),
	)
	if !c.inShell {
		root.AddCommand(c.shellCmd())
	}
	return root
}

// setup starts the application once per process and restores the stored
// session. A stored token that no longer works is dropped quietly.
func (c *CLI) setup(ctx context.Context) error {
	if c.app != nil {
		return nil
	}

	cfg, err := app.LoadConfig(c.configPath)
	if err != nil {
		return setupError{err}
	}
	a, err := app.New(cfg, c.Options)
	if err != nil {
		return setupError{err}
	}
	c.app = a

	ctx = a.Context(ctx)
	if _, err := a.Auth.Restore(ctx, a.Session); err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSession):
		case errors.Is(err, jwtx.ErrExpired):
			c.info("Your session has expired, please log in again.")
		case errors.Is(err, jwtx.ErrInvalid), errors.Is(err, domain.ErrUserNotFound):
			c.info("Your stored session is no longer valid, please log in again.")
		default:
			return err
		}
	}
	return nil
}

// caller is the identity every guarded operation runs as.
func (c *CLI) caller() guard.Caller {
	id, ok := c.app.Session.Current()
	if !ok {
		return guard.Caller{}
	}
	return guard.Caller{UserID: id.UserID, Token: id.Token}
}

func (c *CLI) ctx(cmd *cobra.Command) context.Context {
	return slogx.WithCommand(c.app.Context(cmd.Context()), cmd.CommandPath())
}

func (c *CLI) input() *bufio.Reader {
	if c.reader == nil {
		in := c.In
		if in == nil {
			in = os.Stdin
		}
		c.reader = bufio.NewReader(in)
	}
	return c.reader
}

func (c *CLI) output() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// setupError marks failures to start the application, which are shown as is.
type setupError struct{ err error }

func (e setupError) Error() string { return e.err.Error() }
func (e setupError) Unwrap() error { return e.err }

// exactArgs is cobra.ExactArgs reporting a validation error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s expects %d argument(s), got %d (usage: %s)",
				domain.ErrValidation, cmd.Name(), n, len(args), cmd.UseLine())
		}
		return nil
	}
}
