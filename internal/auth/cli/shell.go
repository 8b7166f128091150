package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/guard"
)

func (c *CLI) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: `Start the interactive shell.

Every command of the command line is available without the program name.
The session is checked before each prompt; once it expires you are asked to
log in again.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.RunShell(c.ctx(cmd))
		},
	}
}

// RunShell reads commands until exit or end of input. Command failures are
// printed and never end the loop.
func (c *CLI) RunShell(ctx context.Context) error {
	c.inShell = true
	defer func() { c.inShell = false }()

	c.info("Epic Events shell. Type 'help' for commands, 'exit' to quit.")
	for {
		c.pollSession(ctx)

		fmt.Fprint(c.output(), c.promptLine())
		line, err := c.readLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.output())
			return nil
		}
		if err != nil {
			return err
		}

		args, err := splitArgs(line)
		if err != nil {
			c.printError(ctx, err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			c.info("Already in the shell.")
			continue
		}
		c.runLine(ctx, args)
	}
}

// pollSession is the expiry check run before each prompt.
func (c *CLI) pollSession(ctx context.Context) {
	if !c.app.Session.IsAuthenticated() {
		return
	}
	if !c.app.Auth.Check(ctx, c.app.Session) {
		c.info("Your session has expired, please log in again.")
	}
}

func (c *CLI) promptLine() string {
	id, ok := c.app.Session.Current()
	if !ok {
		return "epicevents> "
	}
	return fmt.Sprintf("epicevents [%s]> ", departmentLabel(id.Department))
}

func (c *CLI) runLine(ctx context.Context, args []string) {
	defer func() {
		if r := recover(); r != nil {
			err := &guard.Error{Kind: guard.KindUnexpected, Op: args[0], Err: fmt.Errorf("panic: %v", r)}
			c.app.Guard.Reporter.Report(ctx, err)
			c.printError(ctx, err)
		}
	}()

	root := c.Command()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		c.printError(ctx, err)
	}
}

// splitArgs splits a shell line on spaces, keeping single or double quoted
// parts together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		started bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			started = true
		case r == ' ' || r == '\t':
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", domain.ErrValidation)
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}
