package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
)

// readLine reads one line from the shared input, without the line ending.
func (c *CLI) readLine() (string, error) {
	line, err := c.input().ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt asks for a visible value.
func (c *CLI) prompt(label string) (string, error) {
	fmt.Fprint(c.output(), label)
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password asks for a secret with echo disabled when possible.
func (c *CLI) password(label string) (string, error) {
	if c.ReadPassword != nil {
		return c.ReadPassword(label)
	}

	if f, ok := c.In.(*os.File); ok || c.In == nil {
		if f == nil {
			f = os.Stdin
		}
		fd := int(f.Fd()) // #nosec G115 - file descriptors fit in int
		if term.IsTerminal(fd) {
			fmt.Fprint(c.output(), label)
			secret, err := term.ReadPassword(fd)
			fmt.Fprintln(c.output())
			if err != nil {
				return "", fmt.Errorf("reading password: %w", err)
			}
			return string(secret), nil
		}
	}

	fmt.Fprint(c.output(), label)
	return c.readLine()
}

// newPassword asks for a password twice.
func (c *CLI) newPassword(label string) (string, error) {
	first, err := c.password(label)
	if err != nil {
		return "", err
	}
	second, err := c.password("Repeat " + strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("%w: passwords do not match", domain.ErrValidation)
	}
	return first, nil
}
