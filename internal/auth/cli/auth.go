package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/service"
)

func (c *CLI) bootstrapCmd() *cobra.Command {
	var data domain.BootstrapData
	var askPassword bool

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first manager account",
		Long: `Create the first manager account on an empty directory.

Without --set-password a random password is generated and shown once.

Examples:
  epicevents bootstrap --employee-number M001 --name "Alice Martin" --email alice@epicevents.com`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := c.ctx(cmd)
			if askPassword {
				pw, err := c.newPassword("Password: ")
				if err != nil {
					return err
				}
				data.Password = pw
			}

			u, password, err := c.app.Bootstrap.Bootstrap(ctx, data)
			if err != nil {
				if errors.Is(err, service.ErrBootstrapAlready) {
					return fmt.Errorf("%w: the directory already has users", domain.ErrValidation)
				}
				return err
			}

			c.success("Manager account created.")
			c.field("Employee number", u.EmployeeNumber)
			c.field("Name", u.CompleteName)
			if !askPassword {
				c.field("Password", password)
				c.info("Write this password down, it will not be shown again.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&data.EmployeeNumber, "employee-number", "", "employee number used to log in")
	cmd.Flags().StringVar(&data.CompleteName, "name", "", "complete name")
	cmd.Flags().StringVar(&data.Email, "email", "", "email address")
	cmd.Flags().BoolVar(&askPassword, "set-password", false, "prompt for the password instead of generating one")
	return cmd
}

func (c *CLI) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [employee-number]",
		Short: "Log in with your employee number",
		Long: `Log in with your employee number and password.

The session is stored locally and reused by every later command until it
expires or you log out. Logging in replaces any previous session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.ctx(cmd)

			number := ""
			if len(args) == 1 {
				number = args[0]
			} else {
				var err error
				if number, err = c.prompt("Employee number: "); err != nil {
					return err
				}
			}
			password, err := c.password("Password: ")
			if err != nil {
				return err
			}

			if _, err := c.app.Auth.Login(ctx, c.app.Session, number, password); err != nil {
				return err
			}
			id, _ := c.app.Session.Current()
			c.success(fmt.Sprintf("Logged in as %s (%s).", strings.TrimSpace(number), departmentLabel(id.Department)))
			return nil
		},
	}
}

func (c *CLI) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Auth.Logout(c.ctx(cmd), c.app.Session); err != nil {
				return err
			}
			c.success("Logged out.")
			return nil
		},
	}
}

func (c *CLI) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.app.Users.Me(c.ctx(cmd), c.caller(), struct{}{})
			if err != nil {
				return err
			}
			c.field("Employee number", u.EmployeeNumber)
			c.field("Name", u.CompleteName)
			c.field("Email", u.Email)
			c.field("Department", departmentLabel(u.Department.String()))
			return nil
		},
	}
}

func (c *CLI) passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Fail before prompting when there is no usable session.
			if _, ok := c.app.Session.Current(); !ok {
				return domain.ErrNoSession
			}

			current, err := c.password("Current password: ")
			if err != nil {
				return err
			}
			next, err := c.newPassword("New password: ")
			if err != nil {
				return err
			}

			in := service.ChangePasswordInput{Current: current, New: next}
			if _, err := c.app.Users.ChangePassword(c.ctx(cmd), c.caller(), in); err != nil {
				return err
			}
			c.success("Password changed.")
			return nil
		},
	}
}

func departmentLabel(dept string) string {
	if dept == "" {
		return "no department"
	}
	return dept
}
