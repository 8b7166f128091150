package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/epicevents/internal/auth/service"
)

func (c *CLI) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage employee accounts",
	}
	cmd.AddCommand(
		c.usersListCmd(),
		c.usersCreateCmd(),
		c.usersUpdateCmd(),
		c.usersDeleteCmd(),
	)
	return cmd
}

func (c *CLI) usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every employee",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := c.app.Users.List(c.ctx(cmd), c.caller(), struct{}{})
			if err != nil {
				return err
			}
			if len(users) == 0 {
				c.info("No users.")
				return nil
			}

			t := newTable("Employee", "Name", "Email", "Department", "ID")
			for _, u := range users {
				t.Row(u.EmployeeNumber, u.CompleteName, u.Email, departmentLabel(u.Department.String()), u.ID)
			}
			fmt.Fprintln(c.output(), t.Render())
			return nil
		},
	}
}

func (c *CLI) usersCreateCmd() *cobra.Command {
	var in service.CreateUserInput
	var askPassword bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employee account",
		Long: `Create an employee account.

Without --set-password a random password is generated and shown once.

Examples:
  epicevents users create --employee-number C012 --name "Bob Durand" --email bob@epicevents.com --department commercial`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if askPassword {
				pw, err := c.newPassword("Password: ")
				if err != nil {
					return err
				}
				in.Password = pw
			}

			created, err := c.app.Users.Create(c.ctx(cmd), c.caller(), in)
			if err != nil {
				return err
			}
			c.success("User created.")
			c.field("Employee number", created.User.EmployeeNumber)
			c.field("Department", created.User.Department.String())
			c.field("ID", created.User.ID)
			if !askPassword {
				c.field("Password", created.Password)
				c.info("Give this password to the employee, it will not be shown again.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.EmployeeNumber, "employee-number", "", "employee number used to log in")
	cmd.Flags().StringVar(&in.CompleteName, "name", "", "complete name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Department, "department", "", "commercial, support, gestion or manager")
	cmd.Flags().BoolVar(&askPassword, "set-password", false, "prompt for the password instead of generating one")
	return cmd
}

func (c *CLI) usersUpdateCmd() *cobra.Command {
	var in service.UpdateUserInput

	cmd := &cobra.Command{
		Use:   "update <employee-number|id>",
		Short: "Change an employee's name, email or department",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.User = args[0]
			u, err := c.app.Users.Update(c.ctx(cmd), c.caller(), in)
			if err != nil {
				return err
			}
			c.success("User updated.")
			c.field("Employee number", u.EmployeeNumber)
			c.field("Name", u.CompleteName)
			c.field("Email", u.Email)
			c.field("Department", departmentLabel(u.Department.String()))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.CompleteName, "name", "", "new complete name")
	cmd.Flags().StringVar(&in.Email, "email", "", "new email address")
	cmd.Flags().StringVar(&in.Department, "department", "", "new department")
	return cmd
}

func (c *CLI) usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <employee-number|id>",
		Short: "Delete an employee account",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Users.Delete(c.ctx(cmd), c.caller(), args[0]); err != nil {
				return err
			}
			c.success("User deleted.")
			return nil
		},
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
