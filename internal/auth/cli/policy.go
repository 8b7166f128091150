package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/policy"
)

func (c *CLI) policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the permission table",
	}
	cmd.AddCommand(c.policyShowCmd(), c.policyCheckCmd())
	return cmd
}

func (c *CLI) policyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print which department may perform which action",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			p := c.app.Policy()
			depts := p.Departments()

			t := newTable(append([]string{"Action"}, depts...)...)
			for _, a := range policy.AllActions() {
				row := []string{a.String()}
				for _, d := range depts {
					row = append(row, mark(p.CanPerform(d, a)))
				}
				t.Row(row...)
			}
			fmt.Fprintln(c.output(), t.Render())
			return nil
		},
	}
}

func (c *CLI) policyCheckCmd() *cobra.Command {
	var dept string

	cmd := &cobra.Command{
		Use:   "check <action>",
		Short: "Tell whether a department may perform an action",
		Long: `Tell whether a department may perform an action.

Without --department the department of the logged in user is used.`,
		Args: exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			action, err := policy.ParseAction(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrValidation, err)
			}
			if dept == "" {
				id, ok := c.app.Session.Current()
				if !ok {
					return domain.ErrNoSession
				}
				dept = id.Department
			}

			if c.app.Policy().CanPerform(dept, action) {
				c.success(fmt.Sprintf("%s may %s.", departmentLabel(dept), humanize(action.String())))
			} else {
				c.info(fmt.Sprintf("%s may not %s.", departmentLabel(dept), humanize(action.String())))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dept, "department", "", "department to check")
	return cmd
}

func mark(allowed bool) string {
	if allowed {
		return "yes"
	}
	return "-"
}
