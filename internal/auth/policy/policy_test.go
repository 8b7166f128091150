package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_Table(t *testing.T) {
	p := Default()

	tests := []struct {
		dept    string
		allowed []Action
	}{
		{"manager", AllActions()},
		{"gestion", []Action{
			GetAllClients,
			GetAllContracts, CreateContract, UpdateContract,
			GetAllUsers, CreateUser, UpdateUser, DeleteUser,
			GetAllEvents, UpdateEvent,
		}},
		{"commercial", []Action{
			GetAllClients, CreateClient, UpdateClient,
			GetAllContracts, UpdateContract,
			GetAllEvents, CreateEvent,
		}},
		{"support", []Action{GetAllClients, GetAllContracts, GetAllEvents, UpdateEvent}},
		{DefaultRow, []Action{GetAllClients, GetAllContracts, GetAllEvents}},
	}

	for _, tt := range tests {
		t.Run(tt.dept, func(t *testing.T) {
			require.Equal(t, tt.allowed, p.Allowed(tt.dept))
		})
	}
}

func TestCanPerform(t *testing.T) {
	p := Default()

	t.Run("support cannot delete clients", func(t *testing.T) {
		require.False(t, p.CanPerform("support", DeleteClient))
	})

	t.Run("manager can create users", func(t *testing.T) {
		require.True(t, p.CanPerform("manager", CreateUser))
	})

	t.Run("admin is an alias of manager", func(t *testing.T) {
		for _, a := range AllActions() {
			require.Equal(t, p.CanPerform("manager", a), p.CanPerform("admin", a), "action %s", a)
		}
		require.True(t, p.HasRow("Admin"))
	})

	t.Run("department names are case and space insensitive", func(t *testing.T) {
		require.True(t, p.CanPerform("  Commercial ", CreateClient))
	})

	t.Run("unknown department equals the default row", func(t *testing.T) {
		for _, dept := range []string{"marketing", "", "xyz"} {
			for _, a := range AllActions() {
				require.Equal(t, p.CanPerform(DefaultRow, a), p.CanPerform(dept, a), "dept %q action %s", dept, a)
			}
			require.False(t, p.HasRow(dept))
		}
	})

	t.Run("unknown actions are always denied", func(t *testing.T) {
		for _, dept := range append(p.Departments(), "marketing") {
			require.False(t, p.CanPerform(dept, Action("drop_database")))
			require.False(t, p.CanPerform(dept, Action("")))
		}
	})

	t.Run("nil policy denies", func(t *testing.T) {
		var nilPolicy *Policy
		require.False(t, nilPolicy.CanPerform("manager", GetAllClients))
	})
}

func TestDepartments(t *testing.T) {
	require.Equal(t,
		[]string{"commercial", "gestion", "manager", "support", DefaultRow},
		Default().Departments(),
	)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Delete_Client ")
	require.NoError(t, err)
	require.Equal(t, DeleteClient, a)

	_, err = ParseAction("delete_everything")
	require.Error(t, err)

	require.Len(t, AllActions(), 16)
}

func TestParseAction_ListNames(t *testing.T) {
	tests := []struct {
		name string
		want Action
	}{
		{"get_all_clients", GetAllClients},
		{"get_all_contracts", GetAllContracts},
		{"get_all_users", GetAllUsers},
		{"get_all_events", GetAllEvents},
	}

	p := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAction(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.want, a)
			require.True(t, p.CanPerform("manager", Action(tt.name)))
		})
	}

	_, err := ParseAction("get_all_client")
	require.Error(t, err, "singular list names are not actions")
}

// row renders a YAML department row granting the given actions.
func row(name string, allowed ...Action) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s:\n", name)
	for _, a := range AllActions() {
		grant := false
		for _, g := range allowed {
			if g == a {
				grant = true
			}
		}
		fmt.Fprintf(&b, "    %s: %t\n", a, grant)
	}
	return b.String()
}

func TestParse(t *testing.T) {
	t.Run("minimal valid table", func(t *testing.T) {
		p, err := Parse([]byte("departments:\n" + row(DefaultRow) + row("ops", DeleteEvent)))
		require.NoError(t, err)
		require.True(t, p.CanPerform("ops", DeleteEvent))
		require.False(t, p.CanPerform("ops", GetAllClients))
		require.False(t, p.CanPerform("anyone", GetAllClients))
	})

	tests := []struct {
		name string
		yaml string
	}{
		{"missing default row", "departments:\n" + row("ops")},
		{"incomplete row", "departments:\n" + row(DefaultRow) + "  ops:\n    delete_event: true\n"},
		{"unknown action", "departments:\n" + row(DefaultRow) + strings.Replace(row("ops"), "delete_event", "delete_everything", 1)},
		{"alias to unknown department", "aliases:\n  boss: nobody\ndepartments:\n" + row(DefaultRow)},
		{"alias shadows department", "aliases:\n  ops: default\ndepartments:\n" + row(DefaultRow) + row("ops")},
		{"unknown top level key", "roles: {}\ndepartments:\n" + row(DefaultRow)},
		{"non boolean value", "departments:\n" + strings.Replace(row(DefaultRow), "get_all_clients: false", "get_all_clients: maybe", 1)},
		{"empty document", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidTable)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("departments:\n"+row(DefaultRow, GetAllEvents)), 0o600))

	p, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, []Action{GetAllEvents}, p.Allowed("anyone"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
