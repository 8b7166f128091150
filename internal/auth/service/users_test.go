package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/guard"
	"github.com/aussiebroadwan/epicevents/internal/auth/policy"
	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

// login returns a Caller for a freshly created user of dept.
func (f *fixture) login(t *testing.T, number string, dept domain.Department) guard.Caller {
	t.Helper()
	u := f.addUser(t, number, "password-"+number, dept)
	token, err := f.auth.Login(context.Background(), nil, number, "password-"+number)
	require.NoError(t, err)
	return guard.Caller{UserID: u.ID, Token: token}
}

func newUserOps(f *fixture) UserOperations {
	g := guard.New(f.auth, policy.Default(), guard.LogReporter{Logger: slogx.Discard()})
	return NewUserService(f.store, f.hasher).Operations(g)
}

func TestUserOperations_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ops := newUserOps(f)

	tests := []struct {
		dept    domain.Department
		allowed bool
	}{
		{domain.DepartmentManager, true},
		{domain.DepartmentGestion, true},
		{domain.DepartmentCommercial, false},
		{domain.DepartmentSupport, false},
	}
	for i, tc := range tests {
		t.Run(tc.dept.String(), func(t *testing.T) {
			caller := f.login(t, "A"+string(rune('0'+i)), tc.dept)

			users, err := ops.List(ctx, caller, struct{}{})
			if tc.allowed {
				require.NoError(t, err)
				require.NotEmpty(t, users)
				return
			}
			require.Nil(t, users)
			require.ErrorIs(t, err, domain.ErrPermissionDenied)
			require.Equal(t, guard.KindPermissionDenied, guard.Classify(err))
		})
	}
}

func TestUserOperations_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ops := newUserOps(f)
	manager := f.login(t, "M001", domain.DepartmentManager)

	t.Run("creates a user who can log in", func(t *testing.T) {
		created, err := ops.Create(ctx, manager, CreateUserInput{
			EmployeeNumber: "C001",
			CompleteName:   "Carol Commercial",
			Email:          "carol@epicevents.test",
			Department:     "Commercial",
		})
		require.NoError(t, err)
		require.Equal(t, domain.DepartmentCommercial, created.User.Department)
		require.Len(t, created.Password, 16)

		_, err = f.auth.Login(ctx, nil, "C001", created.Password)
		require.NoError(t, err)
	})

	t.Run("admin is accepted as manager", func(t *testing.T) {
		created, err := ops.Create(ctx, manager, CreateUserInput{
			EmployeeNumber: "M002",
			CompleteName:   "Second Manager",
			Email:          "m2@epicevents.test",
			Department:     "admin",
			Password:       "long-enough",
		})
		require.NoError(t, err)
		require.Equal(t, domain.DepartmentManager, created.User.Department)
	})

	t.Run("invalid input", func(t *testing.T) {
		cases := map[string]CreateUserInput{
			"bad email":        {EmployeeNumber: "X1", CompleteName: "X", Email: "nope", Department: "support"},
			"unknown dept":     {EmployeeNumber: "X2", CompleteName: "X", Email: "x2@e.test", Department: "marketing"},
			"short password":   {EmployeeNumber: "X3", CompleteName: "X", Email: "x3@e.test", Department: "support", Password: "short"},
			"missing number":   {CompleteName: "X", Email: "x4@e.test", Department: "support"},
			"duplicate number": {EmployeeNumber: "C001", CompleteName: "X", Email: "x5@e.test", Department: "support"},
			"duplicate email":  {EmployeeNumber: "X6", CompleteName: "X", Email: "carol@epicevents.test", Department: "support"},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := ops.Create(ctx, manager, in)
				require.Error(t, err)
				require.Equal(t, guard.KindValidation, guard.Classify(err))
			})
		}
	})
}

func TestUserOperations_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ops := newUserOps(f)
	gestion := f.login(t, "G001", domain.DepartmentGestion)
	target := f.addUser(t, "S001", "password-s", domain.DepartmentSupport)

	updated, err := ops.Update(ctx, gestion, UpdateUserInput{User: target.ID, Department: "commercial"})
	require.NoError(t, err)
	require.Equal(t, domain.DepartmentCommercial, updated.Department)
	require.Equal(t, target.Email, updated.Email)

	dept, ok, err := f.auth.DepartmentOf(ctx, target.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "commercial", dept)

	_, err = ops.Update(ctx, gestion, UpdateUserInput{User: "missing", CompleteName: "Nobody"})
	require.Equal(t, guard.KindValidation, guard.Classify(err))

	_, err = ops.Delete(ctx, gestion, gestion.UserID)
	require.Equal(t, guard.KindValidation, guard.Classify(err), "cannot delete yourself")

	renamed, err := ops.Update(ctx, gestion, UpdateUserInput{User: "S001", CompleteName: "Sam Renamed"})
	require.NoError(t, err, "employee numbers work as references")
	require.Equal(t, target.ID, renamed.ID)
	require.Equal(t, "Sam Renamed", renamed.CompleteName)

	_, err = ops.Delete(ctx, gestion, "G001")
	require.Equal(t, guard.KindValidation, guard.Classify(err), "cannot delete yourself by number either")

	_, err = ops.Delete(ctx, gestion, target.ID)
	require.NoError(t, err)
	_, err = f.store.Users().FindByID(ctx, target.ID)
	require.Error(t, err)

	_, err = ops.Delete(ctx, gestion, target.ID)
	require.Equal(t, guard.KindValidation, guard.Classify(err))
}

func TestUserOperations_Me(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ops := newUserOps(f)
	support := f.login(t, "S001", domain.DepartmentSupport)

	me, err := ops.Me(ctx, support, struct{}{})
	require.NoError(t, err)
	require.Equal(t, "S001", me.EmployeeNumber)

	require.NoError(t, f.store.Users().DeleteUser(ctx, support.UserID))
	_, err = ops.Me(ctx, support, struct{}{})
	require.Equal(t, guard.KindUserNotFound, guard.Classify(err))
}

func TestUserOperations_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ops := newUserOps(f)
	support := f.login(t, "S001", domain.DepartmentSupport)

	_, err := ops.ChangePassword(ctx, support, ChangePasswordInput{Current: "wrong", New: "brand-new-password"})
	require.Equal(t, guard.KindInvalidCredentials, guard.Classify(err))

	_, err = ops.ChangePassword(ctx, support, ChangePasswordInput{Current: "password-S001", New: "short"})
	require.Equal(t, guard.KindValidation, guard.Classify(err))

	_, err = ops.ChangePassword(ctx, support, ChangePasswordInput{Current: "password-S001", New: "brand-new-password"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, nil, "S001", "password-S001")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, nil, "S001", "brand-new-password")
	require.NoError(t, err)
}
