package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/store"
	"github.com/aussiebroadwan/epicevents/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/epicevents/pkg/idx"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(number string, dept domain.Department) domain.User {
	return domain.User{
		ID:             idx.New().String(),
		EmployeeNumber: number,
		CompleteName:   "Employee " + number,
		Email:          number + "@epicevents.test",
		PasswordHash:   "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Department:     dept,
	}
}

func TestStore_Migrations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyMigrations(), "re-applying is a no-op")
	require.NoError(t, s.Ping(ctx))

	depts, err := s.Departments().ListDepartments(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, domain.Departments, depts)

	_, err = s.Departments().GetDepartment(ctx, "marketing")
	require.ErrorIs(t, err, store.ErrNotFound)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}

func TestUsers_Directory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	users := s.Users()

	u := newUser("E001", domain.DepartmentSupport)
	require.NoError(t, users.CreateUser(ctx, u))

	t.Run("find by employee number", func(t *testing.T) {
		cred, err := users.FindByEmployeeNumber(ctx, "E001")
		require.NoError(t, err)
		require.Equal(t, u.ID, cred.UserID)
		require.Equal(t, u.PasswordHash, cred.PasswordHash)

		_, err = users.FindByEmployeeNumber(ctx, "E999")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("find by id", func(t *testing.T) {
		got, err := users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.EmployeeNumber, got.EmployeeNumber)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, domain.DepartmentSupport, got.Department)
		require.False(t, got.CreatedAt.IsZero())

		_, err = users.FindByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("department name", func(t *testing.T) {
		name, err := users.DepartmentNameOf(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "support", name)

		_, err = users.DepartmentNameOf(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("missing department link", func(t *testing.T) {
		orphan := newUser("E002", "")
		require.NoError(t, users.CreateUser(ctx, orphan))

		_, err := users.DepartmentNameOf(ctx, orphan.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err := users.FindByID(ctx, orphan.ID)
		require.NoError(t, err)
		require.Empty(t, got.Department)
	})
}

func TestUsers_Constraints(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	users := s.Users()

	require.NoError(t, users.CreateUser(ctx, newUser("E001", domain.DepartmentManager)))

	t.Run("duplicate employee number", func(t *testing.T) {
		dup := newUser("E001", domain.DepartmentManager)
		dup.Email = "other@epicevents.test"
		require.ErrorIs(t, users.CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := newUser("E003", domain.DepartmentManager)
		dup.Email = "E001@epicevents.test"
		require.ErrorIs(t, users.CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("unknown department", func(t *testing.T) {
		err := users.CreateUser(ctx, newUser("E004", "marketing"))
		require.ErrorIs(t, err, store.ErrInvalidReference)
	})
}

func TestUsers_Mutations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	users := s.Users()

	a := newUser("E010", domain.DepartmentCommercial)
	b := newUser("E002", domain.DepartmentGestion)
	require.NoError(t, users.CreateUser(ctx, a))
	require.NoError(t, users.CreateUser(ctx, b))

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "E002", list[0].EmployeeNumber, "ordered by employee number")

	a.CompleteName = "Renamed"
	a.Department = domain.DepartmentSupport
	require.NoError(t, users.UpdateUser(ctx, a))
	got, err := users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.CompleteName)
	require.Equal(t, domain.DepartmentSupport, got.Department)

	require.NoError(t, users.UpdatePasswordHash(ctx, a.ID, "$2b$new"))
	cred, err := users.FindByEmployeeNumber(ctx, a.EmployeeNumber)
	require.NoError(t, err)
	require.Equal(t, "$2b$new", cred.PasswordHash)

	require.NoError(t, users.DeleteUser(ctx, a.ID))
	require.ErrorIs(t, users.DeleteUser(ctx, a.ID), store.ErrNotFound)
	require.ErrorIs(t, users.UpdateUser(ctx, a), store.ErrNotFound)
	require.ErrorIs(t, users.UpdatePasswordHash(ctx, a.ID, "x"), store.ErrNotFound)

	_, err = users.FindByID(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_WithTx(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, newUser("E001", domain.DepartmentManager)))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty, "rolled back")

	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, newUser("E001", domain.DepartmentManager))
	})
	require.NoError(t, err)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty, "committed")
}
