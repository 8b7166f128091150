package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
)

func TestBootstrapService(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the first manager", func(t *testing.T) {
		f := newFixture(t)
		svc := &BootstrapService{Store: f.store, Hasher: f.hasher}

		done, err := svc.IsBootstrapped(ctx)
		require.NoError(t, err)
		require.False(t, done)

		u, password, err := svc.Bootstrap(ctx, domain.BootstrapData{
			EmployeeNumber: " M001 ",
			CompleteName:   "Alice Manager",
			Email:          "alice@epicevents.test",
			Password:       "initial-password",
		})
		require.NoError(t, err)
		require.Equal(t, "initial-password", password)
		require.Equal(t, "M001", u.EmployeeNumber)
		require.Equal(t, domain.DepartmentManager, u.Department)

		done, err = svc.IsBootstrapped(ctx)
		require.NoError(t, err)
		require.True(t, done)

		_, err = f.auth.Login(ctx, nil, "M001", "initial-password")
		require.NoError(t, err)
	})

	t.Run("generates a password when none is given", func(t *testing.T) {
		f := newFixture(t)
		svc := &BootstrapService{Store: f.store, Hasher: f.hasher}

		_, password, err := svc.Bootstrap(ctx, domain.BootstrapData{
			EmployeeNumber: "M001",
			CompleteName:   "Alice Manager",
			Email:          "alice@epicevents.test",
		})
		require.NoError(t, err)
		require.Len(t, password, 16)

		_, err = f.auth.Login(ctx, nil, "M001", password)
		require.NoError(t, err)
	})

	t.Run("refuses a second bootstrap", func(t *testing.T) {
		f := newFixture(t)
		svc := &BootstrapService{Store: f.store, Hasher: f.hasher}
		f.addUser(t, "E100", "correct horse", domain.DepartmentSupport)

		_, _, err := svc.Bootstrap(ctx, domain.BootstrapData{
			EmployeeNumber: "M001",
			CompleteName:   "Alice Manager",
			Email:          "alice@epicevents.test",
		})
		require.ErrorIs(t, err, ErrBootstrapAlready)

		_, err = f.store.Users().FindByEmployeeNumber(ctx, "M001")
		require.Error(t, err)
	})

	t.Run("requires identity fields", func(t *testing.T) {
		f := newFixture(t)
		svc := &BootstrapService{Store: f.store, Hasher: f.hasher}

		_, _, err := svc.Bootstrap(ctx, domain.BootstrapData{EmployeeNumber: "M001", CompleteName: " "})
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}
