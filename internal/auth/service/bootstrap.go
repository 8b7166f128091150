package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/store"
	"github.com/aussiebroadwan/epicevents/pkg/cryptox"
	"github.com/aussiebroadwan/epicevents/pkg/idx"
	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

var (
	ErrBootstrapAlready             = errors.New("system already bootstrapped")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create manager account")
)

// BootstrapService creates the first manager on an empty directory. Nothing
// else can create users until someone can log in.
type BootstrapService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the manager described by req and returns it with the
// password that was set, generated when req.Password is empty.
func (s *BootstrapService) Bootstrap(ctx context.Context, req domain.BootstrapData) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	req.EmployeeNumber = strings.TrimSpace(req.EmployeeNumber)
	req.CompleteName = strings.TrimSpace(req.CompleteName)
	req.Email = strings.TrimSpace(req.Email)
	if req.EmployeeNumber == "" || req.CompleteName == "" || req.Email == "" {
		return domain.User{}, "", fmt.Errorf("%w: employee number, name and email are required", domain.ErrValidation)
	}

	password := req.Password
	if password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			return domain.User{}, "", err
		}
		password = generated
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Error("failed to hash manager password", slog.Any("error", err))
		return domain.User{}, "", ErrBootstrapFailedToCreateAdmin
	}

	u := domain.User{
		ID:             idx.New().String(),
		EmployeeNumber: req.EmployeeNumber,
		CompleteName:   req.CompleteName,
		Email:          req.Email,
		PasswordHash:   hash,
		Department:     domain.DepartmentManager,
	}

	// Check and insert in one transaction so two bootstraps cannot both win.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			l.Error("failed to create manager", slog.String("user_id", u.ID), slog.Any("error", err))
			return ErrBootstrapFailedToCreateAdmin
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) {
			l.Warn("attempted bootstrap on already-bootstrapped system")
		}
		return domain.User{}, "", err
	}

	l.Info("successfully bootstrapped system", slog.String("user_id", u.ID))
	return u, password, nil
}
