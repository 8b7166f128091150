package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/guard"
	"github.com/aussiebroadwan/epicevents/internal/auth/policy"
	"github.com/aussiebroadwan/epicevents/internal/auth/store"
	"github.com/aussiebroadwan/epicevents/pkg/cryptox"
	"github.com/aussiebroadwan/epicevents/pkg/idx"
	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

type CreateUserInput struct {
	EmployeeNumber string `validate:"required,max=32"`
	CompleteName   string `validate:"required,max=200"`
	Email          string `validate:"required,email"`
	Department     string `validate:"required,oneof=commercial support gestion manager admin"`
	Password       string `validate:"omitempty,min=8"` // generated when empty
}

// UpdateUserInput changes the non empty fields of the user identified by
// User, an id or an employee number.
type UpdateUserInput struct {
	User         string `validate:"required"`
	CompleteName string `validate:"omitempty,max=200"`
	Email        string `validate:"omitempty,email"`
	Department   string `validate:"omitempty,oneof=commercial support gestion manager admin"`
}

type ChangePasswordInput struct {
	Current string `validate:"required"`
	New     string `validate:"required,min=8,nefield=Current"`
}

// CreatedUser carries the password actually set, so a generated one can be
// shown once.
type CreatedUser struct {
	User     domain.User
	Password string
}

type UserService struct {
	Store    store.Store
	Hasher   *cryptox.Hasher
	validate *validator.Validate
}

func NewUserService(s store.Store, h *cryptox.Hasher) *UserService {
	return &UserService{Store: s, Hasher: h, validate: validator.New()}
}

// UserOperations are the guarded entry points of UserService. Nothing reaches
// the store without going through the guard.
type UserOperations struct {
	List           guard.Operation[struct{}, []domain.User]
	Create         guard.Operation[CreateUserInput, CreatedUser]
	Update         guard.Operation[UpdateUserInput, domain.User]
	Delete         guard.Operation[string, struct{}]
	ChangePassword guard.Operation[ChangePasswordInput, struct{}]
	Me             guard.Operation[struct{}, domain.User]
}

func (s *UserService) Operations(g *guard.Guard) UserOperations {
	return UserOperations{
		List:           guard.Protect(g, policy.GetAllUsers, s.list),
		Create:         guard.Protect(g, policy.CreateUser, s.create),
		Update:         guard.Protect(g, policy.UpdateUser, s.update),
		Delete:         guard.Protect(g, policy.DeleteUser, s.delete),
		ChangePassword: guard.Authenticated(g, "change_password", s.changePassword),
		Me:             guard.Authenticated(g, "whoami", s.me),
	}
}

func (s *UserService) me(ctx context.Context, caller guard.Caller, _ struct{}) (domain.User, error) {
	u, err := s.Store.Users().FindByID(ctx, caller.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, err
}

func (s *UserService) list(ctx context.Context, _ guard.Caller, _ struct{}) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

func (s *UserService) create(ctx context.Context, _ guard.Caller, in CreateUserInput) (CreatedUser, error) {
	in.EmployeeNumber = strings.TrimSpace(in.EmployeeNumber)
	in.CompleteName = strings.TrimSpace(in.CompleteName)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.ToLower(strings.TrimSpace(in.Department))
	if err := s.validator().Struct(in); err != nil {
		return CreatedUser{}, err
	}
	dept, _ := domain.ParseDepartment(in.Department)

	password := in.Password
	if password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			return CreatedUser{}, err
		}
		password = generated
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return CreatedUser{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:             idx.New().String(),
		EmployeeNumber: in.EmployeeNumber,
		CompleteName:   in.CompleteName,
		Email:          in.Email,
		PasswordHash:   hash,
		Department:     dept,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return CreatedUser{}, mapWriteError(err)
	}

	slogx.FromContext(ctx).Info("user created",
		slog.String("created_id", u.ID),
		slog.String("department", dept.String()),
	)
	return CreatedUser{User: u, Password: password}, nil
}

func (s *UserService) update(ctx context.Context, _ guard.Caller, in UpdateUserInput) (domain.User, error) {
	in.CompleteName = strings.TrimSpace(in.CompleteName)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.ToLower(strings.TrimSpace(in.Department))
	if err := s.validator().Struct(in); err != nil {
		return domain.User{}, err
	}

	u, err := s.lookup(ctx, in.User)
	if err != nil {
		return domain.User{}, mapWriteError(err)
	}
	if in.CompleteName != "" {
		u.CompleteName = in.CompleteName
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Department != "" {
		u.Department, _ = domain.ParseDepartment(in.Department)
	}

	if err := s.Store.Users().UpdateUser(ctx, u); err != nil {
		return domain.User{}, mapWriteError(err)
	}
	slogx.FromContext(ctx).Info("user updated", slog.String("updated_id", u.ID))
	return u, nil
}

// delete removes the user identified by ref, an id or an employee number.
func (s *UserService) delete(ctx context.Context, caller guard.Caller, ref string) (struct{}, error) {
	u, err := s.lookup(ctx, ref)
	if err != nil {
		return struct{}{}, mapWriteError(err)
	}
	if u.ID == caller.UserID {
		return struct{}{}, fmt.Errorf("%w: cannot delete your own account", domain.ErrValidation)
	}
	if err := s.Store.Users().DeleteUser(ctx, u.ID); err != nil {
		return struct{}{}, mapWriteError(err)
	}
	slogx.FromContext(ctx).Info("user deleted", slog.String("deleted_id", u.ID))
	return struct{}{}, nil
}

// lookup finds a user by id, falling back to the employee number.
func (s *UserService) lookup(ctx context.Context, ref string) (domain.User, error) {
	ref = strings.TrimSpace(ref)
	users := s.Store.Users()

	u, err := users.FindByID(ctx, ref)
	if !errors.Is(err, store.ErrNotFound) {
		return u, err
	}
	cred, err := users.FindByEmployeeNumber(ctx, ref)
	if err != nil {
		return domain.User{}, err
	}
	return users.FindByID(ctx, cred.UserID)
}

func (s *UserService) changePassword(ctx context.Context, caller guard.Caller, in ChangePasswordInput) (struct{}, error) {
	if err := s.validator().Struct(in); err != nil {
		return struct{}{}, err
	}

	users := s.Store.Users()
	u, err := users.FindByID(ctx, caller.UserID)
	if err != nil {
		return struct{}{}, mapWriteError(err)
	}
	if err := s.Hasher.Verify(in.Current, u.PasswordHash); err != nil {
		return struct{}{}, domain.ErrInvalidCredentials
	}

	hash, err := s.Hasher.Hash(in.New)
	if err != nil {
		return struct{}{}, fmt.Errorf("hash password: %w", err)
	}
	if err := users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return struct{}{}, mapWriteError(err)
	}
	slogx.FromContext(ctx).Info("password changed")
	return struct{}{}, nil
}

func (s *UserService) validator() *validator.Validate {
	if s.validate == nil {
		s.validate = validator.New()
	}
	return s.validate
}

// mapWriteError turns store failures the user can fix into validation errors.
func mapWriteError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: no such user", domain.ErrValidation)
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%w: employee number or email already in use", domain.ErrValidation)
	case errors.Is(err, store.ErrInvalidReference):
		return fmt.Errorf("%w: unknown department", domain.ErrValidation)
	default:
		return err
	}
}
