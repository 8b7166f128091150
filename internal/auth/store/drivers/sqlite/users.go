package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/store"
)

type usersRepo struct {
	q *queries
}

func (r *usersRepo) FindByEmployeeNumber(ctx context.Context, employeeNumber string) (domain.Credential, error) {
	row, err := r.q.GetUserByEmployeeNumber(ctx, employeeNumber)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return mapUser(row).Credential(), nil
}

func (r *usersRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) DepartmentNameOf(ctx context.Context, id string) (string, error) {
	name, err := r.q.GetUserDepartment(ctx, id)
	if err != nil {
		return "", mapNotFound(err)
	}
	return name, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, mapUser(row))
	}
	return users, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	return mapConstraint(r.q.CreateUser(ctx, userRow{
		ID:             u.ID,
		EmployeeNumber: u.EmployeeNumber,
		CompleteName:   u.CompleteName,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Department:     mapStringNull(u.Department.String()),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      now,
	}))
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	n, err := r.q.UpdateUser(ctx, userRow{
		ID:           u.ID,
		CompleteName: u.CompleteName,
		Email:        u.Email,
		Department:   mapStringNull(u.Department.String()),
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return mapConstraint(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	n, err := r.q.UpdateUserPasswordHash(ctx, id, newHash, time.Now().UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	n, err := r.q.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func mapUser(row userRow) domain.User {
	return domain.User{
		ID:             row.ID,
		EmployeeNumber: row.EmployeeNumber,
		CompleteName:   row.CompleteName,
		Email:          row.Email,
		PasswordHash:   row.PasswordHash,
		Department:     domain.Department(mapNullString(row.Department)),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
