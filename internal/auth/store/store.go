package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
)

var (
	ErrNotFound         = errors.New("store: not found")
	ErrAlreadyExists    = errors.New("store: already exists")
	ErrInvalidReference = errors.New("store: invalid reference")
)

// Store is the root data access interface. Drivers expose sub-repositories
// rather than flat methods so a Tx can hand out the same repos scoped to the
// transaction.
type Store interface {
	Users() Users
	Departments() Departments

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST call Commit() or
	// Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Directory is the read-only view of users the authentication core relies
// on. The core never writes through it.
type Directory interface {
	// FindByEmployeeNumber returns the credential for a login, ErrNotFound if
	// nobody has that number.
	FindByEmployeeNumber(ctx context.Context, employeeNumber string) (domain.Credential, error)

	// FindByID returns a user, ErrNotFound once deleted.
	FindByID(ctx context.Context, id string) (domain.User, error)

	// DepartmentNameOf returns the department name, ErrNotFound when the user
	// or the department link is missing.
	DepartmentNameOf(ctx context.Context, id string) (string, error)
}

// Users is the full user repository used by administration commands.
type Users interface {
	Directory

	// ListUsers returns every user ordered by employee number.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// ErrAlreadyExists on a duplicate employee number or email,
	// ErrInvalidReference on an unknown department.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser rewrites name, email and department and bumps updated_at.
	UpdateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error

	// DeleteUser removes a user, ErrNotFound if there was none.
	DeleteUser(ctx context.Context, id string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Departments interface {
	ListDepartments(ctx context.Context) ([]domain.Department, error)

	// GetDepartment returns ErrNotFound for names not seeded in the directory.
	GetDepartment(ctx context.Context, name string) (domain.Department, error)
}
