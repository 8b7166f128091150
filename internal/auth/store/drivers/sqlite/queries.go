package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type queries struct {
	db DBTX
}

type userRow struct {
	ID             string
	EmployeeNumber string
	CompleteName   string
	Email          string
	PasswordHash   string
	Department     sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const userColumns = `id, employee_number, complete_name, email, password_hash, department, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (userRow, error) {
	var u userRow
	err := row.Scan(
		&u.ID,
		&u.EmployeeNumber,
		&u.CompleteName,
		&u.Email,
		&u.PasswordHash,
		&u.Department,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *queries) GetUserByID(ctx context.Context, id string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmployeeNumber = `SELECT ` + userColumns + ` FROM users WHERE employee_number = ?`

func (q *queries) GetUserByEmployeeNumber(ctx context.Context, employeeNumber string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmployeeNumber, employeeNumber))
}

const getUserDepartment = `
SELECT d.name
FROM users u
JOIN departments d ON d.name = u.department
WHERE u.id = ?`

func (q *queries) GetUserDepartment(ctx context.Context, id string) (string, error) {
	var name string
	err := q.db.QueryRowContext(ctx, getUserDepartment, id).Scan(&name)
	return name, err
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY employee_number`

func (q *queries) ListUsers(ctx context.Context) ([]userRow, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []userRow
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createUser = `
INSERT INTO users (id, employee_number, complete_name, email, password_hash, department, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *queries) CreateUser(ctx context.Context, u userRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		u.ID,
		u.EmployeeNumber,
		u.CompleteName,
		u.Email,
		u.PasswordHash,
		u.Department,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

const updateUser = `
UPDATE users
SET complete_name = ?, email = ?, department = ?, updated_at = ?
WHERE id = ?`

func (q *queries) UpdateUser(ctx context.Context, u userRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUser, u.CompleteName, u.Email, u.Department, u.UpdatedAt, u.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateUserPasswordHash(ctx context.Context, id, hash string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserPasswordHash, hash, now, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

const listDepartments = `SELECT name FROM departments ORDER BY name`

func (q *queries) ListDepartments(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listDepartments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDepartment = `SELECT name FROM departments WHERE name = ?`

func (q *queries) GetDepartment(ctx context.Context, name string) (string, error) {
	var out string
	err := q.db.QueryRowContext(ctx, getDepartment, name).Scan(&out)
	return out, err
}
