package domain

import "time"

type User struct {
	ID             string
	EmployeeNumber string // unique login identifier
	CompleteName   string
	Email          string
	PasswordHash   string     // argon2id PHC string, bcrypt for accounts created before migration
	Department     Department // empty when the department link is missing
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Credential is the subset of a user needed to check a password.
type Credential struct {
	UserID         string
	EmployeeNumber string
	PasswordHash   string
}

func (u User) Credential() Credential {
	return Credential{
		UserID:         u.ID,
		EmployeeNumber: u.EmployeeNumber,
		PasswordHash:   u.PasswordHash,
	}
}
