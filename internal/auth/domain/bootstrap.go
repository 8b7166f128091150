package domain

// BootstrapData describes the first manager account created on an empty directory.
type BootstrapData struct {
	EmployeeNumber string
	CompleteName   string
	Email          string
	Password       string // generated when empty
}
