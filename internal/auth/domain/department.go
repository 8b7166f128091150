package domain

import "strings"

// Department is the sole authorization axis: every user belongs to exactly one.
type Department string

const (
	DepartmentCommercial Department = "commercial"
	DepartmentSupport    Department = "support"
	DepartmentGestion    Department = "gestion"
	DepartmentManager    Department = "manager"
)

// Departments lists the departments seeded in the directory.
var Departments = []Department{
	DepartmentCommercial,
	DepartmentSupport,
	DepartmentGestion,
	DepartmentManager,
}

// ParseDepartment normalises a user supplied name. "admin" is the historical
// name of the manager department.
func ParseDepartment(s string) (Department, bool) {
	d := Department(strings.ToLower(strings.TrimSpace(s)))
	if d == "admin" {
		d = DepartmentManager
	}
	for _, known := range Departments {
		if d == known {
			return d, true
		}
	}
	return "", false
}

func (d Department) String() string { return string(d) }
