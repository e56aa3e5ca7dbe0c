package users

import "time"

// User represents a portal account. Role and department together form the
// principal used on every authorization check.
type User struct {
	ID            int64
	Email         string
	Name          string
	RoleID        string
	DepartmentKey string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
