package auth

import "time"

// Account represents a credentialed portal account together with the role
// and department that form its principal after login.
type Account struct {
	ID            int64
	Email         string
	PasswordHash  string
	RoleID        string
	DepartmentKey string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
