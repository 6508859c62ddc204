package domain

// UserRole controls access to administrative operations.
type UserRole string

const (
	RoleMember UserRole = "MEMBER"
	RoleAdmin  UserRole = "ADMIN"
)

// User represents an authenticated person on the platform.
// The affiliate membership (package, upline, balance) lives on Affiliate;
// User carries only identity and credentials.
type User struct {
	UserID       string   `json:"userID"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	AuditFields
}

// IsAdmin reports whether the user may perform administrative actions.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
