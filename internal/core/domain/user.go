package domain

import "time"

// Role is the application-level role of a user. Roles are immutable for the
// lifetime of a session: the token carries the role it was issued with.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleBoard      Role = "BOARD"
	RoleLead       Role = "LEAD"
	RoleConsultant Role = "CONSULTANT"
)

// ValidRole reports whether r is one of the four known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleBoard, RoleLead, RoleConsultant:
		return true
	}
	return false
}

// roleRank orders roles by privilege for minimum-role checks on the KPI
// surface. Higher means more privileged.
var roleRank = map[Role]int{
	RoleConsultant: 1,
	RoleLead:       2,
	RoleBoard:      3,
	RoleAdmin:      4,
}

// AtLeast reports whether r meets the privilege level of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// User models an authenticated actor in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor identifies the requesting user on every service call. It is always
// passed explicitly; no layer infers the caller from ambient state.
type Actor struct {
	UserID int64
	Role   Role
}
