package models

import "time"

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleTeacher UserRole = "teacher"
	UserRoleStudent UserRole = "student"
	UserRoleParent  UserRole = "parent"
)

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role UserRole) bool {
	switch role {
	case UserRoleAdmin, UserRoleTeacher, UserRoleStudent, UserRoleParent:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Phone        string
	Role         UserRole
	Status       UserStatus
	ParentEmail  *string
	LocationID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the client-facing projection of a User. Password hashes and
// session rows never cross a response boundary; every handler serializes
// users through this type instead of trimming fields per call site.
type PublicUser struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Phone       string  `json:"phone,omitempty"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	ParentEmail *string `json:"parentEmail,omitempty"`
	LocationID  *string `json:"locationId,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Role:        string(u.Role),
		Status:      string(u.Status),
		ParentEmail: u.ParentEmail,
		LocationID:  u.LocationID,
	}
}

// Session is one outstanding refresh token for one device. Only the sha256
// of the token string is stored at rest; the token itself lives with the
// client. A user may hold any number of sessions at once.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash []byte
	IssuedAt         time.Time
	ExpiresAt        time.Time
}
