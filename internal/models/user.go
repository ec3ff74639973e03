package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// UserStatus marks whether an account may sign in.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// PermissionTable holds boolean flags keyed by module, then action.
type PermissionTable map[string]map[string]bool

// Clone returns a deep copy of the table.
func (p PermissionTable) Clone() PermissionTable {
	if p == nil {
		return nil
	}
	out := make(PermissionTable, len(p))
	for module, actions := range p {
		inner := make(map[string]bool, len(actions))
		for action, allowed := range actions {
			inner[action] = allowed
		}
		out[module] = inner
	}
	return out
}

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	FullName     string             `bson:"full_name" json:"fullName"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Department   string             `bson:"department,omitempty" json:"department,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Status       UserStatus         `bson:"status" json:"status"`
	Permissions  PermissionTable    `bson:"permissions" json:"permissions"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == UserActive
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// CreateUserRequest is an admin request to add a user.
type CreateUserRequest struct {
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	FullName    string          `json:"fullName"`
	Phone       string          `json:"phone"`
	Department  string          `json:"department"`
	Password    string          `json:"password"`
	Role        Role            `json:"role"`
	Status      UserStatus      `json:"status"`
	Permissions PermissionTable `json:"permissions"`
}

// UpdateUserRequest is a partial user update. Empty fields are left alone.
type UpdateUserRequest struct {
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	FullName    string          `json:"fullName"`
	Phone       string          `json:"phone"`
	Department  string          `json:"department"`
	Role        Role            `json:"role"`
	Status      UserStatus      `json:"status"`
	Permissions PermissionTable `json:"permissions"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleStaff:
		return true
	default:
		return false
	}
}

// IsValidUserStatus checks if a status is valid
func IsValidUserStatus(status UserStatus) bool {
	return status == UserActive || status == UserInactive
}
