package roles

import "time"

// Role is a named bundle of permissions
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Permission is a single grantable capability, scoped to a module
type Permission struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Module   string `json:"module"`
	IsActive bool   `json:"is_active"`
}

// Assignment links a user to a role
type Assignment struct {
	UserID     int64     `json:"user_id"`
	RoleID     int64     `json:"role_id"`
	AssignedBy int64     `json:"assigned_by,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
	IsActive   bool      `json:"is_active"`
}
