package models

import "time"

// Permission codes checked by the API route guards.
const (
	PermContentRead   = "content:read"
	PermContentWrite  = "content:write"
	PermContentMap    = "content:map"
	PermContentExport = "content:export"
	PermRBACManage    = "rbac:manage"
)

// Permission is a named capability that can be granted to roles.
type Permission struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Role groups permissions and is assigned to users by code.
type Role struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	System      bool      `db:"system" json:"system"`
	Permissions []string  `db:"-" json:"permissions"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RolePermission joins a role with a permission code.
type RolePermission struct {
	RoleID int64  `db:"role_id"`
	Code   string `db:"code"`
}

// RoleFilter captures list criteria for roles.
type RoleFilter struct {
	Search   string
	PageNo   int
	PageSize int
}
