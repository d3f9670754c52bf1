package dto

// RoleRequest creates or updates a role.
type RoleRequest struct {
	Code        string   `json:"code" validate:"required,max=64"`
	Name        string   `json:"name" validate:"required,max=120"`
	Description *string  `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty" validate:"omitempty,dive,required"`
}

// RolePermissionsRequest replaces the permission set of a role.
type RolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// AssignRoleRequest assigns a role code to a user.
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
