package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/content-console/internal/models"
)

// RBACRepository persists roles, permissions and their grants.
type RBACRepository struct {
	db *sqlx.DB
}

// NewRBACRepository constructs an RBACRepository.
func NewRBACRepository(db *sqlx.DB) *RBACRepository {
	return &RBACRepository{db: db}
}

// ListPermissions returns every permission ordered by code.
func (r *RBACRepository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	const query = `SELECT id, code, description, created_at FROM permissions ORDER BY code ASC`
	var perms []models.Permission
	if err := r.db.SelectContext(ctx, &perms, query); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// ExistingPermissionCodes returns which of codes are defined.
func (r *RBACRepository) ExistingPermissionCodes(ctx context.Context, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return []string{}, nil
	}
	var found []string
	if err := r.db.SelectContext(ctx, &found, `SELECT code FROM permissions WHERE code = ANY($1)`, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("lookup permissions: %w", err)
	}
	return found, nil
}

// ListRoles returns a page of roles with their permissions attached.
func (r *RBACRepository) ListRoles(ctx context.Context, filter models.RoleFilter) ([]models.Role, int, error) {
	args := []interface{}{}
	base := "FROM roles WHERE 1=1"
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pageNo := filter.PageNo
	if pageNo < 0 {
		pageNo = 0
	}

	query := fmt.Sprintf("SELECT id, code, name, description, system, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", base, size, pageNo*size)
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

// FindRoleByID fetches a role and its permissions.
func (r *RBACRepository) FindRoleByID(ctx context.Context, id int64) (*models.Role, error) {
	const query = `SELECT id, code, name, description, system, created_at, updated_at FROM roles WHERE id = $1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		return nil, err
	}
	roles := []models.Role{role}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return &roles[0], nil
}

// RoleCodeExists checks whether a role code is taken, optionally excluding one role.
func (r *RBACRepository) RoleCodeExists(ctx context.Context, code string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM roles WHERE code = $1"
	args := []interface{}{code}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check role code: %w", err)
	}
	return true, nil
}

// CreateRole inserts a role and grants its permissions.
func (r *RBACRepository) CreateRole(ctx context.Context, role *models.Role) error {
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create role: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO roles (code, name, description, system, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query, role.Code, role.Name, role.Description, role.System, role.CreatedAt, role.UpdatedAt).Scan(&role.ID); err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	if err := grantPermissions(ctx, tx, role.ID, role.Permissions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create role: %w", err)
	}
	commit = true
	return nil
}

// UpdateRole updates a role's descriptive fields.
func (r *RBACRepository) UpdateRole(ctx context.Context, role *models.Role) error {
	role.UpdatedAt = time.Now().UTC()
	const query = `UPDATE roles SET code = $2, name = $3, description = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, role.ID, role.Code, role.Name, role.Description, role.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteRole removes a role; grants cascade.
func (r *RBACRepository) DeleteRole(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetRolePermissions replaces the permission grants of a role.
func (r *RBACRepository) SetRolePermissions(ctx context.Context, roleID int64, codes []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set role permissions: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}
	if err := grantPermissions(ctx, tx, roleID, codes); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE roles SET updated_at = $2 WHERE id = $1`, roleID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set role permissions: %w", err)
	}
	commit = true
	return nil
}

// PermissionCodesForRole returns the permission codes granted to a role code.
func (r *RBACRepository) PermissionCodesForRole(ctx context.Context, roleCode string) ([]string, error) {
	const query = `SELECT p.code FROM role_permissions rp
JOIN roles ro ON ro.id = rp.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE ro.code = $1 ORDER BY p.code ASC`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, roleCode); err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	return codes, nil
}

func (r *RBACRepository) attachPermissions(ctx context.Context, roles []models.Role) error {
	if len(roles) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(roles))
	for _, role := range roles {
		ids = append(ids, role.ID)
	}
	const query = `SELECT rp.role_id, p.code FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = ANY($1) ORDER BY p.code ASC`
	var grants []models.RolePermission
	if err := r.db.SelectContext(ctx, &grants, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list role grants: %w", err)
	}
	byRole := make(map[int64][]string, len(roles))
	for _, grant := range grants {
		byRole[grant.RoleID] = append(byRole[grant.RoleID], grant.Code)
	}
	for i := range roles {
		roles[i].Permissions = byRole[roles[i].ID]
		if roles[i].Permissions == nil {
			roles[i].Permissions = []string{}
		}
	}
	return nil
}

func grantPermissions(ctx context.Context, tx *sqlx.Tx, roleID int64, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	const query = `INSERT INTO role_permissions (role_id, permission_id)
SELECT $1, id FROM permissions WHERE code = ANY($2) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, roleID, pq.Array(codes)); err != nil {
		return fmt.Errorf("grant role permissions: %w", err)
	}
	return nil
}
