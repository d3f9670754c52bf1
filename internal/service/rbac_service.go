package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type rbacRepository interface {
	ListPermissions(ctx context.Context) ([]models.Permission, error)
	ExistingPermissionCodes(ctx context.Context, codes []string) ([]string, error)
	ListRoles(ctx context.Context, filter models.RoleFilter) ([]models.Role, int, error)
	FindRoleByID(ctx context.Context, id int64) (*models.Role, error)
	RoleCodeExists(ctx context.Context, code string, excludeID int64) (bool, error)
	CreateRole(ctx context.Context, role *models.Role) error
	UpdateRole(ctx context.Context, role *models.Role) error
	DeleteRole(ctx context.Context, id int64) error
	SetRolePermissions(ctx context.Context, roleID int64, codes []string) error
	PermissionCodesForRole(ctx context.Context, roleCode string) ([]string, error)
}

type roleUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

const rbacCachePrefix = "rbac:role"

// RBACService manages roles and answers permission checks for the route guards.
type RBACService struct {
	repo      rbacRepository
	users     roleUserRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewRBACService constructs an RBACService.
func NewRBACService(repo rbacRepository, users roleUserRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *RBACService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RBACService{repo: repo, users: users, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// HasPermission reports whether role grants perm. SUPERADMIN is granted everything.
func (s *RBACService) HasPermission(ctx context.Context, role models.UserRole, perm string) (bool, error) {
	if role == models.RoleSuperAdmin {
		return true, nil
	}
	if role == "" {
		return false, nil
	}
	codes, err := s.permissionsFor(ctx, string(role))
	if err != nil {
		return false, err
	}
	for _, code := range codes {
		if code == perm {
			return true, nil
		}
	}
	return false, nil
}

func (s *RBACService) permissionsFor(ctx context.Context, roleCode string) ([]string, error) {
	codes, _, err := readThrough(ctx, s.cache, cacheKey(rbacCachePrefix, roleCode), s.cacheTTL, func() ([]string, error) {
		codes, err := s.repo.PermissionCodesForRole(ctx, roleCode)
		if err != nil {
			return nil, err
		}
		if codes == nil {
			codes = []string{}
		}
		return codes, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role permissions")
	}
	return codes, nil
}

// ListPermissions returns every permission.
func (s *RBACService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list permissions")
	}
	return perms, nil
}

// ListRoles returns a page of roles with their permission codes.
func (s *RBACService) ListRoles(ctx context.Context, filter models.RoleFilter) (*models.Page[models.Role], error) {
	q := models.PageQuery{PageNo: filter.PageNo, PageSize: filter.PageSize, Search: filter.Search}.Normalize(20, 100)
	filter.PageNo, filter.PageSize, filter.Search = q.PageNo, q.PageSize, q.Search
	roles, total, err := s.repo.ListRoles(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return models.NewPage(roles, filter.PageNo, filter.PageSize, total), nil
}

// GetRole returns one role.
func (s *RBACService) GetRole(ctx context.Context, id int64) (*models.Role, error) {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, fmt.Sprintf("role %d not found", id), "failed to load role")
	}
	return role, nil
}

// CreateRole validates and stores a role with its permissions.
func (s *RBACService) CreateRole(ctx context.Context, req dto.RoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	code := normalizeRoleCode(req.Code)
	if err := s.checkRoleCode(ctx, code, 0); err != nil {
		return nil, err
	}
	perms, err := s.checkPermissions(ctx, req.Permissions)
	if err != nil {
		return nil, err
	}
	role := &models.Role{Code: code, Name: strings.TrimSpace(req.Name), Description: req.Description, Permissions: perms}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create role")
	}
	s.logger.Info("role created", zap.String("code", role.Code), zap.Strings("permissions", perms))
	return role, nil
}

// UpdateRole renames a role. System roles keep their code.
func (s *RBACService) UpdateRole(ctx context.Context, id int64, req dto.RoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	code := normalizeRoleCode(req.Code)
	if role.System && code != role.Code {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "system role codes cannot be changed")
	}
	if code != role.Code {
		if err := s.checkRoleCode(ctx, code, id); err != nil {
			return nil, err
		}
		if n, err := s.users.CountByRole(ctx, models.UserRole(role.Code)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count role users")
		} else if n > 0 {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("role %s is assigned to %d user(s)", role.Code, n))
		}
	}
	oldCode := role.Code
	role.Code = code
	role.Name = strings.TrimSpace(req.Name)
	role.Description = req.Description
	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return nil, notFoundOrInternal(err, fmt.Sprintf("role %d not found", id), "failed to update role")
	}
	if req.Permissions != nil {
		if _, err := s.SetRolePermissions(ctx, id, dto.RolePermissionsRequest{Permissions: req.Permissions}); err != nil {
			return nil, err
		}
	}
	s.invalidate(ctx, oldCode, code)
	return s.GetRole(ctx, id)
}

// DeleteRole removes a role that is neither a system role nor assigned to users.
func (s *RBACService) DeleteRole(ctx context.Context, id int64) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.System {
		return appErrors.Clone(appErrors.ErrForbidden, "system roles cannot be deleted")
	}
	n, err := s.users.CountByRole(ctx, models.UserRole(role.Code))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count role users")
	}
	if n > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("role %s is assigned to %d user(s)", role.Code, n))
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return notFoundOrInternal(err, fmt.Sprintf("role %d not found", id), "failed to delete role")
	}
	s.invalidate(ctx, role.Code)
	s.logger.Info("role deleted", zap.String("code", role.Code))
	return nil
}

// SetRolePermissions replaces the permissions granted to a role.
func (s *RBACService) SetRolePermissions(ctx context.Context, id int64, req dto.RolePermissionsRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permissions payload")
	}
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := s.checkPermissions(ctx, req.Permissions)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRolePermissions(ctx, id, perms); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role permissions")
	}
	s.invalidate(ctx, role.Code)
	s.logger.Info("role permissions replaced", zap.String("code", role.Code), zap.Strings("permissions", perms))
	role.Permissions = perms
	return role, nil
}

// AssignRole sets a user's role code.
func (s *RBACService) AssignRole(ctx context.Context, userID string, req dto.AssignRoleRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role assignment")
	}
	code := normalizeRoleCode(req.Role)
	if models.UserRole(code) != models.RoleSuperAdmin {
		exists, err := s.repo.RoleCodeExists(ctx, code, 0)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check role")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %s", code))
		}
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrInternal(err, "user not found", "failed to load user")
	}
	if err := s.users.UpdateRole(ctx, userID, models.UserRole(code)); err != nil {
		return nil, notFoundOrInternal(err, "user not found", "failed to assign role")
	}
	s.logger.Info("role assigned", zap.String("user_id", userID), zap.String("role", code))
	return &models.UserInfo{ID: user.ID, Email: user.Email, FullName: user.FullName, Role: models.UserRole(code)}, nil
}

func (s *RBACService) checkRoleCode(ctx context.Context, code string, excludeID int64) error {
	if models.UserRole(code) == models.RoleSuperAdmin {
		return appErrors.Clone(appErrors.ErrConflict, "role code SUPERADMIN is reserved")
	}
	exists, err := s.repo.RoleCodeExists(ctx, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check role code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("role code %s already exists", code))
	}
	return nil
}

// checkPermissions dedups codes and fails on unknown ones.
func (s *RBACService) checkPermissions(ctx context.Context, codes []string) ([]string, error) {
	seen := make(map[string]struct{}, len(codes))
	unique := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if _, ok := seen[code]; ok || code == "" {
			continue
		}
		seen[code] = struct{}{}
		unique = append(unique, code)
	}
	sort.Strings(unique)
	if len(unique) == 0 {
		return unique, nil
	}
	found, err := s.repo.ExistingPermissionCodes(ctx, unique)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check permissions")
	}
	have := make(map[string]struct{}, len(found))
	for _, code := range found {
		have[code] = struct{}{}
	}
	var unknown []string
	for _, code := range unique {
		if _, ok := have[code]; !ok {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown permissions: "+strings.Join(unknown, ", "))
	}
	return unique, nil
}

func (s *RBACService) invalidate(ctx context.Context, codes ...string) {
	keys := make([]string, 0, len(codes))
	for _, code := range codes {
		keys = append(keys, cacheKey(rbacCachePrefix, code))
	}
	_ = s.cache.Delete(ctx, keys...)
}

func normalizeRoleCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
