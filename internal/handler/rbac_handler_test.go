package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/middleware"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type rbacServiceMock struct {
	filter      models.RoleFilter
	roleID      int64
	roleReq     dto.RoleRequest
	permsReq    dto.RolePermissionsRequest
	assignedTo  string
	assignReq   dto.AssignRoleRequest
	assignCalls int
	err         error
}

func (m *rbacServiceMock) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	return []models.Permission{{ID: 1, Code: models.PermContentRead}}, m.err
}

func (m *rbacServiceMock) ListRoles(ctx context.Context, filter models.RoleFilter) (*models.Page[models.Role], error) {
	m.filter = filter
	return models.NewPage([]models.Role{{ID: 1, Code: "EDITOR"}}, filter.PageNo, 20, 1), m.err
}

func (m *rbacServiceMock) GetRole(ctx context.Context, id int64) (*models.Role, error) {
	m.roleID = id
	if m.err != nil {
		return nil, m.err
	}
	return &models.Role{ID: id, Code: "EDITOR"}, nil
}

func (m *rbacServiceMock) CreateRole(ctx context.Context, req dto.RoleRequest) (*models.Role, error) {
	m.roleReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Role{ID: 2, Code: req.Code, Name: req.Name, Permissions: req.Permissions}, nil
}

func (m *rbacServiceMock) UpdateRole(ctx context.Context, id int64, req dto.RoleRequest) (*models.Role, error) {
	m.roleID, m.roleReq = id, req
	return &models.Role{ID: id, Code: req.Code}, m.err
}

func (m *rbacServiceMock) DeleteRole(ctx context.Context, id int64) error {
	m.roleID = id
	return m.err
}

func (m *rbacServiceMock) SetRolePermissions(ctx context.Context, id int64, req dto.RolePermissionsRequest) (*models.Role, error) {
	m.roleID, m.permsReq = id, req
	return &models.Role{ID: id, Permissions: req.Permissions}, m.err
}

func (m *rbacServiceMock) AssignRole(ctx context.Context, userID string, req dto.AssignRoleRequest) (*models.UserInfo, error) {
	m.assignCalls++
	m.assignedTo, m.assignReq = userID, req
	if m.err != nil {
		return nil, m.err
	}
	return &models.UserInfo{ID: userID, Role: models.UserRole(req.Role)}, nil
}

func TestRBACHandlerCreateRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rbacServiceMock{}
	payload, _ := json.Marshal(dto.RoleRequest{Code: "MAPPER", Name: "Mapper", Permissions: []string{models.PermContentMap}})
	c, w := newGinContext(http.MethodPost, "/roles", payload)

	NewRBACHandler(svc).CreateRole(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "MAPPER", svc.roleReq.Code)
	var role models.Role
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &role))
	assert.Equal(t, []string{models.PermContentMap}, role.Permissions)
}

func TestRBACHandlerDeleteSystemRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rbacServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "system roles cannot be deleted")}
	c, w := newGinContext(http.MethodDelete, "/roles/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	NewRBACHandler(svc).DeleteRole(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, int64(1), svc.roleID)
}

func TestRBACHandlerSetRolePermissions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rbacServiceMock{}
	payload, _ := json.Marshal(dto.RolePermissionsRequest{Permissions: []string{models.PermContentRead, models.PermContentWrite}})
	c, w := newGinContext(http.MethodPut, "/roles/3/permissions", payload)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	NewRBACHandler(svc).SetRolePermissions(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), svc.roleID)
	assert.Len(t, svc.permsReq.Permissions, 2)
}

func TestRBACHandlerAssignRoleRejectsSelf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rbacServiceMock{}
	payload, _ := json.Marshal(dto.AssignRoleRequest{Role: "EDITOR"})
	c, w := newGinContext(http.MethodPut, "/users/u-1/role", payload)
	c.Params = gin.Params{{Key: "id", Value: "u-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleSuperAdmin})

	NewRBACHandler(svc).AssignRole(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, svc.assignCalls)
}

func TestRBACHandlerAssignRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rbacServiceMock{}
	payload, _ := json.Marshal(dto.AssignRoleRequest{Role: "EDITOR"})
	c, w := newGinContext(http.MethodPut, "/users/u-2/role", payload)
	c.Params = gin.Params{{Key: "id", Value: "u-2"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleSuperAdmin})

	NewRBACHandler(svc).AssignRole(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-2", svc.assignedTo)
	assert.Equal(t, "EDITOR", svc.assignReq.Role)
}
