package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
	"github.com/noah-isme/content-console/pkg/response"
)

type rbacService interface {
	ListPermissions(ctx context.Context) ([]models.Permission, error)
	ListRoles(ctx context.Context, filter models.RoleFilter) (*models.Page[models.Role], error)
	GetRole(ctx context.Context, id int64) (*models.Role, error)
	CreateRole(ctx context.Context, req dto.RoleRequest) (*models.Role, error)
	UpdateRole(ctx context.Context, id int64, req dto.RoleRequest) (*models.Role, error)
	DeleteRole(ctx context.Context, id int64) error
	SetRolePermissions(ctx context.Context, id int64, req dto.RolePermissionsRequest) (*models.Role, error)
	AssignRole(ctx context.Context, userID string, req dto.AssignRoleRequest) (*models.UserInfo, error)
}

// RBACHandler exposes role and permission management.
type RBACHandler struct {
	rbac rbacService
}

// NewRBACHandler constructs RBACHandler.
func NewRBACHandler(rbac rbacService) *RBACHandler {
	return &RBACHandler{rbac: rbac}
}

// ListPermissions godoc
// @Summary List permissions
// @Tags RBAC
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /permissions [get]
func (h *RBACHandler) ListPermissions(c *gin.Context) {
	perms, err := h.rbac.ListPermissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perms, nil)
}

// ListRoles godoc
// @Summary List roles
// @Tags RBAC
// @Produce json
// @Param search query string false "Search by code or name"
// @Param page_no query int false "Zero-based page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /roles [get]
func (h *RBACHandler) ListRoles(c *gin.Context) {
	q := pageQuery(c)
	page, err := h.rbac.ListRoles(c.Request.Context(), models.RoleFilter{Search: q.Search, PageNo: q.PageNo, PageSize: q.PageSize})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, page)
}

// GetRole godoc
// @Summary Get role
// @Tags RBAC
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} response.Envelope
// @Router /roles/{id} [get]
func (h *RBACHandler) GetRole(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	role, err := h.rbac.GetRole(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

// CreateRole godoc
// @Summary Create role
// @Tags RBAC
// @Accept json
// @Produce json
// @Param payload body dto.RoleRequest true "Role payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /roles [post]
func (h *RBACHandler) CreateRole(c *gin.Context) {
	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}
	role, err := h.rbac.CreateRole(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, role)
}

// UpdateRole godoc
// @Summary Update role
// @Tags RBAC
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param payload body dto.RoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Router /roles/{id} [put]
func (h *RBACHandler) UpdateRole(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}
	role, err := h.rbac.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

// DeleteRole godoc
// @Summary Delete role
// @Tags RBAC
// @Param id path int true "Role ID"
// @Success 204
// @Router /roles/{id} [delete]
func (h *RBACHandler) DeleteRole(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.rbac.DeleteRole(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetRolePermissions godoc
// @Summary Replace role permissions
// @Tags RBAC
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param payload body dto.RolePermissionsRequest true "Permission codes"
// @Success 200 {object} response.Envelope
// @Router /roles/{id}/permissions [put]
func (h *RBACHandler) SetRolePermissions(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permissions payload"))
		return
	}
	role, err := h.rbac.SetRolePermissions(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

// AssignRole godoc
// @Summary Assign a role to a user
// @Tags RBAC
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.AssignRoleRequest true "Role code"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/role [put]
func (h *RBACHandler) AssignRole(c *gin.Context) {
	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role assignment payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.UserID == c.Param("id") {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cannot change your own role"))
		return
	}
	user, err := h.rbac.AssignRole(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
