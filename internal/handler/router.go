package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-console/internal/middleware"
	"github.com/noah-isme/content-console/internal/models"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth    *AuthHandler
	Options *OptionHandler
	Content *ContentHandler
	RBAC    *RBACHandler
	Exports *ExportHandler
	Metrics *MetricsHandler
}

// Guards supplies token validation and permission checks for protected routes.
type Guards struct {
	Tokens      middleware.TokenValidator
	Permissions middleware.PermissionChecker
}

// RegisterRoutes mounts the console API under api. Observability endpoints are
// mounted on root.
func RegisterRoutes(root *gin.Engine, api *gin.RouterGroup, h Handlers, g Guards) {
	if h.Metrics != nil {
		root.GET("/health", h.Metrics.Health)
		root.GET("/ready", h.Metrics.Ready)
		root.GET("/metrics", h.Metrics.Prometheus)
	}

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", middleware.JWT(g.Tokens), h.Auth.Me)

	// signed token, no session required
	if h.Exports != nil {
		api.GET("/exports/download/:token", h.Exports.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(g.Tokens))

	read := middleware.RequirePermission(g.Permissions, models.PermContentRead)
	write := middleware.RequirePermission(g.Permissions, models.PermContentWrite)
	mapping := middleware.RequirePermission(g.Permissions, models.PermContentMap)

	options := secured.Group("/options")
	options.GET("/:kind", read, h.Options.List)
	options.GET("/:kind/:id", read, h.Options.Get)

	content := secured.Group("/content/:type")
	content.GET("", read, h.Content.List)
	content.GET("/:id", read, h.Content.Get)
	content.POST("", write, h.Content.Create)
	content.PUT("/:id", write, h.Content.Update)
	content.DELETE("/:id", write, h.Content.Delete)
	content.POST("/:id/duplicate", write, h.Content.Duplicate)
	content.POST("/bulk-delete", write, h.Content.BulkDelete)
	content.POST("/map", mapping, h.Content.Map)
	content.POST("/mapping-status", mapping, h.Content.MappingStatus)

	rbac := secured.Group("")
	rbac.Use(middleware.RequirePermission(g.Permissions, models.PermRBACManage))
	rbac.GET("/permissions", h.RBAC.ListPermissions)
	rbac.GET("/roles", h.RBAC.ListRoles)
	rbac.GET("/roles/:id", h.RBAC.GetRole)
	rbac.POST("/roles", h.RBAC.CreateRole)
	rbac.PUT("/roles/:id", h.RBAC.UpdateRole)
	rbac.DELETE("/roles/:id", h.RBAC.DeleteRole)
	rbac.PUT("/roles/:id/permissions", h.RBAC.SetRolePermissions)
	rbac.PUT("/users/:id/role", h.RBAC.AssignRole)

	if h.Metrics != nil {
		secured.GET("/metrics/summary", middleware.RequirePermission(g.Permissions, models.PermRBACManage), h.Metrics.Snapshot)
	}

	if h.Exports != nil {
		exports := secured.Group("/exports")
		exports.Use(middleware.RequirePermission(g.Permissions, models.PermContentExport))
		exports.POST("", h.Exports.Create)
		exports.GET("/:id", h.Exports.Status)
	}
}
