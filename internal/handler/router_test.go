package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type staticTokens map[string]*models.JWTClaims

func (s staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type rolePermissions map[models.UserRole][]string

func (r rolePermissions) HasPermission(ctx context.Context, role models.UserRole, perm string) (bool, error) {
	for _, p := range r[role] {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

func newTestRouter(options *optionServiceMock, content *contentServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	RegisterRoutes(r, api, Handlers{
		Auth:    NewAuthHandler(&authServiceMock{}),
		Options: NewOptionHandler(options),
		Content: NewContentHandler(content),
		RBAC:    NewRBACHandler(&rbacServiceMock{}),
		Exports: NewExportHandler(&exportJobServiceMock{}),
		Metrics: NewMetricsHandler(nil, nil),
	}, Guards{
		Tokens: staticTokens{
			"viewer": {UserID: "u-1", Role: "VIEWER"},
			"editor": {UserID: "u-2", Role: "EDITOR"},
		},
		Permissions: rolePermissions{
			"VIEWER": {models.PermContentRead},
			"EDITOR": {models.PermContentRead, models.PermContentWrite, models.PermContentMap},
		},
	})
	return r
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutesRequireToken(t *testing.T) {
	r := newTestRouter(&optionServiceMock{}, &contentServiceMock{})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/options/batch", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/options/batch", "forged").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
}

func TestRoutesEnforcePermissions(t *testing.T) {
	options := &optionServiceMock{page: models.NewPage([]models.Option{{ID: 1}}, 0, 10, 1)}
	content := &contentServiceMock{}
	r := newTestRouter(options, content)

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/options/batch", "viewer").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/api/v1/content/card/3", "viewer").Code)
	assert.False(t, content.deleted)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/v1/roles", "editor").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/v1/exports", "editor").Code)
}

func TestRoutesContentPaths(t *testing.T) {
	content := &contentServiceMock{detail: &models.ContentDetail{ContentItem: models.ContentItem{ID: 8}}}
	r := newTestRouter(&optionServiceMock{}, content)

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/content/reel/8", "editor").Code)
	assert.Equal(t, models.ContentTypeReel, content.contentType)
	assert.Equal(t, int64(8), content.id)

	require.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/v1/content/reel/8/duplicate", "editor").Code)
	assert.Equal(t, int64(8), content.id)
}
