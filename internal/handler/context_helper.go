package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-console/internal/middleware"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// int64Param parses a positive numeric path parameter.
func int64Param(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+name+": "+raw)
	}
	return id, nil
}

// boolQuery returns nil when the parameter is absent or not a boolean.
func boolQuery(c *gin.Context, name string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	default:
		return nil
	}
}

// pageQuery reads the zero-based paging parameters shared by list endpoints.
// Bounds are enforced by the services.
func pageQuery(c *gin.Context) models.PageQuery {
	var q models.PageQuery
	if pageNo, err := strconv.Atoi(c.DefaultQuery("page_no", "0")); err == nil {
		q.PageNo = pageNo
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil {
		q.PageSize = size
	}
	q.Search = c.Query("search")
	q.Active = boolQuery(c, "active")
	q.SortBy = c.Query("sort_by")
	q.SortDir = models.SortDirection(strings.ToUpper(c.Query("sort_dir")))
	return q
}

func contentTypeParam(c *gin.Context) models.ContentType {
	return models.ContentType(strings.ToLower(c.Param("type")))
}
