package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-console/internal/middleware"
	"github.com/noah-isme/content-console/internal/models"
	"github.com/noah-isme/content-console/pkg/response"
)

type optionService interface {
	List(ctx context.Context, kind models.OptionKind, q models.PageQuery) (*models.OptionPage, bool, error)
	Get(ctx context.Context, kind models.OptionKind, id int64) (*models.Option, error)
}

// OptionHandler serves the paginated option lists behind the console pickers.
type OptionHandler struct {
	options optionService
}

// NewOptionHandler constructs OptionHandler.
func NewOptionHandler(options optionService) *OptionHandler {
	return &OptionHandler{options: options}
}

// List godoc
// @Summary List options of a kind
// @Description Zero-based page of batches, exams, grades, streams or tags
// @Tags Options
// @Produce json
// @Param kind path string true "Option kind" Enums(batch, exam, grade, stream, tag)
// @Param page_no query int false "Zero-based page number"
// @Param page_size query int false "Page size"
// @Param search query string false "Search term"
// @Param active query bool false "Filter by active state"
// @Param sort_by query string false "Sort column"
// @Param sort_dir query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /options/{kind} [get]
func (h *OptionHandler) List(c *gin.Context) {
	kind := models.OptionKind(strings.ToLower(c.Param("kind")))
	page, cached, err := h.options.List(c.Request.Context(), kind, pageQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.Paged(c, page, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get option by id
// @Tags Options
// @Produce json
// @Param kind path string true "Option kind"
// @Param id path int true "Option ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /options/{kind}/{id} [get]
func (h *OptionHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	option, err := h.options.Get(c.Request.Context(), models.OptionKind(strings.ToLower(c.Param("kind"))), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, option, nil)
}
