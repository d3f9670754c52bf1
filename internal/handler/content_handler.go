package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
	"github.com/noah-isme/content-console/pkg/response"
)

type contentService interface {
	List(ctx context.Context, filter models.ContentFilter) (*models.ContentPage, error)
	Get(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentDetail, error)
	Create(ctx context.Context, contentType models.ContentType, req dto.ContentRequest) (*models.ContentDetail, error)
	Update(ctx context.Context, contentType models.ContentType, id int64, req dto.ContentRequest) (*models.ContentDetail, error)
	Delete(ctx context.Context, contentType models.ContentType, id int64) error
	BulkDelete(ctx context.Context, contentType models.ContentType, req dto.BulkIDsRequest) (*dto.BulkResult, error)
	Duplicate(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentDetail, error)
	Map(ctx context.Context, contentType models.ContentType, req models.MapRequest) (*models.MapResult, error)
	MappingStatus(ctx context.Context, contentType models.ContentType, req models.MappingStatusRequest) (*dto.MappingStatusResponse, error)
}

// ContentHandler exposes carousel, card, note and reel endpoints. The content
// type is taken from the :type path segment.
type ContentHandler struct {
	content contentService
}

// NewContentHandler constructs ContentHandler.
func NewContentHandler(content contentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// List godoc
// @Summary List content items
// @Tags Content
// @Produce json
// @Param type path string true "Content type" Enums(carousel, card, note, reel)
// @Param batch_id query int false "Only items mapped to this batch"
// @Param page_no query int false "Zero-based page number"
// @Param page_size query int false "Page size"
// @Param search query string false "Search in title"
// @Param active query bool false "Filter by active state"
// @Param sort_by query string false "Sort column"
// @Param sort_dir query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Router /content/{type} [get]
func (h *ContentHandler) List(c *gin.Context) {
	q := pageQuery(c)
	filter := models.ContentFilter{
		Type:     contentTypeParam(c),
		Search:   q.Search,
		Active:   q.Active,
		PageNo:   q.PageNo,
		PageSize: q.PageSize,
		SortBy:   q.SortBy,
		SortDir:  q.SortDir,
	}
	if raw := c.Query("batch_id"); raw != "" {
		batchID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || batchID <= 0 {
			response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch_id"))
			return
		}
		filter.BatchID = &batchID
	}

	page, err := h.content.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, page)
}

// Get godoc
// @Summary Get content detail with linked batches
// @Tags Content
// @Produce json
// @Param type path string true "Content type"
// @Param id path int true "Content ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{type}/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.content.Get(c.Request.Context(), contentTypeParam(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create content item
// @Tags Content
// @Accept json
// @Produce json
// @Param type path string true "Content type"
// @Param payload body dto.ContentRequest true "Content payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /content/{type} [post]
func (h *ContentHandler) Create(c *gin.Context) {
	var req dto.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid content payload"))
		return
	}
	detail, err := h.content.Create(c.Request.Context(), contentTypeParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update content item
// @Tags Content
// @Accept json
// @Produce json
// @Param type path string true "Content type"
// @Param id path int true "Content ID"
// @Param payload body dto.ContentRequest true "Content payload"
// @Success 200 {object} response.Envelope
// @Router /content/{type}/{id} [put]
func (h *ContentHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid content payload"))
		return
	}
	detail, err := h.content.Update(c.Request.Context(), contentTypeParam(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete content item
// @Tags Content
// @Param type path string true "Content type"
// @Param id path int true "Content ID"
// @Success 204
// @Router /content/{type}/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.content.Delete(c.Request.Context(), contentTypeParam(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Duplicate godoc
// @Summary Duplicate content item with its batch links
// @Tags Content
// @Produce json
// @Param type path string true "Content type"
// @Param id path int true "Content ID"
// @Success 201 {object} response.Envelope
// @Router /content/{type}/{id}/duplicate [post]
func (h *ContentHandler) Duplicate(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.content.Duplicate(c.Request.Context(), contentTypeParam(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// BulkDelete godoc
// @Summary Delete several content items
// @Tags Content
// @Accept json
// @Produce json
// @Param type path string true "Content type"
// @Param payload body dto.BulkIDsRequest true "Selected ids"
// @Success 200 {object} response.Envelope
// @Router /content/{type}/bulk-delete [post]
func (h *ContentHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	result, err := h.content.BulkDelete(c.Request.Context(), contentTypeParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Map godoc
// @Summary Map content items to batches
// @Description Links every listed item to every target batch. Already linked pairs are rejected with 409.
// @Tags Content
// @Accept json
// @Produce json
// @Param type path string true "Content type"
// @Param payload body models.MapRequest true "Mapping payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /content/{type}/map [post]
func (h *ContentHandler) Map(c *gin.Context) {
	var req models.MapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mapping payload"))
		return
	}
	result, err := h.content.Map(c.Request.Context(), contentTypeParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MappingStatus godoc
// @Summary Classify target batches against a selection
// @Tags Content
// @Accept json
// @Produce json
// @Param type path string true "Content type"
// @Param payload body models.MappingStatusRequest true "Selection"
// @Success 200 {object} response.Envelope
// @Router /content/{type}/mapping-status [post]
func (h *ContentHandler) MappingStatus(c *gin.Context) {
	var req models.MappingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mapping status payload"))
		return
	}
	status, err := h.content.MappingStatus(c.Request.Context(), contentTypeParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
