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
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type contentServiceMock struct {
	filter      models.ContentFilter
	contentType models.ContentType
	id          int64
	mapReq      models.MapRequest
	statusReq   models.MappingStatusRequest
	bulkReq     dto.BulkIDsRequest
	detail      *models.ContentDetail
	mapResult   *models.MapResult
	err         error
	deleted     bool
}

func (m *contentServiceMock) List(ctx context.Context, filter models.ContentFilter) (*models.ContentPage, error) {
	m.filter = filter
	if m.err != nil {
		return nil, m.err
	}
	return models.NewPage([]models.ContentItem{{ID: 1, Title: "Hero", Type: filter.Type}}, filter.PageNo, 20, 1), nil
}

func (m *contentServiceMock) Get(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentDetail, error) {
	m.contentType, m.id = contentType, id
	return m.detail, m.err
}

func (m *contentServiceMock) Create(ctx context.Context, contentType models.ContentType, req dto.ContentRequest) (*models.ContentDetail, error) {
	m.contentType = contentType
	if m.err != nil {
		return nil, m.err
	}
	return &models.ContentDetail{ContentItem: models.ContentItem{ID: 10, Title: req.Title, Type: contentType}}, nil
}

func (m *contentServiceMock) Update(ctx context.Context, contentType models.ContentType, id int64, req dto.ContentRequest) (*models.ContentDetail, error) {
	m.contentType, m.id = contentType, id
	if m.err != nil {
		return nil, m.err
	}
	return &models.ContentDetail{ContentItem: models.ContentItem{ID: id, Title: req.Title}}, nil
}

func (m *contentServiceMock) Delete(ctx context.Context, contentType models.ContentType, id int64) error {
	m.contentType, m.id, m.deleted = contentType, id, true
	return m.err
}

func (m *contentServiceMock) BulkDelete(ctx context.Context, contentType models.ContentType, req dto.BulkIDsRequest) (*dto.BulkResult, error) {
	m.bulkReq = req
	return &dto.BulkResult{Requested: len(req.IDs), Affected: len(req.IDs)}, m.err
}

func (m *contentServiceMock) Duplicate(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentDetail, error) {
	m.id = id
	return &models.ContentDetail{ContentItem: models.ContentItem{ID: id + 100}}, m.err
}

func (m *contentServiceMock) Map(ctx context.Context, contentType models.ContentType, req models.MapRequest) (*models.MapResult, error) {
	m.contentType, m.mapReq = contentType, req
	if m.err != nil {
		return nil, m.err
	}
	return m.mapResult, nil
}

func (m *contentServiceMock) MappingStatus(ctx context.Context, contentType models.ContentType, req models.MappingStatusRequest) (*dto.MappingStatusResponse, error) {
	m.statusReq = req
	return &dto.MappingStatusResponse{SourceCount: len(req.ItemIDs)}, m.err
}

func TestContentHandlerListFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &contentServiceMock{}
	c, w := newGinContext(http.MethodGet, "/content/reel?batch_id=4&page_no=2&search=intro&active=false", nil)
	c.Params = gin.Params{{Key: "type", Value: "reel"}}

	NewContentHandler(svc).List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ContentTypeReel, svc.filter.Type)
	require.NotNil(t, svc.filter.BatchID)
	assert.Equal(t, int64(4), *svc.filter.BatchID)
	assert.Equal(t, 2, svc.filter.PageNo)
	assert.Equal(t, "intro", svc.filter.Search)
	require.NotNil(t, svc.filter.Active)
	assert.False(t, *svc.filter.Active)
	assert.Equal(t, 2, decodeEnvelope(t, w).Pagination.Page)
}

func TestContentHandlerListRejectsBadBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, w := newGinContext(http.MethodGet, "/content/card?batch_id=x", nil)
	c.Params = gin.Params{{Key: "type", Value: "card"}}

	NewContentHandler(&contentServiceMock{}).List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &contentServiceMock{}
	media := "https://cdn.example.com/a.png"
	payload, _ := json.Marshal(dto.ContentRequest{Title: "Welcome", MediaURL: &media})
	c, w := newGinContext(http.MethodPost, "/content/carousel", payload)
	c.Params = gin.Params{{Key: "type", Value: "carousel"}}

	NewContentHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.ContentTypeCarousel, svc.contentType)
	var detail models.ContentDetail
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &detail))
	assert.Equal(t, "Welcome", detail.Title)
}

func TestContentHandlerCreateMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, w := newGinContext(http.MethodPost, "/content/card", []byte(`{"title":`))
	c.Params = gin.Params{{Key: "type", Value: "card"}}

	NewContentHandler(&contentServiceMock{}).Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid content payload", decodeEnvelope(t, w).Error.Message)
}

func TestContentHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &contentServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "card 9 not found")}
	c, w := newGinContext(http.MethodGet, "/content/card/9", nil)
	c.Params = gin.Params{{Key: "type", Value: "card"}, {Key: "id", Value: "9"}}

	NewContentHandler(svc).Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int64(9), svc.id)
}

func TestContentHandlerDeleteAndDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &contentServiceMock{}
	handler := NewContentHandler(svc)

	c, w := newGinContext(http.MethodDelete, "/content/note/5", nil)
	c.Params = gin.Params{{Key: "type", Value: "note"}, {Key: "id", Value: "5"}}
	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, svc.deleted)

	c, w = newGinContext(http.MethodPost, "/content/note/5/duplicate", nil)
	c.Params = gin.Params{{Key: "type", Value: "note"}, {Key: "id", Value: "5"}}
	handler.Duplicate(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestContentHandlerBulkDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &contentServiceMock{}
	payload, _ := json.Marshal(dto.BulkIDsRequest{IDs: []int64{1, 2, 3}})
	c, w := newGinContext(http.MethodPost, "/content/card/bulk-delete", payload)
	c.Params = gin.Params{{Key: "type", Value: "card"}}

	NewContentHandler(svc).BulkDelete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{1, 2, 3}, svc.bulkReq.IDs)
}

func TestContentHandlerMap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &contentServiceMock{mapResult: &models.MapResult{Success: true, Message: "Mapped 2 card item(s) to 1 batch(es)", MappedCount: 2}}
	payload, _ := json.Marshal(models.MapRequest{
		TargetBatchIDs: []int64{9},
		Items:          []models.MapItem{{ItemID: 1, DisplayOrder: 0, SourceBatchID: 4}, {ItemID: 2, DisplayOrder: 1, SourceBatchID: 4}},
	})
	c, w := newGinContext(http.MethodPost, "/content/card/map", payload)
	c.Params = gin.Params{{Key: "type", Value: "card"}}

	NewContentHandler(svc).Map(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{9}, svc.mapReq.TargetBatchIDs)
	assert.Len(t, svc.mapReq.Items, 2)
	var result models.MapResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.MappedCount)
}

func TestContentHandlerMapConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &contentServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "already mapped: item 1 -> batch 9")}
	payload, _ := json.Marshal(models.MapRequest{TargetBatchIDs: []int64{9}, Items: []models.MapItem{{ItemID: 1}}})
	c, w := newGinContext(http.MethodPost, "/content/card/map", payload)
	c.Params = gin.Params{{Key: "type", Value: "card"}}

	NewContentHandler(svc).Map(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error.Message, "item 1 -> batch 9")
}

func TestContentHandlerMappingStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &contentServiceMock{}
	payload, _ := json.Marshal(models.MappingStatusRequest{ItemIDs: []int64{1, 2}, TargetIDs: []int64{5}})
	c, w := newGinContext(http.MethodPost, "/content/card/mapping-status", payload)
	c.Params = gin.Params{{Key: "type", Value: "card"}}

	NewContentHandler(svc).MappingStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{5}, svc.statusReq.TargetIDs)
}
