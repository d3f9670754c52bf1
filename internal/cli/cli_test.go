package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
	"github.com/noah-isme/content-console/pkg/config"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	items    []models.ContentItem
	details  map[int64]models.ContentDetail
	batches  []models.Option
	requests []*http.Request
	deleted  dto.BulkIDsRequest
	mapped   *models.MapRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t: t,
		items: []models.ContentItem{
			{ID: 1, Title: "Welcome", Type: models.ContentTypeCard, Active: true},
			{ID: 2, Title: "Revision", Type: models.ContentTypeCard, DisplayOrder: 1},
		},
		details: map[int64]models.ContentDetail{
			1: {ContentItem: models.ContentItem{ID: 1, Title: "Welcome"}, LinkedTargets: []models.LinkedTarget{{TargetID: 5, Name: "JEE 2026"}}},
			2: {ContentItem: models.ContentItem{ID: 2, Title: "Revision"}},
		},
		batches: []models.Option{{ID: 5, Name: "JEE 2026"}, {ID: 9, Name: "NEET 2026"}},
	}
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, apiErr *appErrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{}
	if data != nil {
		body["data"] = data
	}
	if apiErr != nil {
		body["error"] = apiErr
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()

	switch r.Method + " " + r.URL.Path {
	case "GET /options/batch":
		writeEnvelope(w, http.StatusOK, models.NewPage(f.batches, 0, 10, len(f.batches)), nil)
	case "GET /options/batch/9":
		writeEnvelope(w, http.StatusOK, f.batches[1], nil)
	case "GET /options/batch/5":
		writeEnvelope(w, http.StatusOK, f.batches[0], nil)
	case "GET /content/card":
		writeEnvelope(w, http.StatusOK, models.NewPage(f.items, 0, 10, len(f.items)), nil)
	case "GET /content/card/1":
		writeEnvelope(w, http.StatusOK, f.details[1], nil)
	case "GET /content/card/2":
		writeEnvelope(w, http.StatusOK, f.details[2], nil)
	case "POST /content/card/bulk-delete":
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.deleted))
		writeEnvelope(w, http.StatusOK, dto.BulkResult{Requested: len(f.deleted.IDs), Affected: len(f.deleted.IDs)}, nil)
	case "POST /content/card/map":
		var req models.MapRequest
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.mapped = &req
		writeEnvelope(w, http.StatusOK, models.MapResult{Success: true, Message: "Mapped 1 card item(s) to 1 batch(es)", MappedCount: 1}, nil)
	case "GET /roles":
		writeEnvelope(w, http.StatusOK, models.NewPage([]models.Role{{ID: 1, Code: "SUPERADMIN", Name: "Super admin", System: true}}, 0, 10, 1), nil)
	case "GET /exports/job-1":
		url := "/api/v1/exports/download/tok"
		writeEnvelope(w, http.StatusOK, dto.ExportStatusResponse{ID: "job-1", Status: models.ExportStatusFinished, Progress: 100, ResultURL: &url}, nil)
	default:
		writeEnvelope(w, http.StatusNotFound, nil, appErrors.Clone(appErrors.ErrNotFound, r.URL.Path))
	}
}

func (f *fakeAPI) find(method, path string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Method == method && r.URL.Path == path {
			return r
		}
	}
	return nil
}

func run(t *testing.T, api *fakeAPI, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cmd := New(config.ConsoleConfig{BaseURL: srv.URL, Token: "tok", Timeout: 5 * time.Second, PageSize: 10})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestOptionsCommandSearchesFirstPage(t *testing.T) {
	api := newFakeAPI(t)
	output, err := run(t, api, "options", "batch", "--search", "2026")
	require.NoError(t, err)

	req := api.find(http.MethodGet, "/options/batch")
	require.NotNil(t, req)
	assert.Equal(t, "2026", req.URL.Query().Get("search"))
	assert.Equal(t, "0", req.URL.Query().Get("page_no"))
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.Contains(t, output, "NEET 2026")
	assert.Contains(t, output, "page 1 of 1, 2 total")
}

func TestOptionsCommandRejectsUnknownKind(t *testing.T) {
	_, err := run(t, newFakeAPI(t), "options", "planet")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestContentListCommand(t *testing.T) {
	api := newFakeAPI(t)
	output, err := run(t, api, "content", "list", "card", "--batch", "5", "--active")
	require.NoError(t, err)

	req := api.find(http.MethodGet, "/content/card")
	require.NotNil(t, req)
	assert.Equal(t, "5", req.URL.Query().Get("batch_id"))
	assert.Equal(t, "true", req.URL.Query().Get("active"))
	assert.Contains(t, output, "Welcome")
	assert.Contains(t, output, "Revision")
}

func TestContentDeleteSelectsRowsOnPage(t *testing.T) {
	api := newFakeAPI(t)
	output, err := run(t, api, "content", "delete", "card", "--ids", "2")
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, api.deleted.IDs)
	assert.Contains(t, output, "Deleted 1 of 1 card item(s)")
}

func TestContentDeleteRejectsRowsOffPage(t *testing.T) {
	api := newFakeAPI(t)
	_, err := run(t, api, "content", "delete", "card", "--ids", "42")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Nil(t, api.find(http.MethodPost, "/content/card/bulk-delete"))
}

func TestContentMapCommand(t *testing.T) {
	api := newFakeAPI(t)
	output, err := run(t, api, "content", "map", "card", "--ids", "1", "--targets", "9")
	require.NoError(t, err)

	require.NotNil(t, api.mapped)
	assert.Equal(t, []int64{9}, api.mapped.TargetBatchIDs)
	require.Len(t, api.mapped.Items, 1)
	assert.Equal(t, int64(1), api.mapped.Items[0].ItemID)
	assert.Contains(t, output, "Mapped 1 card item(s) to 1 batch(es)")
}

func TestContentMapRejectsAlreadyMappedTarget(t *testing.T) {
	api := newFakeAPI(t)
	_, err := run(t, api, "content", "map", "card", "--ids", "1", "--targets", "5")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict.Code))
	assert.Nil(t, api.mapped)
}

func TestContentMappingShowsBadges(t *testing.T) {
	api := newFakeAPI(t)
	output, err := run(t, api, "content", "mapping", "card", "--ids", "1,2")
	require.NoError(t, err)

	assert.Contains(t, output, "2 card item(s) selected")
	assert.Contains(t, output, "Mapped (1/2)")
	assert.Contains(t, output, "available")
}

func TestRBACRolesCommand(t *testing.T) {
	output, err := run(t, newFakeAPI(t), "rbac", "roles")
	require.NoError(t, err)
	assert.Contains(t, output, "SUPERADMIN")
}

func TestExportStatusCommand(t *testing.T) {
	output, err := run(t, newFakeAPI(t), "export", "status", "job-1")
	require.NoError(t, err)
	assert.Contains(t, output, "FINISHED")
	assert.Contains(t, output, "/api/v1/exports/download/tok")
}
