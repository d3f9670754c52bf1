package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
)

// Login exchanges credentials for a bearer token and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// FetchPage loads one page of options.
func (c *Client) FetchPage(ctx context.Context, kind models.OptionKind, q models.PageQuery) (*models.OptionPage, error) {
	query := pageValues(q.PageNo, q.PageSize, q.Search, q.Active, q.SortBy, q.SortDir)
	var out models.OptionPage
	if err := c.do(ctx, http.MethodGet, "/options/"+url.PathEscape(string(kind)), query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchOption loads a single option by id.
func (c *Client) FetchOption(ctx context.Context, kind models.OptionKind, id int64) (*models.Option, error) {
	var out models.Option
	path := fmt.Sprintf("/options/%s/%d", url.PathEscape(string(kind)), id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListContent loads a page of content items.
func (c *Client) ListContent(ctx context.Context, filter models.ContentFilter) (*models.ContentPage, error) {
	query := pageValues(filter.PageNo, filter.PageSize, filter.Search, filter.Active, filter.SortBy, filter.SortDir)
	if filter.BatchID != nil {
		query.Set("batch_id", strconv.FormatInt(*filter.BatchID, 10))
	}
	var out models.ContentPage
	if err := c.do(ctx, http.MethodGet, contentPath(filter.Type), query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchDetail loads a content item with its batch links.
func (c *Client) FetchDetail(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentDetail, error) {
	var out models.ContentDetail
	if err := c.do(ctx, http.MethodGet, contentItemPath(contentType, id, ""), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateContent creates a content item.
func (c *Client) CreateContent(ctx context.Context, contentType models.ContentType, req dto.ContentRequest) (*models.ContentItem, error) {
	var out models.ContentItem
	if err := c.do(ctx, http.MethodPost, contentPath(contentType), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateContent replaces a content item.
func (c *Client) UpdateContent(ctx context.Context, contentType models.ContentType, id int64, req dto.ContentRequest) (*models.ContentItem, error) {
	var out models.ContentItem
	if err := c.do(ctx, http.MethodPut, contentItemPath(contentType, id, ""), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteContent deletes a content item.
func (c *Client) DeleteContent(ctx context.Context, contentType models.ContentType, id int64) error {
	return c.do(ctx, http.MethodDelete, contentItemPath(contentType, id, ""), nil, nil, nil)
}

// DuplicateContent copies a content item including its batch links.
func (c *Client) DuplicateContent(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentItem, error) {
	var out models.ContentItem
	if err := c.do(ctx, http.MethodPost, contentItemPath(contentType, id, "/duplicate"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkDeleteContent deletes several content items.
func (c *Client) BulkDeleteContent(ctx context.Context, contentType models.ContentType, ids []int64) (*dto.BulkResult, error) {
	var out dto.BulkResult
	if err := c.do(ctx, http.MethodPost, contentPath(contentType)+"/bulk-delete", nil, dto.BulkIDsRequest{IDs: ids}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MapEntities links items to target batches.
func (c *Client) MapEntities(ctx context.Context, contentType models.ContentType, req models.MapRequest) (*models.MapResult, error) {
	var out models.MapResult
	if err := c.do(ctx, http.MethodPost, contentPath(contentType)+"/map", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MappingStatus asks the API to classify candidate targets for a selection.
func (c *Client) MappingStatus(ctx context.Context, contentType models.ContentType, req models.MappingStatusRequest) (*dto.MappingStatusResponse, error) {
	var out dto.MappingStatusResponse
	if err := c.do(ctx, http.MethodPost, contentPath(contentType)+"/mapping-status", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPermissions returns every permission.
func (c *Client) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var out []models.Permission
	if err := c.do(ctx, http.MethodGet, "/permissions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRoles returns a page of roles.
func (c *Client) ListRoles(ctx context.Context, search string, pageNo, pageSize int) (*models.Page[models.Role], error) {
	var out models.Page[models.Role]
	if err := c.do(ctx, http.MethodGet, "/roles", pageValues(pageNo, pageSize, search, nil, "", ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, req dto.RoleRequest) (*models.Role, error) {
	var out models.Role
	if err := c.do(ctx, http.MethodPost, "/roles", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetRolePermissions replaces the permissions granted to a role.
func (c *Client) SetRolePermissions(ctx context.Context, roleID int64, permissions []string) (*models.Role, error) {
	var out models.Role
	path := fmt.Sprintf("/roles/%d/permissions", roleID)
	if err := c.do(ctx, http.MethodPut, path, nil, dto.RolePermissionsRequest{Permissions: permissions}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignRole sets the role of a user.
func (c *Client) AssignRole(ctx context.Context, userID, role string) error {
	path := "/users/" + url.PathEscape(userID) + "/role"
	return c.do(ctx, http.MethodPut, path, nil, dto.AssignRoleRequest{Role: role}, nil)
}

// CreateExport queues an export of a content list.
func (c *Client) CreateExport(ctx context.Context, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	var out dto.ExportJobResponse
	if err := c.do(ctx, http.MethodPost, "/exports", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportStatus reports the progress of an export job.
func (c *Client) ExportStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	var out dto.ExportStatusResponse
	if err := c.do(ctx, http.MethodGet, "/exports/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func contentPath(contentType models.ContentType) string {
	return "/content/" + url.PathEscape(string(contentType))
}

func contentItemPath(contentType models.ContentType, id int64, suffix string) string {
	return fmt.Sprintf("%s/%d%s", contentPath(contentType), id, suffix)
}

func pageValues(pageNo, pageSize int, search string, active *bool, sortBy string, sortDir models.SortDirection) url.Values {
	query := url.Values{}
	query.Set("page_no", strconv.Itoa(pageNo))
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
	if search != "" {
		query.Set("search", search)
	}
	if active != nil {
		query.Set("active", strconv.FormatBool(*active))
	}
	if sortBy != "" {
		query.Set("sort_by", sortBy)
	}
	if sortDir != "" {
		query.Set("sort_dir", string(sortDir))
	}
	return query
}
