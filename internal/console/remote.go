// Package console holds the UI-agnostic state behind the admin console screens:
// remote option pickers, the copy/map to batch dialog, bulk selection over list
// pages and form helpers. Rendering is left to the caller.
package console

import (
	"context"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
)

// PageFetcher loads one page of options for a kind.
type PageFetcher interface {
	FetchPage(ctx context.Context, kind models.OptionKind, q models.PageQuery) (*models.OptionPage, error)
}

// DetailFetcher loads a content item with its batch links.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentDetail, error)
}

// EntityMapper performs the bulk mapping mutation.
type EntityMapper interface {
	MapEntities(ctx context.Context, contentType models.ContentType, req models.MapRequest) (*models.MapResult, error)
}

// ContentLister backs the content list screens.
type ContentLister interface {
	ListContent(ctx context.Context, filter models.ContentFilter) (*models.ContentPage, error)
	BulkDeleteContent(ctx context.Context, contentType models.ContentType, ids []int64) (*dto.BulkResult, error)
	DuplicateContent(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentItem, error)
}

// ContentWriter persists content forms.
type ContentWriter interface {
	CreateContent(ctx context.Context, contentType models.ContentType, req dto.ContentRequest) (*models.ContentItem, error)
	UpdateContent(ctx context.Context, contentType models.ContentType, id int64, req dto.ContentRequest) (*models.ContentItem, error)
}
