package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

// PageCache holds the current page of options for one kind. It is not safe for
// concurrent use; Picker serialises access to it.
type PageCache struct {
	fetcher PageFetcher
	kind    models.OptionKind
	page    *models.OptionPage
	err     error
}

// NewPageCache constructs an empty cache for kind.
func NewPageCache(fetcher PageFetcher, kind models.OptionKind) *PageCache {
	return &PageCache{fetcher: fetcher, kind: kind}
}

// Kind returns the option kind served by the cache.
func (c *PageCache) Kind() models.OptionKind {
	return c.kind
}

// CheckBounds clamps negative page numbers to zero and rejects pages past the
// last known page without touching the network.
func (c *PageCache) CheckBounds(pageNo int) (int, error) {
	if pageNo < 0 {
		pageNo = 0
	}
	if c.page == nil || pageNo == 0 {
		return pageNo, nil
	}
	if pageNo >= c.page.TotalPages {
		return pageNo, appErrors.Clone(appErrors.ErrPageOutOfRange, fmt.Sprintf("page %d is out of range (total %d)", pageNo, c.page.TotalPages))
	}
	return pageNo, nil
}

// Load performs the remote call for q without modifying the cache. Duplicate
// ids inside the returned page are dropped.
func (c *PageCache) Load(ctx context.Context, q models.PageQuery) (*models.OptionPage, error) {
	if c.fetcher == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "option fetcher not configured")
	}
	if q.PageNo < 0 {
		q.PageNo = 0
	}
	page, err := c.fetcher.FetchPage(ctx, c.kind, q)
	if err != nil {
		return nil, asNetworkError(err, fmt.Sprintf("failed to load %s options", c.kind))
	}
	if page == nil {
		page = models.NewPage[models.Option](nil, q.PageNo, q.PageSize, 0)
	}
	out := *page
	out.Content = dedupOptions(nil, page.Content)
	return &out, nil
}

// Fetch loads q and replaces the held page, recording failures.
func (c *PageCache) Fetch(ctx context.Context, q models.PageQuery) (*models.OptionPage, error) {
	pageNo, err := c.CheckBounds(q.PageNo)
	if err != nil {
		return nil, err
	}
	q.PageNo = pageNo
	page, err := c.Load(ctx, q)
	if err != nil {
		c.Fail(err)
		return c.Page(), err
	}
	c.Replace(page)
	return c.Page(), nil
}

// Replace swaps the held page wholesale.
func (c *PageCache) Replace(page *models.OptionPage) {
	if page == nil {
		return
	}
	cp := *page
	cp.Content = append([]models.Option(nil), page.Content...)
	c.page = &cp
	c.err = nil
}

// Merge appends a following page for "load more" lists. Options already held are
// not repeated and the page number never moves backwards.
func (c *PageCache) Merge(page *models.OptionPage) {
	if page == nil {
		return
	}
	if c.page == nil {
		c.Replace(page)
		return
	}
	merged := *page
	merged.Content = dedupOptions(c.page.Content, page.Content)
	if merged.PageNumber < c.page.PageNumber {
		merged.PageNumber = c.page.PageNumber
	}
	c.page = &merged
	c.err = nil
}

// Fail records err and empties the item list.
func (c *PageCache) Fail(err error) {
	c.err = err
	size := 0
	if c.page != nil {
		size = c.page.PageSize
	}
	c.page = models.NewPage[models.Option](nil, 0, size, 0)
}

// Page returns a copy of the held page, or nil before the first load.
func (c *PageCache) Page() *models.OptionPage {
	if c.page == nil {
		return nil
	}
	cp := *c.page
	cp.Content = append([]models.Option(nil), c.page.Content...)
	return &cp
}

// Items returns the options on the held page.
func (c *PageCache) Items() []models.Option {
	if c.page == nil {
		return []models.Option{}
	}
	return append([]models.Option(nil), c.page.Content...)
}

// Err returns the last load error.
func (c *PageCache) Err() error {
	return c.err
}

func dedupOptions(existing, incoming []models.Option) []models.Option {
	out := make([]models.Option, 0, len(existing)+len(incoming))
	seen := make(map[int64]struct{}, len(existing)+len(incoming))
	for _, list := range [][]models.Option{existing, incoming} {
		for _, opt := range list {
			if _, dup := seen[opt.ID]; dup {
				continue
			}
			seen[opt.ID] = struct{}{}
			out = append(out, opt)
		}
	}
	return out
}

// asNetworkError keeps typed API errors and wraps transport failures.
func asNetworkError(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, message)
}
