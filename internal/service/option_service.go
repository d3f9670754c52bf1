package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type optionRepository interface {
	List(ctx context.Context, kind models.OptionKind, q models.PageQuery) ([]models.Option, int, error)
	FindByID(ctx context.Context, kind models.OptionKind, id int64) (*models.Option, error)
}

// OptionServiceConfig bounds option page sizes and cache lifetime.
type OptionServiceConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	CacheTTL        time.Duration
}

// OptionService serves paginated, searchable reference entities to pickers.
type OptionService struct {
	repo    optionRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     OptionServiceConfig
}

// NewOptionService constructs an OptionService.
func NewOptionService(repo optionRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg OptionServiceConfig) *OptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &OptionService{repo: repo, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// List returns one page of options. The boolean reports a cache hit.
func (s *OptionService) List(ctx context.Context, kind models.OptionKind, q models.PageQuery) (*models.OptionPage, bool, error) {
	if !kind.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown option kind %q", kind))
	}
	q = q.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)

	key := cacheKey("options", string(kind), strconv.Itoa(q.PageNo), strconv.Itoa(q.PageSize), q.Search, optionalBool(q.Active), q.SortBy, string(q.SortDir))
	page, cached, err := readThrough(ctx, s.cache, key, s.cfg.CacheTTL, func() (*models.OptionPage, error) {
		start := time.Now()
		items, total, err := s.repo.List(ctx, kind, q)
		s.metrics.ObserveDBQuery("options_list", time.Since(start))
		if err != nil {
			return nil, err
		}
		if total > 0 && q.PageNo*q.PageSize >= total {
			return nil, appErrors.Clone(appErrors.ErrPageOutOfRange, fmt.Sprintf("page %d is out of range (total %d)", q.PageNo, total))
		}
		return models.NewPage(items, q.PageNo, q.PageSize, total), nil
	})
	if appErrors.IsCode(err, appErrors.ErrPageOutOfRange.Code) {
		return nil, false, err
	}
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list options")
	}
	s.metrics.RecordOptionLookup(kind, cached)
	return page, cached, nil
}

// Get returns a single option.
func (s *OptionService) Get(ctx context.Context, kind models.OptionKind, id int64) (*models.Option, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown option kind %q", kind))
	}
	option, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %d not found", kind, id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load option")
	}
	return option, nil
}
