package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/mapping"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
	"github.com/noah-isme/content-console/pkg/sanitize"
)

type contentRepository interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.ContentItem, int, error)
	FindByID(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentItem, error)
	ListLinkedTargets(ctx context.Context, contentIDs []int64) ([]models.LinkedTarget, error)
	Create(ctx context.Context, item *models.ContentItem, batchIDs []int64) error
	Update(ctx context.Context, item *models.ContentItem, batchIDs []int64) error
	Delete(ctx context.Context, contentType models.ContentType, id int64) error
	DeleteMany(ctx context.Context, contentType models.ContentType, ids []int64) (int, error)
	Duplicate(ctx context.Context, contentType models.ContentType, id int64) (int64, error)
	ExistingIDs(ctx context.Context, contentType models.ContentType, ids []int64) ([]int64, error)
	ExistingLinks(ctx context.Context, contentIDs, batchIDs []int64) ([]models.ContentBatchLink, error)
	MapToBatches(ctx context.Context, req models.MapRequest) (int, error)
}

type optionLookup interface {
	ExistingIDs(ctx context.Context, kind models.OptionKind, ids []int64) ([]int64, error)
}

// ContentServiceConfig bounds list page sizes.
type ContentServiceConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ContentService implements content CRUD and the batch mapping workflow.
type ContentService struct {
	repo      contentRepository
	options   optionLookup
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ContentServiceConfig
}

// NewContentService constructs a ContentService.
func NewContentService(repo contentRepository, options optionLookup, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg ContentServiceConfig) *ContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &ContentService{repo: repo, options: options, validator: validate, metrics: metrics, logger: logger, cfg: cfg}
}

// List returns a page of content items of one type.
func (s *ContentService) List(ctx context.Context, filter models.ContentFilter) (*models.ContentPage, error) {
	if err := checkContentType(filter.Type); err != nil {
		return nil, err
	}
	q := models.PageQuery{PageNo: filter.PageNo, PageSize: filter.PageSize, Search: filter.Search, SortDir: filter.SortDir}.
		Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	filter.PageNo, filter.PageSize, filter.Search, filter.SortDir = q.PageNo, q.PageSize, q.Search, q.SortDir

	start := time.Now()
	items, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("content_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list content")
	}
	return models.NewPage(items, filter.PageNo, filter.PageSize, total), nil
}

// Get returns an item with its linked batches.
func (s *ContentService) Get(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentDetail, error) {
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, contentType, id)
	if err != nil {
		return nil, notFoundOrInternal(err, fmt.Sprintf("%s %d not found", contentType, id), "failed to load content")
	}
	targets, err := s.repo.ListLinkedTargets(ctx, []int64{id})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked batches")
	}
	return &models.ContentDetail{ContentItem: *item, LinkedTargets: targets}, nil
}

// Create validates and stores a new item.
func (s *ContentService) Create(ctx context.Context, contentType models.ContentType, req dto.ContentRequest) (*models.ContentDetail, error) {
	item, err := s.prepare(ctx, contentType, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item, uniqueInt64(req.BatchIDs)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create content")
	}
	s.logger.Info("content created", zap.String("type", string(contentType)), zap.Int64("id", item.ID))
	return s.Get(ctx, contentType, item.ID)
}

// Update replaces an item's fields. Batch links are replaced only when BatchIDs is sent.
func (s *ContentService) Update(ctx context.Context, contentType models.ContentType, id int64, req dto.ContentRequest) (*models.ContentDetail, error) {
	item, err := s.prepare(ctx, contentType, req)
	if err != nil {
		return nil, err
	}
	item.ID = id
	var batchIDs []int64
	if req.BatchIDs != nil {
		batchIDs = uniqueInt64(req.BatchIDs)
	}
	if err := s.repo.Update(ctx, item, batchIDs); err != nil {
		return nil, notFoundOrInternal(err, fmt.Sprintf("%s %d not found", contentType, id), "failed to update content")
	}
	s.logger.Info("content updated", zap.String("type", string(contentType)), zap.Int64("id", id))
	return s.Get(ctx, contentType, id)
}

// Delete removes one item.
func (s *ContentService) Delete(ctx context.Context, contentType models.ContentType, id int64) error {
	if err := checkContentType(contentType); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, contentType, id); err != nil {
		return notFoundOrInternal(err, fmt.Sprintf("%s %d not found", contentType, id), "failed to delete content")
	}
	s.logger.Info("content deleted", zap.String("type", string(contentType)), zap.Int64("id", id))
	return nil
}

// BulkDelete removes the selected items. Ids that no longer exist are counted as requested but not affected.
func (s *ContentService) BulkDelete(ctx context.Context, contentType models.ContentType, req dto.BulkIDsRequest) (*dto.BulkResult, error) {
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}
	ids := uniqueInt64(req.IDs)
	affected, err := s.repo.DeleteMany(ctx, contentType, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete content")
	}
	s.logger.Info("content bulk deleted", zap.String("type", string(contentType)), zap.Int("requested", len(ids)), zap.Int("affected", affected))
	return &dto.BulkResult{Requested: len(ids), Affected: affected}, nil
}

// Duplicate copies an item with its batch links and returns the copy.
func (s *ContentService) Duplicate(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentDetail, error) {
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	newID, err := s.repo.Duplicate(ctx, contentType, id)
	if err != nil {
		return nil, notFoundOrInternal(err, fmt.Sprintf("%s %d not found", contentType, id), "failed to duplicate content")
	}
	s.logger.Info("content duplicated", zap.String("type", string(contentType)), zap.Int64("source_id", id), zap.Int64("id", newID))
	return s.Get(ctx, contentType, newID)
}

// Map links every requested item to every target batch. Pairs that are already
// linked reject the whole request with a conflict naming them.
func (s *ContentService) Map(ctx context.Context, contentType models.ContentType, req models.MapRequest) (*models.MapResult, error) {
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping payload")
	}

	req.TargetBatchIDs = uniqueInt64(req.TargetBatchIDs)
	req.Items = uniqueMapItems(req.Items)
	itemIDs := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		itemIDs = append(itemIDs, item.ItemID)
	}

	if err := s.requireOptions(ctx, models.OptionKindBatch, req.TargetBatchIDs); err != nil {
		return nil, err
	}
	if err := s.requireContent(ctx, contentType, itemIDs); err != nil {
		return nil, err
	}

	links, err := s.repo.ExistingLinks(ctx, itemIDs, req.TargetBatchIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing mappings")
	}
	if len(links) > 0 {
		s.metrics.RecordMapping(contentType, "conflict", 0)
		return nil, appErrors.Clone(appErrors.ErrConflict, describeLinks(links))
	}

	created, err := s.repo.MapToBatches(ctx, req)
	if err != nil {
		s.metrics.RecordMapping(contentType, "error", 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to map content")
	}
	s.metrics.RecordMapping(contentType, "mapped", created)
	s.logger.Info("content mapped",
		zap.String("type", string(contentType)),
		zap.Int64s("items", itemIDs),
		zap.Int64s("batches", req.TargetBatchIDs),
		zap.Int("links", created))
	return &models.MapResult{
		Success:     true,
		Message:     fmt.Sprintf("Mapped %d %s item(s) to %d batch(es)", len(itemIDs), contentType, len(req.TargetBatchIDs)),
		MappedCount: created,
	}, nil
}

// MappingStatus reports how each candidate target relates to the selected items.
// Without explicit targets every already linked batch is reported.
func (s *ContentService) MappingStatus(ctx context.Context, contentType models.ContentType, req models.MappingStatusRequest) (*dto.MappingStatusResponse, error) {
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping status payload")
	}
	itemIDs := uniqueInt64(req.ItemIDs)
	if err := s.requireContent(ctx, contentType, itemIDs); err != nil {
		return nil, err
	}
	targets, err := s.repo.ListLinkedTargets(ctx, itemIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked batches")
	}

	byItem := make(map[int64][]int64, len(itemIDs))
	for _, target := range targets {
		byItem[target.ContentID] = append(byItem[target.ContentID], target.TargetID)
	}
	sources := make([]mapping.Source, 0, len(itemIDs))
	for _, id := range itemIDs {
		sources = append(sources, mapping.Source{ID: id, TargetIDs: byItem[id]})
	}
	idx := mapping.Build(sources)

	candidates := uniqueInt64(req.TargetIDs)
	if len(candidates) == 0 {
		candidates = idx.MappedTargetIDs()
		sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	}
	return &dto.MappingStatusResponse{SourceCount: idx.SourceCount(), Targets: idx.Infos(candidates)}, nil
}

func (s *ContentService) prepare(ctx context.Context, contentType models.ContentType, req dto.ContentRequest) (*models.ContentItem, error) {
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}
	req.BodyHTML = sanitize.HTMLPtr(req.BodyHTML)
	if err := req.CheckTypeRules(contentType); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.requireOptions(ctx, models.OptionKindBatch, uniqueInt64(req.BatchIDs)); err != nil {
		return nil, err
	}
	if err := s.requireOptions(ctx, models.OptionKindTag, uniqueInt64(req.TagIDs)); err != nil {
		return nil, err
	}
	refs := []struct {
		kind models.OptionKind
		id   *int64
	}{
		{models.OptionKindExam, req.ExamID},
		{models.OptionKindGrade, req.GradeID},
		{models.OptionKindStream, req.StreamID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if err := s.requireOptions(ctx, ref.kind, []int64{*ref.id}); err != nil {
			return nil, err
		}
	}
	return itemFromRequest(contentType, req), nil
}

// requireOptions fails with a validation error naming any ids of kind that do not exist.
func (s *ContentService) requireOptions(ctx context.Context, kind models.OptionKind, ids []int64) error {
	if len(ids) == 0 || s.options == nil {
		return nil
	}
	found, err := s.options.ExistingIDs(ctx, kind, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to check %s ids", kind))
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown %s ids: %v", kind, missing))
	}
	return nil
}

func (s *ContentService) requireContent(ctx context.Context, contentType models.ContentType, ids []int64) error {
	found, err := s.repo.ExistingIDs(ctx, contentType, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check content ids")
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s items not found: %v", contentType, missing))
	}
	return nil
}

func itemFromRequest(contentType models.ContentType, req dto.ContentRequest) *models.ContentItem {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	item := &models.ContentItem{
		Type:           contentType,
		Title:          strings.TrimSpace(req.Title),
		Subtitle:       req.Subtitle,
		Description:    req.Description,
		MediaURL:       req.MediaURL,
		ThumbnailURL:   req.ThumbnailURL,
		DeepLink:       req.DeepLink,
		Activity:       req.Activity,
		ActivityParams: models.StringMap(req.ActivityParams),
		BodyHTML:       req.BodyHTML,
		ExamID:         req.ExamID,
		GradeID:        req.GradeID,
		StreamID:       req.StreamID,
		TagIDs:         uniqueInt64(req.TagIDs),
		DisplayOrder:   req.DisplayOrder,
		Active:         active,
	}
	if req.Params != nil && strings.TrimSpace(*req.Params) != "" {
		item.Params = types.JSONText(*req.Params)
	}
	return item
}

func checkContentType(contentType models.ContentType) error {
	if !contentType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown content type %q", contentType))
	}
	return nil
}

func notFoundOrInternal(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func describeLinks(links []models.ContentBatchLink) string {
	pairs := make([]string, 0, len(links))
	for _, link := range links {
		pairs = append(pairs, fmt.Sprintf("item %d -> batch %d", link.ContentID, link.BatchID))
	}
	return "already mapped: " + strings.Join(pairs, ", ")
}

func uniqueInt64(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func uniqueMapItems(items []models.MapItem) []models.MapItem {
	seen := make(map[int64]struct{}, len(items))
	out := make([]models.MapItem, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ItemID]; ok {
			continue
		}
		seen[item.ItemID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func missingIDs(want, found []int64) []int64 {
	have := make(map[int64]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []int64
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
