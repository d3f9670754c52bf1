package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/content-console/internal/models"
)

const contentColumns = `id, content_type, title, subtitle, description, media_url, thumbnail_url, deep_link, activity, activity_params, params, body_html, exam_id, grade_id, stream_id, tag_ids, display_order, active, created_at, updated_at`

// ContentRepository persists carousels, cards, notes and reels together with
// their batch links.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository constructs a ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// List returns content items of one type matching the filter.
func (r *ContentRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.ContentItem, int, error) {
	args := []interface{}{filter.Type}
	conditions := []string{"c.content_type = $1"}

	if filter.BatchID != nil {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM content_batches cb WHERE cb.content_id = c.id AND cb.batch_id = $%d)", len(args)+1))
		args = append(args, *filter.BatchID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("c.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(c.title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	base := fmt.Sprintf("FROM content_items c WHERE %s", strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"display_order": "c.display_order",
		"title":         "c.title",
		"created_at":    "c.created_at",
		"updated_at":    "c.updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "c.display_order"
	}
	order := string(filter.SortDir)
	if order != string(models.SortAsc) && order != string(models.SortDesc) {
		order = string(models.SortAsc)
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pageNo := filter.PageNo
	if pageNo < 0 {
		pageNo = 0
	}

	query := fmt.Sprintf("SELECT c.%s %s ORDER BY %s %s, c.id ASC LIMIT %d OFFSET %d",
		strings.ReplaceAll(contentColumns, ", ", ", c."), base, column, order, size, pageNo*size)
	var items []models.ContentItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s content: %w", filter.Type, err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s content: %w", filter.Type, err)
	}
	return items, total, nil
}

// FindByID fetches a content item of the given type.
func (r *ContentRepository) FindByID(ctx context.Context, contentType models.ContentType, id int64) (*models.ContentItem, error) {
	query := "SELECT " + contentColumns + " FROM content_items WHERE id = $1 AND content_type = $2"
	var item models.ContentItem
	if err := r.db.GetContext(ctx, &item, query, id, contentType); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListLinkedTargets returns the batch links of the given items ordered by item
// and batch name.
func (r *ContentRepository) ListLinkedTargets(ctx context.Context, contentIDs []int64) ([]models.LinkedTarget, error) {
	if len(contentIDs) == 0 {
		return []models.LinkedTarget{}, nil
	}
	const query = `SELECT cb.content_id, cb.batch_id, b.name AS batch_name, cb.display_order, cb.source_batch_id
FROM content_batches cb JOIN batches b ON b.id = cb.batch_id
WHERE cb.content_id = ANY($1) ORDER BY cb.content_id ASC, b.name ASC`
	var targets []models.LinkedTarget
	if err := r.db.SelectContext(ctx, &targets, query, pq.Array(contentIDs)); err != nil {
		return nil, fmt.Errorf("list linked batches: %w", err)
	}
	return targets, nil
}

// Create inserts the item and links it to batchIDs in one transaction.
func (r *ContentRepository) Create(ctx context.Context, item *models.ContentItem, batchIDs []int64) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create content: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO content_items (content_type, title, subtitle, description, media_url, thumbnail_url, deep_link, activity, activity_params, params, body_html, exam_id, grade_id, stream_id, tag_ids, display_order, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query,
		item.Type, item.Title, item.Subtitle, item.Description, item.MediaURL, item.ThumbnailURL, item.DeepLink,
		item.Activity, item.ActivityParams, item.Params, item.BodyHTML, item.ExamID, item.GradeID, item.StreamID,
		item.TagIDs, item.DisplayOrder, item.Active, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID); err != nil {
		return fmt.Errorf("create content: %w", err)
	}
	if err := insertLinks(ctx, tx, item.ID, batchIDs, item.DisplayOrder, nil, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create content: %w", err)
	}
	commit = true
	return nil
}

// Update overwrites the item. A non-nil batchIDs replaces its batch links,
// keeping the source batch of links that survive.
func (r *ContentRepository) Update(ctx context.Context, item *models.ContentItem, batchIDs []int64) error {
	item.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update content: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE content_items SET title = $3, subtitle = $4, description = $5, media_url = $6, thumbnail_url = $7, deep_link = $8, activity = $9, activity_params = $10, params = $11, body_html = $12, exam_id = $13, grade_id = $14, stream_id = $15, tag_ids = $16, display_order = $17, active = $18, updated_at = $19
WHERE id = $1 AND content_type = $2`
	res, err := tx.ExecContext(ctx, query,
		item.ID, item.Type, item.Title, item.Subtitle, item.Description, item.MediaURL, item.ThumbnailURL, item.DeepLink,
		item.Activity, item.ActivityParams, item.Params, item.BodyHTML, item.ExamID, item.GradeID, item.StreamID,
		item.TagIDs, item.DisplayOrder, item.Active, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if batchIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM content_batches WHERE content_id = $1 AND NOT (batch_id = ANY($2))`, item.ID, pq.Array(batchIDs)); err != nil {
			return fmt.Errorf("prune content batches: %w", err)
		}
		if err := insertLinks(ctx, tx, item.ID, batchIDs, item.DisplayOrder, nil, item.UpdatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update content: %w", err)
	}
	commit = true
	return nil
}

// Delete removes one item. Links are removed by the foreign key cascade.
func (r *ContentRepository) Delete(ctx context.Context, contentType models.ContentType, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_items WHERE id = $1 AND content_type = $2`, id, contentType)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteMany removes the listed items of one type and returns how many existed.
func (r *ContentRepository) DeleteMany(ctx context.Context, contentType models.ContentType, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_items WHERE content_type = $1 AND id = ANY($2)`, contentType, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("bulk delete content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete content: %w", err)
	}
	return int(affected), nil
}

// Duplicate copies an item and its batch links, returning the new id.
func (r *ContentRepository) Duplicate(ctx context.Context, contentType models.ContentType, id int64) (int64, error) {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin duplicate content: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const copyItem = `INSERT INTO content_items (content_type, title, subtitle, description, media_url, thumbnail_url, deep_link, activity, activity_params, params, body_html, exam_id, grade_id, stream_id, tag_ids, display_order, active, created_at, updated_at)
SELECT content_type, title || ' (copy)', subtitle, description, media_url, thumbnail_url, deep_link, activity, activity_params, params, body_html, exam_id, grade_id, stream_id, tag_ids, display_order, active, $3, $3
FROM content_items WHERE id = $1 AND content_type = $2 RETURNING id`
	var newID int64
	if err := tx.QueryRowxContext(ctx, copyItem, id, contentType, now).Scan(&newID); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("duplicate content: %w", err)
	}

	const copyLinks = `INSERT INTO content_batches (content_id, batch_id, display_order, source_batch_id, created_at)
SELECT $1, batch_id, display_order, source_batch_id, $3 FROM content_batches WHERE content_id = $2`
	if _, err := tx.ExecContext(ctx, copyLinks, newID, id, now); err != nil {
		return 0, fmt.Errorf("duplicate content batches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit duplicate content: %w", err)
	}
	commit = true
	return newID, nil
}

// ExistingIDs returns which of ids exist for the content type.
func (r *ContentRepository) ExistingIDs(ctx context.Context, contentType models.ContentType, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	var found []int64
	if err := r.db.SelectContext(ctx, &found, `SELECT id FROM content_items WHERE content_type = $1 AND id = ANY($2)`, contentType, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lookup content ids: %w", err)
	}
	return found, nil
}

// ExistingLinks returns the links already present between items and batches.
func (r *ContentRepository) ExistingLinks(ctx context.Context, contentIDs, batchIDs []int64) ([]models.ContentBatchLink, error) {
	if len(contentIDs) == 0 || len(batchIDs) == 0 {
		return []models.ContentBatchLink{}, nil
	}
	const query = `SELECT content_id, batch_id, display_order, source_batch_id, created_at FROM content_batches
WHERE content_id = ANY($1) AND batch_id = ANY($2) ORDER BY content_id ASC, batch_id ASC`
	var links []models.ContentBatchLink
	if err := r.db.SelectContext(ctx, &links, query, pq.Array(contentIDs), pq.Array(batchIDs)); err != nil {
		return nil, fmt.Errorf("lookup content batches: %w", err)
	}
	return links, nil
}

// MapToBatches links every item to every target batch in one transaction and
// returns the number of links created. Existing pairs are left untouched.
func (r *ContentRepository) MapToBatches(ctx context.Context, req models.MapRequest) (int, error) {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin map content: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	created := 0
	for _, item := range req.Items {
		var source *int64
		if item.SourceBatchID > 0 {
			id := item.SourceBatchID
			source = &id
		}
		for _, batchID := range req.TargetBatchIDs {
			res, err := tx.ExecContext(ctx, insertLinkQuery, item.ItemID, batchID, item.DisplayOrder, source, now)
			if err != nil {
				return 0, fmt.Errorf("map content %d to batch %d: %w", item.ItemID, batchID, err)
			}
			if affected, err := res.RowsAffected(); err == nil {
				created += int(affected)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit map content: %w", err)
	}
	commit = true
	return created, nil
}

const insertLinkQuery = `INSERT INTO content_batches (content_id, batch_id, display_order, source_batch_id, created_at)
VALUES ($1, $2, $3, $4, $5) ON CONFLICT (content_id, batch_id) DO NOTHING`

func insertLinks(ctx context.Context, tx *sqlx.Tx, contentID int64, batchIDs []int64, displayOrder int, source *int64, now time.Time) error {
	for _, batchID := range batchIDs {
		if _, err := tx.ExecContext(ctx, insertLinkQuery, contentID, batchID, displayOrder, source, now); err != nil {
			return fmt.Errorf("link content %d to batch %d: %w", contentID, batchID, err)
		}
	}
	return nil
}
