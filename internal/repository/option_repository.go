package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/content-console/internal/models"
)

type optionSource struct {
	table string
	code  string
}

var optionSources = map[models.OptionKind]optionSource{
	models.OptionKindBatch:  {table: "batches", code: "code"},
	models.OptionKindExam:   {table: "exams", code: "code"},
	models.OptionKindGrade:  {table: "grades", code: "code"},
	models.OptionKindStream: {table: "streams", code: "code"},
	models.OptionKindTag:    {table: "tags", code: "NULL"},
}

// OptionRepository reads the reference entities offered by pickers.
type OptionRepository struct {
	db *sqlx.DB
}

// NewOptionRepository constructs an OptionRepository.
func NewOptionRepository(db *sqlx.DB) *OptionRepository {
	return &OptionRepository{db: db}
}

func sourceFor(kind models.OptionKind) (optionSource, error) {
	src, ok := optionSources[kind]
	if !ok {
		return optionSource{}, fmt.Errorf("unknown option kind %q", kind)
	}
	return src, nil
}

// List returns one page of options and the total number of matches.
func (r *OptionRepository) List(ctx context.Context, kind models.OptionKind, q models.PageQuery) ([]models.Option, int, error) {
	src, err := sourceFor(kind)
	if err != nil {
		return nil, 0, err
	}

	args := []interface{}{}
	conditions := []string{"1=1"}
	if q.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *q.Active)
	}
	if q.Search != "" {
		if src.code == "NULL" {
			conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		} else {
			conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(%s) LIKE $%d)", len(args)+1, src.code, len(args)+1))
		}
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}
	base := fmt.Sprintf("FROM %s WHERE %s", src.table, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":       "name",
		"id":         "id",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[q.SortBy]
	if !ok {
		column = "name"
	}
	order := string(q.SortDir)
	if order != string(models.SortAsc) && order != string(models.SortDesc) {
		order = string(models.SortAsc)
	}
	size := q.PageSize
	if size <= 0 {
		size = 10
	}
	offset := q.PageNo * size

	query := fmt.Sprintf("SELECT id, name, %s AS code %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", src.code, base, column, order, size, offset)
	var options []models.Option
	if err := r.db.SelectContext(ctx, &options, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s options: %w", kind, err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s options: %w", kind, err)
	}
	return options, total, nil
}

// FindByID fetches a single option.
func (r *OptionRepository) FindByID(ctx context.Context, kind models.OptionKind, id int64) (*models.Option, error) {
	src, err := sourceFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT id, name, %s AS code FROM %s WHERE id = $1", src.code, src.table)
	var option models.Option
	if err := r.db.GetContext(ctx, &option, query, id); err != nil {
		return nil, err
	}
	return &option, nil
}

// ExistingIDs returns the subset of ids present for kind.
func (r *OptionRepository) ExistingIDs(ctx context.Context, kind models.OptionKind, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	src, err := sourceFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = ANY($1)", src.table)
	var found []int64
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lookup %s ids: %w", kind, err)
	}
	return found, nil
}
