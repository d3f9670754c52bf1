package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// ContentType discriminates the content entities managed by the console.
type ContentType string

const (
	ContentTypeCarousel ContentType = "carousel"
	ContentTypeCard     ContentType = "card"
	ContentTypeNote     ContentType = "note"
	ContentTypeReel     ContentType = "reel"
)

// ContentTypes lists every supported content type.
func ContentTypes() []ContentType {
	return []ContentType{ContentTypeCarousel, ContentTypeCard, ContentTypeNote, ContentTypeReel}
}

// Valid reports whether the content type is known.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeCarousel, ContentTypeCard, ContentTypeNote, ContentTypeReel:
		return true
	default:
		return false
	}
}

// StringMap is a string keyed parameter map persisted as JSONB.
type StringMap map[string]string

// Value marshals the map to JSON for persistence.
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, fmt.Errorf("marshal string map: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the map.
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringMap", value)
	}
	if len(data) == 0 {
		*m = StringMap{}
		return nil
	}
	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal string map: %w", err)
	}
	*m = out
	return nil
}

// ContentItem is the common shape shared by carousels, cards, notes and reels.
type ContentItem struct {
	ID             int64          `db:"id" json:"id"`
	Type           ContentType    `db:"content_type" json:"type"`
	Title          string         `db:"title" json:"title"`
	Subtitle       *string        `db:"subtitle" json:"subtitle,omitempty"`
	Description    *string        `db:"description" json:"description,omitempty"`
	MediaURL       *string        `db:"media_url" json:"media_url,omitempty"`
	ThumbnailURL   *string        `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	DeepLink       *string        `db:"deep_link" json:"deep_link,omitempty"`
	Activity       *string        `db:"activity" json:"activity,omitempty"`
	ActivityParams StringMap      `db:"activity_params" json:"activity_params,omitempty"`
	Params         types.JSONText `db:"params" json:"params,omitempty"`
	BodyHTML       *string        `db:"body_html" json:"body_html,omitempty"`
	ExamID         *int64         `db:"exam_id" json:"exam_id,omitempty"`
	GradeID        *int64         `db:"grade_id" json:"grade_id,omitempty"`
	StreamID       *int64         `db:"stream_id" json:"stream_id,omitempty"`
	TagIDs         pq.Int64Array  `db:"tag_ids" json:"tag_ids,omitempty"`
	DisplayOrder   int            `db:"display_order" json:"display_order"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// LinkedTarget is a batch a content item is mapped to.
type LinkedTarget struct {
	ContentID     int64  `db:"content_id" json:"-"`
	TargetID      int64  `db:"batch_id" json:"target_id"`
	Name          string `db:"batch_name" json:"name"`
	DisplayOrder  int    `db:"display_order" json:"display_order"`
	SourceBatchID *int64 `db:"source_batch_id" json:"source_batch_id,omitempty"`
}

// ContentDetail is a content item with its batch links.
type ContentDetail struct {
	ContentItem
	LinkedTargets []LinkedTarget `json:"linked_targets"`
}

// LinkedTargetIDs returns the ids of the batches this item is mapped to.
func (d ContentDetail) LinkedTargetIDs() []int64 {
	ids := make([]int64, 0, len(d.LinkedTargets))
	for _, target := range d.LinkedTargets {
		ids = append(ids, target.TargetID)
	}
	return ids
}

// ContentFilter defines list criteria for content items.
type ContentFilter struct {
	Type     ContentType
	BatchID  *int64
	Search   string
	Active   *bool
	PageNo   int
	PageSize int
	SortBy   string
	SortDir  SortDirection
}

// ContentBatchLink is one row of the content to batch mapping.
type ContentBatchLink struct {
	ContentID     int64     `db:"content_id"`
	BatchID       int64     `db:"batch_id"`
	DisplayOrder  int       `db:"display_order"`
	SourceBatchID *int64    `db:"source_batch_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// MapItem identifies a source item in a mapping request.
type MapItem struct {
	ItemID        int64 `json:"item_id" validate:"required,gt=0"`
	DisplayOrder  int   `json:"display_order" validate:"gte=0"`
	SourceBatchID int64 `json:"source_batch_id" validate:"gte=0"`
}

// MapRequest links the listed items to every target batch.
type MapRequest struct {
	TargetBatchIDs []int64   `json:"target_batch_ids" validate:"required,min=1,dive,gt=0"`
	Items          []MapItem `json:"items" validate:"required,min=1,dive"`
}

// MapResult is returned by the bulk mapping mutation.
type MapResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	MappedCount int    `json:"mapped_count"`
}

// MappingStatusRequest asks for the mapping state of candidate targets.
type MappingStatusRequest struct {
	ItemIDs   []int64 `json:"item_ids" validate:"required,min=1,dive,gt=0"`
	TargetIDs []int64 `json:"target_ids" validate:"omitempty,dive,gt=0"`
}
