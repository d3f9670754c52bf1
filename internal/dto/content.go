package dto

import (
	"fmt"
	"strings"

	"github.com/noah-isme/content-console/internal/models"
)

// ContentRequest is the create/update payload shared by every content type.
// Type-specific required fields are checked by the content service.
type ContentRequest struct {
	Title          string            `json:"title" validate:"required,max=200"`
	Subtitle       *string           `json:"subtitle,omitempty" validate:"omitempty,max=200"`
	Description    *string           `json:"description,omitempty"`
	MediaURL       *string           `json:"media_url,omitempty" validate:"omitempty,url"`
	ThumbnailURL   *string           `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	DeepLink       *string           `json:"deep_link,omitempty"`
	Activity       *string           `json:"activity,omitempty"`
	ActivityParams map[string]string `json:"activity_params,omitempty"`
	Params         *string           `json:"params,omitempty" validate:"omitempty,json"`
	BodyHTML       *string           `json:"body_html,omitempty"`
	ExamID         *int64            `json:"exam_id,omitempty" validate:"omitempty,gt=0"`
	GradeID        *int64            `json:"grade_id,omitempty" validate:"omitempty,gt=0"`
	StreamID       *int64            `json:"stream_id,omitempty" validate:"omitempty,gt=0"`
	TagIDs         []int64           `json:"tag_ids,omitempty" validate:"omitempty,dive,gt=0"`
	DisplayOrder   int               `json:"display_order" validate:"gte=0"`
	Active         *bool             `json:"active,omitempty"`
	BatchIDs       []int64           `json:"batch_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

// BulkIDsRequest carries the ids selected on a list page.
type BulkIDsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// BulkResult reports how many rows a bulk action touched.
type BulkResult struct {
	Requested int `json:"requested"`
	Affected  int `json:"affected"`
}

// MappingStatusResponse lists the mapping state of each candidate target.
type MappingStatusResponse struct {
	SourceCount int                  `json:"source_count"`
	Targets     []models.MappingInfo `json:"targets"`
}

// CheckTypeRules enforces the fields a content type cannot do without.
func (r ContentRequest) CheckTypeRules(t models.ContentType) error {
	switch t {
	case models.ContentTypeCarousel:
		if blank(r.MediaURL) {
			return fmt.Errorf("media_url is required for %s", t)
		}
	case models.ContentTypeCard:
		if blank(r.DeepLink) && blank(r.Activity) {
			return fmt.Errorf("deep_link or activity is required for %s", t)
		}
	case models.ContentTypeNote:
		if blank(r.BodyHTML) && blank(r.MediaURL) {
			return fmt.Errorf("body_html or media_url is required for %s", t)
		}
	case models.ContentTypeReel:
		if blank(r.MediaURL) {
			return fmt.Errorf("media_url is required for %s", t)
		}
		if blank(r.ThumbnailURL) {
			return fmt.Errorf("thumbnail_url is required for %s", t)
		}
	default:
		return fmt.Errorf("unknown content type %q", t)
	}
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
