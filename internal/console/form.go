package console

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

// Param is one editable key/value row.
type Param struct {
	Key   string
	Value string
}

// ParamList keeps key/value rows in edit order. Rows become a map only on submit.
type ParamList struct {
	items []Param
}

// NewParamList returns an empty list.
func NewParamList() *ParamList {
	return &ParamList{}
}

// ParamListFromMap loads m sorted by key.
func ParamListFromMap(m map[string]string) *ParamList {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	l := &ParamList{items: make([]Param, 0, len(keys))}
	for _, k := range keys {
		l.items = append(l.items, Param{Key: k, Value: m[k]})
	}
	return l
}

// Add appends a row and returns its index.
func (l *ParamList) Add(key, value string) int {
	l.items = append(l.items, Param{Key: key, Value: value})
	return len(l.items) - 1
}

// Set edits row i in place.
func (l *ParamList) Set(i int, key, value string) error {
	if i < 0 || i >= len(l.items) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("param row %d does not exist", i))
	}
	l.items[i] = Param{Key: key, Value: value}
	return nil
}

// Remove deletes row i.
func (l *ParamList) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("param row %d does not exist", i))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Len returns the number of rows.
func (l *ParamList) Len() int {
	return len(l.items)
}

// Items returns a copy of the rows.
func (l *ParamList) Items() []Param {
	return append([]Param(nil), l.items...)
}

// ToMap converts the rows for submission. Completely empty rows are skipped; a
// blank key with a value or a repeated key is a validation error.
func (l *ParamList) ToMap() (map[string]string, error) {
	out := make(map[string]string, len(l.items))
	for i, p := range l.items {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			if strings.TrimSpace(p.Value) == "" {
				continue
			}
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("param row %d has an empty key", i+1))
		}
		if _, dup := out[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate param key %q", key))
		}
		out[key] = p.Value
	}
	return out, nil
}

// ValidateJSONField checks a free-form JSON text field. Blank means unset.
func ValidateJSONField(name, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if !json.Valid([]byte(raw)) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be valid JSON", name))
	}
	return nil
}

// SubmitGuard blocks re-submission while a request is in flight.
type SubmitGuard struct {
	mu       sync.Mutex
	inFlight bool
}

// Begin marks a submission as started. It returns false if one is already running.
func (g *SubmitGuard) Begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return false
	}
	g.inFlight = true
	return true
}

// End releases the guard.
func (g *SubmitGuard) End() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// InFlight reports whether a submission is running.
func (g *SubmitGuard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// ContentForm collects the fields of a create or edit screen.
type ContentForm struct {
	Type       models.ContentType
	ID         *int64
	Fields     dto.ContentRequest
	Activity   *ParamList
	ParamsJSON string

	validate *validator.Validate
	guard    SubmitGuard
}

// NewContentForm returns an empty create form.
func NewContentForm(contentType models.ContentType, validate *validator.Validate) *ContentForm {
	if validate == nil {
		validate = validator.New()
	}
	return &ContentForm{Type: contentType, Activity: NewParamList(), validate: validate}
}

// EditContentForm prefills a form from an existing item.
func EditContentForm(detail models.ContentDetail, validate *validator.Validate) *ContentForm {
	form := NewContentForm(detail.Type, validate)
	id := detail.ID
	active := detail.Active
	form.ID = &id
	form.Fields = dto.ContentRequest{
		Title:        detail.Title,
		Subtitle:     detail.Subtitle,
		Description:  detail.Description,
		MediaURL:     detail.MediaURL,
		ThumbnailURL: detail.ThumbnailURL,
		DeepLink:     detail.DeepLink,
		Activity:     detail.Activity,
		BodyHTML:     detail.BodyHTML,
		ExamID:       detail.ExamID,
		GradeID:      detail.GradeID,
		StreamID:     detail.StreamID,
		TagIDs:       []int64(detail.TagIDs),
		DisplayOrder: detail.DisplayOrder,
		Active:       &active,
		BatchIDs:     detail.LinkedTargetIDs(),
	}
	form.Activity = ParamListFromMap(detail.ActivityParams)
	if len(detail.Params) > 0 {
		form.ParamsJSON = string(detail.Params)
	}
	return form
}

// Build validates the form and returns the request payload.
func (f *ContentForm) Build() (dto.ContentRequest, error) {
	req := f.Fields
	req.Title = strings.TrimSpace(req.Title)

	params, err := f.Activity.ToMap()
	if err != nil {
		return dto.ContentRequest{}, err
	}
	if len(params) > 0 {
		req.ActivityParams = params
	} else {
		req.ActivityParams = nil
	}

	if err := ValidateJSONField("params", f.ParamsJSON); err != nil {
		return dto.ContentRequest{}, err
	}
	if raw := strings.TrimSpace(f.ParamsJSON); raw != "" {
		req.Params = &raw
	} else {
		req.Params = nil
	}

	if err := f.validate.Struct(req); err != nil {
		return dto.ContentRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := req.CheckTypeRules(f.Type); err != nil {
		return dto.ContentRequest{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return req, nil
}

// Submit validates and saves the form. Validation errors never reach the network.
func (f *ContentForm) Submit(ctx context.Context, writer ContentWriter) (*models.ContentItem, error) {
	req, err := f.Build()
	if err != nil {
		return nil, err
	}
	if !f.guard.Begin() {
		return nil, appErrors.ErrSubmitting
	}
	defer f.guard.End()

	if f.ID != nil {
		return writer.UpdateContent(ctx, f.Type, *f.ID, req)
	}
	return writer.CreateContent(ctx, f.Type, req)
}

// Submitting reports whether a save is in flight.
func (f *ContentForm) Submitting() bool {
	return f.guard.InFlight()
}
