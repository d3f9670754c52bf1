package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/models"
	"github.com/noah-isme/content-console/pkg/export"
	"github.com/noah-isme/content-console/pkg/storage"
)

type exportContentSource interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.ContentItem, int, error)
	ListLinkedTargets(ctx context.Context, contentIDs []int64) ([]models.LinkedTarget, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// exportBatchSize is the page size used to walk a content list during export.
const exportBatchSize = 100

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	MaxRows   int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	Rows         int
	ExpiresAt    time.Time
}

// ExportService renders filtered content lists to CSV or PDF and stores the file.
type ExportService struct {
	content exportContentSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(content exportContentSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 10000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{content: content, storage: files, csv: csv, pdf: pdf, signer: signer, logger: logger, cfg: cfg}
}

// Generate renders the job's content list and returns a signed download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, exportTitle(job))
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Debug("export rendered", zap.String("job_id", job.ID), zap.Int("rows", len(dataset.Rows)), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		Rows:         len(dataset.Rows),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, defaulting to the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

var exportHeaders = []string{"ID", "Title", "Type", "Active", "Display Order", "Batches", "Media URL", "Updated At"}

var exportWidths = map[string]float64{"ID": 0.6, "Title": 2.5, "Batches": 2.5, "Media URL": 2.5, "Updated At": 1.5}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, error) {
	filter := models.ContentFilter{
		Type:     job.ContentType,
		BatchID:  job.Params.BatchID,
		Search:   job.Params.Search,
		Active:   job.Params.Active,
		PageSize: exportBatchSize,
	}
	rows := make([]map[string]string, 0)
	for {
		items, total, err := s.content.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, fmt.Errorf("list content page %d: %w", filter.PageNo, err)
		}
		if len(items) == 0 {
			break
		}
		batches, err := s.batchNames(ctx, items)
		if err != nil {
			return export.Dataset{}, err
		}
		for _, item := range items {
			rows = append(rows, map[string]string{
				"ID":            strconv.FormatInt(item.ID, 10),
				"Title":         item.Title,
				"Type":          string(item.Type),
				"Active":        strconv.FormatBool(item.Active),
				"Display Order": strconv.Itoa(item.DisplayOrder),
				"Batches":       strings.Join(batches[item.ID], "; "),
				"Media URL":     deref(item.MediaURL),
				"Updated At":    item.UpdatedAt.UTC().Format(time.RFC3339),
			})
		}
		filter.PageNo++
		if len(rows) >= total || len(rows) >= s.cfg.MaxRows {
			break
		}
	}
	if len(rows) > s.cfg.MaxRows {
		rows = rows[:s.cfg.MaxRows]
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows, Widths: exportWidths}, nil
}

func (s *ExportService) batchNames(ctx context.Context, items []models.ContentItem) (map[int64][]string, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	targets, err := s.content.ListLinkedTargets(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list linked batches: %w", err)
	}
	out := make(map[int64][]string, len(items))
	for _, target := range targets {
		out[target.ContentID] = append(out[target.ContentID], target.Name)
	}
	for id := range out {
		sort.Strings(out[id])
	}
	return out, nil
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := "all"
	if job.Params.BatchID != nil {
		scope = "batch-" + strconv.FormatInt(*job.Params.BatchID, 10)
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", job.ContentType, scope, sanitizeFilename(job.ID), timestamp, job.Params.Format)
}

func exportTitle(job *models.ExportJob) string {
	title := fmt.Sprintf("%s export", job.ContentType)
	if job.Params.Search != "" {
		title += fmt.Sprintf(" matching %q", job.Params.Search)
	}
	return title
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
