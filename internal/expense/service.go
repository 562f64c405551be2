package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akos050607/SpendSmart/internal/extraction"
)

// Normalizer prepares an uploaded image for extraction
type Normalizer interface {
	Normalize(data []byte, contentType string) (extraction.NormalizedImage, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles expense operations
type Service struct {
	store        Store
	normalizer   Normalizer
	extractor    extraction.Extractor
	homeCurrency string
	timeSource   TimeSource
}

// NewService creates a new Service with the default time source
func NewService(store Store, normalizer Normalizer, extractor extraction.Extractor, homeCurrency string) *Service {
	return NewServiceWithDeps(store, normalizer, extractor, homeCurrency, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with a custom time source for testing
func NewServiceWithDeps(store Store, normalizer Normalizer, extractor extraction.Extractor, homeCurrency string, timeSrc TimeSource) *Service {
	if homeCurrency == "" {
		homeCurrency = "HUF"
	}
	return &Service{
		store:        store,
		normalizer:   normalizer,
		extractor:    extractor,
		homeCurrency: homeCurrency,
		timeSource:   timeSrc,
	}
}

// ScanReceipt runs one synchronous pass of the extraction pipeline:
// normalize the image, call the model, parse the response, build a record
// with defaults and persist it. Any stage failure ends the attempt with
// nothing persisted; retrying means a fresh upload.
func (s *Service) ScanReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Record, error) {
	img, err := s.normalizer.Normalize(data, contentType)
	if err != nil {
		slog.Error("Failed to normalize image",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, err
	}

	text, err := s.extractor.Extract(ctx, img)
	if err != nil {
		slog.Error("Failed to extract receipt fields", "filename", filename, "error", err)
		return nil, err
	}

	fields, err := extraction.ParseResponse(text)
	if err != nil {
		slog.Error("Failed to parse model response", "filename", filename, "error", err)
		return nil, err
	}

	record := FromFields(fields, s.homeCurrency, s.timeSource.Now())
	record.Source = SourceAI

	if err := s.store.Save(record); err != nil {
		return nil, fmt.Errorf("saving record: %w", err)
	}

	return record, nil
}

// AddManual creates a record from a user-entered field map, sharing the
// same defaulting as scanned records
func (s *Service) AddManual(fields map[string]any) (*Record, error) {
	record := FromFields(fields, s.homeCurrency, s.timeSource.Now())
	record.Source = SourceManual

	if err := s.store.Save(record); err != nil {
		return nil, fmt.Errorf("saving record: %w", err)
	}

	return record, nil
}

// Get retrieves a record by ID
func (s *Service) Get(id uint64) (*Record, error) {
	record, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return record, nil
}

// List returns all records, purchase date descending
func (s *Service) List() ([]*Record, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return records, nil
}

// RecentScans returns the most recent AI-created records
func (s *Service) RecentScans(limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 10
	}
	records, err := s.store.ListBySource(SourceAI, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scanned records: %w", err)
	}
	return records, nil
}

// Update replaces the fields of an existing record. ID, creation time and
// provenance survive the replacement.
func (s *Service) Update(id uint64, fields map[string]any) (*Record, error) {
	existing, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting record for update: %w", err)
	}

	now := s.timeSource.Now()
	record := FromFields(fields, s.homeCurrency, now)
	record.ID = existing.ID
	record.Source = existing.Source
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = now

	if err := s.store.Update(record); err != nil {
		return nil, fmt.Errorf("updating record: %w", err)
	}

	return record, nil
}

// Delete removes a record
func (s *Service) Delete(id uint64) error {
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// Summary aggregates spending for the dashboard
type Summary struct {
	Count      int                  `json:"count"`
	Total      float64              `json:"total"`
	ByCategory map[Category]float64 `json:"by_category"`
	ByMonth    map[string]float64   `json:"by_month"`
}

// Summarize computes the overall total plus per-category and per-month totals
func (s *Service) Summarize() (*Summary, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	summary := &Summary{
		ByCategory: make(map[Category]float64),
		ByMonth:    make(map[string]float64),
	}
	for _, r := range records {
		summary.Count++
		summary.Total += r.Amount
		summary.ByCategory[r.Category] += r.Amount
		summary.ByMonth[r.Date.Format("2006-01")] += r.Amount
	}

	return summary, nil
}
