package service

import (
	"bytes"
	"context"
	"errors"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/storage"
	"fmt"
	"time"
)

var ErrExportUnavailable = errors.New("plan export is not configured")

const exportContentType = "text/markdown; charset=utf-8"

// PlanExport is a downloadable copy of a stored plan.
type PlanExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ExportService interface {
	// ExportPlan writes one of actor's plans to object storage and returns a
	// temporary download link for it.
	ExportPlan(ctx context.Context, actor *domain.Identity, planID string) (*PlanExport, error)
}

type exportService struct {
	history PlanHistoryService
	storage storage.FileStorage // nil when no bucket is configured
	expiry  time.Duration
}

func NewExportService(history PlanHistoryService, fileStorage storage.FileStorage) ExportService {
	return &exportService{
		history: history,
		storage: fileStorage,
		expiry:  storage.DefaultPresignedURLExpiry,
	}
}

func (s *exportService) ExportPlan(ctx context.Context, actor *domain.Identity, planID string) (*PlanExport, error) {
	if s.storage == nil {
		return nil, ErrExportUnavailable
	}
	item, err := s.history.Get(ctx, actor, planID)
	if err != nil {
		return nil, err
	}

	body := renderPlanMarkdown(item)
	key := exportObjectKey(item)
	if err := s.storage.PutObject(ctx, key, exportContentType, bytes.NewReader(body), int64(len(body))); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	url, err := s.storage.GeneratePresignedDownloadURL(ctx, key, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}
	return &PlanExport{
		Key:       key,
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(s.expiry),
	}, nil
}

func exportObjectKey(item *domain.PlanHistoryItem) string {
	return fmt.Sprintf("exports/%s/%s.md", item.UserID, item.ID)
}

func renderPlanMarkdown(item *domain.PlanHistoryItem) []byte {
	var b bytes.Buffer
	title := "Workout Plan"
	if item.Type == domain.PlanTypeMeal {
		title = "Meal Plan"
	}
	fmt.Fprintf(&b, "# FitFormula %s\n\n", title)
	fmt.Fprintf(&b, "_Generated %s_\n\n", item.CreatedAt.UTC().Format("January 2, 2006 15:04 MST"))

	if calc, ok := item.Metadata["calculations"].(map[string]interface{}); ok {
		b.WriteString("| BMR | TDEE | Target calories |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| %v | %v | %v |\n\n", calc["bmr"], calc["tdee"], calc["target_calories"])
	}

	b.WriteString(item.Content)
	if n := b.Len(); n > 0 && b.Bytes()[n-1] != '\n' {
		b.WriteByte('\n')
	}
	return b.Bytes()
}
