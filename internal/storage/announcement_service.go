package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maruel/wcstore/internal/jsondb"
	"github.com/maruel/wcstore/internal/models"
)

// WelcomeMessage is served when no announcement was ever saved.
const WelcomeMessage = "Welcome to weirdcore store!"

// AnnouncementService stores the single site announcement.
type AnnouncementService struct {
	fileStore *FileStore
	recorder  Recorder
	now       Clock
}

// NewAnnouncementService creates an announcement service. recorder may be nil.
func NewAnnouncementService(fileStore *FileStore, recorder Recorder) *AnnouncementService {
	return &AnnouncementService{fileStore: fileStore, recorder: recorder, now: time.Now}
}

// storedAnnouncement also accepts the older single-text layout.
type storedAnnouncement struct {
	models.Announcement
	Content *string `json:"content"`
}

// GetAdmin returns the announcement as stored, drafts included.
//
// A missing or unreadable file yields the default welcome announcement.
func (s *AnnouncementService) GetAdmin(ctx context.Context) *models.Announcement {
	data, err := jsondb.ReadRaw(s.fileStore.AnnouncementPath())
	if err != nil {
		return s.defaultAnnouncement()
	}
	var st storedAnnouncement
	if err := json.Unmarshal(data, &st); err != nil {
		slog.WarnContext(ctx, "Ignoring unreadable announcement", "err", err)
		return s.defaultAnnouncement()
	}
	a := st.Announcement
	if a.Items == nil && st.Content != nil {
		a.Items = []models.AnnouncementItem{{Type: models.AnnouncementText, Content: *st.Content}}
		a.Status = models.StatusPublished
	}
	if a.Items == nil {
		a.Items = []models.AnnouncementItem{}
	}
	if a.Status == "" {
		a.Status = models.StatusPublished
	}
	if a.UpdatedAt == "" {
		a.UpdatedAt = FormatTime(s.now())
	}
	return &a
}

// Get returns the public view: a draft announcement has no items.
func (s *AnnouncementService) Get(ctx context.Context) *models.Announcement {
	a := s.GetAdmin(ctx)
	if a.Status == models.StatusDraft {
		a.Items = []models.AnnouncementItem{}
	}
	return a
}

// Save replaces the announcement. Status defaults to published.
func (s *AnnouncementService) Save(ctx context.Context, items []models.AnnouncementItem, status models.Status) (*models.Announcement, error) {
	if err := ValidateAnnouncementItems(items); err != nil {
		return nil, err
	}
	if status == "" {
		status = models.StatusPublished
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidDocument, status)
	}
	a := &models.Announcement{
		Items:     append([]models.AnnouncementItem(nil), items...),
		Status:    status,
		UpdatedAt: FormatTime(s.now()),
	}
	data, err := jsondb.Marshal(a)
	if err != nil {
		return nil, &models.StorageError{Op: "encode announcement", Err: err}
	}
	path := s.fileStore.AnnouncementPath()
	if err := jsondb.WriteRaw(path, data); err != nil {
		return nil, &models.StorageError{Op: "write announcement", Err: err}
	}
	record(ctx, s.recorder, "update announcement", s.fileStore.Rel(path))
	return a, nil
}

// ValidateAnnouncementItems requires at least one item, each of a known type
// with content.
func ValidateAnnouncementItems(items []models.AnnouncementItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: announcement has no items", models.ErrInvalidDocument)
	}
	for i, it := range items {
		if it.Type != models.AnnouncementText && it.Type != models.AnnouncementImage {
			return fmt.Errorf("%w: item %d has unknown type %q", models.ErrInvalidDocument, i, it.Type)
		}
		if strings.TrimSpace(it.Content) == "" {
			return fmt.Errorf("%w: item %d is empty", models.ErrInvalidDocument, i)
		}
	}
	return nil
}

func (s *AnnouncementService) defaultAnnouncement() *models.Announcement {
	return &models.Announcement{
		Items:     []models.AnnouncementItem{{Type: models.AnnouncementText, Content: WelcomeMessage}},
		Status:    models.StatusPublished,
		UpdatedAt: FormatTime(s.now()),
	}
}
