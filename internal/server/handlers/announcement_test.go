package handlers

import (
	"errors"
	"testing"

	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/storage"
)

func TestAnnouncementHandler(t *testing.T) {
	ctx := t.Context()
	h := NewAnnouncementHandler(storage.NewAnnouncementService(newTestFileStore(t), nil))

	a, err := h.Get(ctx, AnnouncementRequest{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(a.Items) != 1 || a.Items[0].Content != storage.WelcomeMessage {
		t.Errorf("default announcement = %+v", a)
	}

	items := []models.AnnouncementItem{{Type: models.AnnouncementImage, Content: "/media/images/a.webp"}}
	resp, err := h.Update(ctx, UpdateAnnouncementRequest{Items: items, Status: models.StatusDraft})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !resp.Success || resp.Data.Status != models.StatusDraft {
		t.Errorf("Update = %+v", resp)
	}

	public, err := h.Get(ctx, AnnouncementRequest{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(public.Items) != 0 {
		t.Errorf("public draft items = %+v, want none", public.Items)
	}
	admin, err := h.GetAdmin(ctx, AnnouncementRequest{})
	if err != nil {
		t.Fatalf("GetAdmin: %v", err)
	}
	if len(admin.Items) != 1 || admin.Items[0] != items[0] {
		t.Errorf("admin items = %+v", admin.Items)
	}
}

func TestUpdateAnnouncementRequestValidate(t *testing.T) {
	tests := []struct {
		name  string
		items []models.AnnouncementItem
		ok    bool
	}{
		{"text", []models.AnnouncementItem{{Type: models.AnnouncementText, Content: "hi"}}, true},
		{"none", nil, false},
		{"blank", []models.AnnouncementItem{{Type: models.AnnouncementText, Content: "  "}}, false},
		{"type", []models.AnnouncementItem{{Type: "video", Content: "x"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := UpdateAnnouncementRequest{Items: tt.items}
			err := req.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if !tt.ok && !errors.Is(err, models.ErrInvalidDocument) {
				t.Fatalf("Validate() = %v, want ErrInvalidDocument", err)
			}
		})
	}
}
