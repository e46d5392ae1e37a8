package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestParseCollection(t *testing.T) {
	for _, c := range Collections() {
		got, err := ParseCollection(string(c))
		if err != nil || got != c {
			t.Errorf("ParseCollection(%q) = %q, %v", c, got, err)
		}
	}
	for _, s := range []string{"", "Research", "chat", "../research", "research "} {
		if _, err := ParseCollection(s); !errors.Is(err, ErrInvalidCollection) {
			t.Errorf("ParseCollection(%q) error = %v, want ErrInvalidCollection", s, err)
		}
	}
}

func TestPatchApply(t *testing.T) {
	title := "New"
	images := []string{"/media/images/a.webp"}
	status := StatusDraft
	d := Document{ID: "x", Title: "Old", Body: "body", Status: StatusPublished, Author: "Admin"}
	p := Patch{Title: &title, Images: &images, Status: &status}
	p.Apply(&d)
	if d.Title != "New" || d.Body != "body" || d.Status != StatusDraft || len(d.Images) != 1 || d.Author != "Admin" {
		t.Errorf("unexpected result: %+v", d)
	}
	images[0] = "mutated"
	if d.Images[0] != "/media/images/a.webp" {
		t.Error("Apply must copy slices")
	}
}

func TestPatchValidate(t *testing.T) {
	bad := Status("archived")
	empty := []string{"ok", " "}
	tests := []struct {
		name    string
		patch   Patch
		wantErr bool
	}{
		{"empty", Patch{}, false},
		{"bad status", Patch{Status: &bad}, true},
		{"empty image", Patch{Images: &empty}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestPatchDecodesServerFields(t *testing.T) {
	var p Patch
	data := `{"id":"other","type":"shop","created_at":"1999","updated_at":"2000","content":"x"}`
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID == nil || *p.ID != "other" || p.Body == nil || *p.Body != "x" {
		t.Errorf("unexpected patch: %+v", p)
	}
}

func TestStorageError(t *testing.T) {
	cause := &os.PathError{Op: "open", Path: "/secret/data/research.json", Err: os.ErrPermission}
	err := fmt.Errorf("wrapped: %w", &StorageError{Op: "read collection research", Err: cause})
	if !errors.Is(err, ErrStorage) {
		t.Error("expected errors.Is(err, ErrStorage)")
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("expected the cause to be reachable")
	}
	if got := PublicMessage(err); got != "read collection research failed" {
		t.Errorf("PublicMessage() = %q", got)
	}
	if got := PublicMessage(ErrNotFound); got != "not found" {
		t.Errorf("PublicMessage() = %q", got)
	}
}
