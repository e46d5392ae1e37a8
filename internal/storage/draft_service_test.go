package storage

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/maruel/wcstore/internal/models"
)

func TestDraftServiceRoundTrip(t *testing.T) {
	fs := newTestFileStore(t)
	rec := &fakeRecorder{}
	s := NewDraftService(fs, rec)
	ctx := t.Context()

	got, err := s.GetDraft(ctx, models.Media)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"posts":[]}` {
		t.Errorf("empty draft = %s", got)
	}
	if _, err := os.Stat(fs.DraftPath(models.Media)); !os.IsNotExist(err) {
		t.Errorf("GetDraft created the draft file: %v", err)
	}

	payload := json.RawMessage("{\"posts\": [{\"id\": \"a\", \"content\": \"wip <b>\", \"extra\": 1}],\n  \"note\": \"x\"}")
	if err := s.SaveDraft(ctx, models.Media, payload); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetDraft(ctx, models.Media)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Errorf("GetDraft = %s, want %s", got, payload)
	}
	if len(rec.msgs) != 1 || rec.msgs[0] != "save draft media" {
		t.Errorf("recorded %q", rec.msgs)
	}
}

func TestDraftServiceSaveRejectsNonObject(t *testing.T) {
	s := NewDraftService(newTestFileStore(t), nil)
	for _, payload := range []string{`[]`, `"x"`, `null`, `{`, ``} {
		if err := s.SaveDraft(t.Context(), models.Shop, json.RawMessage(payload)); !errors.Is(err, models.ErrInvalidDocument) {
			t.Errorf("SaveDraft(%q) error = %v", payload, err)
		}
	}
	if err := s.SaveDraft(t.Context(), "chat", json.RawMessage(`{}`)); !errors.Is(err, models.ErrInvalidCollection) {
		t.Errorf("SaveDraft(chat) error = %v", err)
	}
}

func TestDraftServicePublish(t *testing.T) {
	fs := newTestFileStore(t)
	drafts := NewDraftService(fs, nil)
	docs := NewDocumentService(fs, nil)
	ctx := t.Context()

	if err := drafts.Publish(ctx, models.Research); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Publish() without draft = %v", err)
	}

	payload := json.RawMessage(`{"posts":[{"id":"p1","type":"research","title":"T","content":"body","status":"published","created_at":"2024-01-01T00:00:00.000000","updated_at":"2024-01-01T00:00:00.000000"}]}`)
	if err := drafts.SaveDraft(ctx, models.Research, payload); err != nil {
		t.Fatal(err)
	}
	if err := drafts.Publish(ctx, models.Research); err != nil {
		t.Fatal(err)
	}
	live, err := os.ReadFile(fs.CollectionPath(models.Research))
	if err != nil {
		t.Fatal(err)
	}
	if string(live) != string(payload) {
		t.Errorf("live container = %s, want %s", live, payload)
	}
	list, err := docs.ListAll(ctx, models.Research)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "p1" || list[0].Body != "body" {
		t.Errorf("ListAll = %+v", list)
	}
	if _, err := os.Stat(fs.DraftPath(models.Research)); err != nil {
		t.Errorf("draft removed by publish: %v", err)
	}
}

func TestDraftServicePublishRejected(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no posts", `{"items":[]}`},
		{"posts not list", `{"posts":{}}`},
		{"item not object", `{"posts":[1]}`},
		{"missing id", `{"posts":[{"content":"x"}]}`},
		{"duplicate id", `{"posts":[{"id":"a","created_at":"t"},{"id":"a","created_at":"t"}]}`},
		{"bad status", `{"posts":[{"id":"a","created_at":"t","status":"gone"}]}`},
		{"missing created_at", `{"posts":[{"id":"a","content":"x"}]}`},
		{"unknown field", `{"posts":[{"id":"a","created_at":"t","tags":["x"]}]}`},
		{"other collection", `{"posts":[{"id":"a","created_at":"t","type":"media"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newTestFileStore(t)
			drafts := NewDraftService(fs, nil)
			docs := NewDocumentService(fs, nil)
			ctx := t.Context()
			if _, err := docs.Create(ctx, models.Shop, &models.Patch{Body: ptr("live")}); err != nil {
				t.Fatal(err)
			}
			before, err := os.ReadFile(fs.CollectionPath(models.Shop))
			if err != nil {
				t.Fatal(err)
			}
			if err := drafts.SaveDraft(ctx, models.Shop, json.RawMessage(tt.payload)); err != nil {
				t.Fatal(err)
			}
			if err := drafts.Publish(ctx, models.Shop); !errors.Is(err, models.ErrRejected) {
				t.Fatalf("Publish() error = %v", err)
			}
			after, err := os.ReadFile(fs.CollectionPath(models.Shop))
			if err != nil {
				t.Fatal(err)
			}
			if string(before) != string(after) {
				t.Error("rejected publish changed the live container")
			}
		})
	}
}

func TestDraftServicePublishThenCreate(t *testing.T) {
	fs := newTestFileStore(t)
	drafts := NewDraftService(fs, nil)
	docs := NewDocumentService(fs, nil)
	ctx := t.Context()

	payload := json.RawMessage(`{"posts":[{"id":"p1","content":"b","status":"published","created_at":"2024-01-01T00:00:00.000000"}],"note":"kept"}`)
	if err := drafts.SaveDraft(ctx, models.Research, payload); err != nil {
		t.Fatal(err)
	}
	if err := drafts.Publish(ctx, models.Research); err != nil {
		t.Fatal(err)
	}
	got, err := docs.GetByID(ctx, models.Research, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Collection != models.Research || got.Images == nil || got.Links == nil {
		t.Errorf("GetByID = %+v", got)
	}
	created, err := docs.Create(ctx, models.Research, &models.Patch{Body: ptr("new")})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(fs.CollectionPath(models.Research))
	if err != nil {
		t.Fatal(err)
	}
	var live struct {
		Posts []map[string]json.RawMessage `json:"posts"`
		Note  string                       `json:"note"`
	}
	if err := json.Unmarshal(data, &live); err != nil {
		t.Fatal(err)
	}
	if live.Note != "kept" {
		t.Errorf("note = %q", live.Note)
	}
	if len(live.Posts) != 2 {
		t.Fatalf("posts = %s", data)
	}
	want := map[string]string{
		"id":         `"p1"`,
		"type":       `"research"`,
		"content":    `"b"`,
		"status":     `"published"`,
		"created_at": `"2024-01-01T00:00:00.000000"`,
		"images":     `[]`,
		"links":      `[]`,
	}
	for k, v := range want {
		if got := string(live.Posts[0][k]); got != v {
			t.Errorf("published item %s = %s, want %s", k, got, v)
		}
	}
	if got := string(live.Posts[1]["id"]); got != `"`+created.ID+`"` {
		t.Errorf("created item id = %s", got)
	}
}
