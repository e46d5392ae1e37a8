package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/maruel/wcstore/internal/models"
)

func TestSchemaHandler(t *testing.T) {
	h := NewSchemaHandler()
	tests := []struct {
		name string
		want []string
	}{
		{"document", []string{`"created_at"`, `"content"`, `"enum":["published","draft"]`}},
		{"announcement", []string{`"items"`, `"enum":["text","image"]`}},
		{"drafts", []string{`"posts"`, `"updated_at"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := h.Get(t.Context(), SchemaRequest{Name: tt.name})
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			b, err := json.Marshal(s)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Contains(string(b), `"$ref"`) {
				t.Errorf("schema has references: %s", b)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(b), w) {
					t.Errorf("schema lacks %s: %s", w, b)
				}
			}
		})
	}
	if _, err := h.Get(t.Context(), SchemaRequest{Name: "config"}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get(config) = %v, want ErrNotFound", err)
	}
}
