package handlers

import (
	"context"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/maruel/wcstore/internal/models"
)

// draftContainer is the shape of a collection container and of a draft that
// can be published.
type draftContainer struct {
	Posts []models.Document `json:"posts"`
}

var schemaTypes = map[string]reflect.Type{
	"document":     reflect.TypeFor[models.Document](),
	"announcement": reflect.TypeFor[models.Announcement](),
	"drafts":       reflect.TypeFor[draftContainer](),
}

// SchemaHandler publishes the JSON Schema of the stored files.
type SchemaHandler struct {
	schemas map[string]*jsonschema.Schema
}

// NewSchemaHandler reflects every schema once.
func NewSchemaHandler() *SchemaHandler {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	h := &SchemaHandler{schemas: make(map[string]*jsonschema.Schema, len(schemaTypes))}
	for name, t := range schemaTypes {
		h.schemas[name] = r.ReflectFromType(t)
	}
	return h
}

// SchemaRequest names a schema.
type SchemaRequest struct {
	Name string `path:"name"`
}

// Get returns the named schema.
func (h *SchemaHandler) Get(ctx context.Context, req SchemaRequest) (*jsonschema.Schema, error) {
	s, ok := h.schemas[req.Name]
	if !ok {
		return nil, fmt.Errorf("schema %q: %w", req.Name, models.ErrNotFound)
	}
	return s, nil
}
