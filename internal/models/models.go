// Package models defines the core data structures used throughout the application.
package models

import (
	"fmt"
	"strings"
)

// DefaultAuthor is the display name stamped on documents created without one.
const DefaultAuthor = "Admin"

// Status is the publication state of a document.
type Status string

const (
	// StatusPublished documents are visible to the public listing and search.
	StatusPublished Status = "published"
	// StatusDraft documents are only visible to the admin.
	StatusDraft Status = "draft"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPublished || s == StatusDraft
}

// Link is an opaque key/value link descriptor attached to a document.
type Link map[string]any

// Document is one content record of a collection.
//
// Readers must tolerate missing optional fields; files written by older
// versions or by a published draft may omit any of them.
type Document struct {
	ID         string     `json:"id" jsonschema:"description=Unique identifier within the collection"`
	Collection Collection `json:"type,omitempty" jsonschema:"description=Collection the document belongs to"`
	Title      string     `json:"title,omitempty"`
	Body       string     `json:"content" jsonschema:"description=Text payload"`
	Images     []string   `json:"images" jsonschema:"description=Blob URLs in display order"`
	Links      []Link     `json:"links"`
	Status     Status     `json:"status" jsonschema:"enum=published,enum=draft"`
	CreatedAt  string     `json:"created_at" jsonschema:"description=UTC creation time; never modified"`
	UpdatedAt  string     `json:"updated_at"`
	Author     string     `json:"author,omitempty"`
}

// Patch is a partial document as sent by a caller.
//
// Nil fields are left untouched. ID, Collection, CreatedAt and UpdatedAt are
// accepted so clients can round-trip a full document, but they are ignored:
// the store owns those fields.
type Patch struct {
	ID         *string   `json:"id,omitempty"`
	Collection *string   `json:"type,omitempty"`
	Title      *string   `json:"title,omitempty"`
	Body       *string   `json:"content,omitempty"`
	Images     *[]string `json:"images,omitempty"`
	Links      *[]Link   `json:"links,omitempty"`
	Status     *Status   `json:"status,omitempty"`
	CreatedAt  *string   `json:"created_at,omitempty"`
	UpdatedAt  *string   `json:"updated_at,omitempty"`
	Author     *string   `json:"author,omitempty"`
}

// Validate checks the fields a caller is allowed to set.
func (p *Patch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: status must be %q or %q, got %q", ErrInvalidDocument, StatusPublished, StatusDraft, *p.Status)
	}
	if p.Images != nil {
		for i, img := range *p.Images {
			if strings.TrimSpace(img) == "" {
				return fmt.Errorf("%w: images[%d] is empty", ErrInvalidDocument, i)
			}
		}
	}
	return nil
}

// Apply overlays the non-nil fields of p onto d.
func (p *Patch) Apply(d *Document) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Body != nil {
		d.Body = *p.Body
	}
	if p.Images != nil {
		d.Images = append([]string{}, (*p.Images)...)
	}
	if p.Links != nil {
		d.Links = append([]Link{}, (*p.Links)...)
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Author != nil {
		d.Author = *p.Author
	}
}

// AnnouncementItemType is the kind of an announcement item.
type AnnouncementItemType string

const (
	// AnnouncementText is a paragraph of text.
	AnnouncementText AnnouncementItemType = "text"
	// AnnouncementImage is an image URL.
	AnnouncementImage AnnouncementItemType = "image"
)

// AnnouncementItem is one block of the site announcement.
type AnnouncementItem struct {
	Type    AnnouncementItemType `json:"type" jsonschema:"enum=text,enum=image"`
	Content string               `json:"content" jsonschema:"description=Text or image URL"`
}

// Announcement is the single site-wide announcement.
type Announcement struct {
	Items     []AnnouncementItem `json:"items"`
	Status    Status             `json:"status" jsonschema:"enum=published,enum=draft"`
	UpdatedAt string             `json:"updated_at,omitempty"`
}
