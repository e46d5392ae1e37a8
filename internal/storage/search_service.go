package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/maruel/wcstore/internal/models"
)

// Relevance weights of a keyword match.
const (
	titleWeight = 10
	bodyWeight  = 1
)

// SearchService scans published documents of every collection on each query.
//
// There is no index: the cost is linear in the number of stored documents.
type SearchService struct {
	documents *DocumentService
}

// NewSearchService creates a new search service.
func NewSearchService(documents *DocumentService) *SearchService {
	return &SearchService{documents: documents}
}

// SearchHit is a matching document and its relevance.
type SearchHit struct {
	models.Document
	Relevance int `json:"relevance"`
}

// SearchResults groups hits by collection.
type SearchResults struct {
	Hits  map[models.Collection][]SearchHit
	Total int
}

// MarshalJSON flattens the results to one key per collection plus "total".
// Every collection key is present, empty when nothing matched.
func (r *SearchResults) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(models.Collections())+1)
	for _, c := range models.Collections() {
		hits := r.Hits[c]
		if hits == nil {
			hits = []SearchHit{}
		}
		out[string(c)] = hits
	}
	out["total"] = r.Total
	return json.Marshal(out)
}

// Search returns published documents whose title or body contains keyword,
// case-insensitively.
//
// Within a collection, hits are ordered by relevance then by created_at, both
// descending. A collection that cannot be read contributes no hits.
func (s *SearchService) Search(ctx context.Context, keyword string) (*SearchResults, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: empty search keyword", models.ErrInvalidDocument)
	}
	needle := strings.ToLower(keyword)
	res := &SearchResults{Hits: make(map[models.Collection][]SearchHit, len(models.Collections()))}
	for _, c := range models.Collections() {
		docs, err := s.documents.peek(c)
		if err != nil {
			slog.WarnContext(ctx, "Skipping collection in search", "collection", c, "err", err)
			res.Hits[c] = []SearchHit{}
			continue
		}
		hits := []SearchHit{}
		for _, d := range docs {
			if d.Status != models.StatusPublished {
				continue
			}
			if r := relevance(d, needle); r > 0 {
				hits = append(hits, SearchHit{Document: d, Relevance: r})
			}
		}
		slices.SortStableFunc(hits, func(a, b SearchHit) int {
			if c := cmp.Compare(b.Relevance, a.Relevance); c != 0 {
				return c
			}
			return strings.Compare(b.CreatedAt, a.CreatedAt)
		})
		res.Hits[c] = hits
		res.Total += len(hits)
	}
	return res, nil
}

// relevance scores d against the lowercased needle.
func relevance(d models.Document, needle string) int {
	score := 0
	if strings.Contains(strings.ToLower(d.Title), needle) {
		score += titleWeight
	}
	if strings.Contains(strings.ToLower(d.Body), needle) {
		score += bodyWeight
	}
	return score
}
