// Package directory serves the static hospital reference dataset. The data
// is embedded in the binary, loaded once at startup, and never mutated.
package directory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"billclarity/internal/domain"
)

//go:embed hospitals.json
var hospitalsJSON []byte

// Store is an in-memory, read-only hospital directory.
type Store struct {
	hospitals []domain.Hospital
	bySlug    map[string]*domain.Hospital
}

// NewStore loads the embedded hospital dataset.
func NewStore() (*Store, error) {
	return newStore(hospitalsJSON)
}

func newStore(data []byte) (*Store, error) {
	var hospitals []domain.Hospital
	if err := json.Unmarshal(data, &hospitals); err != nil {
		return nil, fmt.Errorf("loading hospital directory: %w", err)
	}

	bySlug := make(map[string]*domain.Hospital, len(hospitals))
	for i := range hospitals {
		h := &hospitals[i]
		if h.Slug == "" {
			return nil, fmt.Errorf("loading hospital directory: entry %d has no slug", i)
		}
		if _, dup := bySlug[h.Slug]; dup {
			return nil, fmt.Errorf("loading hospital directory: duplicate slug %q", h.Slug)
		}
		bySlug[h.Slug] = h
	}

	return &Store{hospitals: hospitals, bySlug: bySlug}, nil
}

// List returns all hospitals in dataset order.
func (s *Store) List() []domain.Hospital {
	return s.hospitals
}

// GetBySlug returns the hospital with the given slug.
func (s *Store) GetBySlug(slug string) (*domain.Hospital, error) {
	h, ok := s.bySlug[slug]
	if !ok {
		return nil, domain.ErrHospitalNotFound
	}
	return h, nil
}

// Search returns hospitals whose name, city, or state contains the query,
// case-insensitive. An empty query returns the full list.
func (s *Store) Search(query string) []domain.Hospital {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.hospitals
	}

	var matched []domain.Hospital
	for _, h := range s.hospitals {
		if strings.Contains(strings.ToLower(h.Name), q) ||
			strings.Contains(strings.ToLower(h.City), q) ||
			strings.Contains(strings.ToLower(h.State), q) {
			matched = append(matched, h)
		}
	}
	return matched
}
