package board

import (
	"fmt"
	"strings"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

// Selection is an ordered multi-select set of resources
type Selection struct {
	order []string
	items map[string]models.Resource
}

// NewSelection returns an empty selection
func NewSelection() *Selection {
	return &Selection{items: make(map[string]models.Resource)}
}

// Toggle adds res if absent and removes it otherwise. It reports whether
// res is selected afterwards.
func (s *Selection) Toggle(res models.Resource) bool {
	if _, ok := s.items[res.ID]; ok {
		delete(s.items, res.ID)
		for i, id := range s.order {
			if id == res.ID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false
	}
	s.items[res.ID] = res
	s.order = append(s.order, res.ID)
	return true
}

// Contains reports whether id is selected
func (s *Selection) Contains(id string) bool {
	_, ok := s.items[id]
	return ok
}

// Items returns the selection in the order it was built
func (s *Selection) Items() []models.Resource {
	out := make([]models.Resource, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Len returns the number of selected resources
func (s *Selection) Len() int {
	return len(s.order)
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.order = nil
	s.items = make(map[string]models.Resource)
}

// Combo is a named group of resources built from a selection. Combos are
// not persisted.
type Combo struct {
	Name  string            `json:"name"`
	Items []models.Resource `json:"items"`
}

// NewCombo builds a combo out of the selected items
func NewCombo(name string, items []models.Resource) (Combo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Combo{}, fmt.Errorf("%w: combo name is required", models.ErrInvalidInput)
	}
	if len(items) < 2 {
		return Combo{}, fmt.Errorf("%w: a combo needs at least two items", models.ErrInvalidInput)
	}
	out := make([]models.Resource, len(items))
	copy(out, items)
	return Combo{Name: name, Items: out}, nil
}
