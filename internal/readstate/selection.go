package readstate

import (
	"slices"
	"sync"

	"github.com/tOgg1/wirewave/internal/models"
)

// Selection is the set of messages picked for a bulk action. Selection
// mode is on exactly while the set is non-empty.
type Selection struct {
	mu  sync.Mutex
	ids map[models.ID]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[models.ID]struct{})}
}

// Toggle adds or removes id and reports whether it is now selected.
func (s *Selection) Toggle(id models.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id is selected.
func (s *Selection) Has(id models.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Mode reports whether selection mode is active.
func (s *Selection) Mode() bool {
	return s.Len() > 0
}

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []models.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
