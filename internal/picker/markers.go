package picker

import (
	"sort"
	"sync"

	"github.com/verte-zerg/flicktype/internal/direction"
)

// Marker is a visible block.
type Marker struct {
	ID    string
	Pos   direction.Vec3
	Label string
}

// MarkerSet is an in-memory Markers implementation for headless use and
// terminal rendering.
type MarkerSet struct {
	mu      sync.Mutex
	visible map[string]Marker
}

// NewMarkerSet creates an empty set.
func NewMarkerSet() *MarkerSet {
	return &MarkerSet{visible: map[string]Marker{}}
}

// Show implements Markers.
func (m *MarkerSet) Show(id string, pos direction.Vec3, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible[id] = Marker{ID: id, Pos: pos, Label: label}
}

// Hide implements Markers.
func (m *MarkerSet) Hide(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.visible, id)
}

// Visible returns the shown markers sorted by id.
func (m *MarkerSet) Visible() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Marker, 0, len(m.visible))
	for _, v := range m.visible {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns one marker.
func (m *MarkerSet) Get(id string) (Marker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visible[id]
	return v, ok
}
