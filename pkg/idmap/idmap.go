// Package idmap assigns dense zero-based internal ids to arbitrary vertex
// identifiers and keeps the inverse mapping for projecting results back.
package idmap

import (
	"fmt"

	"github.com/gilchrisn/leiden-runner/pkg/models"
)

// UnknownVertexError is returned when an edge endpoint is missing from a supplied id list
type UnknownVertexError struct {
	ID any
}

func (e *UnknownVertexError) Error() string {
	return fmt.Sprintf("unknown vertex %v: not present in the supplied id list", e.ID)
}

// DuplicateVertexError is returned when a supplied id list names the same vertex twice
type DuplicateVertexError struct {
	ID       any
	Position int
}

func (e *DuplicateVertexError) Error() string {
	return fmt.Sprintf("duplicate vertex %v at position %d of the id list", e.ID, e.Position)
}

// Map is a bijection between raw identifiers and internal ids in [0, Len()).
// A Map is an accumulator scoped to one normalization; it is not safe for
// concurrent use.
type Map[K comparable] struct {
	index map[K]int
	ids   []K
	fixed bool
}

// New creates an empty map that interns ids in first-seen order
func New[K comparable]() *Map[K] {
	return &Map[K]{index: make(map[K]int)}
}

// FromList creates a map whose internal ids follow the order of ids.
// The returned map is fixed: Intern never adds new entries to it.
func FromList[K comparable](ids []K) (*Map[K], error) {
	m := &Map[K]{
		index: make(map[K]int, len(ids)),
		ids:   make([]K, 0, len(ids)),
		fixed: true,
	}
	for i, id := range ids {
		if _, exists := m.index[id]; exists {
			return nil, &DuplicateVertexError{ID: id, Position: i}
		}
		m.index[id] = i
		m.ids = append(m.ids, id)
	}
	return m, nil
}

// Intern returns the internal id for raw, assigning the next free id if raw
// has not been seen yet. On a fixed map an unseen id is an UnknownVertexError.
func (m *Map[K]) Intern(raw K) (int, error) {
	if id, ok := m.index[raw]; ok {
		return id, nil
	}
	if m.fixed {
		return -1, &UnknownVertexError{ID: raw}
	}
	id := len(m.ids)
	m.index[raw] = id
	m.ids = append(m.ids, raw)
	return id, nil
}

// Lookup returns the internal id for raw
func (m *Map[K]) Lookup(raw K) (int, bool) {
	id, ok := m.index[raw]
	return id, ok
}

// Raw returns the raw identifier for an internal id
func (m *Map[K]) Raw(id int) (K, bool) {
	if id < 0 || id >= len(m.ids) {
		var zero K
		return zero, false
	}
	return m.ids[id], true
}

// Len returns the number of vertices in the map
func (m *Map[K]) Len() int { return len(m.ids) }

// Inverse returns a copy of the internal id -> raw identifier table
func (m *Map[K]) Inverse() []K {
	out := make([]K, len(m.ids))
	copy(out, m.ids)
	return out
}

// Normalize maps raw edges onto internal ids. Without ids, identifiers are
// interned in the order they are first met while scanning edges (source
// before destination). With ids, the list fixes the assignment and every
// endpoint must appear in it.
func Normalize[K comparable](edges []models.RawEdge[K], ids []K) (*Map[K], []models.Edge, error) {
	var m *Map[K]
	if ids != nil {
		var err error
		if m, err = FromList(ids); err != nil {
			return nil, nil, err
		}
	} else {
		m = New[K]()
	}

	out := make([]models.Edge, len(edges))
	for i, e := range edges {
		src, err := m.Intern(e.Src)
		if err != nil {
			return nil, nil, err
		}
		dst, err := m.Intern(e.Dst)
		if err != nil {
			return nil, nil, err
		}
		out[i] = models.Edge{Src: src, Dst: dst}
	}
	return m, out, nil
}
