package content

import "github.com/google/uuid"

// MapLayer is one tile layer of a map. Attribute layers reference
// other content (resources, warps) by id.
type MapLayer struct {
	Name  string      `json:"name"`
	Tiles []uuid.UUID `json:"tiles,omitempty"`
}

// MapRecord is a map and its declared links to neighbouring maps. The
// grid placement and surrounding-map fields are derived by the world
// topology builder and never persisted.
type MapRecord struct {
	Base

	Up    uuid.UUID `json:"up,omitempty"`
	Down  uuid.UUID `json:"down,omitempty"`
	Left  uuid.UUID `json:"left,omitempty"`
	Right uuid.UUID `json:"right,omitempty"`

	Layers []MapLayer `json:"layers,omitempty"`

	Music    string `json:"music,omitempty"`
	Revision int    `json:"revision,omitempty"`

	// Derived topology state, rebuilt on every grid pass.
	GridIndex         int          `json:"-"`
	GridX             int          `json:"-"`
	GridY             int          `json:"-"`
	SurroundingMapIds []uuid.UUID  `json:"-"`
	SurroundingMaps   []*MapRecord `json:"-"`
}

func (m *MapRecord) RecordKind() Kind { return KindMap }

// Neighbors returns the four declared neighbour references in
// up, down, left, right order. Empty slots are uuid.Nil.
func (m *MapRecord) Neighbors() [4]uuid.UUID {
	return [4]uuid.UUID{m.Up, m.Down, m.Left, m.Right}
}

// SetNeighbor writes one neighbour slot by the same index order
// Neighbors uses.
func (m *MapRecord) SetNeighbor(i int, id uuid.UUID) {
	switch i {
	case 0:
		m.Up = id
	case 1:
		m.Down = id
	case 2:
		m.Left = id
	case 3:
		m.Right = id
	}
}

// ClearDerived resets the computed topology fields ahead of a rebuild.
func (m *MapRecord) ClearDerived() {
	m.GridIndex = -1
	m.GridX = 0
	m.GridY = 0
	m.SurroundingMapIds = nil
	m.SurroundingMaps = nil
}
