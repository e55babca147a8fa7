package topology

import "github.com/google/uuid"

// MapGrid is a derived rectangular partition of map space. Grids are
// rebuilt whole and replaced, never mutated in place; callers get
// read-only snapshots.
type MapGrid struct {
	Index int
	XMin  int
	XMax  int
	YMin  int
	YMax  int

	// ids is addressed grid-relative: ids[y-YMin][x-XMin].
	ids [][]uuid.UUID
}

func newMapGrid(index, xMin, xMax, yMin, yMax int) *MapGrid {
	g := &MapGrid{
		Index: index,
		XMin:  xMin,
		XMax:  xMax,
		YMin:  yMin,
		YMax:  yMax,
	}
	g.ids = make([][]uuid.UUID, g.Height())
	for y := range g.ids {
		g.ids[y] = make([]uuid.UUID, g.Width())
	}
	return g
}

func (g *MapGrid) Width() int  { return g.XMax - g.XMin + 1 }
func (g *MapGrid) Height() int { return g.YMax - g.YMin + 1 }

func (g *MapGrid) set(x, y int, id uuid.UUID) {
	g.ids[y-g.YMin][x-g.XMin] = id
}

// At returns the map id occupying the absolute grid cell (x, y), or
// uuid.Nil when the cell is out of bounds or empty.
func (g *MapGrid) At(x, y int) uuid.UUID {
	if x < g.XMin || x > g.XMax || y < g.YMin || y > g.YMax {
		return uuid.Nil
	}
	return g.ids[y-g.YMin][x-g.XMin]
}

// Contains reports whether the grid holds the given map id.
func (g *MapGrid) Contains(id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	for _, row := range g.ids {
		for _, cell := range row {
			if cell == id {
				return true
			}
		}
	}
	return false
}
