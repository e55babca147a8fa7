package topology

import (
	"github.com/google/uuid"

	"github.com/eldermoor/eldermoor/internal/content"
)

type cell struct{ x, y int }

// Neighbour slot offsets in the up, down, left, right order
// MapRecord.Neighbors uses. Up decreases y.
var neighborOffsets = [4]cell{
	{0, -1},
	{0, 1},
	{-1, 0},
	{1, 0},
}

// gridBuild accumulates one grid's membership during partitioning.
type gridBuild struct {
	order    []*content.MapRecord
	pos      map[uuid.UUID]cell
	occupied map[cell]uuid.UUID
}

func newGridBuild() *gridBuild {
	return &gridBuild{
		pos:      map[uuid.UUID]cell{},
		occupied: map[cell]uuid.UUID{},
	}
}

func (g *gridBuild) add(mp *content.MapRecord, at cell) {
	g.order = append(g.order, mp)
	g.pos[mp.Id] = at
	g.occupied[at] = mp.Id
}

// placeFor decides whether mp belongs to this grid: either one of
// mp's declared neighbours is already a member, or a member declares
// mp as its neighbour. The first candidate whose cell is free wins;
// members are scanned in insertion order so the result is stable.
func (g *gridBuild) placeFor(mp *content.MapRecord) (cell, bool) {
	for i, id := range mp.Neighbors() {
		if id == uuid.Nil {
			continue
		}
		at, ok := g.pos[id]
		if !ok {
			continue
		}
		// mp declares the member as e.g. its Up neighbour, so mp sits
		// on the opposite side of it.
		c := cell{at.x - neighborOffsets[i].x, at.y - neighborOffsets[i].y}
		if _, taken := g.occupied[c]; !taken {
			return c, true
		}
	}

	for _, member := range g.order {
		for i, id := range member.Neighbors() {
			if id != mp.Id {
				continue
			}
			at := g.pos[member.Id]
			c := cell{at.x + neighborOffsets[i].x, at.y + neighborOffsets[i].y}
			if _, taken := g.occupied[c]; !taken {
				return c, true
			}
		}
	}

	return cell{}, false
}

// freeze materializes the build into an immutable MapGrid and stamps
// each member's derived placement fields.
func (g *gridBuild) freeze(index int) *MapGrid {
	xMin, xMax, yMin, yMax := 0, 0, 0, 0
	for _, at := range g.pos {
		if at.x < xMin {
			xMin = at.x
		}
		if at.x > xMax {
			xMax = at.x
		}
		if at.y < yMin {
			yMin = at.y
		}
		if at.y > yMax {
			yMax = at.y
		}
	}

	grid := newMapGrid(index, xMin, xMax, yMin, yMax)
	for _, mp := range g.order {
		at := g.pos[mp.Id]
		grid.set(at.x, at.y, mp.Id)
		mp.GridIndex = index
		mp.GridX = at.x
		mp.GridY = at.y
	}
	return grid
}

// partition assigns every map to a grid. The first unplaced map in
// scan order seeds a grid, which is then grown to a fixpoint before
// the next seed: a linked chain lands on one grid no matter where its
// members fall in the scan. Within a grid the first free placement in
// scan order is authoritative.
func partition(maps []*content.MapRecord) []*gridBuild {
	for _, mp := range maps {
		mp.ClearDerived()
	}

	placed := make(map[uuid.UUID]bool, len(maps))
	var builds []*gridBuild

	for _, seed := range maps {
		if placed[seed.Id] {
			continue
		}
		g := newGridBuild()
		g.add(seed, cell{0, 0})
		placed[seed.Id] = true

		// A member linked to the seed may sit anywhere later in the
		// scan, and its own links pull in further maps, so keep
		// sweeping until a full pass places nothing.
		for grew := true; grew; {
			grew = false
			for _, mp := range maps {
				if placed[mp.Id] {
					continue
				}
				if at, ok := g.placeFor(mp); ok {
					g.add(mp, at)
					placed[mp.Id] = true
					grew = true
				}
			}
		}

		builds = append(builds, g)
	}

	return builds
}
