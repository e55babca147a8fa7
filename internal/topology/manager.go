package topology

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pixil98/go-log"

	"github.com/eldermoor/eldermoor/internal/content"
)

// Persister writes a repaired map record back through cache and store
// without re-entering the topology builder.
type Persister interface {
	Persist(ctx context.Context, rec content.Record) error
}

// Notifier carries the topology call-outs to the networking layer,
// fire-and-forget.
type Notifier interface {
	MapUpdated(id uuid.UUID)
	GridRebuilt(index int)
}

// Manager owns the derived map grids. One mutex guards the grid list
// for the whole of a rebuild and for every point read; the lock is
// never held across store I/O or notification calls.
type Manager struct {
	mu    sync.Mutex
	grids []*MapGrid

	maps     *content.Lookup
	persist  Persister
	notifier Notifier

	bootOnce sync.Once
	bootErr  error
}

func NewManager(maps *content.Lookup, persist Persister, notifier Notifier) *Manager {
	return &Manager{
		maps:     maps,
		persist:  persist,
		notifier: notifier,
	}
}

// Rebuild derives the grid partition and every map's surrounding-map
// lists from scratch, then announces each rebuilt grid.
func (m *Manager) Rebuild(ctx context.Context) error {
	logger := log.GetLogger(ctx)

	maps := sortedMaps(m.maps)

	// Repair dangling neighbour references before partitioning so the
	// placement scan only sees resolvable links.
	for _, mp := range maps {
		if _, err := m.repairConnections(ctx, mp); err != nil {
			return err
		}
	}

	m.mu.Lock()
	builds := partition(maps)
	grids := make([]*MapGrid, len(builds))
	for i, b := range builds {
		grids[i] = b.freeze(i)
	}
	for _, mp := range maps {
		applyAdjacency(mp, grids[mp.GridIndex], m.maps)
	}
	m.grids = grids
	m.mu.Unlock()

	logger.Infof("rebuilt %d map grids from %d maps", len(grids), len(maps))

	if m.notifier != nil {
		for _, g := range grids {
			m.notifier.GridRebuilt(g.Index)
		}
	}
	return nil
}

// Tick runs the initial rebuild on the first tick after startup, once
// the messaging worker is up and publishes can reach clients. A boot
// rebuild failure is fatal; the server must not run without derived
// topology.
func (m *Manager) Tick(ctx context.Context) error {
	m.bootOnce.Do(func() {
		m.bootErr = m.Rebuild(ctx)
	})
	return m.bootErr
}

// Grid returns the grid snapshot at index, or nil.
func (m *Manager) Grid(index int) *MapGrid {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.grids) {
		return nil
	}
	return m.grids[index]
}

// GridCount returns the number of grids from the last rebuild.
func (m *Manager) GridCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.grids)
}

// GridsContain reports whether any grid holds the given map id.
func (m *Manager) GridsContain(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.grids {
		if g.Contains(id) {
			return true
		}
	}
	return false
}

// CheckMapConnections validates a single map's four neighbour
// references against current map cache membership. Dangling
// references are cleared; if anything changed the map is persisted
// and an update announced. Returns whether a repair happened.
func (m *Manager) CheckMapConnections(ctx context.Context, mp *content.MapRecord) (bool, error) {
	return m.repairConnections(ctx, mp)
}

func (m *Manager) repairConnections(ctx context.Context, mp *content.MapRecord) (bool, error) {
	changed := false
	for i, id := range mp.Neighbors() {
		if id == uuid.Nil {
			continue
		}
		if _, ok := m.maps.Get(id); !ok {
			mp.SetNeighbor(i, uuid.Nil)
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	if m.persist != nil {
		if err := m.persist.Persist(ctx, mp); err != nil {
			return true, err
		}
	}
	if m.notifier != nil {
		m.notifier.MapUpdated(mp.Id)
	}
	return true, nil
}

// sortedMaps snapshots the map cache in a stable order so partition
// results are deterministic between rebuilds.
func sortedMaps(lookup *content.Lookup) []*content.MapRecord {
	maps := content.ValuesAs[*content.MapRecord](lookup)
	sort.Slice(maps, func(i, j int) bool {
		return bytes.Compare(maps[i].Id[:], maps[j].Id[:]) < 0
	})
	return maps
}

// applyAdjacency fills a map's surrounding lists from the 8 grid
// cells around it, row-major, skipping itself.
func applyAdjacency(mp *content.MapRecord, grid *MapGrid, lookup *content.Lookup) {
	mp.SurroundingMapIds = nil
	mp.SurroundingMaps = nil

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			id := grid.At(mp.GridX+dx, mp.GridY+dy)
			if id == uuid.Nil {
				continue
			}
			neighbor, ok := content.GetAs[*content.MapRecord](lookup, id)
			if !ok {
				continue
			}
			mp.SurroundingMapIds = append(mp.SurroundingMapIds, id)
			mp.SurroundingMaps = append(mp.SurroundingMaps, neighbor)
		}
	}
}
