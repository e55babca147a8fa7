package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const defaultBaseline = 20

// DefaultClass synthesizes the class seeded when no classes exist: one
// sprite per gender and every baseline stat and vital at 20.
func DefaultClass() *ClassRecord {
	c := &ClassRecord{
		Base: Base{
			Id:   uuid.New(),
			Name: "Default",
		},
		Sprites: []ClassSprite{
			{Sprite: "1.png", Gender: GenderMale},
			{Sprite: "2.png", Gender: GenderFemale},
		},
	}
	for i := range c.BaseStats {
		c.BaseStats[i] = defaultBaseline
	}
	for i := range c.BaseVitals {
		c.BaseVitals[i] = defaultBaseline
	}
	return c
}

// DefaultMap synthesizes the empty map seeded when no maps exist.
func DefaultMap() *MapRecord {
	m := &MapRecord{
		Base: Base{
			Id:   uuid.New(),
			Name: "Default",
		},
	}
	m.ClearDerived()
	return m
}

func seedDefaultClass(ctx context.Context, reg *Registry, save SaveFunc) error {
	desc, err := reg.Get(KindClass)
	if err != nil {
		return err
	}
	if desc.Lookup.Count() > 0 {
		return nil
	}

	c := DefaultClass()
	if err := desc.Lookup.Set(c.Id, c); err != nil {
		return err
	}
	if err := save(ctx, c, true); err != nil {
		return fmt.Errorf("seeding default class: %w", err)
	}
	return nil
}

func seedDefaultMap(ctx context.Context, reg *Registry, save SaveFunc) error {
	desc, err := reg.Get(KindMap)
	if err != nil {
		return err
	}

	// Drop layers whose parent map no longer resolves before seeding.
	for _, m := range ValuesAs[*MapRecord](desc.Lookup) {
		pruneOrphanedLayers(m)
	}

	if desc.Lookup.Count() > 0 {
		return nil
	}

	m := DefaultMap()
	if err := desc.Lookup.Set(m.Id, m); err != nil {
		return err
	}
	if err := save(ctx, m, true); err != nil {
		return fmt.Errorf("seeding default map: %w", err)
	}
	return nil
}

// pruneOrphanedLayers removes layer entries with no name and no
// tiles, left behind by interrupted editor sessions.
func pruneOrphanedLayers(m *MapRecord) {
	kept := m.Layers[:0]
	for _, l := range m.Layers {
		if l.Name == "" && len(l.Tiles) == 0 {
			continue
		}
		kept = append(kept, l)
	}
	m.Layers = kept
}
