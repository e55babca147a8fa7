package content

import (
	"context"
	"fmt"
)

// SaveFunc persists a record through the storage layer. The registry's
// post-load hooks receive one so synthesized defaults reach the store;
// created selects insert over update.
type SaveFunc func(ctx context.Context, rec Record, created bool) error

// PostLoadFunc is a kind-specific repair pass run after that kind's
// cache has been filled.
type PostLoadFunc func(ctx context.Context, reg *Registry, save SaveFunc) error

// Descriptor binds one content kind to everything the generic
// load/CRUD/migrate paths need: a constructor for decoding, the
// in-memory lookup, and an optional post-load hook. The former
// per-kind switch statements all collapse into iteration over these.
type Descriptor struct {
	Kind     Kind
	Table    string
	New      func() Record
	Lookup   *Lookup
	PostLoad PostLoadFunc

	// Folders is the linked folder hierarchy for this kind, replaced
	// wholesale by each bulk load.
	Folders *FolderTree
}

// Registry is the closed table of content kinds. It is built once at
// startup and passed by reference to the loader, the CRUD manager and
// the migrator; the lookups it owns live for the whole process.
type Registry struct {
	byKind map[Kind]*Descriptor
	order  []Kind

	// Variables is rebuilt whenever any variable kind changes.
	Variables *VariableIndex
}

func NewRegistry() *Registry {
	r := &Registry{
		byKind:    make(map[Kind]*Descriptor, kindCount),
		Variables: NewVariableIndex(),
	}

	r.register(KindAnimation, func() Record { return &AnimationRecord{} }, nil)
	r.register(KindClass, func() Record { return &ClassRecord{} }, seedDefaultClass)
	r.register(KindItem, func() Record { return &ItemRecord{} }, nil)
	r.register(KindNpc, func() Record { return &NpcRecord{} }, nil)
	r.register(KindProjectile, func() Record { return &ProjectileRecord{} }, nil)
	r.register(KindResource, func() Record { return &ResourceRecord{} }, nil)
	r.register(KindShop, func() Record { return &ShopRecord{} }, nil)
	r.register(KindSpell, func() Record { return &SpellRecord{} }, nil)
	r.register(KindCraftTable, func() Record { return &CraftTableRecord{} }, nil)
	r.register(KindCraft, func() Record { return &CraftRecord{} }, nil)
	r.register(KindMap, func() Record { return &MapRecord{} }, seedDefaultMap)
	r.register(KindEvent, func() Record { return &EventRecord{} }, nil)
	r.register(KindPlayerVariable, func() Record { return &PlayerVariableRecord{} }, rebuildVariables)
	r.register(KindServerVariable, func() Record { return &ServerVariableRecord{} }, rebuildVariables)
	r.register(KindGuildVariable, func() Record { return &GuildVariableRecord{} }, rebuildVariables)
	r.register(KindTileset, func() Record { return &TilesetRecord{} }, nil)
	r.register(KindTime, func() Record { return &TimeRecord{} }, nil)

	return r
}

func (r *Registry) register(kind Kind, ctor func() Record, post PostLoadFunc) {
	r.byKind[kind] = &Descriptor{
		Kind:     kind,
		Table:    kind.Table(),
		New:      ctor,
		Lookup:   NewLookup(),
		PostLoad: post,
	}
	r.order = append(r.order, kind)
}

// Get returns the descriptor for a kind.
func (r *Registry) Get(kind Kind) (*Descriptor, error) {
	d, ok := r.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	return d, nil
}

// Each visits every descriptor in declared kind order.
func (r *Registry) Each(fn func(*Descriptor) error) error {
	for _, kind := range r.order {
		if err := fn(r.byKind[kind]); err != nil {
			return err
		}
	}
	return nil
}

// Tables returns every content table in declared kind order.
func (r *Registry) Tables() []string {
	tables := make([]string, 0, len(r.order))
	for _, kind := range r.order {
		tables = append(tables, r.byKind[kind].Table)
	}
	return tables
}

// Maps is a convenience accessor for the map lookup, the registry's
// hottest consumer.
func (r *Registry) Maps() *Lookup {
	return r.byKind[KindMap].Lookup
}

// Lookup returns the cache for a kind, or nil for an unknown kind.
func (r *Registry) Lookup(kind Kind) *Lookup {
	d, ok := r.byKind[kind]
	if !ok {
		return nil
	}
	return d.Lookup
}

func rebuildVariables(_ context.Context, reg *Registry, _ SaveFunc) error {
	reg.Variables.Rebuild(reg)
	return nil
}
