package gamedata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eldermoor/eldermoor/internal/content"
	"github.com/eldermoor/eldermoor/internal/storage"
)

func newRecordId() uuid.UUID { return uuid.New() }

// Rebuilder is the world topology builder as the CRUD path sees it.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
	CheckMapConnections(ctx context.Context, m *content.MapRecord) (bool, error)
}

// Notifier carries the fire-and-forget call-outs to the networking
// layer.
type Notifier interface {
	MapUpdated(id uuid.UUID)
	MapListChanged()
}

// Offloader runs a persistence task off the tick loop. Implemented by
// the worker pool.
type Offloader interface {
	Submit(task func())
}

// Manager is the runtime write path: every content edit goes through
// the cache and the store as one logical operation. Errors are logged
// with kind and id, then returned to the caller; nothing is swallowed.
type Manager struct {
	reg   *content.Registry
	store storage.Store

	audit    storage.Store // optional append-only audit store
	topology Rebuilder     // set after the topology builder exists
	notifier Notifier
	pool     Offloader

	mu    sync.Mutex
	dirty map[uuid.UUID]content.Record
}

type ManagerOpt func(*Manager)

func WithAuditStore(st storage.Store) ManagerOpt {
	return func(m *Manager) { m.audit = st }
}

func WithNotifier(n Notifier) ManagerOpt {
	return func(m *Manager) { m.notifier = n }
}

func WithOffloader(p Offloader) ManagerOpt {
	return func(m *Manager) { m.pool = p }
}

func NewManager(reg *content.Registry, store storage.Store, opts ...ManagerOpt) *Manager {
	m := &Manager{
		reg:   reg,
		store: store,
		dirty: map[uuid.UUID]content.Record{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetTopology wires the topology builder in once it exists; the
// builder itself needs the manager for persistence, so the two are
// connected after construction.
func (m *Manager) SetTopology(t Rebuilder) {
	m.topology = t
}

// Add creates a new record of the given kind, persists it and caches
// it. The id is assigned here and never changes.
func (m *Manager) Add(ctx context.Context, kind content.Kind) (content.Record, error) {
	desc, err := m.reg.Get(kind)
	if err != nil {
		return nil, err
	}

	rec := desc.New()
	rec.SetRecordId(newRecordId())

	row, err := encodeRow(rec)
	if err != nil {
		return nil, err
	}
	if err := m.store.InsertRow(ctx, desc.Table, row); err != nil {
		slog.Error("adding content record", "kind", kind.String(), "id", rec.RecordId(), "error", err)
		return nil, err
	}
	if err := desc.Lookup.Set(rec.RecordId(), rec); err != nil {
		return nil, err
	}

	m.recordAudit(ctx, rec, "create")
	m.afterMutation(ctx, rec)
	return rec, nil
}

// Save persists an edited record. Map connectivity edits additionally
// run the single-map connection repair and announce the update.
func (m *Manager) Save(ctx context.Context, rec content.Record) error {
	if err := m.Persist(ctx, rec); err != nil {
		return err
	}

	m.recordAudit(ctx, rec, "update")

	if mp, ok := rec.(*content.MapRecord); ok {
		repaired := false
		if m.topology != nil {
			var err error
			repaired, err = m.topology.CheckMapConnections(ctx, mp)
			if err != nil {
				return err
			}
		}
		// The repair path already announced the map; don't announce it
		// twice for one save.
		if m.notifier != nil && !repaired {
			m.notifier.MapUpdated(mp.Id)
		}
	}
	m.rebuildVariableIndex(rec)
	return nil
}

// Persist writes a record through cache and store without triggering
// topology or notification side effects. The topology builder uses
// this for its own repairs.
func (m *Manager) Persist(ctx context.Context, rec content.Record) error {
	desc, err := m.reg.Get(rec.RecordKind())
	if err != nil {
		return err
	}

	row, err := encodeRow(rec)
	if err != nil {
		return err
	}
	if err := m.store.UpdateRow(ctx, desc.Table, row); err != nil {
		slog.Error("saving content record", "kind", desc.Kind.String(), "id", rec.RecordId(), "error", err)
		return err
	}
	return desc.Lookup.Set(rec.RecordId(), rec)
}

// Delete removes a record from the store and the cache. Deleting a
// map rebuilds the whole topology and announces the new map list.
func (m *Manager) Delete(ctx context.Context, rec content.Record) error {
	desc, err := m.reg.Get(rec.RecordKind())
	if err != nil {
		return err
	}

	if err := m.store.DeleteRow(ctx, desc.Table, rec.RecordId()); err != nil {
		slog.Error("deleting content record", "kind", desc.Kind.String(), "id", rec.RecordId(), "error", err)
		return err
	}
	desc.Lookup.Delete(rec)

	m.forgetDirty(rec.RecordId())
	m.recordAudit(ctx, rec, "delete")

	if _, ok := rec.(*content.MapRecord); ok {
		if m.topology != nil {
			if err := m.topology.Rebuild(ctx); err != nil {
				return err
			}
		}
		if m.notifier != nil {
			m.notifier.MapListChanged()
		}
	}
	m.rebuildVariableIndex(rec)
	return nil
}

// SaveFunc adapts Persist to the registry's post-load hook contract.
func (m *Manager) SaveFunc() content.SaveFunc {
	return func(ctx context.Context, rec content.Record, created bool) error {
		if created {
			desc, err := m.reg.Get(rec.RecordKind())
			if err != nil {
				return err
			}
			row, err := encodeRow(rec)
			if err != nil {
				return err
			}
			return m.store.InsertRow(ctx, desc.Table, row)
		}
		return m.Persist(ctx, rec)
	}
}

// MarkDirty queues a record for the next autosave flush instead of
// blocking the caller on store I/O.
func (m *Manager) MarkDirty(rec content.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty[rec.RecordId()] = rec
}

func (m *Manager) forgetDirty(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dirty, id)
}

// Tick flushes the dirty queue through the persistence pool. It
// satisfies the driver's manager contract; the lock is released
// before any I/O starts.
func (m *Manager) Tick(ctx context.Context) error {
	m.mu.Lock()
	if len(m.dirty) == 0 {
		m.mu.Unlock()
		return nil
	}
	pending := make([]content.Record, 0, len(m.dirty))
	for _, rec := range m.dirty {
		pending = append(pending, rec)
	}
	m.dirty = map[uuid.UUID]content.Record{}
	m.mu.Unlock()

	for _, rec := range pending {
		rec := rec
		task := func() {
			if err := m.Persist(ctx, rec); err != nil {
				slog.Warn("autosave flush", "kind", rec.RecordKind().String(), "id", rec.RecordId(), "error", err)
			}
		}
		if m.pool != nil {
			m.pool.Submit(task)
		} else {
			task()
		}
	}
	return nil
}

func (m *Manager) rebuildVariableIndex(rec content.Record) {
	switch rec.RecordKind() {
	case content.KindPlayerVariable, content.KindServerVariable, content.KindGuildVariable:
		m.reg.Variables.Rebuild(m.reg)
	}
}

func (m *Manager) afterMutation(ctx context.Context, rec content.Record) {
	if _, ok := rec.(*content.MapRecord); ok {
		if m.topology != nil {
			if err := m.topology.Rebuild(ctx); err != nil {
				slog.Warn("topology rebuild after map add", "error", err)
			}
		}
		if m.notifier != nil {
			m.notifier.MapListChanged()
		}
	}
	m.rebuildVariableIndex(rec)
}

func (m *Manager) recordAudit(ctx context.Context, rec content.Record, action string) {
	if m.audit == nil {
		return
	}
	ev := storage.AuditEvent{
		Id:       uuid.New(),
		At:       time.Now(),
		Kind:     rec.RecordKind().String(),
		RecordId: rec.RecordId(),
		Action:   action,
		Detail:   fmt.Sprintf("%s %q", action, rec.RecordName()),
	}
	if err := m.audit.AppendAudit(ctx, ev); err != nil {
		slog.Warn("appending audit event", "kind", ev.Kind, "id", ev.RecordId, "error", err)
	}
}
