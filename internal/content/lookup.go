package content

import (
	"sync"

	"github.com/google/uuid"
)

// Lookup is the in-memory index for one content kind. Reads may come
// from the game tick and the persistence pool concurrently; writes are
// serialized by the mutex. Values returns a snapshot copy so callers
// can iterate while the cache is being mutated.
type Lookup struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

func NewLookup() *Lookup {
	return &Lookup{
		records: map[uuid.UUID]Record{},
	}
}

// Set inserts or replaces the record stored under id.
func (l *Lookup) Set(id uuid.UUID, rec Record) error {
	if id == uuid.Nil {
		return ErrInvalidId
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[id] = rec
	return nil
}

// Delete removes the record by identity and reports whether it was
// present. A stale pointer that no longer matches the cached entry is
// left alone.
func (l *Lookup) Delete(rec Record) bool {
	if rec == nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.records[rec.RecordId()]
	if !ok || cur != rec {
		return false
	}

	delete(l.records, rec.RecordId())
	return true
}

func (l *Lookup) Get(id uuid.UUID) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[id]
	return rec, ok
}

// Values returns a snapshot of all cached records.
func (l *Lookup) Values() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	vals := make([]Record, 0, len(l.records))
	for _, rec := range l.records {
		vals = append(vals, rec)
	}
	return vals
}

func (l *Lookup) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.records)
}

// Clear drops every cached record. The bulk loader calls this before
// refilling a kind.
func (l *Lookup) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = map[uuid.UUID]Record{}
}

// GetAs fetches a record and asserts its concrete type.
func GetAs[T Record](l *Lookup, id uuid.UUID) (T, bool) {
	rec, ok := l.Get(id)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := rec.(T)
	return t, ok
}

// ValuesAs snapshots a lookup as its concrete type, skipping anything
// that does not match.
func ValuesAs[T Record](l *Lookup) []T {
	recs := l.Values()
	vals := make([]T, 0, len(recs))
	for _, rec := range recs {
		if t, ok := rec.(T); ok {
			vals = append(vals, t)
		}
	}
	return vals
}
