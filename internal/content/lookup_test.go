package content

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"
)

func TestLookupSetGet(t *testing.T) {
	l := NewLookup()

	item := &ItemRecord{Base: Base{Id: uuid.New(), Name: "Sword"}}
	if err := l.Set(item.Id, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := l.Get(item.Id)
	testutil.AssertEqual(t, "found", ok, true)
	testutil.AssertEqual(t, "name", got.RecordName(), "Sword")
	testutil.AssertEqual(t, "count", l.Count(), 1)
}

func TestLookupSetNilId(t *testing.T) {
	l := NewLookup()

	err := l.Set(uuid.Nil, &ItemRecord{})
	if !errors.Is(err, ErrInvalidId) {
		t.Fatalf("expected ErrInvalidId, got %v", err)
	}
	testutil.AssertEqual(t, "count", l.Count(), 0)
}

func TestLookupSetReplaces(t *testing.T) {
	l := NewLookup()
	id := uuid.New()

	first := &ItemRecord{Base: Base{Id: id, Name: "First"}}
	second := &ItemRecord{Base: Base{Id: id, Name: "Second"}}
	l.Set(id, first)
	l.Set(id, second)

	got, _ := l.Get(id)
	testutil.AssertEqual(t, "name", got.RecordName(), "Second")
	testutil.AssertEqual(t, "count", l.Count(), 1)
}

func TestLookupDeleteByIdentity(t *testing.T) {
	l := NewLookup()
	id := uuid.New()

	cached := &ItemRecord{Base: Base{Id: id, Name: "Cached"}}
	l.Set(id, cached)

	// A different pointer with the same id must not remove the entry.
	stale := &ItemRecord{Base: Base{Id: id, Name: "Stale"}}
	testutil.AssertEqual(t, "stale delete", l.Delete(stale), false)
	testutil.AssertEqual(t, "count after stale delete", l.Count(), 1)

	testutil.AssertEqual(t, "delete", l.Delete(cached), true)
	testutil.AssertEqual(t, "count", l.Count(), 0)

	// Deleting again is a no-op.
	testutil.AssertEqual(t, "second delete", l.Delete(cached), false)
}

func TestLookupDeleteNil(t *testing.T) {
	l := NewLookup()
	testutil.AssertEqual(t, "nil delete", l.Delete(nil), false)
}

func TestLookupValuesSnapshot(t *testing.T) {
	l := NewLookup()
	for i := 0; i < 3; i++ {
		id := uuid.New()
		l.Set(id, &ItemRecord{Base: Base{Id: id}})
	}

	vals := l.Values()
	testutil.AssertEqual(t, "values length", len(vals), 3)

	// Mutating the cache must not affect an already taken snapshot.
	l.Clear()
	testutil.AssertEqual(t, "snapshot length after clear", len(vals), 3)
	testutil.AssertEqual(t, "count after clear", l.Count(), 0)
}

func TestLookupGetAs(t *testing.T) {
	l := NewLookup()
	id := uuid.New()
	l.Set(id, &ItemRecord{Base: Base{Id: id, Name: "Potion"}})

	item, ok := GetAs[*ItemRecord](l, id)
	testutil.AssertEqual(t, "found", ok, true)
	testutil.AssertEqual(t, "name", item.Name, "Potion")

	_, ok = GetAs[*MapRecord](l, id)
	testutil.AssertEqual(t, "wrong type found", ok, false)

	_, ok = GetAs[*ItemRecord](l, uuid.New())
	testutil.AssertEqual(t, "missing found", ok, false)
}

func TestLookupValuesAs(t *testing.T) {
	l := NewLookup()
	itemId := uuid.New()
	mapId := uuid.New()
	l.Set(itemId, &ItemRecord{Base: Base{Id: itemId}})
	l.Set(mapId, &MapRecord{Base: Base{Id: mapId}})

	items := ValuesAs[*ItemRecord](l)
	testutil.AssertEqual(t, "items length", len(items), 1)
	testutil.AssertEqual(t, "item id", items[0].Id, itemId)
}

func TestLookupConcurrentAccess(t *testing.T) {
	l := NewLookup()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := uuid.New()
				l.Set(id, &ItemRecord{Base: Base{Id: id}})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for range l.Values() {
				}
				l.Count()
			}
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, "count", l.Count(), 800)
}
