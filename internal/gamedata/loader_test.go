package gamedata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"

	"github.com/eldermoor/eldermoor/internal/content"
	"github.com/eldermoor/eldermoor/internal/storage"
)

func openContentStore(t *testing.T, path string) storage.Store {
	t.Helper()

	st, err := storage.Open(context.Background(), storage.Options{
		Backend: storage.BackendSqlite,
		Path:    path,
	}, storage.PurposeContent)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	if err := st.ApplyMigrations(context.Background()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return st
}

func TestLoadAllSeedsDefaults(t *testing.T) {
	st := openContentStore(t, filepath.Join(t.TempDir(), "content.db"))
	reg := content.NewRegistry()

	if err := NewLoader(reg, st).LoadAll(context.Background()); err != nil {
		t.Fatalf("loading: %v", err)
	}

	// An empty world gets exactly one class, one map and one time
	// record synthesized and written back.
	classes := content.ValuesAs[*content.ClassRecord](reg.Lookup(content.KindClass))
	testutil.AssertEqual(t, "class count", len(classes), 1)
	testutil.AssertEqual(t, "class name", classes[0].Name, "Default")
	testutil.AssertEqual(t, "sprite count", len(classes[0].Sprites), 2)
	testutil.AssertEqual(t, "male sprite", classes[0].Sprites[0].Gender, content.GenderMale)
	testutil.AssertEqual(t, "female sprite", classes[0].Sprites[1].Gender, content.GenderFemale)
	for _, stat := range classes[0].BaseStats {
		testutil.AssertEqual(t, "base stat", stat, 20)
	}
	for _, vital := range classes[0].BaseVitals {
		testutil.AssertEqual(t, "base vital", vital, 20)
	}

	testutil.AssertEqual(t, "map count", reg.Maps().Count(), 1)
	testutil.AssertEqual(t, "time count", reg.Lookup(content.KindTime).Count(), 1)

	// The synthesized records were persisted: a fresh registry loaded
	// from the same store sees them without seeding again.
	reg2 := content.NewRegistry()
	if err := NewLoader(reg2, st).LoadAll(context.Background()); err != nil {
		t.Fatalf("reloading: %v", err)
	}
	testutil.AssertEqual(t, "reloaded classes", reg2.Lookup(content.KindClass).Count(), 1)
	testutil.AssertEqual(t, "reloaded maps", reg2.Maps().Count(), 1)

	testutil.AssertEqual(t, "same class id",
		content.ValuesAs[*content.ClassRecord](reg2.Lookup(content.KindClass))[0].Id, classes[0].Id)
}

func TestLoadAllRoundTrip(t *testing.T) {
	st := openContentStore(t, filepath.Join(t.TempDir(), "content.db"))
	ctx := context.Background()

	item := &content.ItemRecord{
		Base:  content.Base{Id: uuid.New(), Name: "Iron Sword"},
		Price: 10,
	}
	row, err := encodeRow(item)
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if err := st.InsertRow(ctx, content.KindItem.Table(), row); err != nil {
		t.Fatalf("inserting: %v", err)
	}

	reg := content.NewRegistry()
	if err := NewLoader(reg, st).LoadAll(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}

	got, ok := content.GetAs[*content.ItemRecord](reg.Lookup(content.KindItem), item.Id)
	testutil.AssertEqual(t, "found", ok, true)
	testutil.AssertEqual(t, "name", got.Name, "Iron Sword")
	testutil.AssertEqual(t, "price", got.Price, 10)
}

func TestLoadAllIdentityColumnsWin(t *testing.T) {
	st := openContentStore(t, filepath.Join(t.TempDir(), "content.db"))
	ctx := context.Background()

	// A row whose json body disagrees with its identity columns loads
	// under the column values.
	id := uuid.New()
	err := st.InsertRow(ctx, content.KindItem.Table(), storage.Row{
		Id:   id,
		Name: "Column Name",
		Data: []byte(`{"id":"` + uuid.New().String() + `","name":"Body Name"}`),
	})
	if err != nil {
		t.Fatalf("inserting: %v", err)
	}

	reg := content.NewRegistry()
	if err := NewLoader(reg, st).LoadAll(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}

	got, ok := content.GetAs[*content.ItemRecord](reg.Lookup(content.KindItem), id)
	testutil.AssertEqual(t, "found", ok, true)
	testutil.AssertEqual(t, "name", got.Name, "Column Name")
}

func TestLoadAllRepairsDanglingFolder(t *testing.T) {
	st := openContentStore(t, filepath.Join(t.TempDir(), "content.db"))
	ctx := context.Background()

	id := uuid.New()
	err := st.InsertRow(ctx, content.KindItem.Table(), storage.Row{
		Id:       id,
		FolderId: uuid.New(), // never inserted as a folder
		Data:     []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("inserting: %v", err)
	}

	reg := content.NewRegistry()
	if err := NewLoader(reg, st).LoadAll(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}

	rec, ok := reg.Lookup(content.KindItem).Get(id)
	testutil.AssertEqual(t, "found", ok, true)
	testutil.AssertEqual(t, "folder cleared", rec.ParentFolder(), uuid.Nil)

	// The repair was persisted, not just cached.
	rows, err := st.GetAllRows(ctx, content.KindItem.Table())
	if err != nil {
		t.Fatalf("rereading: %v", err)
	}
	testutil.AssertEqual(t, "stored folder", rows[0].FolderId, uuid.Nil)
}

func TestLoadAllLinksFolders(t *testing.T) {
	st := openContentStore(t, filepath.Join(t.TempDir(), "content.db"))
	ctx := context.Background()

	folder := &content.Folder{Id: uuid.New(), Kind: content.KindItem, Name: "Weapons"}
	if err := st.InsertFolder(ctx, folder); err != nil {
		t.Fatalf("inserting folder: %v", err)
	}
	err := st.InsertRow(ctx, content.KindItem.Table(), storage.Row{
		Id:       uuid.New(),
		FolderId: folder.Id,
		Data:     []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("inserting row: %v", err)
	}

	reg := content.NewRegistry()
	if err := NewLoader(reg, st).LoadAll(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}

	desc, err := reg.Get(content.KindItem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "roots", len(desc.Folders.Roots), 1)
	testutil.AssertEqual(t, "filed records", len(desc.Folders.Roots[0].Records), 1)
	testutil.AssertEqual(t, "unfiled", len(desc.Folders.Unfiled), 0)
}

func TestLoadTimeSeedsSingleton(t *testing.T) {
	st := openContentStore(t, filepath.Join(t.TempDir(), "content.db"))
	ctx := context.Background()

	reg := content.NewRegistry()
	if err := NewLoader(reg, st).LoadAll(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}

	times := content.ValuesAs[*content.TimeRecord](reg.Lookup(content.KindTime))
	testutil.AssertEqual(t, "time count", len(times), 1)
	testutil.AssertEqual(t, "range interval", times[0].RangeInterval, 6)
	testutil.AssertEqual(t, "sync", times[0].SyncTime, true)

	// Reloading keeps the same singleton instead of seeding another.
	reg2 := content.NewRegistry()
	if err := NewLoader(reg2, st).LoadAll(ctx); err != nil {
		t.Fatalf("reloading: %v", err)
	}
	times2 := content.ValuesAs[*content.TimeRecord](reg2.Lookup(content.KindTime))
	testutil.AssertEqual(t, "reloaded time count", len(times2), 1)
	testutil.AssertEqual(t, "same id", times2[0].Id, times[0].Id)
}
