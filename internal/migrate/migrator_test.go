package migrate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"

	"github.com/eldermoor/eldermoor/internal/content"
	"github.com/eldermoor/eldermoor/internal/storage"
)

type fakeService struct {
	pauses  int
	resumes int
}

func (f *fakeService) Pause()        { f.pauses++ }
func (f *fakeService) Resume()       { f.resumes++ }
func (f *fakeService) Drained() bool { return true }

type recordingConfigWriter struct {
	writes  int
	content storage.Options
	player  storage.Options
}

func (w *recordingConfigWriter) WriteActive(contentOpts, playerOpts storage.Options) error {
	w.writes++
	w.content = contentOpts
	w.player = playerOpts
	return nil
}

func openStore(t *testing.T, path string, purpose storage.Purpose) storage.Store {
	t.Helper()

	st, err := storage.Open(context.Background(), storage.Options{
		Backend: storage.BackendSqlite,
		Path:    path,
	}, purpose)
	if err != nil {
		t.Fatalf("opening %s store: %v", purpose, err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	if err := st.ApplyMigrations(context.Background()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return st
}

// newSources builds a populated content store and a player store with
// one row, the starting point for every migration test.
func newSources(t *testing.T) (storage.Store, storage.Store) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	contentSrc := openStore(t, filepath.Join(dir, "content.db"), storage.PurposeContent)
	for i := 0; i < 3; i++ {
		err := contentSrc.InsertRow(ctx, content.KindItem.Table(), storage.Row{
			Id:   uuid.New(),
			Data: []byte(`{}`),
		})
		if err != nil {
			t.Fatalf("populating content source: %v", err)
		}
	}

	playerSrc := openStore(t, filepath.Join(dir, "player.db"), storage.PurposePlayer)
	err := playerSrc.RestoreTables(ctx, []storage.TableDump{{
		Table:   "players",
		Columns: []string{"id", "name", "data"},
		Rows:    [][]any{{uuid.New().String(), "Aria", `{}`}},
	}})
	if err != nil {
		t.Fatalf("populating player source: %v", err)
	}

	return contentSrc, playerSrc
}

func TestMigrationSqliteToSqlite(t *testing.T) {
	contentSrc, playerSrc := newSources(t)
	svc := &fakeService{}
	cfg := &recordingConfigWriter{}
	ctx := context.Background()

	m := NewMigrator(contentSrc, playerSrc, svc, cfg)
	testutil.AssertEqual(t, "initial state", m.State(), StateAwaitingTarget)

	target := storage.Options{
		Backend: storage.BackendSqlite,
		Path:    filepath.Join(t.TempDir(), "new.db"),
	}
	if err := m.SubmitTarget(ctx, target); err != nil {
		t.Fatalf("submitting target: %v", err)
	}
	testutil.AssertEqual(t, "state after submit", m.State(), StateCopying)

	if err := m.Copy(ctx); err != nil {
		t.Fatalf("copying: %v", err)
	}
	testutil.AssertEqual(t, "state after copy", m.State(), StateSwapping)
	testutil.AssertEqual(t, "service paused", svc.pauses, 1)

	testutil.AssertEqual(t, "copied row count", m.CopiedRows(), 4)

	if err := m.Swap(ctx); err != nil {
		t.Fatalf("swapping: %v", err)
	}
	testutil.AssertEqual(t, "state after swap", m.State(), StateDone)

	// The configuration now names the target pair.
	testutil.AssertEqual(t, "config writes", cfg.writes, 1)
	testutil.AssertEqual(t, "content path", cfg.content.Path, target.Path)
	testutil.AssertEqual(t, "player path", cfg.player.Path, DerivePlayerTarget(target).Path)

	// Everything arrived on the target pair.
	newContent := openStore(t, target.Path, storage.PurposeContent)
	rows, err := newContent.GetAllRows(ctx, content.KindItem.Table())
	if err != nil {
		t.Fatalf("reading target: %v", err)
	}
	testutil.AssertEqual(t, "copied items", len(rows), 3)

	newPlayer := openStore(t, cfg.player.Path, storage.PurposePlayer)
	dumps, err := newPlayer.DumpTables(ctx, []string{"players"})
	if err != nil {
		t.Fatalf("reading player target: %v", err)
	}
	testutil.AssertEqual(t, "copied players", len(dumps[0].Rows), 1)
}

func TestSubmitTargetRejectsNonEmpty(t *testing.T) {
	contentSrc, playerSrc := newSources(t)
	cfg := &recordingConfigWriter{}
	ctx := context.Background()

	// Pre-populate the target so the safety gate trips.
	targetPath := filepath.Join(t.TempDir(), "taken.db")
	taken := openStore(t, targetPath, storage.PurposeContent)
	err := taken.InsertRow(ctx, content.KindMap.Table(), storage.Row{Id: uuid.New(), Data: []byte(`{}`)})
	if err != nil {
		t.Fatalf("populating target: %v", err)
	}
	taken.Close(ctx)

	m := NewMigrator(contentSrc, playerSrc, &fakeService{}, cfg)
	err = m.SubmitTarget(ctx, storage.Options{Backend: storage.BackendSqlite, Path: targetPath})
	if !errors.Is(err, ErrTargetNotEmpty) {
		t.Fatalf("expected ErrTargetNotEmpty, got %v", err)
	}

	// Back to awaiting so the operator can retry, and the configuration
	// is untouched.
	testutil.AssertEqual(t, "state", m.State(), StateAwaitingTarget)
	testutil.AssertEqual(t, "config writes", cfg.writes, 0)
}

func TestSubmitTargetConnectionFailure(t *testing.T) {
	contentSrc, playerSrc := newSources(t)
	m := NewMigrator(contentSrc, playerSrc, &fakeService{}, &recordingConfigWriter{})

	err := m.SubmitTarget(context.Background(), storage.Options{
		Backend: storage.BackendSqlite,
		Path:    "/nonexistent-dir/sub/target.db",
	})
	var connErr *storage.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	testutil.AssertEqual(t, "state", m.State(), StateAwaitingTarget)
}

func TestOperationsRejectWrongState(t *testing.T) {
	contentSrc, playerSrc := newSources(t)
	m := NewMigrator(contentSrc, playerSrc, &fakeService{}, &recordingConfigWriter{})
	ctx := context.Background()

	if err := m.Copy(ctx); err == nil {
		t.Fatal("expected error copying before a target exists")
	}
	if err := m.Swap(ctx); err == nil {
		t.Fatal("expected error swapping before a copy")
	}
	testutil.AssertEqual(t, "state", m.State(), StateAwaitingTarget)
}

func TestCopyFailureEndsFailed(t *testing.T) {
	contentSrc, playerSrc := newSources(t)
	svc := &fakeService{}
	cfg := &recordingConfigWriter{}
	ctx := context.Background()

	m := NewMigrator(contentSrc, playerSrc, svc, cfg)
	target := storage.Options{
		Backend: storage.BackendSqlite,
		Path:    filepath.Join(t.TempDir(), "new.db"),
	}
	if err := m.SubmitTarget(ctx, target); err != nil {
		t.Fatalf("submitting target: %v", err)
	}

	// Kill the source so the copy cannot read it.
	contentSrc.Close(ctx)

	if err := m.Copy(ctx); err == nil {
		t.Fatal("expected copy to fail against a closed source")
	}

	// Failed, not Cancelled; the service is back up on the prior
	// backend and the configuration was never touched.
	testutil.AssertEqual(t, "state", m.State(), StateFailed)
	testutil.AssertEqual(t, "service resumed", svc.resumes, 1)
	testutil.AssertEqual(t, "config writes", cfg.writes, 0)
}

func TestCancel(t *testing.T) {
	contentSrc, playerSrc := newSources(t)
	m := NewMigrator(contentSrc, playerSrc, &fakeService{}, &recordingConfigWriter{})
	ctx := context.Background()

	if err := m.Cancel(ctx); err != nil {
		t.Fatalf("cancelling: %v", err)
	}
	testutil.AssertEqual(t, "state", m.State(), StateCancelled)

	// A finished machine rejects further transitions.
	if err := m.Cancel(ctx); err == nil {
		t.Fatal("expected error cancelling twice")
	}
}

func TestDerivePlayerTarget(t *testing.T) {
	tests := []struct {
		name   string
		target storage.Options
		exp    string
	}{
		{
			name:   "sqlite with extension",
			target: storage.Options{Backend: storage.BackendSqlite, Path: "/data/game.db"},
			exp:    "/data/game_player.db",
		},
		{
			name:   "sqlite without extension",
			target: storage.Options{Backend: storage.BackendSqlite, Path: "/data/game"},
			exp:    "/data/game_player",
		},
		{
			name:   "sqlite dotted directory",
			target: storage.Options{Backend: storage.BackendSqlite, Path: "/data.d/game"},
			exp:    "/data.d/game_player",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derived := DerivePlayerTarget(tt.target)
			testutil.AssertEqual(t, "path", derived.Path, tt.exp)
		})
	}

	pg := DerivePlayerTarget(storage.Options{
		Backend:  storage.BackendPostgres,
		Host:     "db",
		Database: "game",
	})
	testutil.AssertEqual(t, "postgres database", pg.Database, "game_player")
	testutil.AssertEqual(t, "postgres host", pg.Host, "db")
}

func TestStateString(t *testing.T) {
	testutil.AssertEqual(t, "awaiting", StateAwaitingTarget.String(), "awaiting-target")
	testutil.AssertEqual(t, "done", StateDone.String(), "done")
	testutil.AssertEqual(t, "failed", StateFailed.String(), "failed")
}
