package command

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"

	"github.com/eldermoor/eldermoor/internal/console"
	"github.com/eldermoor/eldermoor/internal/driver"
	"github.com/eldermoor/eldermoor/internal/storage"
	"github.com/eldermoor/eldermoor/internal/worker"
)

type scriptedConsole struct {
	in  *bytes.Buffer
	out bytes.Buffer
}

func newScriptedConsole(input string) *scriptedConsole {
	return &scriptedConsole{in: bytes.NewBufferString(input)}
}

func (c *scriptedConsole) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *scriptedConsole) Write(p []byte) (int, error) { return c.out.Write(p) }

func openFreshStore(t *testing.T, purpose storage.Purpose) storage.Store {
	t.Helper()

	st, err := storage.Open(context.Background(), storage.Options{
		Backend: storage.BackendSqlite,
		Path:    filepath.Join(t.TempDir(), string(purpose)+".db"),
	}, purpose)
	if err != nil {
		t.Fatalf("opening %s store: %v", purpose, err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })
	return st
}

func TestConfirmMigrationsBaselineOnlySkipsGate(t *testing.T) {
	// Fresh player and logging stores are pending only the baseline;
	// startup proceeds without asking anything.
	player := openFreshStore(t, storage.PurposePlayer)
	logging := openFreshStore(t, storage.PurposeLogging)

	rw := newScriptedConsole("")
	err := confirmMigrations(context.Background(), rw, &ConsoleConfig{},
		[]storage.Store{player, logging})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "prompted", rw.out.Len(), 0)
}

func TestConfirmMigrationsReadyToken(t *testing.T) {
	// The content schema carries a post-baseline migration, so the
	// operator is asked before anything is applied.
	store := openFreshStore(t, storage.PurposeContent)

	rw := newScriptedConsole("ready\n")
	err := confirmMigrations(context.Background(), rw, &ConsoleConfig{},
		[]storage.Store{store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "pending listed",
		strings.Contains(rw.out.String(), "0002_folder_indexes"), true)
}

func TestConfirmMigrationsExitToken(t *testing.T) {
	store := openFreshStore(t, storage.PurposeContent)

	rw := newScriptedConsole("exit\n")
	err := confirmMigrations(context.Background(), rw, &ConsoleConfig{},
		[]storage.Store{store})
	if !errors.Is(err, console.ErrOperatorExit) {
		t.Fatalf("expected ErrOperatorExit, got %v", err)
	}
}

func TestConfirmMigrationsRejectsOtherInput(t *testing.T) {
	store := openFreshStore(t, storage.PurposeContent)

	rw := newScriptedConsole("yes\nready\n")
	err := confirmMigrations(context.Background(), rw, &ConsoleConfig{},
		[]storage.Store{store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfirmMigrationsSkipsWhenApplied(t *testing.T) {
	store := openFreshStore(t, storage.PurposeContent)
	if err := store.ApplyMigrations(context.Background()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	rw := newScriptedConsole("")
	err := confirmMigrations(context.Background(), rw, &ConsoleConfig{},
		[]storage.Store{store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "prompted", rw.out.Len(), 0)
}

func TestLiveServiceDrained(t *testing.T) {
	// Drained requires both a quiesced driver and an empty pool.
	svc := &liveService{drv: driver.NewDriver(nil), pool: worker.NewPool()}
	testutil.AssertEqual(t, "running service drained", svc.Drained(), false)

	svc.Pause()
	testutil.AssertEqual(t, "paused service drained", svc.Drained(), true)

	svc.Resume()
	testutil.AssertEqual(t, "resumed service drained", svc.Drained(), false)
}
