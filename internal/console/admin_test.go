package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

// lineConsole hands out operator input one line per Read, the way a
// line-buffered terminal does.
type lineConsole struct {
	lines []string
	out   bytes.Buffer
}

func newLineConsole(input string) *lineConsole {
	return &lineConsole{lines: strings.SplitAfter(input, "\n")}
}

func (c *lineConsole) Read(p []byte) (int, error) {
	for len(c.lines) > 0 && c.lines[0] == "" {
		c.lines = c.lines[1:]
	}
	if len(c.lines) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.lines[0])
	if n == len(c.lines[0]) {
		c.lines = c.lines[1:]
	} else {
		c.lines[0] = c.lines[0][n:]
	}
	return n, nil
}

func (c *lineConsole) Write(p []byte) (int, error) { return c.out.Write(p) }

func TestAdminExit(t *testing.T) {
	rw := newLineConsole("exit\n")
	admin := NewAdmin(rw, nil)

	err := admin.Start(context.Background())
	if !errors.Is(err, ErrOperatorExit) {
		t.Fatalf("expected ErrOperatorExit, got %v", err)
	}
}

func TestAdminCommands(t *testing.T) {
	rw := newLineConsole("help\nbogus\nmigrate\nexit\n")

	migrations := 0
	admin := NewAdmin(rw, func(context.Context, io.ReadWriter) error {
		migrations++
		return nil
	})

	err := admin.Start(context.Background())
	if !errors.Is(err, ErrOperatorExit) {
		t.Fatalf("expected ErrOperatorExit, got %v", err)
	}

	testutil.AssertEqual(t, "migrations run", migrations, 1)
	testutil.AssertEqual(t, "help shown", strings.Contains(rw.out.String(), "Commands:"), true)
	testutil.AssertEqual(t, "unknown reported", strings.Contains(rw.out.String(), "bogus"), true)
}

func TestAdminMigrationErrorIsNotFatal(t *testing.T) {
	rw := newLineConsole("migrate\nexit\n")

	admin := NewAdmin(rw, func(context.Context, io.ReadWriter) error {
		return errors.New("target rejected")
	})

	// A failed migration reports and keeps the console alive.
	err := admin.Start(context.Background())
	if !errors.Is(err, ErrOperatorExit) {
		t.Fatalf("expected ErrOperatorExit, got %v", err)
	}
	testutil.AssertEqual(t, "failure reported",
		strings.Contains(rw.out.String(), "did not complete"), true)
}

func TestAdminDetachedConsole(t *testing.T) {
	// EOF on input means no console is attached; the worker must keep
	// the service alive until the context ends.
	rw := newLineConsole("")
	admin := NewAdmin(rw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- admin.Start(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("worker exited early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker never stopped after cancel")
	}
}
