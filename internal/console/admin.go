package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrOperatorExit ends the whole service when the operator types the
// exit command.
var ErrOperatorExit = errors.New("operator requested exit")

// Stdio bundles the process's stdin and stdout into one ReadWriter
// for the prompt helpers.
func Stdio() io.ReadWriter {
	return &stdio{}
}

type stdio struct{}

func (s *stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (s *stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// Admin is the operator console worker. It reads commands from its
// ReadWriter until the context ends; "migrate" hands the console over
// to the cross-backend migration flow.
type Admin struct {
	rw      io.ReadWriter
	migrate func(ctx context.Context, rw io.ReadWriter) error
}

func NewAdmin(rw io.ReadWriter, migrate func(ctx context.Context, rw io.ReadWriter) error) *Admin {
	return &Admin{
		rw:      rw,
		migrate: migrate,
	}
}

func (a *Admin) Start(ctx context.Context) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			line, err := Prompt(a.rw, "> ")
			if err != nil {
				errs <- err
				return
			}
			lines <- line
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if errors.Is(err, io.EOF) {
				// Detached console; keep the service running.
				<-ctx.Done()
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := a.handle(ctx, strings.TrimSpace(line)); err != nil {
				return err
			}
		}
	}
}

func (a *Admin) handle(ctx context.Context, cmd string) error {
	switch cmd {
	case "":
		return nil
	case "help":
		fmt.Fprintln(a.rw, "Commands: migrate, exit")
		return nil
	case "migrate":
		if a.migrate == nil {
			fmt.Fprintln(a.rw, "Migration is not available.")
			return nil
		}
		if err := a.migrate(ctx, a.rw); err != nil {
			slog.Warn("database migration", "error", err)
			fmt.Fprintf(a.rw, "Migration did not complete: %v\n", err)
		}
		return nil
	case "exit":
		return ErrOperatorExit
	default:
		fmt.Fprintf(a.rw, "Unknown command %q. Try help.\n", cmd)
		return nil
	}
}
