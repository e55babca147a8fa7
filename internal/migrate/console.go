package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eldermoor/eldermoor/internal/console"
	"github.com/eldermoor/eldermoor/internal/storage"
)

// RunConsole drives the migration machine from an interactive
// console: collect target parameters, retry or cancel on failure,
// then copy and swap. The decision logic all lives in the Migrator;
// this is only the prompt loop around it.
func RunConsole(ctx context.Context, m *Migrator, rw io.ReadWriter) error {
	for m.State() == StateAwaitingTarget {
		target, err := promptTarget(rw)
		if err != nil {
			return err
		}
		if target == nil {
			return m.Cancel(ctx)
		}

		err = m.SubmitTarget(ctx, *target)
		if err == nil {
			break
		}

		fmt.Fprintf(rw, "Migration target rejected: %v\n", err)

		var connErr *storage.ConnectionError
		retryable := errors.As(err, &connErr) || errors.Is(err, ErrTargetNotEmpty)
		if !retryable {
			return m.Cancel(ctx)
		}

		again, err := console.PromptYN(rw, "Try a different target? [y/n]: ")
		if err != nil {
			return err
		}
		if !again {
			return m.Cancel(ctx)
		}
	}

	fmt.Fprintln(rw, "Target provisioned and verified empty. Copying all records...")
	if err := m.Copy(ctx); err != nil {
		fmt.Fprintf(rw, "Migration failed, no configuration changes were made: %v\n", err)
		return err
	}

	fmt.Fprintln(rw, "Copy complete. Draining the service and swapping configuration...")
	if err := m.Swap(ctx); err != nil {
		fmt.Fprintf(rw, "Swap failed, the previous backend remains active: %v\n", err)
		return err
	}

	// Datasets run to millions of rows; group the digits for the
	// operator.
	p := message.NewPrinter(language.English)
	p.Fprintf(rw, "Migration complete, %d rows copied. Restart the server to run on the new backend.\n", m.CopiedRows())
	return nil
}

// promptTarget collects backend parameters. A nil result without
// error means the operator cancelled.
func promptTarget(rw io.ReadWriter) (*storage.Options, error) {
	kind, err := console.Prompt(rw, "Target backend (sqlite/postgres, empty to cancel): ",
		console.WithValidator(func(s string) (bool, string) {
			switch s {
			case "", string(storage.BackendSqlite), string(storage.BackendPostgres):
				return true, ""
			default:
				return false, "Enter sqlite, postgres, or nothing to cancel.\n"
			}
		}))
	if err != nil {
		return nil, err
	}

	switch storage.Backend(kind) {
	case storage.BackendSqlite:
		return promptSqliteTarget(rw)
	case storage.BackendPostgres:
		return promptPostgresTarget(rw)
	default:
		return nil, nil
	}
}

func promptSqliteTarget(rw io.ReadWriter) (*storage.Options, error) {
	path, err := console.Prompt(rw, "Database file path: ",
		console.WithValidator(func(s string) (bool, string) {
			if s == "" {
				return false, "A file path is required.\n"
			}
			return true, ""
		}))
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		overwrite, err := console.PromptYN(rw, "File already exists. Overwrite it? [y/n]: ")
		if err != nil {
			return nil, err
		}
		if !overwrite {
			return nil, nil
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("removing existing target file: %w", err)
		}
	}

	return &storage.Options{Backend: storage.BackendSqlite, Path: path}, nil
}

func promptPostgresTarget(rw io.ReadWriter) (*storage.Options, error) {
	host, err := console.Prompt(rw, "Host: ")
	if err != nil {
		return nil, err
	}
	portStr, err := console.Prompt(rw, "Port [5432]: ",
		console.WithValidator(func(s string) (bool, string) {
			if s == "" {
				return true, ""
			}
			if _, err := strconv.Atoi(s); err != nil {
				return false, "Port must be a number.\n"
			}
			return true, ""
		}))
	if err != nil {
		return nil, err
	}
	port := 5432
	if portStr != "" {
		port, _ = strconv.Atoi(portStr)
	}
	database, err := console.Prompt(rw, "Database name: ")
	if err != nil {
		return nil, err
	}
	username, err := console.Prompt(rw, "Username: ")
	if err != nil {
		return nil, err
	}
	password, err := console.PromptPassword(rw, "Password: ")
	if err != nil {
		return nil, err
	}

	return &storage.Options{
		Backend:  storage.BackendPostgres,
		Host:     host,
		Port:     port,
		Database: database,
		Username: username,
		Password: password,
	}, nil
}
