package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eldermoor/eldermoor/internal/content"
)

// Row is one content record as the store sees it: identity columns
// plus the json-encoded body. Decoding into a concrete type is the
// caller's job via the content registry.
type Row struct {
	Id       uuid.UUID
	FolderId uuid.UUID
	Name     string
	Data     []byte
}

// AuditEvent is one append-only entry in the logging store.
type AuditEvent struct {
	Id       uuid.UUID
	At       time.Time
	Kind     string
	RecordId uuid.UUID
	Action   string
	Detail   string
}

// TableDump is a full generic copy of one table, used by the
// cross-backend migrator.
type TableDump struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Store is one open backend connection. Every call blocks on I/O and
// belongs on the persistence pool or an explicit offload, never on the
// tick loop directly.
type Store interface {
	Backend() Backend
	Purpose() Purpose
	Close(ctx context.Context) error

	// PendingMigrations lists outstanding migrations in version order
	// without applying anything.
	PendingMigrations(ctx context.Context) ([]string, error)
	// ApplyMigrations runs outstanding migrations in version order.
	// Idempotent: a second call is a no-op.
	ApplyMigrations(ctx context.Context) error
	// IsEmpty reports whether every record table for this store's
	// purpose is empty. Guards the cross-backend migrator against
	// overwriting data.
	IsEmpty(ctx context.Context) (bool, error)

	GetAllRows(ctx context.Context, table string) ([]Row, error)
	InsertRow(ctx context.Context, table string, row Row) error
	UpdateRow(ctx context.Context, table string, row Row) error
	DeleteRow(ctx context.Context, table string, id uuid.UUID) error

	GetAllFolders(ctx context.Context, kind content.Kind) ([]*content.Folder, error)
	InsertFolder(ctx context.Context, f *content.Folder) error

	AppendAudit(ctx context.Context, ev AuditEvent) error

	// DumpTables reads every listed table in order, generically.
	DumpTables(ctx context.Context, tables []string) ([]TableDump, error)
	// RestoreTables writes dumps back in one transaction per call.
	RestoreTables(ctx context.Context, dumps []TableDump) error
}

// Open connects to the configured backend for the given purpose.
func Open(ctx context.Context, opts Options, purpose Purpose) (Store, error) {
	switch opts.Backend {
	case BackendSqlite:
		return openSqlite(ctx, opts, purpose)
	case BackendPostgres:
		return openPostgres(ctx, opts, purpose)
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

func nullableId(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

func parseId(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
