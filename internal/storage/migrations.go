package storage

import (
	"fmt"
	"strings"

	"github.com/eldermoor/eldermoor/internal/content"
)

// Migration is one versioned schema step. Migrations run in slice
// order; applied names are recorded in schema_migrations. The DDL is
// written to the common subset sqlite and postgres both accept.
type Migration struct {
	Name string
	SQL  string
}

// BaselineMigration is the initial schema step. A pending set equal
// to exactly the baseline applies at startup without the operator
// confirmation gate.
const BaselineMigration = "0001_initial"

func migrationsFor(purpose Purpose) []Migration {
	switch purpose {
	case PurposeContent:
		return contentMigrations()
	case PurposePlayer:
		return playerMigrations()
	case PurposeLogging:
		return loggingMigrations()
	default:
		return nil
	}
}

// RecordTables lists the record tables for a purpose in fixed
// declared order. IsEmpty inspects them and the cross-backend
// migrator copies them; the content list is derived from the content
// registry's kind table so the three can never drift apart.
func RecordTables(purpose Purpose) []string {
	return recordTables(purpose)
}

// recordTables lists the tables IsEmpty inspects and the migrator
// copies, in fixed declared order.
func recordTables(purpose Purpose) []string {
	switch purpose {
	case PurposeContent:
		tables := []string{"folders"}
		for _, k := range content.Kinds() {
			tables = append(tables, k.Table())
		}
		return tables
	case PurposePlayer:
		return []string{
			"players",
			"friends",
			"bank",
			"bags",
			"bag_items",
			"hotbar",
			"mutes",
			"bans",
		}
	case PurposeLogging:
		return []string{"audit_events"}
	default:
		return nil
	}
}

func contentMigrations() []Migration {
	var b strings.Builder
	b.WriteString(`CREATE TABLE IF NOT EXISTS folders (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	parent_id  TEXT,
	name       TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0
);
`)
	// One uniformly shaped table per content kind, derived from the
	// registry's kind list so the schema can never drift from it.
	for _, k := range content.Kinds() {
		fmt.Fprintf(&b, `CREATE TABLE IF NOT EXISTS %s (
	id        TEXT PRIMARY KEY,
	folder_id TEXT,
	name      TEXT NOT NULL DEFAULT '',
	data      TEXT NOT NULL DEFAULT '{}'
);
`, k.Table())
	}

	return []Migration{
		{Name: BaselineMigration, SQL: b.String()},
		{Name: "0002_folder_indexes", SQL: `
CREATE INDEX IF NOT EXISTS idx_folders_kind ON folders (kind);
CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders (parent_id);
`},
	}
}

func playerMigrations() []Migration {
	return []Migration{
		{Name: BaselineMigration, SQL: `
CREATE TABLE IF NOT EXISTS players (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	data TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS friends (
	player_id TEXT NOT NULL,
	friend_id TEXT NOT NULL,
	PRIMARY KEY (player_id, friend_id)
);
CREATE TABLE IF NOT EXISTS bank (
	player_id TEXT NOT NULL,
	slot      INTEGER NOT NULL,
	item      TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (player_id, slot)
);
CREATE TABLE IF NOT EXISTS bags (
	id         TEXT PRIMARY KEY,
	slot_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS bag_items (
	bag_id TEXT NOT NULL,
	slot   INTEGER NOT NULL,
	item   TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (bag_id, slot)
);
CREATE TABLE IF NOT EXISTS hotbar (
	player_id TEXT NOT NULL,
	slot      INTEGER NOT NULL,
	data      TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (player_id, slot)
);
CREATE TABLE IF NOT EXISTS mutes (
	player_id TEXT PRIMARY KEY,
	reason    TEXT NOT NULL DEFAULT '',
	expires   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS bans (
	player_id TEXT PRIMARY KEY,
	reason    TEXT NOT NULL DEFAULT '',
	expires   TEXT NOT NULL DEFAULT ''
);
`},
	}
}

func loggingMigrations() []Migration {
	return []Migration{
		{Name: BaselineMigration, SQL: `
CREATE TABLE IF NOT EXISTS audit_events (
	id        TEXT PRIMARY KEY,
	at        TEXT NOT NULL,
	kind      TEXT NOT NULL DEFAULT '',
	record_id TEXT,
	action    TEXT NOT NULL DEFAULT '',
	detail    TEXT NOT NULL DEFAULT ''
);
`},
	}
}

// pendingFrom filters the purpose's migration set down to names not
// yet recorded as applied.
func pendingFrom(purpose Purpose, applied map[string]bool) []string {
	var pending []string
	for _, m := range migrationsFor(purpose) {
		if !applied[m.Name] {
			pending = append(pending, m.Name)
		}
	}
	return pending
}
