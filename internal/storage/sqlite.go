package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eldermoor/eldermoor/internal/content"
)

const sqliteOpenTimeout = 30 * time.Second

type sqliteStore struct {
	db      *sql.DB
	purpose Purpose
	path    string
}

var _ Store = (*sqliteStore)(nil)

func openSqlite(ctx context.Context, opts Options, purpose Purpose) (Store, error) {
	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, &ConnectionError{Backend: BackendSqlite, Target: opts.Path, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, sqliteOpenTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Backend: BackendSqlite, Target: opts.Path, Err: err}
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, &ConnectionError{Backend: BackendSqlite, Target: opts.Path, Err: fmt.Errorf("setting pragma %q: %w", pragma, err)}
		}
	}

	s := &sqliteStore{db: db, purpose: purpose, path: opts.Path}
	if err := s.ensureMigrationTable(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *sqliteStore) Backend() Backend { return BackendSqlite }
func (s *sqliteStore) Purpose() Purpose { return s.purpose }

func (s *sqliteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *sqliteStore) ensureMigrationTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
);`)
	return storageErr("preparing", "schema_migrations", uuid.Nil, err)
}

func (s *sqliteStore) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, storageErr("reading", "schema_migrations", uuid.Nil, err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("reading", "schema_migrations", uuid.Nil, err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (s *sqliteStore) PendingMigrations(ctx context.Context) ([]string, error) {
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	return pendingFrom(s.purpose, applied), nil
}

func (s *sqliteStore) ApplyMigrations(ctx context.Context) error {
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrationsFor(s.purpose) {
		if applied[m.Name] {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return storageErr("migrating", m.Name, uuid.Nil, err)
		}
		for _, stmt := range splitStatements(m.SQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return storageErr("migrating", m.Name, uuid.Nil, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			m.Name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return storageErr("migrating", m.Name, uuid.Nil, err)
		}
		if err := tx.Commit(); err != nil {
			return storageErr("migrating", m.Name, uuid.Nil, err)
		}
	}

	return nil
}

func (s *sqliteStore) IsEmpty(ctx context.Context) (bool, error) {
	for _, table := range recordTables(s.purpose) {
		var count int
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count)
		if err != nil {
			return false, storageErr("counting", table, uuid.Nil, err)
		}
		if count > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (s *sqliteStore) GetAllRows(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, folder_id, name, data FROM %s`, table))
	if err != nil {
		return nil, storageErr("reading", table, uuid.Nil, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			id     string
			folder sql.NullString
			name   string
			data   []byte
		)
		if err := rows.Scan(&id, &folder, &name, &data); err != nil {
			return nil, storageErr("reading", table, uuid.Nil, err)
		}
		out = append(out, Row{
			Id:       parseId(id),
			FolderId: parseId(folder.String),
			Name:     name,
			Data:     data,
		})
	}
	return out, storageErr("reading", table, uuid.Nil, rows.Err())
}

func (s *sqliteStore) InsertRow(ctx context.Context, table string, row Row) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, folder_id, name, data) VALUES (?, ?, ?, ?)`, table),
		row.Id.String(), nullableId(row.FolderId), row.Name, string(row.Data))
	return storageErr("inserting", table, row.Id, err)
}

func (s *sqliteStore) UpdateRow(ctx context.Context, table string, row Row) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET folder_id = ?, name = ?, data = ? WHERE id = ?`, table),
		nullableId(row.FolderId), row.Name, string(row.Data), row.Id.String())
	if err != nil {
		return storageErr("updating", table, row.Id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return storageErr("updating", table, row.Id, sql.ErrNoRows)
	}
	return storageErr("updating", table, row.Id, err)
}

func (s *sqliteStore) DeleteRow(ctx context.Context, table string, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id.String())
	return storageErr("deleting", table, id, err)
}

func (s *sqliteStore) GetAllFolders(ctx context.Context, kind content.Kind) ([]*content.Folder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, name, sort_order FROM folders WHERE kind = ?`, kind.String())
	if err != nil {
		return nil, storageErr("reading", "folders", uuid.Nil, err)
	}
	defer rows.Close()

	var out []*content.Folder
	for rows.Next() {
		var (
			id     string
			parent sql.NullString
			name   string
			sort   int
		)
		if err := rows.Scan(&id, &parent, &name, &sort); err != nil {
			return nil, storageErr("reading", "folders", uuid.Nil, err)
		}
		out = append(out, &content.Folder{
			Id:        parseId(id),
			Kind:      kind,
			ParentId:  parseId(parent.String),
			Name:      name,
			SortOrder: sort,
		})
	}
	return out, storageErr("reading", "folders", uuid.Nil, rows.Err())
}

func (s *sqliteStore) InsertFolder(ctx context.Context, f *content.Folder) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO folders (id, kind, parent_id, name, sort_order) VALUES (?, ?, ?, ?, ?)`,
		f.Id.String(), f.Kind.String(), nullableId(f.ParentId), f.Name, f.SortOrder)
	return storageErr("inserting", "folders", f.Id, err)
}

func (s *sqliteStore) AppendAudit(ctx context.Context, ev AuditEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, at, kind, record_id, action, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Id.String(), ev.At.UTC().Format(time.RFC3339Nano), ev.Kind,
		nullableId(ev.RecordId), ev.Action, ev.Detail)
	return storageErr("inserting", "audit_events", ev.Id, err)
}

func (s *sqliteStore) DumpTables(ctx context.Context, tables []string) ([]TableDump, error) {
	dumps := make([]TableDump, 0, len(tables))
	for _, table := range tables {
		dump, err := s.dumpTable(ctx, table)
		if err != nil {
			return nil, err
		}
		dumps = append(dumps, dump)
	}
	return dumps, nil
}

func (s *sqliteStore) dumpTable(ctx context.Context, table string) (TableDump, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s`, table))
	if err != nil {
		return TableDump{}, storageErr("dumping", table, uuid.Nil, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return TableDump{}, storageErr("dumping", table, uuid.Nil, err)
	}

	dump := TableDump{Table: table, Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return TableDump{}, storageErr("dumping", table, uuid.Nil, err)
		}
		dump.Rows = append(dump.Rows, vals)
	}
	return dump, storageErr("dumping", table, uuid.Nil, rows.Err())
}

func (s *sqliteStore) RestoreTables(ctx context.Context, dumps []TableDump) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("restoring", "", uuid.Nil, err)
	}

	for _, dump := range dumps {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(dump.Columns)), ", ")
		stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
			dump.Table, strings.Join(dump.Columns, ", "), placeholders)
		for _, row := range dump.Rows {
			if _, err := tx.ExecContext(ctx, stmt, row...); err != nil {
				tx.Rollback()
				return storageErr("restoring", dump.Table, uuid.Nil, err)
			}
		}
	}

	return storageErr("restoring", "", uuid.Nil, tx.Commit())
}

func splitStatements(script string) []string {
	var stmts []string
	for _, stmt := range strings.Split(script, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}
