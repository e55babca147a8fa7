package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldermoor/eldermoor/internal/content"
)

type postgresStore struct {
	pool    *pgxpool.Pool
	purpose Purpose
	addr    string
}

var _ Store = (*postgresStore)(nil)

func openPostgres(ctx context.Context, opts Options, purpose Purpose) (Store, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		opts.Username, opts.Password, opts.Host, opts.Port, opts.Database)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &ConnectionError{Backend: BackendPostgres, Target: opts.Addr(), Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{Backend: BackendPostgres, Target: opts.Addr(), Err: err}
	}

	s := &postgresStore{pool: pool, purpose: purpose, addr: opts.Addr()}
	if err := s.ensureMigrationTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *postgresStore) Backend() Backend { return BackendPostgres }
func (s *postgresStore) Purpose() Purpose { return s.purpose }

func (s *postgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func (s *postgresStore) ensureMigrationTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
);`)
	return storageErr("preparing", "schema_migrations", uuid.Nil, err)
}

func (s *postgresStore) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM schema_migrations`)
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

func (s *postgresStore) PendingMigrations(ctx context.Context) ([]string, error) {
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	return pendingFrom(s.purpose, applied), nil
}

func (s *postgresStore) ApplyMigrations(ctx context.Context) error {
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrationsFor(s.purpose) {
		if applied[m.Name] {
			continue
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return storageErr("migrating", m.Name, uuid.Nil, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return storageErr("migrating", m.Name, uuid.Nil, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (name, applied_at) VALUES ($1, $2)`,
			m.Name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback(ctx)
			return storageErr("migrating", m.Name, uuid.Nil, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return storageErr("migrating", m.Name, uuid.Nil, err)
		}
	}

	return nil
}

func (s *postgresStore) IsEmpty(ctx context.Context) (bool, error) {
	for _, table := range recordTables(s.purpose) {
		var count int
		err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count)
		if err != nil {
			return false, storageErr("counting", table, uuid.Nil, err)
		}
		if count > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (s *postgresStore) GetAllRows(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT id, folder_id, name, data FROM %s`, table))
	if err != nil {
		return nil, storageErr("reading", table, uuid.Nil, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			id     string
			folder *string
			name   string
			data   []byte
		)
		if err := rows.Scan(&id, &folder, &name, &data); err != nil {
			return nil, storageErr("reading", table, uuid.Nil, err)
		}
		r := Row{Id: parseId(id), Name: name, Data: data}
		if folder != nil {
			r.FolderId = parseId(*folder)
		}
		out = append(out, r)
	}
	return out, storageErr("reading", table, uuid.Nil, rows.Err())
}

func (s *postgresStore) InsertRow(ctx context.Context, table string, row Row) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, folder_id, name, data) VALUES ($1, $2, $3, $4)`, table),
		row.Id.String(), nullableId(row.FolderId), row.Name, string(row.Data))
	return storageErr("inserting", table, row.Id, err)
}

func (s *postgresStore) UpdateRow(ctx context.Context, table string, row Row) error {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET folder_id = $1, name = $2, data = $3 WHERE id = $4`, table),
		nullableId(row.FolderId), row.Name, string(row.Data), row.Id.String())
	if err != nil {
		return storageErr("updating", table, row.Id, err)
	}
	if tag.RowsAffected() == 0 {
		return storageErr("updating", table, row.Id, pgx.ErrNoRows)
	}
	return nil
}

func (s *postgresStore) DeleteRow(ctx context.Context, table string, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id.String())
	return storageErr("deleting", table, id, err)
}

func (s *postgresStore) GetAllFolders(ctx context.Context, kind content.Kind) ([]*content.Folder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, parent_id, name, sort_order FROM folders WHERE kind = $1`, kind.String())
	if err != nil {
		return nil, storageErr("reading", "folders", uuid.Nil, err)
	}
	defer rows.Close()

	var out []*content.Folder
	for rows.Next() {
		var (
			id     string
			parent *string
			name   string
			sort   int
		)
		if err := rows.Scan(&id, &parent, &name, &sort); err != nil {
			return nil, storageErr("reading", "folders", uuid.Nil, err)
		}
		f := &content.Folder{Id: parseId(id), Kind: kind, Name: name, SortOrder: sort}
		if parent != nil {
			f.ParentId = parseId(*parent)
		}
		out = append(out, f)
	}
	return out, storageErr("reading", "folders", uuid.Nil, rows.Err())
}

func (s *postgresStore) InsertFolder(ctx context.Context, f *content.Folder) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO folders (id, kind, parent_id, name, sort_order) VALUES ($1, $2, $3, $4, $5)`,
		f.Id.String(), f.Kind.String(), nullableId(f.ParentId), f.Name, f.SortOrder)
	return storageErr("inserting", "folders", f.Id, err)
}

func (s *postgresStore) AppendAudit(ctx context.Context, ev AuditEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_events (id, at, kind, record_id, action, detail) VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.Id.String(), ev.At.UTC().Format(time.RFC3339Nano), ev.Kind,
		nullableId(ev.RecordId), ev.Action, ev.Detail)
	return storageErr("inserting", "audit_events", ev.Id, err)
}

func (s *postgresStore) DumpTables(ctx context.Context, tables []string) ([]TableDump, error) {
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

func (s *postgresStore) dumpTable(ctx context.Context, table string) (TableDump, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT * FROM %s`, table))
	if err != nil {
		return TableDump{}, storageErr("dumping", table, uuid.Nil, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	dump := TableDump{Table: table, Columns: cols}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return TableDump{}, storageErr("dumping", table, uuid.Nil, err)
		}
		dump.Rows = append(dump.Rows, vals)
	}
	return dump, storageErr("dumping", table, uuid.Nil, rows.Err())
}

func (s *postgresStore) RestoreTables(ctx context.Context, dumps []TableDump) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr("restoring", "", uuid.Nil, err)
	}

	for _, dump := range dumps {
		placeholders := make([]string, len(dump.Columns))
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
			dump.Table, strings.Join(dump.Columns, ", "), strings.Join(placeholders, ", "))
		for _, row := range dump.Rows {
			if _, err := tx.Exec(ctx, stmt, row...); err != nil {
				tx.Rollback(ctx)
				return storageErr("restoring", dump.Table, uuid.Nil, err)
			}
		}
	}

	return storageErr("restoring", "", uuid.Nil, tx.Commit(ctx))
}
