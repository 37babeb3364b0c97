// Package sqlite is a tables backend over a local SQLite database. Each
// logical table maps to one SQL table whose columns mirror the canonical
// header; WriteTable deletes and reinserts every row inside one transaction,
// preserving the port's replace-all contract on a rowful backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lifeplan/internal/tables"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ tables.Store = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ReadTable(ctx context.Context, name string) (*tables.Table, error) {
	header := tables.Header(name)
	if header == nil {
		return nil, fmt.Errorf("unknown table %q", name)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY rowid`, columnList(header), quote(name))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	t := &tables.Table{Header: append([]string(nil), header...)}
	for rows.Next() {
		cells := make([]string, len(header))
		dest := make([]any, len(header))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan table %s: %w", name, err)
		}
		t.Rows = append(t.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	return t, nil
}

func (s *Store) WriteTable(ctx context.Context, name string, t *tables.Table) error {
	header := tables.Header(name)
	if header == nil {
		return fmt.Errorf("unknown table %q", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, quote(name))); err != nil {
		return fmt.Errorf("clear table %s: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(header)), ",")
	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, quote(name), columnList(header), placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", name, err)
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		args := make([]any, len(header))
		for i := range header {
			if i < len(row) {
				args[i] = row[i]
			} else {
				args[i] = ""
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write %s: %w", name, err)
	}
	return nil
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func columnList(header []string) string {
	quoted := make([]string, len(header))
	for i, h := range header {
		quoted[i] = quote(h)
	}
	return strings.Join(quoted, ", ")
}
