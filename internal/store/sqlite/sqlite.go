// Package sqlite exports reconciled tables and logs to a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/logging"
	"github.com/agentstation/idmend/pkg/tables"
)

const runsSchema = `CREATE TABLE IF NOT EXISTS idmend_runs (
	run_id     TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	tables     INTEGER NOT NULL,
	conflicts  INTEGER NOT NULL,
	errors     INTEGER NOT NULL
)`

// Run is the row recorded for one export.
type Run struct {
	ID        string
	StartedAt time.Time
	Strategy  string
	Tables    int
	Conflicts int
	Errors    int
}

// Store is an open export database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	if _, err := db.ExecContext(ctx, runsSchema); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("init", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RecordRun stores the run row, replacing one with the same ID.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO idmend_runs (run_id, started_at, strategy, tables, conflicts, errors) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Strategy, r.Tables, r.Conflicts, r.Errors)
	if err != nil {
		return errors.WrapIO("write", "idmend_runs", err)
	}
	return nil
}

// Export replaces each table of set in the database, one transaction per
// table.
func (s *Store) Export(ctx context.Context, set *tables.Set) error {
	logger := logging.FromContext(ctx)
	for _, t := range set.Tables() {
		if err := ctx.Err(); err != nil {
			return errors.WrapCanceled("sqlite export", err)
		}
		if err := s.ExportTable(ctx, t); err != nil {
			return err
		}
		logger.Debug().Str("table", t.Name).Int("rows", t.Len()).Msg("Exported to sqlite")
	}
	logger.Info().Str("path", s.path).Int("tables", set.Len()).Msg("SQLite export complete")
	return nil
}

// ExportTable drops and recreates one table. Identifier and visit columns
// are always TEXT. Other columns follow the cell kinds: INTEGER when every
// present cell is an integer, REAL when all are numeric, TEXT otherwise.
func (s *Store) ExportTable(ctx context.Context, t *tables.Table) error {
	name := TableName(t.Name)
	cols := columnNames(t.Columns())
	types := affinities(t)

	defs := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c) + " " + types[i]
		marks[i] = "?"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapIO("begin", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return errors.WrapIO("drop", name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))); err != nil {
		return errors.WrapIO("create", name, err)
	}
	if len(cols) > 0 {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quote(name), strings.Join(marks, ", ")))
		if err != nil {
			return errors.WrapIO("prepare", name, err)
		}
		defer func() { _ = stmt.Close() }()

		args := make([]any, len(cols))
		for _, r := range t.Rows() {
			for i, v := range r {
				args[i] = bind(v, types[i])
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return errors.WrapIO("insert", name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapIO("commit", name, err)
	}
	return nil
}

// TableName derives a SQL table name from a table file name.
func TableName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func quote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// columnNames makes duplicate and blank headers unique.
func columnNames(in []string) []string {
	out := make([]string, len(in))
	seen := make(map[string]int, len(in))
	for i, c := range in {
		if c == "" {
			c = fmt.Sprintf("column_%d", i+1)
		}
		key := strings.ToLower(c)
		seen[key]++
		if n := seen[key]; n > 1 {
			c = fmt.Sprintf("%s_%d", c, n)
		}
		out[i] = c
	}
	return out
}

func affinities(t *tables.Table) []string {
	cols := t.Columns()
	out := make([]string, len(cols))
	for c, name := range cols {
		if name == constants.ColumnParticipantID || name == constants.ColumnVisit {
			out[c] = "TEXT"
			continue
		}
		ints, reals, text := 0, 0, 0
		for _, r := range t.Rows() {
			switch r[c].Kind() {
			case tables.Integer:
				ints++
			case tables.Real:
				reals++
			case tables.Text:
				text++
			}
		}
		switch {
		case text > 0 || ints+reals == 0:
			out[c] = "TEXT"
		case reals > 0:
			out[c] = "REAL"
		default:
			out[c] = "INTEGER"
		}
	}
	return out
}

// bind converts v for a column of the given affinity. TEXT columns get the
// cell as read, so identifiers like 007 keep their leading zeros.
func bind(v tables.Value, affinity string) any {
	switch v.Kind() {
	case tables.Missing:
		return nil
	case tables.Integer:
		if affinity == "TEXT" {
			break
		}
		i, _ := v.Int()
		return i
	case tables.Real:
		if affinity == "TEXT" {
			break
		}
		d, _ := v.Decimal()
		return d.InexactFloat64()
	}
	return v.String()
}
