// Package storage provides the SQLite-backed tabular store.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/johnchik/llm-expense-tracker/internal/service"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements service.TableStore on a single SQLite database.
// Every logical table lives in one shared pair of physical tables, so
// monthly partitions can be created on demand without DDL.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOrCreate opens the named table, creating it when absent. If the table
// exists with fewer columns than requested, the header schema is widened in
// place (existing rows are padded on read).
func (s *SQLiteStore) GetOrCreate(ctx context.Context, name string, headers []string) (service.Table, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := validateHeaders(headers); err != nil {
		return nil, err
	}

	var storedJSON string
	err := s.db.QueryRowContext(ctx, `SELECT headers FROM tables WHERE name = ?`, name).Scan(&storedJSON)
	switch {
	case err == sql.ErrNoRows:
		headersJSON, marshalErr := json.Marshal(headers)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal headers: %w", marshalErr)
		}
		if _, execErr := s.db.ExecContext(ctx,
			`INSERT INTO tables (name, headers) VALUES (?, ?)`, name, string(headersJSON)); execErr != nil {
			return nil, fmt.Errorf("failed to create table %q: %w", name, execErr)
		}
		return &sqliteTable{store: s, name: name, headers: append([]string(nil), headers...)}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up table %q: %w", name, err)
	}

	var stored []string
	if err := json.Unmarshal([]byte(storedJSON), &stored); err != nil {
		return nil, fmt.Errorf("corrupt headers for table %q: %w", name, err)
	}

	if len(stored) < len(headers) {
		widened := append(append([]string(nil), stored...), headers[len(stored):]...)
		widenedJSON, marshalErr := json.Marshal(widened)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal headers: %w", marshalErr)
		}
		if _, execErr := s.db.ExecContext(ctx,
			`UPDATE tables SET headers = ? WHERE name = ?`, string(widenedJSON), name); execErr != nil {
			return nil, fmt.Errorf("failed to widen table %q: %w", name, execErr)
		}
		stored = widened
	}

	return &sqliteTable{store: s, name: name, headers: stored}, nil
}

// sqliteTable is a handle to one logical table.
type sqliteTable struct {
	store   *SQLiteStore
	name    string
	headers []string
}

func (t *sqliteTable) Name() string {
	return t.name
}

func (t *sqliteTable) Headers() []string {
	return append([]string(nil), t.headers...)
}

func (t *sqliteTable) AppendRows(ctx context.Context, rows [][]string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxPos int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM table_rows WHERE table_name = ?`, t.name).Scan(&maxPos); err != nil {
		return fmt.Errorf("failed to read row positions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO table_rows (table_name, position, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, cells := range rows {
		cellsJSON, marshalErr := json.Marshal(cells)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal row %d: %w", i, marshalErr)
		}
		maxPos++
		if _, execErr := stmt.ExecContext(ctx, t.name, maxPos, string(cellsJSON)); execErr != nil {
			return fmt.Errorf("failed to insert row %d into %q: %w", i, t.name, execErr)
		}
	}

	return tx.Commit()
}

func (t *sqliteTable) ReadAll(ctx context.Context) ([]service.Row, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.readRows(ctx,
		`SELECT id, cells FROM table_rows WHERE table_name = ? ORDER BY position, id`, t.name)
}

func (t *sqliteTable) ReadTail(ctx context.Context, n int) ([]service.Row, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	// Tail means most recently inserted, not display order.
	rows, err := t.readRows(ctx,
		`SELECT id, cells FROM table_rows WHERE table_name = ? ORDER BY id DESC LIMIT ?`, t.name, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (t *sqliteTable) readRows(ctx context.Context, query string, args ...any) ([]service.Row, error) {
	rows, err := t.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", t.name, err)
	}
	defer func() { _ = rows.Close() }()

	var out []service.Row
	for rows.Next() {
		var (
			id        int64
			cellsJSON string
		)
		if err := rows.Scan(&id, &cellsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("corrupt row %d in table %q: %w", id, t.name, err)
		}
		for len(cells) < len(t.headers) {
			cells = append(cells, "")
		}
		out = append(out, service.Row{ID: id, Cells: cells})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

func (t *sqliteTable) UpdateRows(ctx context.Context, updated []service.Row) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE table_rows SET cells = ? WHERE id = ? AND table_name = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare update: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range updated {
		cellsJSON, marshalErr := json.Marshal(row.Cells)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal row %d: %w", row.ID, marshalErr)
		}
		res, execErr := stmt.ExecContext(ctx, string(cellsJSON), row.ID, t.name)
		if execErr != nil {
			return fmt.Errorf("failed to update row %d: %w", row.ID, execErr)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("row %d not found in table %q", row.ID, t.name)
		}
	}

	return tx.Commit()
}

func (t *sqliteTable) SetColumn(ctx context.Context, rowIDs []int64, column int, value string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if column < 0 || column >= len(t.headers) {
		return fmt.Errorf("column %d out of range for table %q", column, t.name)
	}
	if len(rowIDs) == 0 {
		return nil
	}

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range rowIDs {
		var cellsJSON string
		if err := tx.QueryRowContext(ctx,
			`SELECT cells FROM table_rows WHERE id = ? AND table_name = ?`, id, t.name).Scan(&cellsJSON); err != nil {
			return fmt.Errorf("failed to read row %d: %w", id, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return fmt.Errorf("corrupt row %d in table %q: %w", id, t.name, err)
		}
		for len(cells) <= column {
			cells = append(cells, "")
		}
		cells[column] = value
		newJSON, marshalErr := json.Marshal(cells)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal row %d: %w", id, marshalErr)
		}
		if _, execErr := tx.ExecContext(ctx,
			`UPDATE table_rows SET cells = ? WHERE id = ? AND table_name = ?`, string(newJSON), id, t.name); execErr != nil {
			return fmt.Errorf("failed to update row %d: %w", id, execErr)
		}
	}

	return tx.Commit()
}

func (t *sqliteTable) DeleteOldest(ctx context.Context, n int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, nil
	}

	res, err := t.store.db.ExecContext(ctx, `
		DELETE FROM table_rows WHERE table_name = ? AND id IN (
			SELECT id FROM table_rows WHERE table_name = ? ORDER BY id ASC LIMIT ?
		)`, t.name, t.name, n)
	if err != nil {
		return 0, fmt.Errorf("failed to delete oldest rows from %q: %w", t.name, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return int(removed), nil
}

func (t *sqliteTable) SortByColumn(ctx context.Context, column int, ascending bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if column < 0 || column >= len(t.headers) {
		return fmt.Errorf("column %d out of range for table %q", column, t.name)
	}

	rows, err := t.ReadAll(ctx)
	if err != nil {
		return err
	}
	if len(rows) <= 1 {
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		less := compareCells(rows[i].Cells[column], rows[j].Cells[column]) < 0
		if ascending {
			return less
		}
		return compareCells(rows[i].Cells[column], rows[j].Cells[column]) > 0
	})

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE table_rows SET position = ? WHERE id = ? AND table_name = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare position update: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if _, execErr := stmt.ExecContext(ctx, i+1, row.ID, t.name); execErr != nil {
			return fmt.Errorf("failed to reposition row %d: %w", row.ID, execErr)
		}
	}

	return tx.Commit()
}

func (t *sqliteTable) RowCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := t.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM table_rows WHERE table_name = ?`, t.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows in %q: %w", t.name, err)
	}
	return n, nil
}

// compareCells orders numerically when both values parse as numbers
// (tolerating the explicit-sign display convention), lexicographically
// otherwise. Canonical datetimes sort correctly as strings.
func compareCells(a, b string) int {
	da, errA := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(a), "+"))
	db, errB := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(b), "+"))
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(a, b)
}
