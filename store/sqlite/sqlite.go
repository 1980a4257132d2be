/*
Package sqlite provides a SQLite-backed implementation of generic.RecordStore.

PURPOSE:
  Persists one audit row per completed calculation in the table owned by
  its record kind. The calculators never see SQL; they hand the Ledger a
  column map and get back the auto-assigned id.

APPEND-ONLY ENFORCEMENT:
  - The store issues INSERT and SELECT only
  - Every table carries BEFORE UPDATE / BEFORE DELETE triggers that abort
  A wrong order is corrected by issuing a new one.

IDENTIFIER SAFETY:
  Table and column names are interpolated into SQL, so both are checked
  against generic.Tables first. Values are always bound parameters.

AMOUNTS:
  Amount columns are TEXT holding decimal strings. Sum reads them back and
  adds with shopspring/decimal; SQLite's SUM over REAL would round.

MIGRATION:
  Schema lives in migrations/*.sql, embedded and applied on New() with
  golang-migrate. The migrate instance is never closed because closing it
  closes the shared *sql.DB.

CONNECTIONS:
  The pool is capped at one connection. SQLite serialises writers anyway,
  and ":memory:" databases exist per connection.

USAGE:
  store, err := sqlite.New("./data/calc.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store)

SEE ALSO:
  - generic/store.go: Interface and table schemas
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ generic.RecordStore = (*Store)(nil)

// Store implements generic.RecordStore using SQLite.
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on"
	if dbPath != ":memory:" {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// RECORD STORE
// =============================================================================

// Insert writes one row. Columns are bound in sorted order.
func (s *Store) Insert(ctx context.Context, table generic.TableName, fields map[string]any) (int64, error) {
	schema, err := generic.LookupTable(table)
	if err != nil {
		return 0, err
	}
	if err := schema.CheckRow(fields); err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, fmt.Errorf("insert %s: no columns", table)
	}

	cols := make([]string, 0, len(fields))
	for k := range fields {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = bindValue(fields[c])
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		schema.Name, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

func (s *Store) Count(ctx context.Context, table generic.TableName) (int64, error) {
	schema, err := generic.LookupTable(table)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+string(schema.Name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Sum adds column across every row with decimal arithmetic. NULL and
// empty cells count as zero.
func (s *Store) Sum(ctx context.Context, table generic.TableName, column string) (decimal.Decimal, error) {
	schema, err := generic.LookupTable(table)
	if err != nil {
		return decimal.Zero, err
	}
	if err := schema.CheckSum(column); err != nil {
		return decimal.Zero, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", column, schema.Name))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var cell sql.NullString
		if err := rows.Scan(&cell); err != nil {
			return decimal.Zero, fmt.Errorf("sum %s.%s: %w", table, column, err)
		}
		if !cell.Valid || cell.String == "" {
			continue
		}
		d, err := decimal.NewFromString(cell.String)
		if err != nil {
			return decimal.Zero, fmt.Errorf("sum %s.%s: bad amount %q: %w", table, column, cell.String, err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("sum %s.%s: %w", table, column, err)
	}
	return total, nil
}

// bindValue converts values database/sql cannot bind directly.
func bindValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}
