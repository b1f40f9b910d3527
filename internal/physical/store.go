package physical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rpggio/drawbridge/internal/domain/table"
	_ "modernc.org/sqlite"
)

// ErrTableExists is returned by CreateTable when the physical table is
// already present.
var ErrTableExists = errors.New("physical table already exists")

var _ table.PhysicalStore = (*Store)(nil)

// Store executes row and schema statements against the storage database.
// It implements table.PhysicalStore.
type Store struct {
	db       *sql.DB
	registry *Registry
	logger   *slog.Logger
}

// Open connects to the storage database with the named driver.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}
	if _, ok := dialect.(SQLite); ok {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to storage database: %w", err)
	}

	return NewStore(db, dialect, logger), nil
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, registry: NewRegistry(dialect), logger: logger}
}

// Registry returns the store's schema registry.
func (s *Store) Registry() *Registry { return s.registry }

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the storage database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) dialect() Dialect { return s.registry.Dialect() }

// CreateTable creates the physical table in one transaction. It fails
// with ErrTableExists if a table of that name is already present.
func (s *Store) CreateTable(ctx context.Context, tbl *table.Table) error {
	def, err := s.registry.Translate(tbl)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, s.dialect().TableExistsQuery(), def.Name).Scan(&count); err != nil {
		return fmt.Errorf("failed to check table %s: %w", def.Name, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrTableExists, def.Name)
	}

	ddl := def.CreateSQL(s.dialect())
	s.logger.Debug("creating physical table", "table", def.Name, "sql", ddl)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", def.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TableExists reports whether the physical table is present.
func (s *Store) TableExists(ctx context.Context, tbl *table.Table) (bool, error) {
	def, err := s.registry.Translate(tbl)
	if err != nil {
		return false, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect().TableExistsQuery(), def.Name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", def.Name, err)
	}
	return count > 0, nil
}

// Select reads rows ordered by row id.
func (s *Store) Select(ctx context.Context, tbl *table.Table, q table.SelectQuery) ([]table.RawRow, error) {
	def, err := s.registry.Translate(tbl)
	if err != nil {
		return nil, err
	}
	d := s.dialect()

	var b strings.Builder
	args := []any{}
	fmt.Fprintf(&b, "SELECT %s FROM %s", s.columnList(def), d.Quote(def.Name))
	if len(q.RowIDs) > 0 {
		b.WriteString(" WHERE " + d.Quote(table.RowIDColumn) + " IN (")
		for i, id := range q.RowIDs {
			if i > 0 {
				b.WriteString(", ")
			}
			args = append(args, id)
			b.WriteString(d.Placeholder(len(args)))
		}
		b.WriteString(")")
	}
	b.WriteString(" ORDER BY " + d.Quote(table.RowIDColumn))
	if q.Limit > 0 {
		args = append(args, q.Limit)
		b.WriteString(" LIMIT " + d.Placeholder(len(args)))
	}
	if q.Offset > 0 {
		// sqlite only accepts OFFSET after a LIMIT
		if _, ok := d.(SQLite); ok && q.Limit <= 0 {
			b.WriteString(" LIMIT -1")
		}
		args = append(args, q.Offset)
		b.WriteString(" OFFSET " + d.Placeholder(len(args)))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", def.Name, err)
	}
	return scanRows(rows, def)
}

// Insert writes rows with one statement and returns them ordered by row
// id. Each row must set the same columns.
func (s *Store) Insert(ctx context.Context, tbl *table.Table, rows []map[string]any) ([]table.RawRow, error) {
	if len(rows) == 0 {
		return []table.RawRow{}, nil
	}
	def, err := s.registry.Translate(tbl)
	if err != nil {
		return nil, err
	}
	d := s.dialect()

	cols, err := insertColumns(def, rows)
	if err != nil {
		return nil, err
	}
	returning := " RETURNING " + s.columnList(def)

	if len(cols) == 0 {
		return s.insertDefaults(ctx, def, len(rows), returning)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.Quote(c)
	}

	var b strings.Builder
	args := make([]any, 0, len(rows)*len(cols))
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.Quote(def.Name), strings.Join(quoted, ", "))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, c := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, row[c])
			b.WriteString(d.Placeholder(len(args)))
		}
		b.WriteString(")")
	}
	b.WriteString(returning)

	result, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", def.Name, err)
	}
	out, err := scanRows(result, def)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// insertDefaults inserts n rows that set no columns, one statement each,
// in a single transaction.
func (s *Store) insertDefaults(ctx context.Context, def Definition, n int, returning string) ([]table.RawRow, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "INSERT INTO " + s.dialect().Quote(def.Name) + " DEFAULT VALUES" + returning
	out := make([]table.RawRow, 0, n)
	for i := 0; i < n; i++ {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", def.Name, err)
		}
		got, err := scanRows(rows, def)
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return out, nil
}

// Update sets columns on one row and returns it, or no rows if the id
// doesn't exist.
func (s *Store) Update(ctx context.Context, tbl *table.Table, rowID int64, values map[string]any) ([]table.RawRow, error) {
	if len(values) == 0 {
		return s.Select(ctx, tbl, table.SelectQuery{RowIDs: []int64{rowID}, Limit: 1})
	}
	def, err := s.registry.Translate(tbl)
	if err != nil {
		return nil, err
	}
	d := s.dialect()

	for name := range values {
		if _, ok := def.Column(name); !ok {
			return nil, fmt.Errorf("unknown column %q on %s", name, def.Name)
		}
	}

	var b strings.Builder
	args := make([]any, 0, len(values)+1)
	fmt.Fprintf(&b, "UPDATE %s SET ", d.Quote(def.Name))
	for _, c := range def.Columns {
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		if len(args) > 0 {
			b.WriteString(", ")
		}
		args = append(args, v)
		b.WriteString(d.Quote(c.Name) + " = " + d.Placeholder(len(args)))
	}
	args = append(args, rowID)
	fmt.Fprintf(&b, " WHERE %s = %s RETURNING %s", d.Quote(table.RowIDColumn), d.Placeholder(len(args)), s.columnList(def))

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", def.Name, err)
	}
	return scanRows(rows, def)
}

// Delete removes rows by id and returns how many were removed.
func (s *Store) Delete(ctx context.Context, tbl *table.Table, rowIDs []int64) (int64, error) {
	if len(rowIDs) == 0 {
		return 0, nil
	}
	def, err := s.registry.Translate(tbl)
	if err != nil {
		return 0, err
	}
	d := s.dialect()

	placeholders := make([]string, len(rowIDs))
	args := make([]any, len(rowIDs))
	for i, id := range rowIDs {
		placeholders[i] = d.Placeholder(i + 1)
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
		d.Quote(def.Name), d.Quote(table.RowIDColumn), strings.Join(placeholders, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", def.Name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Count returns the number of rows in the table.
func (s *Store) Count(ctx context.Context, tbl *table.Table) (int64, error) {
	def, err := s.registry.Translate(tbl)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.dialect().Quote(def.Name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", def.Name, err)
	}
	return n, nil
}

func (s *Store) columnList(def Definition) string {
	names := def.ColumnNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = s.dialect().Quote(n)
	}
	return strings.Join(quoted, ", ")
}

// insertColumns returns the columns set by the first row, in definition
// order, and checks that every row sets the same ones.
func insertColumns(def Definition, rows []map[string]any) ([]string, error) {
	for name := range rows[0] {
		if _, ok := def.Column(name); !ok {
			return nil, fmt.Errorf("unknown column %q on %s", name, def.Name)
		}
	}
	cols := make([]string, 0, len(rows[0]))
	for _, c := range def.Columns {
		if _, ok := rows[0][c.Name]; ok {
			cols = append(cols, c.Name)
		}
	}
	for i, row := range rows[1:] {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("row %d sets %d columns, want %d", i+1, len(row), len(cols))
		}
		for _, c := range cols {
			if _, ok := row[c]; !ok {
				return nil, fmt.Errorf("row %d does not set column %q", i+1, c)
			}
		}
	}
	return cols, nil
}

// scanRows reads every row and closes the result set.
func scanRows(rows *sql.Rows, def Definition) ([]table.RawRow, error) {
	defer rows.Close()

	names := def.ColumnNames()
	out := []table.RawRow{}
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", def.Name, err)
		}

		id, err := toInt64(values[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row id: %w", def.Name, err)
		}
		row := table.RawRow{ID: id, Columns: make(map[string]any, len(names)-1)}
		for i, name := range names[1:] {
			row.Columns[name] = values[i+1]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", def.Name, err)
	}
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}
