package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/drawbridge/internal/domain/table"
	"github.com/rpggio/drawbridge/internal/repository"
)

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TableRepository implements table.Repository for SQLite
type TableRepository struct {
	db *DB
}

// NewTableRepository creates a new TableRepository
func NewTableRepository(db *DB) *TableRepository {
	return &TableRepository{db: db}
}

// Create inserts a table with its fields and choices in one transaction
func (r *TableRepository) Create(ctx context.Context, def *table.UnsavedTable) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO tables (name, verbose_name, description, namespace_id, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, def.Name, def.VerboseName, def.Description, def.NamespaceID, now, now)
	if err != nil {
		return 0, mapWriteError("failed to create table", err)
	}

	tableID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get table id: %w", err)
	}

	for pos, f := range def.Fields {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO fields (table_id, position, name, verbose_name, data_type, is_nullable, default_value)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, tableID, pos, f.Name, f.VerboseName, f.DataType, f.IsNullable, f.DefaultValue)
		if err != nil {
			return 0, mapWriteError("failed to create field", err)
		}

		fieldID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get field id: %w", err)
		}

		for cpos, choice := range f.Choices {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO field_choices (field_id, position, value) VALUES (?, ?, ?)
			`, fieldID, cpos, choice); err != nil {
				return 0, fmt.Errorf("failed to create choice: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return tableID, nil
}

// Get retrieves a table with its fields and choices
func (r *TableRepository) Get(ctx context.Context, id int64) (*table.Table, error) {
	tables, err := r.load(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, repository.ErrNotFound
	}
	return &tables[0], nil
}

// GetMany retrieves the tables with the given ids, ordered by id
func (r *TableRepository) GetMany(ctx context.Context, ids []int64) ([]table.Table, error) {
	if len(ids) == 0 {
		return []table.Table{}, nil
	}
	placeholders, args := inClause(ids)
	return r.load(ctx, "WHERE id IN ("+placeholders+")", args...)
}

// List retrieves every table, ordered by id
func (r *TableRepository) List(ctx context.Context) ([]table.Table, error) {
	return r.load(ctx, "")
}

// UpdateMeta updates the name, verbose name and description of a table
func (r *TableRepository) UpdateMeta(ctx context.Context, tbl *table.Table) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tables
		SET name = ?, verbose_name = ?, description = ?, modified_at = ?
		WHERE id = ?
	`, tbl.Name, tbl.VerboseName, tbl.Description, time.Now().UTC(), tbl.ID)
	if err != nil {
		return mapWriteError("failed to update table", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// load reads table rows matching where, then their fields and choices. Each
// result set is closed before the next query runs.
func (r *TableRepository) load(ctx context.Context, where string, args ...any) ([]table.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, verbose_name, description, namespace_id, created_at, modified_at
		FROM tables
	`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	tables := []table.Table{}
	for rows.Next() {
		var tbl table.Table
		var description sql.NullString
		var namespaceID sql.NullInt64
		if err := rows.Scan(
			&tbl.ID,
			&tbl.Name,
			&tbl.VerboseName,
			&description,
			&namespaceID,
			&tbl.CreatedAt,
			&tbl.ModifiedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if description.Valid {
			tbl.Description = &description.String
		}
		if namespaceID.Valid {
			tbl.NamespaceID = &namespaceID.Int64
		}
		tbl.Fields = []table.Field{}
		tables = append(tables, tbl)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	rows.Close()

	if len(tables) == 0 {
		return tables, nil
	}

	ids := make([]int64, len(tables))
	for i := range tables {
		ids[i] = tables[i].ID
	}
	fields, err := loadFields(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range tables {
		if fs, ok := fields[tables[i].ID]; ok {
			tables[i].Fields = fs
		}
	}
	return tables, nil
}

func loadFields(ctx context.Context, q querier, tableIDs []int64) (map[int64][]table.Field, error) {
	placeholders, args := inClause(tableIDs)
	rows, err := q.QueryContext(ctx, `
		SELECT id, table_id, name, verbose_name, data_type, is_nullable, default_value
		FROM fields
		WHERE table_id IN (`+placeholders+`)
		ORDER BY table_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}

	type owned struct {
		tableID int64
		field   table.Field
	}
	var list []owned
	for rows.Next() {
		var o owned
		var defaultValue sql.NullString
		if err := rows.Scan(
			&o.field.ID,
			&o.tableID,
			&o.field.Name,
			&o.field.VerboseName,
			&o.field.DataType,
			&o.field.IsNullable,
			&defaultValue,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		if defaultValue.Valid {
			o.field.DefaultValue = &defaultValue.String
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating field rows: %w", err)
	}
	rows.Close()

	out := make(map[int64][]table.Field, len(tableIDs))
	if len(list) == 0 {
		return out, nil
	}

	fieldIDs := make([]int64, len(list))
	for i, o := range list {
		fieldIDs[i] = o.field.ID
	}
	choices, err := loadChoices(ctx, q, fieldIDs)
	if err != nil {
		return nil, err
	}

	for _, o := range list {
		o.field.Choices = choices[o.field.ID]
		out[o.tableID] = append(out[o.tableID], o.field)
	}
	return out, nil
}

func loadChoices(ctx context.Context, q querier, fieldIDs []int64) (map[int64][]table.Choice, error) {
	placeholders, args := inClause(fieldIDs)
	rows, err := q.QueryContext(ctx, `
		SELECT id, field_id, value
		FROM field_choices
		WHERE field_id IN (`+placeholders+`)
		ORDER BY field_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query choices: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]table.Choice)
	for rows.Next() {
		var c table.Choice
		var fieldID int64
		if err := rows.Scan(&c.ID, &fieldID, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		out[fieldID] = append(out[fieldID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating choice rows: %w", err)
	}
	return out, nil
}

func mapWriteError(msg string, err error) error {
	switch {
	case isUniqueViolation(err):
		return repository.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
