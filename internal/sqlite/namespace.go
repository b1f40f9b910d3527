package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/drawbridge/internal/domain/namespace"
	"github.com/rpggio/drawbridge/internal/repository"
)

// NamespaceRepository implements namespace.Repository for SQLite
type NamespaceRepository struct {
	db *DB
}

// NewNamespaceRepository creates a new NamespaceRepository
func NewNamespaceRepository(db *DB) *NamespaceRepository {
	return &NamespaceRepository{db: db}
}

// Create creates a new namespace and assigns its id
func (r *NamespaceRepository) Create(ctx context.Context, ns *namespace.Namespace) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO namespaces (name, description, created_at)
		VALUES (?, ?, ?)
	`, ns.Name, ns.Description, ns.CreatedAt)
	if err != nil {
		return mapWriteError("failed to create namespace", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get namespace id: %w", err)
	}
	ns.ID = id
	return nil
}

// Get retrieves a namespace by ID with the ids of its tables
func (r *NamespaceRepository) Get(ctx context.Context, id int64) (*namespace.Namespace, error) {
	var ns namespace.Namespace
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at
		FROM namespaces
		WHERE id = ?
	`, id).Scan(&ns.ID, &ns.Name, &description, &ns.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get namespace: %w", err)
	}
	if description.Valid {
		ns.Description = &description.String
	}

	tableIDs, err := r.tableIDs(ctx)
	if err != nil {
		return nil, err
	}
	ns.TableIDs = tableIDs[ns.ID]
	if ns.TableIDs == nil {
		ns.TableIDs = []int64{}
	}
	return &ns, nil
}

// List returns all namespaces ordered by name
func (r *NamespaceRepository) List(ctx context.Context) ([]namespace.Namespace, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM namespaces
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	list := []namespace.Namespace{}
	for rows.Next() {
		var ns namespace.Namespace
		var description sql.NullString
		if err := rows.Scan(&ns.ID, &ns.Name, &description, &ns.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan namespace: %w", err)
		}
		if description.Valid {
			ns.Description = &description.String
		}
		list = append(list, ns)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating namespace rows: %w", err)
	}
	rows.Close()

	tableIDs, err := r.tableIDs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].TableIDs = tableIDs[list[i].ID]
		if list[i].TableIDs == nil {
			list[i].TableIDs = []int64{}
		}
	}
	return list, nil
}

// Update changes a namespace's name and description
func (r *NamespaceRepository) Update(ctx context.Context, ns *namespace.Namespace) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE namespaces SET name = ?, description = ? WHERE id = ?
	`, ns.Name, ns.Description, ns.ID)
	if err != nil {
		return mapWriteError("failed to update namespace", err)
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

// Delete removes a namespace and detaches its tables
func (r *NamespaceRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE tables SET namespace_id = NULL WHERE namespace_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach tables: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM namespaces WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete namespace: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *NamespaceRepository) tableIDs(ctx context.Context) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT namespace_id, id FROM tables WHERE namespace_id IS NOT NULL ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query namespace tables: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var nsID, tableID int64
		if err := rows.Scan(&nsID, &tableID); err != nil {
			return nil, fmt.Errorf("failed to scan namespace table: %w", err)
		}
		out[nsID] = append(out[nsID], tableID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating namespace tables: %w", err)
	}
	return out, nil
}
