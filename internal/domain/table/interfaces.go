package table

import (
	"context"

	"github.com/rpggio/drawbridge/internal/domain/activity"
)

// Repository persists table, field and choice metadata.
type Repository interface {
	Create(ctx context.Context, def *UnsavedTable) (int64, error)
	Get(ctx context.Context, id int64) (*Table, error)
	GetMany(ctx context.Context, ids []int64) ([]Table, error)
	List(ctx context.Context) ([]Table, error)
	UpdateMeta(ctx context.Context, tbl *Table) error
}

// PhysicalStore executes statements against the storage database. Every
// method derives the physical table from tbl through the schema translator.
type PhysicalStore interface {
	CreateTable(ctx context.Context, tbl *Table) error
	TableExists(ctx context.Context, tbl *Table) (bool, error)
	Select(ctx context.Context, tbl *Table, q SelectQuery) ([]RawRow, error)
	Insert(ctx context.Context, tbl *Table, rows []map[string]any) ([]RawRow, error)
	Update(ctx context.Context, tbl *Table, rowID int64, values map[string]any) ([]RawRow, error)
	Delete(ctx context.Context, tbl *Table, rowIDs []int64) (int64, error)
	Count(ctx context.Context, tbl *Table) (int64, error)
}

// ActivityRepository records schema and row changes.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
