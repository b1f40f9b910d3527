package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/rpggio/drawbridge/internal/domain/table"
	"github.com/rpggio/drawbridge/internal/repository"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func inventoryDef() *table.UnsavedTable {
	return &table.UnsavedTable{
		Name:        "inventory",
		VerboseName: "Inventory",
		Description: strPtr("stock on hand"),
		Fields: []table.UnsavedField{
			{Name: "title", VerboseName: "Title", DataType: table.TypeString},
			{Name: "quantity", VerboseName: "Quantity", DataType: table.TypeInt, IsNullable: true, DefaultValue: strPtr("0")},
			{Name: "status", VerboseName: "Status", DataType: table.TypeChoice, Choices: []string{"new", "used"}},
		},
	}
}

func TestTableRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewTableRepository(db)

	id, err := repo.Create(ctx, inventoryDef())
	require.NoError(t, err)

	tbl, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "inventory", tbl.Name)
	require.Equal(t, "Inventory", tbl.VerboseName)
	require.Equal(t, "stock on hand", *tbl.Description)
	require.Nil(t, tbl.NamespaceID)
	require.False(t, tbl.CreatedAt.IsZero())

	require.Len(t, tbl.Fields, 3)
	require.Equal(t, "title", tbl.Fields[0].Name)
	require.Equal(t, table.TypeString, tbl.Fields[0].DataType)
	require.False(t, tbl.Fields[0].IsNullable)
	require.Equal(t, "quantity", tbl.Fields[1].Name)
	require.True(t, tbl.Fields[1].IsNullable)
	require.Equal(t, "0", *tbl.Fields[1].DefaultValue)

	status := tbl.Fields[2]
	require.Equal(t, table.TypeChoice, status.DataType)
	require.Len(t, status.Choices, 2)
	require.Equal(t, "new", status.Choices[0].Value)
	require.Equal(t, "used", status.Choices[1].Value)
	require.NotEqual(t, status.Choices[0].ID, status.Choices[1].ID)
}

func TestTableRepository_NotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewTableRepository(db)

	_, err := repo.Get(context.Background(), 99)
	require.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.UpdateMeta(context.Background(), &table.Table{ID: 99, Name: "x"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTableRepository_DuplicateName(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewTableRepository(db)

	_, err := repo.Create(ctx, inventoryDef())
	require.NoError(t, err)
	_, err = repo.Create(ctx, inventoryDef())
	require.ErrorIs(t, err, repository.ErrAlreadyExists)

	upper := inventoryDef()
	upper.Name = strings.ToUpper(upper.Name)
	_, err = repo.Create(ctx, upper)
	require.ErrorIs(t, err, repository.ErrAlreadyExists)

	tables, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
}

func TestTableRepository_UnknownNamespace(t *testing.T) {
	db := NewTestDB(t)
	repo := NewTableRepository(db)

	def := inventoryDef()
	nsID := int64(42)
	def.NamespaceID = &nsID
	_, err := repo.Create(context.Background(), def)
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestTableRepository_GetManyAndList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewTableRepository(db)

	id1, err := repo.Create(ctx, &table.UnsavedTable{Name: "a", Fields: []table.UnsavedField{{Name: "x", DataType: table.TypeInt}}})
	require.NoError(t, err)
	id2, err := repo.Create(ctx, &table.UnsavedTable{Name: "b"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &table.UnsavedTable{Name: "c"})
	require.NoError(t, err)

	many, err := repo.GetMany(ctx, []int64{id2, id1, 1000})
	require.NoError(t, err)
	require.Len(t, many, 2)
	require.Equal(t, id1, many[0].ID)
	require.Len(t, many[0].Fields, 1)
	require.Equal(t, id2, many[1].ID)
	require.Empty(t, many[1].Fields)

	empty, err := repo.GetMany(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestTableRepository_UpdateMeta(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewTableRepository(db)

	id, err := repo.Create(ctx, inventoryDef())
	require.NoError(t, err)
	tbl, err := repo.Get(ctx, id)
	require.NoError(t, err)

	tbl.Name = "stock"
	tbl.VerboseName = "Stock"
	tbl.Description = nil
	require.NoError(t, repo.UpdateMeta(ctx, tbl))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "stock", got.Name)
	require.Equal(t, "Stock", got.VerboseName)
	require.Nil(t, got.Description)
	require.Len(t, got.Fields, 3)
}
