package table_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/domain/table"
	"github.com/rpggio/drawbridge/internal/repository"
	"github.com/rpggio/drawbridge/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordedOp struct {
	op  string
	err error
}

type fakeMetrics struct {
	ops  []recordedOp
	rows map[string]int
}

func (m *fakeMetrics) ObserveOperation(op string, _ time.Duration, err error) {
	m.ops = append(m.ops, recordedOp{op: op, err: err})
}

func (m *fakeMetrics) AddRows(op string, n int) {
	if m.rows == nil {
		m.rows = map[string]int{}
	}
	m.rows[op] += n
}

func usersTable() *table.Table {
	return &table.Table{
		ID:          3,
		Name:        "users",
		VerboseName: "Users",
		Fields: []table.Field{
			{ID: 10, Name: "username", DataType: table.TypeString},
			{ID: 11, Name: "score", DataType: table.TypeInt, IsNullable: true},
		},
	}
}

func TestTableService_CreateTable(t *testing.T) {
	ctx := context.Background()
	tables := &mocks.TableRepository{}
	store := &mocks.PhysicalStore{}
	activities := &mocks.ActivityRepository{}
	saved := usersTable()

	tables.On("Create", ctx, mock.MatchedBy(func(def *table.UnsavedTable) bool {
		return def.Name == "users" && def.Fields[0].VerboseName == "username"
	})).Return(int64(3), nil)
	tables.On("Get", ctx, int64(3)).Return(saved, nil)
	store.On("CreateTable", ctx, saved).Return(nil)
	activities.On("Log", ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeTableCreated && *e.TableID == 3
	})).Return(nil)

	svc := table.NewService(tables, store, nil, table.Options{Activities: activities})
	tbl, err := svc.CreateTable(ctx, &table.UnsavedTable{
		Name: " users ",
		Fields: []table.UnsavedField{
			{Name: "username", DataType: table.TypeString},
			{Name: "score", DataType: table.TypeInt, IsNullable: true},
		},
	})
	require.NoError(t, err)
	require.Equal(t, saved, tbl)
	tables.AssertExpectations(t)
	store.AssertExpectations(t)
	activities.AssertExpectations(t)
}

func TestTableService_CreateTable_InvalidDefinition(t *testing.T) {
	tables := &mocks.TableRepository{}
	store := &mocks.PhysicalStore{}
	svc := table.NewService(tables, store, nil, table.Options{})

	_, err := svc.CreateTable(context.Background(), &table.UnsavedTable{
		Name:   "bad",
		Fields: []table.UnsavedField{{Name: "id", DataType: table.TypeInt}},
	})
	require.ErrorIs(t, err, table.ErrInvalidInput)
	tables.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTableService_CreateTable_Duplicate(t *testing.T) {
	ctx := context.Background()
	tables := &mocks.TableRepository{}
	tables.On("Create", ctx, mock.Anything).Return(int64(0), repository.ErrAlreadyExists)

	svc := table.NewService(tables, &mocks.PhysicalStore{}, nil, table.Options{})
	_, err := svc.CreateTable(ctx, &table.UnsavedTable{Name: "users"})
	require.ErrorIs(t, err, table.ErrTableExists)
}

func TestTableService_CreateTable_PhysicalFailure(t *testing.T) {
	ctx := context.Background()
	tables := &mocks.TableRepository{}
	store := &mocks.PhysicalStore{}
	saved := usersTable()
	tables.On("Create", ctx, mock.Anything).Return(int64(3), nil)
	tables.On("Get", ctx, int64(3)).Return(saved, nil)
	store.On("CreateTable", ctx, saved).Return(errors.New("disk full"))

	metrics := &fakeMetrics{}
	svc := table.NewService(tables, store, nil, table.Options{Metrics: metrics})
	_, err := svc.CreateTable(ctx, &table.UnsavedTable{Name: "users"})
	require.ErrorIs(t, err, table.ErrStorage)

	var se *table.StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "create physical table", se.Op)

	require.Len(t, metrics.ops, 1)
	require.Equal(t, "create_table", metrics.ops[0].op)
	require.Error(t, metrics.ops[0].err)
}

func TestTableService_GetTable_NotFound(t *testing.T) {
	ctx := context.Background()
	tables := &mocks.TableRepository{}
	tables.On("Get", ctx, int64(9)).Return(nil, repository.ErrNotFound)

	svc := table.NewService(tables, &mocks.PhysicalStore{}, nil, table.Options{})
	_, err := svc.GetTable(ctx, 9)
	require.ErrorIs(t, err, table.ErrTableNotFound)
}

func TestTableService_GetTables_Empty(t *testing.T) {
	tables := &mocks.TableRepository{}
	svc := table.NewService(tables, &mocks.PhysicalStore{}, nil, table.Options{})

	list, err := svc.GetTables(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, list)
	tables.AssertNotCalled(t, "GetMany", mock.Anything, mock.Anything)
}

func TestTableService_UpdateTable(t *testing.T) {
	ctx := context.Background()
	tables := &mocks.TableRepository{}
	renamed := usersTable()
	renamed.Name = "members"
	tables.On("UpdateMeta", ctx, renamed).Return(nil)
	tables.On("Get", ctx, int64(3)).Return(renamed, nil)

	svc := table.NewService(tables, &mocks.PhysicalStore{}, nil, table.Options{})
	got, err := svc.UpdateTable(ctx, renamed)
	require.NoError(t, err)
	require.Equal(t, "members", got.Name)

	_, err = svc.UpdateTable(ctx, &table.Table{ID: 3})
	require.ErrorIs(t, err, table.ErrInvalidInput)
}

func TestTableService_InsertRows(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PhysicalStore{}
	tbl := usersTable()

	store.On("Insert", ctx, tbl, []map[string]any{
		{"username": "alice", "score": int64(100)},
		{"username": "bob", "score": nil},
	}).Return([]table.RawRow{
		{ID: 1, Columns: map[string]any{"username": "alice", "score": int64(100)}},
		{ID: 2, Columns: map[string]any{"username": "bob", "score": nil}},
	}, nil)

	metrics := &fakeMetrics{}
	svc := table.NewService(&mocks.TableRepository{}, store, nil, table.Options{Metrics: metrics})
	rows, err := svc.InsertRows(ctx, []table.InsertRow{
		{Table: tbl, Values: []table.RowData{
			{FieldID: 10, Value: table.StringValue("alice")},
			{FieldID: 11, Value: table.StringValue("100")},
		}},
		{Table: tbl, Values: []table.RowData{{FieldID: 10, Value: table.StringValue("bob")}}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0].RowID)
	require.Equal(t, table.IntValue(100), rows[0].ValueOf(11))
	require.Equal(t, table.Null, rows[1].ValueOf(11))
	require.Equal(t, 2, metrics.rows["insert_rows"])
	store.AssertExpectations(t)
}

func TestTableService_InsertRows_Rejected(t *testing.T) {
	ctx := context.Background()
	tbl := usersTable()
	other := &table.Table{ID: 4, Name: "orders"}

	cases := []struct {
		name string
		rows []table.InsertRow
		err  error
	}{
		{"unknown field", []table.InsertRow{{Table: tbl, Values: []table.RowData{
			{FieldID: 10, Value: table.StringValue("a")},
			{FieldID: 99, Value: table.IntValue(1)},
		}}}, table.ErrFieldNotFound},
		{"null in required field", []table.InsertRow{{Table: tbl, Values: []table.RowData{
			{FieldID: 10, Value: table.Null},
		}}}, table.ErrInvalidValue},
		{"omitted required field", []table.InsertRow{{Table: tbl}}, table.ErrInvalidValue},
		{"uncoercible value", []table.InsertRow{{Table: tbl, Values: []table.RowData{
			{FieldID: 10, Value: table.StringValue("a")},
			{FieldID: 11, Value: table.StringValue("many")},
		}}}, table.ErrInvalidValue},
		{"mixed tables", []table.InsertRow{
			{Table: tbl, Values: []table.RowData{{FieldID: 10, Value: table.StringValue("a")}}},
			{Table: other},
		}, table.ErrMixedTables},
		{"no table", []table.InsertRow{{}}, table.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mocks.PhysicalStore{}
			svc := table.NewService(&mocks.TableRepository{}, store, nil, table.Options{})
			_, err := svc.InsertRows(ctx, tc.rows)
			require.ErrorIs(t, err, tc.err)
			store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTableService_EmptyBatches(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PhysicalStore{}
	metrics := &fakeMetrics{}
	svc := table.NewService(&mocks.TableRepository{}, store, nil, table.Options{Metrics: metrics})

	inserted, err := svc.InsertRows(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, inserted)
	require.Empty(t, inserted)

	updated, err := svc.UpdateRows(ctx, []table.UpdateRow{})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Empty(t, updated)

	n, err := svc.DeleteRows(ctx, usersTable(), nil)
	require.NoError(t, err)
	require.Zero(t, n)

	require.Empty(t, store.Calls)
	require.Empty(t, metrics.ops)
}

func TestTableService_UpdateRows_PartialFailure(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PhysicalStore{}
	tbl := usersTable()
	store.On("Update", ctx, tbl, int64(1), map[string]any{"score": int64(5)}).
		Return([]table.RawRow{{ID: 1, Columns: map[string]any{"username": "a", "score": int64(5)}}}, nil)
	store.On("Update", ctx, tbl, int64(2), map[string]any{"score": int64(6)}).
		Return(nil, errors.New("locked"))

	svc := table.NewService(&mocks.TableRepository{}, store, nil, table.Options{})
	_, err := svc.UpdateRows(ctx, []table.UpdateRow{
		{Table: tbl, RowID: 1, Values: []table.RowData{{FieldID: 11, Value: table.IntValue(5)}}},
		{Table: tbl, RowID: 2, Values: []table.RowData{{FieldID: 11, Value: table.IntValue(6)}}},
	})
	require.ErrorIs(t, err, table.ErrStorage)
	store.AssertExpectations(t)
}

func TestTableService_UpdateRow_NotFound(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PhysicalStore{}
	tbl := usersTable()
	store.On("Update", ctx, tbl, int64(77), map[string]any{"username": "z"}).Return([]table.RawRow{}, nil)

	svc := table.NewService(&mocks.TableRepository{}, store, nil, table.Options{})
	_, err := svc.UpdateRow(ctx, table.UpdateRow{Table: tbl, RowID: 77, Values: []table.RowData{
		{FieldID: 10, Value: table.StringValue("z")},
	}})
	require.ErrorIs(t, err, table.ErrRowNotFound)
}

func TestTableService_DeleteRow(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PhysicalStore{}
	activities := &mocks.ActivityRepository{}
	tbl := usersTable()
	store.On("Delete", ctx, tbl, []int64{1}).Return(int64(1), nil)
	store.On("Delete", ctx, tbl, []int64{2}).Return(int64(0), nil)
	activities.On("Log", ctx, mock.Anything).Return(errors.New("log unavailable"))

	svc := table.NewService(&mocks.TableRepository{}, store, nil, table.Options{Activities: activities})
	require.NoError(t, svc.DeleteRow(ctx, tbl, 1))
	require.ErrorIs(t, svc.DeleteRow(ctx, tbl, 2), table.ErrRowNotFound)
	activities.AssertNumberOfCalls(t, "Log", 1)
}

func TestTableService_FetchRows_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PhysicalStore{}
	tbl := usersTable()
	store.On("Select", ctx, tbl, table.SelectQuery{Limit: table.DefaultFetchLimit}).Return([]table.RawRow{}, nil)

	svc := table.NewService(&mocks.TableRepository{}, store, nil, table.Options{})
	rows, err := svc.FetchRows(ctx, tbl, table.FetchOptions{
		Offset:    -3,
		Ordering:  []table.OrderingParam{{FieldID: 10}},
		Filtering: []table.FilteringParam{{FieldID: 11, Operator: table.OpGt, Value: "1"}},
	})
	require.NoError(t, err)
	require.Empty(t, rows)
	store.AssertExpectations(t)
}

func TestTableService_FetchRow(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PhysicalStore{}
	tbl := usersTable()
	store.On("Select", ctx, tbl, table.SelectQuery{RowIDs: []int64{5}, Limit: 1}).
		Return([]table.RawRow{{ID: 5, Columns: map[string]any{"username": "e"}}}, nil)
	store.On("Select", ctx, tbl, table.SelectQuery{RowIDs: []int64{6}, Limit: 1}).Return([]table.RawRow{}, nil)

	svc := table.NewService(&mocks.TableRepository{}, store, nil, table.Options{})
	row, err := svc.FetchRow(ctx, tbl, 5)
	require.NoError(t, err)
	require.Equal(t, table.StringValue("e"), row.ValueOf(10))
	require.Equal(t, table.Null, row.ValueOf(11))

	_, err = svc.FetchRow(ctx, tbl, 6)
	require.ErrorIs(t, err, table.ErrRowNotFound)
}

func TestTableService_Reconcile(t *testing.T) {
	ctx := context.Background()
	tables := &mocks.TableRepository{}
	store := &mocks.PhysicalStore{}
	present := table.Table{ID: 1, Name: "present"}
	missing := table.Table{ID: 2, Name: "missing"}
	broken := table.Table{ID: 3, Name: "broken"}
	tables.On("List", ctx).Return([]table.Table{present, missing, broken}, nil)
	store.On("TableExists", ctx, mock.MatchedBy(func(tb *table.Table) bool { return tb.ID == 1 })).Return(true, nil)
	store.On("TableExists", ctx, mock.MatchedBy(func(tb *table.Table) bool { return tb.ID == 2 })).Return(false, nil)
	store.On("TableExists", ctx, mock.MatchedBy(func(tb *table.Table) bool { return tb.ID == 3 })).Return(false, errors.New("boom"))
	store.On("CreateTable", ctx, mock.MatchedBy(func(tb *table.Table) bool { return tb.ID == 2 })).Return(nil)

	svc := table.NewService(tables, store, nil, table.Options{})

	report, err := svc.Reconcile(ctx, false)
	require.NoError(t, err)
	require.Len(t, report, 3)
	require.True(t, report[0].PhysicalExists)
	require.False(t, report[1].PhysicalExists)
	require.NotEmpty(t, report[2].Error)
	store.AssertNotCalled(t, "CreateTable", mock.Anything, mock.Anything)

	report, err = svc.Reconcile(ctx, true)
	require.NoError(t, err)
	require.True(t, report[1].Repaired)
	require.True(t, report[1].PhysicalExists)
	require.Equal(t, "2 missing: repaired", report[1].String())
	store.AssertNumberOfCalls(t, "CreateTable", 1)
}
