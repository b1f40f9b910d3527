package mocks

import (
	"context"
	"time"

	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/domain/namespace"
	"github.com/rpggio/drawbridge/internal/domain/session"
	"github.com/rpggio/drawbridge/internal/domain/table"
	"github.com/stretchr/testify/mock"
)

// TableRepository is a mock for table.Repository.
type TableRepository struct {
	mock.Mock
}

func (m *TableRepository) Create(ctx context.Context, def *table.UnsavedTable) (int64, error) {
	args := m.Called(ctx, def)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TableRepository) Get(ctx context.Context, id int64) (*table.Table, error) {
	args := m.Called(ctx, id)
	if tbl, ok := args.Get(0).(*table.Table); ok {
		return tbl, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TableRepository) GetMany(ctx context.Context, ids []int64) ([]table.Table, error) {
	args := m.Called(ctx, ids)
	if list, ok := args.Get(0).([]table.Table); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TableRepository) List(ctx context.Context) ([]table.Table, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]table.Table); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TableRepository) UpdateMeta(ctx context.Context, tbl *table.Table) error {
	args := m.Called(ctx, tbl)
	return args.Error(0)
}

// PhysicalStore is a mock for table.PhysicalStore.
type PhysicalStore struct {
	mock.Mock
}

func (m *PhysicalStore) CreateTable(ctx context.Context, tbl *table.Table) error {
	args := m.Called(ctx, tbl)
	return args.Error(0)
}

func (m *PhysicalStore) TableExists(ctx context.Context, tbl *table.Table) (bool, error) {
	args := m.Called(ctx, tbl)
	return args.Bool(0), args.Error(1)
}

func (m *PhysicalStore) Select(ctx context.Context, tbl *table.Table, q table.SelectQuery) ([]table.RawRow, error) {
	args := m.Called(ctx, tbl, q)
	if rows, ok := args.Get(0).([]table.RawRow); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PhysicalStore) Insert(ctx context.Context, tbl *table.Table, rows []map[string]any) ([]table.RawRow, error) {
	args := m.Called(ctx, tbl, rows)
	if out, ok := args.Get(0).([]table.RawRow); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PhysicalStore) Update(ctx context.Context, tbl *table.Table, rowID int64, values map[string]any) ([]table.RawRow, error) {
	args := m.Called(ctx, tbl, rowID, values)
	if out, ok := args.Get(0).([]table.RawRow); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PhysicalStore) Delete(ctx context.Context, tbl *table.Table, rowIDs []int64) (int64, error) {
	args := m.Called(ctx, tbl, rowIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PhysicalStore) Count(ctx context.Context, tbl *table.Table) (int64, error) {
	args := m.Called(ctx, tbl)
	return args.Get(0).(int64), args.Error(1)
}

// NamespaceRepository is a mock for namespace.Repository.
type NamespaceRepository struct {
	mock.Mock
}

func (m *NamespaceRepository) Create(ctx context.Context, ns *namespace.Namespace) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *NamespaceRepository) Get(ctx context.Context, id int64) (*namespace.Namespace, error) {
	args := m.Called(ctx, id)
	if ns, ok := args.Get(0).(*namespace.Namespace); ok {
		return ns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NamespaceRepository) List(ctx context.Context) ([]namespace.Namespace, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]namespace.Namespace); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NamespaceRepository) Update(ctx context.Context, ns *namespace.Namespace) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *NamespaceRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, id int64) (*session.Session, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Close(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SessionRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SessionRepository) List(ctx context.Context, filter session.ListFilter) ([]session.Session, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]session.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
