package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/repository"
)

// Metrics receives engine operation outcomes.
type Metrics interface {
	ObserveOperation(op string, elapsed time.Duration, err error)
	AddRows(op string, n int)
}

// Options configures optional collaborators of a Service.
type Options struct {
	Activities ActivityRepository
	Metrics    Metrics
}

// Service is the table storage engine. Metadata is authoritative; the
// physical store holds row data in one table per logical table. The two
// stores share no transaction: metadata is written first so a failed
// physical step leaves orphan metadata, which Reconcile can repair.
type Service struct {
	tables     Repository
	store      PhysicalStore
	activities ActivityRepository
	metrics    Metrics
	logger     *slog.Logger
}

// NewService creates a new table storage engine.
func NewService(tables Repository, store PhysicalStore, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		tables:     tables,
		store:      store,
		activities: opts.Activities,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// CreateTable writes the table metadata, then creates its physical table.
func (s *Service) CreateTable(ctx context.Context, def *UnsavedTable) (tbl *Table, err error) {
	defer s.observe("create_table", time.Now(), &err)

	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}
	def = normalizeDefinition(def)

	id, err := s.tables.Create(ctx, def)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, ErrTableExists
		case errors.Is(err, repository.ErrForeignKeyViolation):
			return nil, ErrNamespaceNotFound
		}
		return nil, storageError("create table metadata", err)
	}

	tbl, err = s.tables.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, storageError("reload table metadata", err)
	}

	if err := s.store.CreateTable(ctx, tbl); err != nil {
		s.logger.Warn("physical table creation failed; metadata left without backing table",
			"table_id", tbl.ID, "name", tbl.Name, "error", err)
		return nil, storageError("create physical table", err)
	}

	s.logger.Info("table created", "table_id", tbl.ID, "name", tbl.Name, "fields", len(tbl.Fields))
	s.logActivity(ctx, &tbl.ID, activity.TypeTableCreated, fmt.Sprintf("created table %s", tbl.Name))
	return tbl, nil
}

// UpdateTable changes the name, verbose name and description of a table.
// Fields and the physical table are left as they are.
func (s *Service) UpdateTable(ctx context.Context, tbl *Table) (updated *Table, err error) {
	defer s.observe("update_table", time.Now(), &err)

	if tbl == nil || tbl.ID <= 0 || strings.TrimSpace(tbl.Name) == "" {
		return nil, ErrInvalidInput
	}

	if err := s.tables.UpdateMeta(ctx, tbl); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTableNotFound
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, ErrTableExists
		case errors.Is(err, repository.ErrForeignKeyViolation):
			return nil, ErrNamespaceNotFound
		}
		return nil, storageError("update table metadata", err)
	}

	updated, err = s.GetTable(ctx, tbl.ID)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, &updated.ID, activity.TypeTableUpdated, fmt.Sprintf("updated table %s", updated.Name))
	return updated, nil
}

// GetTable returns a table with its fields and choices.
func (s *Service) GetTable(ctx context.Context, id int64) (*Table, error) {
	tbl, err := s.tables.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, storageError("get table", err)
	}
	return tbl, nil
}

// GetTables resolves several tables at once. Unknown ids are skipped.
func (s *Service) GetTables(ctx context.Context, ids []int64) ([]Table, error) {
	if len(ids) == 0 {
		return []Table{}, nil
	}
	list, err := s.tables.GetMany(ctx, ids)
	if err != nil {
		return nil, storageError("get tables", err)
	}
	return list, nil
}

// ListTables returns every table with full field detail. Callers that need
// access control filter the result themselves.
func (s *Service) ListTables(ctx context.Context) ([]Table, error) {
	list, err := s.tables.List(ctx)
	if err != nil {
		return nil, storageError("list tables", err)
	}
	return list, nil
}

// FetchRows reads a window of rows in insertion order.
func (s *Service) FetchRows(ctx context.Context, tbl *Table, opts FetchOptions) (rows []Row, err error) {
	defer s.observe("fetch_rows", time.Now(), &err)

	if tbl == nil {
		return nil, ErrInvalidInput
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultFetchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if len(opts.Ordering) > 0 || len(opts.Filtering) > 0 {
		s.logger.Debug("ordering and filtering are not applied",
			"table_id", tbl.ID, "ordering", len(opts.Ordering), "filtering", len(opts.Filtering))
	}

	raw, err := s.store.Select(ctx, tbl, SelectQuery{Limit: opts.Limit, Offset: opts.Offset})
	if err != nil {
		return nil, storageError("fetch rows", err)
	}
	rows = toRows(tbl, raw)
	s.addRows("fetch_rows", len(rows))
	return rows, nil
}

// FetchPage returns a window of rows together with the table's row count.
func (s *Service) FetchPage(ctx context.Context, tbl *Table, opts FetchOptions) (*Page, error) {
	rows, err := s.FetchRows(ctx, tbl, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.CountRows(ctx, tbl)
	if err != nil {
		return nil, err
	}
	return &Page{Total: total, Rows: rows}, nil
}

// FetchRow reads a single row by id.
func (s *Service) FetchRow(ctx context.Context, tbl *Table, rowID int64) (*Row, error) {
	if tbl == nil {
		return nil, ErrInvalidInput
	}
	raw, err := s.store.Select(ctx, tbl, SelectQuery{RowIDs: []int64{rowID}, Limit: 1})
	if err != nil {
		return nil, storageError("fetch row", err)
	}
	if len(raw) == 0 {
		return nil, ErrRowNotFound
	}
	row := toRow(tbl, raw[0])
	return &row, nil
}

// InsertRows inserts a batch of rows into one table with a single
// statement and returns them as stored. Every row is validated before
// anything is written.
func (s *Service) InsertRows(ctx context.Context, rows []InsertRow) (out []Row, err error) {
	if len(rows) == 0 {
		return []Row{}, nil
	}
	defer s.observe("insert_rows", time.Now(), &err)

	tbl, err := batchTable(len(rows), func(i int) *Table { return rows[i].Table })
	if err != nil {
		return nil, err
	}

	defaults, err := insertDefaults(tbl)
	if err != nil {
		return nil, err
	}

	values := make([]map[string]any, len(rows))
	for i, row := range rows {
		set, err := physicalValues(tbl, row.Values)
		if err != nil {
			return nil, err
		}
		cols := make(map[string]any, len(tbl.Fields))
		for j := range tbl.Fields {
			f := &tbl.Fields[j]
			if v, ok := set[f.Name]; ok {
				cols[f.Name] = v
				continue
			}
			d, err := ToPhysical(f, defaults[f.Name])
			if err != nil {
				return nil, err
			}
			cols[f.Name] = d
		}
		values[i] = cols
	}

	raw, err := s.store.Insert(ctx, tbl, values)
	if err != nil {
		return nil, storageError("insert rows", err)
	}

	out = toRows(tbl, raw)
	s.addRows("insert_rows", len(out))
	s.logActivity(ctx, &tbl.ID, activity.TypeRowsInserted, fmt.Sprintf("inserted %d rows into %s", len(out), tbl.Name))
	return out, nil
}

// InsertRow inserts one row.
func (s *Service) InsertRow(ctx context.Context, row InsertRow) (*Row, error) {
	out, err := s.InsertRows(ctx, []InsertRow{row})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, storageError("insert row", errors.New("no row returned"))
	}
	return &out[0], nil
}

// UpdateRows applies each update with its own statement, in order. The
// whole batch is validated first, but a storage failure midway leaves the
// earlier updates applied. Row ids that don't exist produce no output row.
func (s *Service) UpdateRows(ctx context.Context, rows []UpdateRow) (out []Row, err error) {
	if len(rows) == 0 {
		return []Row{}, nil
	}
	defer s.observe("update_rows", time.Now(), &err)

	tbl, err := batchTable(len(rows), func(i int) *Table { return rows[i].Table })
	if err != nil {
		return nil, err
	}

	changes := make([]map[string]any, len(rows))
	for i, row := range rows {
		set, err := physicalValues(tbl, row.Values)
		if err != nil {
			return nil, err
		}
		changes[i] = set
	}

	out = make([]Row, 0, len(rows))
	for i, row := range rows {
		raw, err := s.store.Update(ctx, tbl, row.RowID, changes[i])
		if err != nil {
			if len(out) > 0 {
				s.logger.Warn("update batch partially applied", "table_id", tbl.ID, "applied", len(out), "failed_row", row.RowID)
			}
			return nil, storageError("update rows", err)
		}
		out = append(out, toRows(tbl, raw)...)
	}

	s.addRows("update_rows", len(out))
	s.logActivity(ctx, &tbl.ID, activity.TypeRowsUpdated, fmt.Sprintf("updated %d rows in %s", len(out), tbl.Name))
	return out, nil
}

// UpdateRow updates one row. It returns ErrRowNotFound if the row doesn't exist.
func (s *Service) UpdateRow(ctx context.Context, row UpdateRow) (*Row, error) {
	out, err := s.UpdateRows(ctx, []UpdateRow{row})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrRowNotFound
	}
	return &out[0], nil
}

// DeleteRows deletes the rows with the given ids and reports how many
// existed. Unknown ids are ignored.
func (s *Service) DeleteRows(ctx context.Context, tbl *Table, rowIDs []int64) (n int64, err error) {
	if tbl == nil {
		return 0, ErrInvalidInput
	}
	if len(rowIDs) == 0 {
		return 0, nil
	}
	defer s.observe("delete_rows", time.Now(), &err)

	n, err = s.store.Delete(ctx, tbl, rowIDs)
	if err != nil {
		return 0, storageError("delete rows", err)
	}
	s.addRows("delete_rows", int(n))
	if n > 0 {
		s.logActivity(ctx, &tbl.ID, activity.TypeRowsDeleted, fmt.Sprintf("deleted %d rows from %s", n, tbl.Name))
	}
	return n, nil
}

// DeleteRow deletes one row. It returns ErrRowNotFound if the row doesn't exist.
func (s *Service) DeleteRow(ctx context.Context, tbl *Table, rowID int64) error {
	n, err := s.DeleteRows(ctx, tbl, []int64{rowID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRowNotFound
	}
	return nil
}

// CountRows returns the number of rows in the table.
func (s *Service) CountRows(ctx context.Context, tbl *Table) (int64, error) {
	if tbl == nil {
		return 0, ErrInvalidInput
	}
	n, err := s.store.Count(ctx, tbl)
	if err != nil {
		return 0, storageError("count rows", err)
	}
	return n, nil
}

// batchTable returns the table shared by every row in a batch.
func batchTable(n int, at func(int) *Table) (*Table, error) {
	first := at(0)
	if first == nil {
		return nil, ErrInvalidInput
	}
	for i := 1; i < n; i++ {
		t := at(i)
		if t == nil {
			return nil, ErrInvalidInput
		}
		if t != first && (t.ID != first.ID || t.Name != first.Name) {
			return nil, fmt.Errorf("%w: %s and %s", ErrMixedTables, first.Name, t.Name)
		}
	}
	return first, nil
}

// physicalValues validates row data against tbl and returns driver values
// keyed by column name.
func physicalValues(tbl *Table, data []RowData) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for _, rd := range data {
		f, ok := tbl.FieldByID(rd.FieldID)
		if !ok {
			return nil, fmt.Errorf("%w: %d on table %s", ErrFieldNotFound, rd.FieldID, tbl.Name)
		}
		v, err := ToPhysical(f, rd.Value)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func insertDefaults(tbl *Table) (map[string]Value, error) {
	out := make(map[string]Value, len(tbl.Fields))
	for i := range tbl.Fields {
		v, err := ParseDefault(&tbl.Fields[i])
		if err != nil {
			return nil, err
		}
		out[tbl.Fields[i].Name] = v
	}
	return out, nil
}

func toRow(tbl *Table, raw RawRow) Row {
	row := Row{TableID: tbl.ID, RowID: raw.ID, Values: make([]RowData, 0, len(tbl.Fields))}
	for i := range tbl.Fields {
		f := &tbl.Fields[i]
		row.Values = append(row.Values, RowData{FieldID: f.ID, Value: FromPhysical(f, raw.Columns[f.Name])})
	}
	return row
}

func toRows(tbl *Table, raw []RawRow) []Row {
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, toRow(tbl, r))
	}
	return rows
}

func (s *Service) observe(op string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOperation(op, time.Since(start), *err)
}

func (s *Service) addRows(op string, n int) {
	if s.metrics == nil || n == 0 {
		return
	}
	s.metrics.AddRows(op, n)
}

func (s *Service) logActivity(ctx context.Context, tableID *int64, typ activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	id := *tableID
	err := s.activities.Log(ctx, &activity.ActivityEntry{
		TableID:      &id,
		ActivityType: typ,
		Summary:      summary,
	})
	if err != nil {
		s.logger.Warn("failed to log table activity", "table_id", id, "type", typ, "error", err)
	}
}
