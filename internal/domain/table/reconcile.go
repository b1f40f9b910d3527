package table

import (
	"context"
	"fmt"
)

// CheckTable reports whether the table's physical table exists.
func (s *Service) CheckTable(ctx context.Context, tableID int64) (ReconcileStatus, error) {
	tbl, err := s.GetTable(ctx, tableID)
	if err != nil {
		return ReconcileStatus{}, err
	}
	return s.check(ctx, tbl), nil
}

// EnsurePhysical creates the physical table for a table whose metadata
// exists without one. It does nothing when the physical table is present.
func (s *Service) EnsurePhysical(ctx context.Context, tableID int64) error {
	tbl, err := s.GetTable(ctx, tableID)
	if err != nil {
		return err
	}
	return s.ensure(ctx, tbl)
}

// Reconcile checks every table in the metadata store against the physical
// store. With repair set, missing physical tables are created.
func (s *Service) Reconcile(ctx context.Context, repair bool) ([]ReconcileStatus, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ReconcileStatus, 0, len(tables))
	missing := 0
	for i := range tables {
		tbl := &tables[i]
		status := s.check(ctx, tbl)
		if !status.PhysicalExists && status.Error == "" {
			missing++
			if repair {
				if err := s.ensure(ctx, tbl); err != nil {
					status.Error = err.Error()
				} else {
					status.PhysicalExists = true
					status.Repaired = true
				}
			}
		}
		out = append(out, status)
	}

	s.logger.Info("reconciled tables", "tables", len(tables), "missing", missing, "repair", repair)
	return out, nil
}

func (s *Service) check(ctx context.Context, tbl *Table) ReconcileStatus {
	status := ReconcileStatus{TableID: tbl.ID, Name: tbl.Name}
	exists, err := s.store.TableExists(ctx, tbl)
	if err != nil {
		status.Error = storageError("check physical table", err).Error()
		return status
	}
	status.PhysicalExists = exists
	return status
}

func (s *Service) ensure(ctx context.Context, tbl *Table) error {
	exists, err := s.store.TableExists(ctx, tbl)
	if err != nil {
		return storageError("check physical table", err)
	}
	if exists {
		return nil
	}
	if err := s.store.CreateTable(ctx, tbl); err != nil {
		return storageError("create physical table", err)
	}
	s.logger.Info("physical table repaired", "table_id", tbl.ID, "name", tbl.Name)
	return nil
}

func (s ReconcileStatus) String() string {
	switch {
	case s.Error != "":
		return fmt.Sprintf("%d %s: error: %s", s.TableID, s.Name, s.Error)
	case s.Repaired:
		return fmt.Sprintf("%d %s: repaired", s.TableID, s.Name)
	case s.PhysicalExists:
		return fmt.Sprintf("%d %s: ok", s.TableID, s.Name)
	default:
		return fmt.Sprintf("%d %s: missing physical table", s.TableID, s.Name)
	}
}
