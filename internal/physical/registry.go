package physical

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rpggio/drawbridge/internal/domain/table"
)

// Column is one column of a physical table.
type Column struct {
	Name     string
	Type     string
	DataType table.DataType
	Nullable bool
	// Default is the rendered SQL literal, or empty for no default.
	Default string
}

// Definition describes a physical table. Columns excludes the row id.
type Definition struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the row id column followed by every field column.
func (d Definition) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns)+1)
	names = append(names, table.RowIDColumn)
	for _, c := range d.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column looks up a column by name.
func (d Definition) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// CreateSQL renders the CREATE TABLE statement.
func (d Definition) CreateSQL(dialect Dialect) string {
	parts := make([]string, 0, len(d.Columns)+1)
	parts = append(parts, dialect.RowIDDefinition())
	for _, c := range d.Columns {
		col := dialect.Quote(c.Name) + " " + c.Type
		if !c.Nullable {
			col += " NOT NULL"
		}
		if c.Default != "" {
			col += " DEFAULT " + c.Default
		}
		parts = append(parts, col)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", dialect.Quote(d.Name), strings.Join(parts, ",\n\t"))
}

// Registry translates logical tables into physical definitions. It keeps
// one entry per table name for its lifetime; translating a name again
// refreshes that entry in place.
type Registry struct {
	dialect Dialect

	mu   sync.Mutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry for the dialect.
func NewRegistry(dialect Dialect) *Registry {
	return &Registry{dialect: dialect, defs: make(map[string]*Definition)}
}

// Dialect returns the registry's dialect.
func (r *Registry) Dialect() Dialect { return r.dialect }

// Translate maps tbl to its physical definition and records it under the
// table name. It does not touch the database.
func (r *Registry) Translate(tbl *table.Table) (Definition, error) {
	if tbl == nil || strings.TrimSpace(tbl.Name) == "" {
		return Definition{}, fmt.Errorf("%w: table has no name", table.ErrInvalidInput)
	}

	def := Definition{Name: tbl.Name, Columns: make([]Column, 0, len(tbl.Fields))}
	for i := range tbl.Fields {
		col, err := r.column(&tbl.Fields[i])
		if err != nil {
			return Definition{}, err
		}
		def.Columns = append(def.Columns, col)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.defs[def.Name]; ok {
		*existing = def
	} else {
		stored := def
		r.defs[def.Name] = &stored
	}
	return cloneDefinition(r.defs[def.Name]), nil
}

// Lookup returns the last definition translated under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	return cloneDefinition(def), true
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.defs)
}

func (r *Registry) column(f *table.Field) (Column, error) {
	if strings.EqualFold(f.Name, table.RowIDColumn) {
		return Column{}, fmt.Errorf("%w: field name %q is reserved", table.ErrInvalidInput, f.Name)
	}
	typ, err := r.dialect.ColumnType(f.DataType)
	if err != nil {
		return Column{}, err
	}

	col := Column{Name: f.Name, Type: typ, DataType: f.DataType, Nullable: f.IsNullable}
	if f.DefaultValue != nil {
		v, err := table.ParseDefault(f)
		if err != nil {
			return Column{}, err
		}
		raw, err := table.ToPhysical(f, v)
		if err != nil {
			return Column{}, err
		}
		lit, err := r.dialect.Literal(raw)
		if err != nil {
			return Column{}, err
		}
		col.Default = lit
	}
	return col, nil
}

func cloneDefinition(d *Definition) Definition {
	out := Definition{Name: d.Name, Columns: make([]Column, len(d.Columns))}
	copy(out.Columns, d.Columns)
	return out
}
