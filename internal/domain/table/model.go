package table

import "time"

// DataType is the declared type of a field
type DataType string

const (
	TypeInt      DataType = "int"
	TypeString   DataType = "string"
	TypeBool     DataType = "bool"
	TypeFloat    DataType = "float"
	TypeDateTime DataType = "datetime"
	TypeChoice   DataType = "choice"

	// TypeNull tags the null value variant. It is never a valid field type.
	TypeNull DataType = "null"
)

// DataTypes lists every type a field may declare.
var DataTypes = []DataType{TypeInt, TypeString, TypeBool, TypeFloat, TypeDateTime, TypeChoice}

// Valid reports whether t can be declared by a field.
func (t DataType) Valid() bool {
	switch t {
	case TypeInt, TypeString, TypeBool, TypeFloat, TypeDateTime, TypeChoice:
		return true
	default:
		return false
	}
}

// RowIDColumn is the engine-assigned identifier column present on every physical table.
const RowIDColumn = "id"

// Choice is one allowed value of a choice field
type Choice struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

// Field is a typed column definition owned by a table
type Field struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	VerboseName  string   `json:"verbose_name"`
	DataType     DataType `json:"data_type"`
	IsNullable   bool     `json:"is_nullable"`
	DefaultValue *string  `json:"default_value,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
}

// ChoiceByID returns the choice with the given id, if the field declares it.
func (f *Field) ChoiceByID(id int64) (Choice, bool) {
	for _, c := range f.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Table is a saved logical table definition backed by one physical table
type Table struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	VerboseName string    `json:"verbose_name"`
	Description *string   `json:"description,omitempty"`
	NamespaceID *int64    `json:"namespace_id,omitempty"`
	Fields      []Field   `json:"fields"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// FieldByID looks up a field by id.
func (t *Table) FieldByID(id int64) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// FieldByName looks up a field by name.
func (t *Table) FieldByName(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// UnsavedField describes a field that has not been persisted yet
type UnsavedField struct {
	Name         string   `json:"name"`
	VerboseName  string   `json:"verbose_name,omitempty"`
	DataType     DataType `json:"data_type"`
	IsNullable   bool     `json:"is_nullable"`
	DefaultValue *string  `json:"default_value,omitempty"`
	Choices      []string `json:"choices,omitempty"`
}

// UnsavedTable describes a table that has not been persisted yet
type UnsavedTable struct {
	Name        string         `json:"name"`
	VerboseName string         `json:"verbose_name,omitempty"`
	Description *string        `json:"description,omitempty"`
	NamespaceID *int64         `json:"namespace_id,omitempty"`
	Fields      []UnsavedField `json:"fields"`
}

// RowData pairs a field id with a value
type RowData struct {
	FieldID int64 `json:"field_id"`
	Value   Value `json:"-"`
}

// Row is one physical record exposed as typed values, one per table field
type Row struct {
	TableID int64     `json:"table_id"`
	RowID   int64     `json:"id"`
	Values  []RowData `json:"values"`
}

// ValueOf returns the value stored for a field, or Null when absent.
func (r Row) ValueOf(fieldID int64) Value {
	for _, rd := range r.Values {
		if rd.FieldID == fieldID {
			return rd.Value
		}
	}
	return Null
}

// InsertRow describes a row to insert. Omitted fields take their default or null.
type InsertRow struct {
	Table  *Table
	Values []RowData
}

// UpdateRow describes changes to one row. Omitted fields are left untouched.
type UpdateRow struct {
	Table  *Table
	RowID  int64
	Values []RowData
}

// OrderingParam requests ordering by a field.
type OrderingParam struct {
	FieldID    int64 `json:"field_id"`
	Descending bool  `json:"descending,omitempty"`
}

// Operator is a comparison used by filtering params
type Operator string

const (
	OpEq Operator = "="
	OpNe Operator = "!="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="
)

// FilteringParam requests filtering on a field value.
type FilteringParam struct {
	FieldID  int64    `json:"field_id"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// DefaultFetchLimit is used when FetchOptions.Limit is not positive.
const DefaultFetchLimit = 100

// FetchOptions controls row reads
type FetchOptions struct {
	Limit     int
	Offset    int
	Ordering  []OrderingParam
	Filtering []FilteringParam
}

// Page is a window of rows together with the table's total row count
type Page struct {
	Total int64 `json:"total"`
	Rows  []Row `json:"rows"`
}

// RawRow is a physical row as returned by the store, keyed by column name.
type RawRow struct {
	ID      int64
	Columns map[string]any
}

// SelectQuery narrows a physical read.
type SelectQuery struct {
	Limit  int
	Offset int
	RowIDs []int64
}

// ReconcileStatus reports whether a metadata table has a backing physical table
type ReconcileStatus struct {
	TableID        int64  `json:"table_id"`
	Name           string `json:"name"`
	PhysicalExists bool   `json:"physical_exists"`
	Repaired       bool   `json:"repaired,omitempty"`
	Error          string `json:"error,omitempty"`
}
