package physical

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/drawbridge/internal/domain/table"
)

// Dialect renders SQL for one storage engine.
type Dialect interface {
	Name() string
	// Driver is the database/sql driver name.
	Driver() string
	Quote(ident string) string
	// Placeholder returns the bind marker for the n-th argument, starting at 1.
	Placeholder(n int) string
	ColumnType(dt table.DataType) (string, error)
	// RowIDDefinition is the column definition of the engine-assigned id.
	RowIDDefinition() string
	// Literal renders a driver value as a SQL literal for column defaults.
	Literal(v any) (string, error)
	// TableExistsQuery takes the table name as its only argument and
	// returns a single count.
	TableExistsQuery() string
}

// SQLite is the dialect of modernc.org/sqlite.
type SQLite struct{}

func (SQLite) Name() string   { return "sqlite" }
func (SQLite) Driver() string { return "sqlite" }

func (SQLite) Quote(ident string) string { return quoteIdent(ident) }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) ColumnType(dt table.DataType) (string, error) {
	switch dt {
	case table.TypeInt, table.TypeChoice:
		return "INTEGER", nil
	case table.TypeString:
		return "TEXT", nil
	case table.TypeBool:
		return "BOOLEAN", nil
	case table.TypeFloat:
		return "DOUBLE PRECISION", nil
	case table.TypeDateTime:
		return "TIMESTAMP", nil
	default:
		return "", fmt.Errorf("%w: no sqlite column type for %q", table.ErrInvalidInput, dt)
	}
}

func (SQLite) RowIDDefinition() string {
	return quoteIdent(table.RowIDColumn) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (SQLite) Literal(v any) (string, error) {
	return literal(v, "2006-01-02 15:04:05.999999999-07:00")
}

func (SQLite) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE`
}

// Postgres is the dialect of github.com/lib/pq.
type Postgres struct{}

func (Postgres) Name() string   { return "postgres" }
func (Postgres) Driver() string { return "postgres" }

func (Postgres) Quote(ident string) string { return quoteIdent(ident) }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) ColumnType(dt table.DataType) (string, error) {
	switch dt {
	case table.TypeInt, table.TypeChoice:
		return "BIGINT", nil
	case table.TypeString:
		return "TEXT", nil
	case table.TypeBool:
		return "BOOLEAN", nil
	case table.TypeFloat:
		return "DOUBLE PRECISION", nil
	case table.TypeDateTime:
		return "TIMESTAMP", nil
	default:
		return "", fmt.Errorf("%w: no postgres column type for %q", table.ErrInvalidInput, dt)
	}
}

func (Postgres) RowIDDefinition() string {
	return quoteIdent(table.RowIDColumn) + " BIGSERIAL PRIMARY KEY"
}

func (Postgres) Literal(v any) (string, error) {
	return literal(v, "2006-01-02 15:04:05.999999")
}

func (Postgres) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite":
		return SQLite{}, nil
	case "postgres", "postgresql":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", name)
	}
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literal(v any, timeLayout string) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case string:
		return quoteString(x), nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", fmt.Errorf("%w: %v has no SQL literal", table.ErrInvalidValue, x)
		}
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case time.Time:
		return quoteString(x.UTC().Format(timeLayout)), nil
	default:
		return "", fmt.Errorf("%w: unsupported default %T", table.ErrInvalidValue, v)
	}
}
