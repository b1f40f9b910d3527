package table

import (
	"errors"
	"fmt"
)

var (
	// ErrTableNotFound indicates no table metadata matches the id.
	ErrTableNotFound = errors.New("table not found")
	// ErrNamespaceNotFound indicates the referenced namespace doesn't exist.
	ErrNamespaceNotFound = errors.New("namespace not found")
	// ErrTableExists indicates a table with the same name is already defined.
	ErrTableExists = errors.New("table already exists")
	// ErrFieldNotFound indicates a row references a field the table doesn't have.
	ErrFieldNotFound = errors.New("field not found")
	// ErrRowNotFound indicates no physical row matches the identifier.
	ErrRowNotFound = errors.New("row not found")
	// ErrInvalidValue indicates a value cannot be coerced to its field's type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrIncomparable indicates two values cannot be ordered against each other.
	ErrIncomparable = errors.New("values are not comparable")
	// ErrMixedTables indicates a batch whose rows target different tables.
	ErrMixedTables = errors.New("batch rows target different tables")
	// ErrInvalidInput indicates an invalid table definition or request.
	ErrInvalidInput = errors.New("invalid table input")
	// ErrStorage matches every *StorageError via errors.Is.
	ErrStorage = errors.New("storage error")
)

// StorageError wraps a failure from the physical or metadata store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) hold for any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageError(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
