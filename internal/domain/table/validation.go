package table

import (
	"fmt"
	"strings"
)

// ValidateDefinition checks an unsaved table before anything is written.
func ValidateDefinition(def *UnsavedTable) error {
	if def == nil {
		return ErrInvalidInput
	}
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidInput, i)
		}
		if strings.EqualFold(name, RowIDColumn) {
			return fmt.Errorf("%w: field name %q is reserved", ErrInvalidInput, RowIDColumn)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate field name %q", ErrInvalidInput, name)
		}
		seen[key] = struct{}{}

		if !f.DataType.Valid() {
			return fmt.Errorf("%w: field %q has unknown data type %q", ErrInvalidInput, name, f.DataType)
		}
		if len(f.Choices) > 0 && f.DataType != TypeChoice {
			return fmt.Errorf("%w: field %q declares choices but is %s", ErrInvalidInput, name, f.DataType)
		}
		if err := validateUnsavedDefault(f); err != nil {
			return err
		}
	}
	return nil
}

// normalizeDefinition trims names and fills empty verbose names.
func normalizeDefinition(def *UnsavedTable) *UnsavedTable {
	out := *def
	out.Name = strings.TrimSpace(def.Name)
	if strings.TrimSpace(out.VerboseName) == "" {
		out.VerboseName = out.Name
	}
	out.Fields = make([]UnsavedField, len(def.Fields))
	for i, f := range def.Fields {
		f.Name = strings.TrimSpace(f.Name)
		if strings.TrimSpace(f.VerboseName) == "" {
			f.VerboseName = f.Name
		}
		out.Fields[i] = f
	}
	return &out
}
