package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ToPhysical converts a value to the driver value stored in the field's
// column. It is the single point where values are checked against their
// field: type coercion, nullability and choice membership.
func ToPhysical(f *Field, v Value) (any, error) {
	if IsNull(v) {
		if !f.IsNullable {
			return nil, fmt.Errorf("%w: field %q is not nullable", ErrInvalidValue, f.Name)
		}
		return nil, nil
	}

	coerced, err := Coerce(f.DataType, v)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}

	switch x := coerced.(type) {
	case IntValue:
		return int64(x), nil
	case StringValue:
		return string(x), nil
	case BoolValue:
		return bool(x), nil
	case FloatValue:
		return float64(x), nil
	case DateTimeValue:
		return time.Time(x).UTC(), nil
	case ChoiceValue:
		if len(f.Choices) > 0 {
			if _, ok := f.ChoiceByID(int64(x)); !ok {
				return nil, fmt.Errorf("%w: field %q has no choice %d", ErrInvalidValue, f.Name, int64(x))
			}
		}
		return int64(x), nil
	default:
		return nil, fmt.Errorf("%w: field %q: unsupported value %T", ErrInvalidValue, f.Name, coerced)
	}
}

// FromPhysical converts a column value read from storage into a Value. A
// physical NULL is Null whatever the field type.
func FromPhysical(f *Field, raw any) Value {
	if raw == nil {
		return Null
	}
	return ParseValue(f.DataType, raw)
}

// ParseDefault interprets the field's default string per its data type.
// Choice defaults match a choice's text first and fall back to a choice id.
func ParseDefault(f *Field) (Value, error) {
	if f.DefaultValue == nil {
		return Null, nil
	}
	raw := *f.DefaultValue

	switch f.DataType {
	case TypeString:
		return StringValue(raw), nil
	case TypeChoice:
		for _, c := range f.Choices {
			if c.Value == raw {
				return ChoiceValue(c.ID), nil
			}
		}
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: default %q matches no choice", ErrInvalidValue, f.Name, raw)
		}
		if len(f.Choices) > 0 {
			if _, ok := f.ChoiceByID(id); !ok {
				return nil, fmt.Errorf("%w: field %q: default %q matches no choice", ErrInvalidValue, f.Name, raw)
			}
		}
		return ChoiceValue(id), nil
	default:
		v, err := Coerce(f.DataType, StringValue(raw))
		if err != nil {
			return nil, fmt.Errorf("field %q default: %w", f.Name, err)
		}
		return v, nil
	}
}

// ChoiceDisplay resolves a choice value to the text of the selected choice.
func ChoiceDisplay(f *Field, v Value) (string, bool) {
	c, ok := v.(ChoiceValue)
	if !ok {
		return "", false
	}
	choice, ok := f.ChoiceByID(int64(c))
	if !ok {
		return "", false
	}
	return choice.Value, true
}

func validateUnsavedDefault(f *UnsavedField) error {
	if f.DefaultValue == nil {
		return nil
	}
	if f.DataType == TypeChoice {
		for _, c := range f.Choices {
			if c == *f.DefaultValue {
				return nil
			}
		}
		if _, err := strconv.ParseInt(strings.TrimSpace(*f.DefaultValue), 10, 64); err != nil {
			return fmt.Errorf("%w: field %q: default %q matches no choice", ErrInvalidValue, f.Name, *f.DefaultValue)
		}
		return nil
	}
	probe := Field{Name: f.Name, DataType: f.DataType, DefaultValue: f.DefaultValue}
	_, err := ParseDefault(&probe)
	return err
}
