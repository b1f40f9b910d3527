package table

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a cell value. The set of implementations is closed: IntValue,
// StringValue, BoolValue, FloatValue, DateTimeValue, ChoiceValue and NullValue.
// Every switch over Value must handle all of them and fail on anything else.
type Value interface {
	// Type returns the variant tag. NullValue reports TypeNull.
	Type() DataType
	// Raw returns the wrapped scalar, or nil for NullValue.
	Raw() any
	isValue()
}

type (
	IntValue      int64
	StringValue   string
	BoolValue     bool
	FloatValue    float64
	DateTimeValue time.Time
	// ChoiceValue holds the id of the selected Choice, not its text.
	ChoiceValue int64
	NullValue   struct{}
)

// Null is the untyped null value.
var Null Value = NullValue{}

func (IntValue) Type() DataType      { return TypeInt }
func (StringValue) Type() DataType   { return TypeString }
func (BoolValue) Type() DataType     { return TypeBool }
func (FloatValue) Type() DataType    { return TypeFloat }
func (DateTimeValue) Type() DataType { return TypeDateTime }
func (ChoiceValue) Type() DataType   { return TypeChoice }
func (NullValue) Type() DataType     { return TypeNull }

func (v IntValue) Raw() any      { return int64(v) }
func (v StringValue) Raw() any   { return string(v) }
func (v BoolValue) Raw() any     { return bool(v) }
func (v FloatValue) Raw() any    { return float64(v) }
func (v DateTimeValue) Raw() any { return time.Time(v) }
func (v ChoiceValue) Raw() any   { return int64(v) }
func (NullValue) Raw() any       { return nil }

func (IntValue) isValue()      {}
func (StringValue) isValue()   {}
func (BoolValue) isValue()     {}
func (FloatValue) isValue()    {}
func (DateTimeValue) isValue() {}
func (ChoiceValue) isValue()   {}
func (NullValue) isValue()     {}

// Time returns the wrapped time.
func (v DateTimeValue) Time() time.Time { return time.Time(v) }

func (v DateTimeValue) String() string { return time.Time(v).UTC().Format(time.RFC3339Nano) }

// IsNull reports whether v is nil or the null variant.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NullValue)
	return ok
}

// dateTimeLayouts are accepted when reading datetimes from text.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// looseValue wraps a native Go value in the closest variant without
// consulting any field type. Unknown kinds become their text form.
func looseValue(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null
	case Value:
		return v
	case int64:
		return IntValue(v)
	case int:
		return IntValue(v)
	case int32:
		return IntValue(v)
	case float64:
		return FloatValue(v)
	case float32:
		return FloatValue(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return IntValue(i)
		}
		if f, err := v.Float64(); err == nil {
			return FloatValue(f)
		}
		return StringValue(v.String())
	case bool:
		return BoolValue(v)
	case string:
		return StringValue(v)
	case []byte:
		return StringValue(string(v))
	case time.Time:
		return DateTimeValue(v)
	default:
		return StringValue(fmt.Sprint(v))
	}
}

// ParseValue builds a Value from an untyped raw value, coercing toward dt
// where possible. It never fails: a raw value that cannot be coerced is kept
// in its natural variant and rejected with ErrInvalidValue when written.
func ParseValue(dt DataType, raw any) Value {
	v := looseValue(raw)
	if IsNull(v) {
		return Null
	}
	if dt == TypeString {
		switch v.(type) {
		case IntValue, FloatValue, BoolValue:
			return StringValue(fmt.Sprint(v.Raw()))
		}
	}
	if coerced, err := Coerce(dt, v); err == nil {
		return coerced
	}
	return v
}

// Coerce converts v to the variant matching dt. Text is parsed for every
// non-text type; numeric variants convert between each other when lossless.
func Coerce(dt DataType, v Value) (Value, error) {
	if IsNull(v) {
		return Null, nil
	}
	switch dt {
	case TypeInt, TypeChoice:
		i, err := coerceInt(v)
		if err != nil {
			return nil, err
		}
		if dt == TypeChoice {
			return ChoiceValue(i), nil
		}
		return IntValue(i), nil
	case TypeString:
		if s, ok := v.(StringValue); ok {
			return s, nil
		}
	case TypeBool:
		switch x := v.(type) {
		case BoolValue:
			return x, nil
		case IntValue:
			if x == 0 || x == 1 {
				return BoolValue(x == 1), nil
			}
		case StringValue:
			if b, err := strconv.ParseBool(strings.TrimSpace(string(x))); err == nil {
				return BoolValue(b), nil
			}
		}
	case TypeFloat:
		switch x := v.(type) {
		case FloatValue:
			return x, nil
		case IntValue:
			return FloatValue(x), nil
		case StringValue:
			if f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64); err == nil {
				return FloatValue(f), nil
			}
		}
	case TypeDateTime:
		switch x := v.(type) {
		case DateTimeValue:
			return x, nil
		case StringValue:
			if t, ok := parseDateTime(string(x)); ok {
				return DateTimeValue(t), nil
			}
		case IntValue:
			return DateTimeValue(time.Unix(int64(x), 0).UTC()), nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown data type %q", ErrInvalidValue, dt)
	}
	return nil, fmt.Errorf("%w: cannot use %s value %v as %s", ErrInvalidValue, v.Type(), v.Raw(), dt)
}

func coerceInt(v Value) (int64, error) {
	switch x := v.(type) {
	case IntValue:
		return int64(x), nil
	case ChoiceValue:
		return int64(x), nil
	case FloatValue:
		f := float64(x)
		if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<63 {
			return int64(f), nil
		}
	case StringValue:
		if i, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: cannot use %s value %v as integer", ErrInvalidValue, v.Type(), v.Raw())
}

// Equal compares two values by their underlying scalar. Null equals only
// null; values of different variants are never equal.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch x := a.(type) {
	case IntValue:
		y, ok := b.(IntValue)
		return ok && x == y
	case StringValue:
		y, ok := b.(StringValue)
		return ok && x == y
	case BoolValue:
		y, ok := b.(BoolValue)
		return ok && x == y
	case FloatValue:
		y, ok := b.(FloatValue)
		return ok && x == y
	case DateTimeValue:
		y, ok := b.(DateTimeValue)
		return ok && time.Time(x).Equal(time.Time(y))
	case ChoiceValue:
		y, ok := b.(ChoiceValue)
		return ok && x == y
	default:
		return false
	}
}

// Compare orders two values of the same variant. It returns ErrIncomparable
// when either value is null or the variants differ.
func Compare(a, b Value) (int, error) {
	if IsNull(a) || IsNull(b) || a.Type() != b.Type() {
		return 0, ErrIncomparable
	}
	switch x := a.(type) {
	case IntValue:
		return cmp.Compare(x, b.(IntValue)), nil
	case StringValue:
		return cmp.Compare(x, b.(StringValue)), nil
	case BoolValue:
		y := b.(BoolValue)
		switch {
		case x == y:
			return 0, nil
		case !bool(x):
			return -1, nil
		default:
			return 1, nil
		}
	case FloatValue:
		return cmp.Compare(x, b.(FloatValue)), nil
	case DateTimeValue:
		return time.Time(x).Compare(time.Time(b.(DateTimeValue))), nil
	case ChoiceValue:
		return cmp.Compare(x, b.(ChoiceValue)), nil
	default:
		return 0, ErrIncomparable
	}
}
