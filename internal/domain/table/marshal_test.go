package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestToPhysical(t *testing.T) {
	name := &Field{Name: "name", DataType: TypeString}
	age := &Field{Name: "age", DataType: TypeInt, IsNullable: true}
	tier := &Field{Name: "tier", DataType: TypeChoice, Choices: []Choice{{ID: 3, Value: "gold"}}}
	when := &Field{Name: "when", DataType: TypeDateTime}

	v, err := ToPhysical(name, StringValue("ann"))
	require.NoError(t, err)
	require.Equal(t, "ann", v)

	v, err = ToPhysical(age, Null)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = ToPhysical(age, StringValue("41"))
	require.NoError(t, err)
	require.Equal(t, int64(41), v)

	v, err = ToPhysical(tier, IntValue(3))
	require.NoError(t, err)
	require.Equal(t, int64(3), v)

	loc := time.FixedZone("plus2", 7200)
	v, err = ToPhysical(when, DateTimeValue(time.Date(2024, 1, 1, 2, 0, 0, 0, loc)))
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), v)

	_, err = ToPhysical(name, Null)
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = ToPhysical(age, StringValue("old"))
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = ToPhysical(tier, ChoiceValue(4))
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestFromPhysical(t *testing.T) {
	flag := &Field{Name: "flag", DataType: TypeBool}
	require.Equal(t, BoolValue(true), FromPhysical(flag, int64(1)))
	require.Equal(t, Null, FromPhysical(flag, nil))

	tier := &Field{Name: "tier", DataType: TypeChoice}
	require.Equal(t, ChoiceValue(2), FromPhysical(tier, int64(2)))

	text := &Field{Name: "text", DataType: TypeString}
	require.Equal(t, StringValue("hi"), FromPhysical(text, []byte("hi")))
}

func TestParseDefault(t *testing.T) {
	tier := &Field{Name: "tier", DataType: TypeChoice, DefaultValue: strPtr("gold"),
		Choices: []Choice{{ID: 3, Value: "gold"}, {ID: 4, Value: "5"}}}
	v, err := ParseDefault(tier)
	require.NoError(t, err)
	require.Equal(t, ChoiceValue(3), v)

	// text match wins over id
	tier.DefaultValue = strPtr("5")
	v, err = ParseDefault(tier)
	require.NoError(t, err)
	require.Equal(t, ChoiceValue(4), v)

	tier.DefaultValue = strPtr("4")
	v, err = ParseDefault(tier)
	require.NoError(t, err)
	require.Equal(t, ChoiceValue(4), v)

	tier.DefaultValue = strPtr("platinum")
	_, err = ParseDefault(tier)
	require.ErrorIs(t, err, ErrInvalidValue)

	count := &Field{Name: "count", DataType: TypeInt, DefaultValue: strPtr("10")}
	v, err = ParseDefault(count)
	require.NoError(t, err)
	require.Equal(t, IntValue(10), v)

	none := &Field{Name: "none", DataType: TypeInt}
	v, err = ParseDefault(none)
	require.NoError(t, err)
	require.Equal(t, Null, v)
}

func TestChoiceDisplay(t *testing.T) {
	tier := &Field{Name: "tier", DataType: TypeChoice, Choices: []Choice{{ID: 3, Value: "gold"}}}
	text, ok := ChoiceDisplay(tier, ChoiceValue(3))
	require.True(t, ok)
	require.Equal(t, "gold", text)

	_, ok = ChoiceDisplay(tier, ChoiceValue(9))
	require.False(t, ok)
	_, ok = ChoiceDisplay(tier, IntValue(3))
	require.False(t, ok)
}

func TestValidateDefinition(t *testing.T) {
	valid := &UnsavedTable{Name: "t", Fields: []UnsavedField{
		{Name: "a", DataType: TypeString},
		{Name: "b", DataType: TypeChoice, Choices: []string{"x", "y"}, DefaultValue: strPtr("y")},
	}}
	require.NoError(t, ValidateDefinition(valid))

	cases := []struct {
		name string
		def  *UnsavedTable
		err  error
	}{
		{"nil", nil, ErrInvalidInput},
		{"no name", &UnsavedTable{Name: " "}, ErrInvalidInput},
		{"no field name", &UnsavedTable{Name: "t", Fields: []UnsavedField{{DataType: TypeInt}}}, ErrInvalidInput},
		{"reserved id", &UnsavedTable{Name: "t", Fields: []UnsavedField{{Name: "ID", DataType: TypeInt}}}, ErrInvalidInput},
		{"duplicate", &UnsavedTable{Name: "t", Fields: []UnsavedField{
			{Name: "a", DataType: TypeInt}, {Name: "a", DataType: TypeString},
		}}, ErrInvalidInput},
		{"bad type", &UnsavedTable{Name: "t", Fields: []UnsavedField{{Name: "a", DataType: "blob"}}}, ErrInvalidInput},
		{"choices on int", &UnsavedTable{Name: "t", Fields: []UnsavedField{
			{Name: "a", DataType: TypeInt, Choices: []string{"x"}},
		}}, ErrInvalidInput},
		{"bad default", &UnsavedTable{Name: "t", Fields: []UnsavedField{
			{Name: "a", DataType: TypeFloat, DefaultValue: strPtr("heavy")},
		}}, ErrInvalidValue},
		{"bad choice default", &UnsavedTable{Name: "t", Fields: []UnsavedField{
			{Name: "a", DataType: TypeChoice, Choices: []string{"x"}, DefaultValue: strPtr("z")},
		}}, ErrInvalidValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, ValidateDefinition(tc.def), tc.err)
		})
	}
}
