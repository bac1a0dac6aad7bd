// Package schema defines the normalized, engine-neutral model of database
// schemas: fields, tables, keys, constraints, triggers and procedures, plus
// the attribute overlay registries callers use to tighten descriptors.
package schema

import (
	"fmt"

	"github.com/sqlpp-io/sqlpp/quote"
)

// Type is the canonical, engine-neutral column type.
type Type string

const (
	TypeNumber  Type = "number"
	TypeDecimal Type = "decimal"
	TypeDate    Type = "date"
	TypeEnum    Type = "enum"
	TypeString  Type = "string"
	TypeBlob    Type = "blob"
	TypeBool    Type = "bool"
)

// ToSQLFunc overrides how a field's values are rendered as SQL literals.
type ToSQLFunc func(v any, q *quote.Quoter) (string, error)

// ToBinFunc converts a host value to its driver binding form before a
// prepared statement executes.
type ToBinFunc func(v any) (any, error)

// Field is the canonical column descriptor.
type Field struct {
	Col           string   `json:"col"`
	ColIndex      int      `json:"col_index"`
	Type          Type     `json:"type"`
	NativeType    string   `json:"native_type,omitempty"`
	Size          int      `json:"size,omitempty"`
	Digits        int      `json:"digits,omitempty"`
	Decimals      int      `json:"decimals,omitempty"`
	Min           float64  `json:"min,omitempty"`
	Max           float64  `json:"max,omitempty"`
	Unsigned      bool     `json:"unsigned,omitempty"`
	NotNull       bool     `json:"not_null,omitempty"`
	AutoIncrement bool     `json:"auto_increment,omitempty"`
	Default       any      `json:"default,omitempty"`
	HasTime       bool     `json:"has_time,omitempty"`
	Padded        bool     `json:"padded,omitempty"`
	EnumValues    []string `json:"enum_values,omitempty"`
	Charset       string   `json:"charset,omitempty"`
	Collation     string   `json:"collation,omitempty"`
	RefTable      string   `json:"ref_table,omitempty"`
	RefCol        string   `json:"ref_col,omitempty"`
	Comment       string   `json:"comment,omitempty"`

	// Serializer hooks. Not part of the snapshot form.
	ToSQL ToSQLFunc `json:"-"`
	ToBin ToBinFunc `json:"-"`
}

// Clone returns a copy of the field. Slices are copied so overlays never
// mutate a published descriptor.
func (f *Field) Clone() *Field {
	c := *f
	if f.EnumValues != nil {
		c.EnumValues = append([]string(nil), f.EnumValues...)
	}
	return &c
}

// Apply overlays attribute values onto the field. Unknown keys are an
// error so registry typos surface instead of silently doing nothing.
func (f *Field) Apply(attrs map[string]any) error {
	for k, v := range attrs {
		switch k {
		case "type":
			f.Type = Type(fmt.Sprint(v))
		case "native_type":
			f.NativeType = fmt.Sprint(v)
		case "size":
			f.Size = toInt(v)
		case "digits":
			f.Digits = toInt(v)
		case "decimals":
			f.Decimals = toInt(v)
		case "min":
			f.Min = toFloat(v)
		case "max":
			f.Max = toFloat(v)
		case "unsigned":
			f.Unsigned = toBool(v)
		case "not_null":
			f.NotNull = toBool(v)
		case "auto_increment":
			f.AutoIncrement = toBool(v)
		case "default":
			f.Default = v
		case "has_time":
			f.HasTime = toBool(v)
		case "padded":
			f.Padded = toBool(v)
		case "enum_values":
			f.EnumValues = toStrings(v)
		case "charset":
			f.Charset = fmt.Sprint(v)
		case "collation":
			f.Collation = fmt.Sprint(v)
		case "ref_table":
			f.RefTable = fmt.Sprint(v)
		case "ref_col":
			f.RefCol = fmt.Sprint(v)
		case "comment":
			f.Comment = fmt.Sprint(v)
		case "to_sql":
			fn, ok := v.(ToSQLFunc)
			if !ok {
				return fmt.Errorf("attribute to_sql for %s: want ToSQLFunc, got %T", f.Col, v)
			}
			f.ToSQL = fn
		case "to_bin":
			fn, ok := v.(ToBinFunc)
			if !ok {
				return fmt.Errorf("attribute to_bin for %s: want ToBinFunc, got %T", f.Col, v)
			}
			f.ToBin = fn
		default:
			return fmt.Errorf("unknown field attribute %q for %s", k, f.Col)
		}
	}
	return nil
}

// SQLValue renders a host value as a literal for this field, honoring the
// to_sql hook when installed.
func (f *Field) SQLValue(v any, q *quote.Quoter) (string, error) {
	if f.ToSQL != nil {
		return f.ToSQL(v, q)
	}
	return q.Value(v)
}

// BinValue converts a host value to its driver binding form, honoring the
// to_bin hook when installed.
func (f *Field) BinValue(v any) (any, error) {
	if f.ToBin != nil {
		return f.ToBin(v)
	}
	return v, nil
}

func toInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	return 0
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case string:
		return x == "true" || x == "1"
	}
	return false
}

func toStrings(v any) []string {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = fmt.Sprint(e)
		}
		return out
	}
	return nil
}
