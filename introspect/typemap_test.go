package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlpp-io/sqlpp/schema"
)

func mapped(columnType string) *schema.Field {
	f := &schema.Field{Col: "c"}
	mapColumnType(f, columnType)
	return f
}

func TestMapIntegerTypes(t *testing.T) {
	f := mapped("int(11)")
	assert.Equal(t, schema.TypeNumber, f.Type)
	assert.Equal(t, float64(-2147483648), f.Min)
	assert.Equal(t, float64(2147483647), f.Max)
	// Default display width is not preserved.
	assert.Equal(t, 0, f.Size)

	f = mapped("int(4)")
	assert.Equal(t, 4, f.Size)

	f = mapped("tinyint(3) unsigned")
	assert.Equal(t, schema.TypeNumber, f.Type)
	assert.True(t, f.Unsigned)
	assert.Equal(t, float64(0), f.Min)
	assert.Equal(t, float64(255), f.Max)
	assert.Equal(t, 0, f.Size)

	f = mapped("bigint(20)")
	assert.Equal(t, schema.TypeNumber, f.Type)
	assert.Equal(t, 0, f.Size)
}

func TestMapBool(t *testing.T) {
	f := mapped("tinyint(1)")
	assert.Equal(t, schema.TypeBool, f.Type)

	f = mapped("boolean")
	assert.Equal(t, schema.TypeBool, f.Type)

	// tinyint(1) unsigned is a regular number.
	f = mapped("tinyint(1) unsigned")
	assert.Equal(t, schema.TypeNumber, f.Type)
}

func TestMapDecimal(t *testing.T) {
	f := mapped("decimal(12,4)")
	assert.Equal(t, schema.TypeNumber, f.Type)
	assert.Equal(t, 12, f.Digits)
	assert.Equal(t, 4, f.Decimals)

	// Past 15 digits a float64 cannot hold the value losslessly.
	f = mapped("decimal(20,6)")
	assert.Equal(t, schema.TypeDecimal, f.Type)
	assert.Equal(t, 20, f.Digits)
}

func TestMapYear(t *testing.T) {
	f := mapped("year")
	assert.Equal(t, schema.TypeNumber, f.Type)
	assert.Equal(t, float64(1901), f.Min)
	assert.Equal(t, float64(2055), f.Max)
}

func TestMapDates(t *testing.T) {
	f := mapped("date")
	assert.Equal(t, schema.TypeDate, f.Type)
	assert.False(t, f.HasTime)

	for _, typ := range []string{"datetime", "timestamp"} {
		f = mapped(typ)
		assert.Equal(t, schema.TypeDate, f.Type)
		assert.True(t, f.HasTime, typ)
	}
}

func TestMapStrings(t *testing.T) {
	f := mapped("varchar(190)")
	assert.Equal(t, schema.TypeString, f.Type)
	assert.Equal(t, 190, f.Size)
	assert.False(t, f.Padded)

	f = mapped("char(2)")
	assert.Equal(t, schema.TypeString, f.Type)
	assert.Equal(t, 2, f.Size)
	assert.True(t, f.Padded)

	f = mapped("text")
	assert.Equal(t, schema.TypeString, f.Type)

	f = mapped("longblob")
	assert.Equal(t, schema.TypeBlob, f.Type)
}

func TestMapEnum(t *testing.T) {
	f := mapped("enum('a','b','it''s')")
	assert.Equal(t, schema.TypeEnum, f.Type)
	assert.Equal(t, []string{"a", "b", "it's"}, f.EnumValues)
}

func TestNormalizeRule(t *testing.T) {
	assert.Equal(t, "", normalizeRule("NO ACTION"))
	assert.Equal(t, "", normalizeRule("RESTRICT"))
	assert.Equal(t, "cascade", normalizeRule("CASCADE"))
	assert.Equal(t, "set null", normalizeRule("SET NULL"))
}

func TestParseEnumValuesEscapes(t *testing.T) {
	assert.Equal(t, []string{`a\b`}, parseEnumValues(`enum('a\\b')`))
	assert.Nil(t, parseEnumValues("int"))
}
