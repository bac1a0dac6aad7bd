package introspect

import (
	"strconv"
	"strings"

	"github.com/sqlpp-io/sqlpp/schema"
)

// integer range and default display width per MySQL integer type.
type intRange struct {
	min, max   float64
	umax       float64
	width      int // default display width, signed
	uwidth     int // default display width, unsigned
}

var intRanges = map[string]intRange{
	"tinyint":   {min: -128, max: 127, umax: 255, width: 4, uwidth: 3},
	"smallint":  {min: -32768, max: 32767, umax: 65535, width: 6, uwidth: 5},
	"mediumint": {min: -8388608, max: 8388607, umax: 16777215, width: 9, uwidth: 8},
	"int":       {min: -2147483648, max: 2147483647, umax: 4294967295, width: 11, uwidth: 10},
	"bigint":    {min: -9223372036854775808, max: 9223372036854775807, umax: 18446744073709551615, width: 20, uwidth: 20},
}

// decimalDigitsCutoff is where a decimal stops fitting a float64-backed
// number and becomes an arbitrary-precision decimal.
const decimalDigitsCutoff = 15

// mapColumnType fills a field's canonical type attributes from the MySQL
// column_type text (e.g. "int(10) unsigned", "decimal(12,4)",
// "enum('a','b')").
func mapColumnType(f *schema.Field, columnType string) {
	lower := strings.ToLower(strings.TrimSpace(columnType))
	f.NativeType = baseType(lower)
	f.Unsigned = strings.Contains(lower, "unsigned")

	switch f.NativeType {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint":
		name := f.NativeType
		if name == "integer" {
			name = "int"
			f.NativeType = "int"
		}
		if name == "tinyint" && displayWidth(lower) == 1 && !f.Unsigned {
			f.Type = schema.TypeBool
			f.Min, f.Max = 0, 1
			return
		}
		r := intRanges[name]
		f.Type = schema.TypeNumber
		if f.Unsigned {
			f.Min, f.Max = 0, r.umax
		} else {
			f.Min, f.Max = r.min, r.max
		}
		if w := displayWidth(lower); w > 0 && w != defaultWidth(name, f.Unsigned) {
			f.Size = w
		}

	case "decimal", "numeric":
		f.NativeType = "decimal"
		digits, decimals := precisionScale(lower)
		f.Digits, f.Decimals = digits, decimals
		if digits > decimalDigitsCutoff {
			f.Type = schema.TypeDecimal
		} else {
			f.Type = schema.TypeNumber
		}

	case "float", "double", "real":
		f.Type = schema.TypeNumber
		f.Digits, f.Decimals = precisionScale(lower)

	case "bit":
		f.Type = schema.TypeNumber
		f.Size = displayWidth(lower)

	case "year":
		f.Type = schema.TypeNumber
		f.Min, f.Max = 1901, 2055

	case "date":
		f.Type = schema.TypeDate

	case "datetime", "timestamp":
		f.Type = schema.TypeDate
		f.HasTime = true

	case "time":
		f.Type = schema.TypeString
		f.Size = 10

	case "enum", "set":
		f.Type = schema.TypeEnum
		f.EnumValues = parseEnumValues(columnType)

	case "char", "binary":
		f.Type = schema.TypeString
		f.Padded = true
		f.Size = displayWidth(lower)

	case "varchar", "varbinary":
		f.Type = schema.TypeString
		f.Size = displayWidth(lower)

	case "tinytext", "text", "mediumtext", "longtext", "json":
		f.Type = schema.TypeString

	case "tinyblob", "blob", "mediumblob", "longblob":
		f.Type = schema.TypeBlob

	case "bool", "boolean":
		f.NativeType = "tinyint"
		f.Type = schema.TypeBool
		f.Min, f.Max = 0, 1

	default:
		f.Type = schema.TypeString
	}
}

// baseType extracts the bare type name before any (...) or modifier.
func baseType(lower string) string {
	end := len(lower)
	if i := strings.IndexAny(lower, "( "); i >= 0 {
		end = i
	}
	return lower[:end]
}

// displayWidth parses the first number inside the parentheses, 0 if absent.
func displayWidth(lower string) int {
	open := strings.IndexByte(lower, '(')
	if open < 0 {
		return 0
	}
	close := strings.IndexByte(lower[open:], ')')
	if close < 0 {
		return 0
	}
	body := lower[open+1 : open+close]
	if i := strings.IndexByte(body, ','); i >= 0 {
		body = body[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0
	}
	return n
}

// precisionScale parses "(M,D)" into digits and decimals.
func precisionScale(lower string) (int, int) {
	open := strings.IndexByte(lower, '(')
	if open < 0 {
		return 0, 0
	}
	close := strings.IndexByte(lower[open:], ')')
	if close < 0 {
		return 0, 0
	}
	parts := strings.Split(lower[open+1:open+close], ",")
	digits, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
	decimals := 0
	if len(parts) > 1 {
		decimals, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return digits, decimals
}

func defaultWidth(name string, unsigned bool) int {
	r := intRanges[name]
	if unsigned {
		return r.uwidth
	}
	return r.width
}

// parseEnumValues extracts the quoted members of enum('a','b') or
// set('a','b'), unescaping doubled quotes.
func parseEnumValues(columnType string) []string {
	open := strings.IndexByte(columnType, '(')
	end := strings.LastIndexByte(columnType, ')')
	if open < 0 || end <= open {
		return nil
	}
	body := columnType[open+1 : end]

	var values []string
	for i := 0; i < len(body); {
		if body[i] != '\'' {
			i++
			continue
		}
		var b strings.Builder
		j := i + 1
		for j < len(body) {
			if body[j] == '\'' {
				if j+1 < len(body) && body[j+1] == '\'' {
					b.WriteByte('\'')
					j += 2
					continue
				}
				break
			}
			if body[j] == '\\' && j+1 < len(body) {
				b.WriteByte(body[j+1])
				j += 2
				continue
			}
			b.WriteByte(body[j])
			j++
		}
		values = append(values, b.String())
		i = j + 1
	}
	return values
}
