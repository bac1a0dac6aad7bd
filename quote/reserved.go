package quote

import "strings"

// fallbackReserved is the built-in MySQL reserved-word list, used until the
// live list is loaded from the server. It covers the words that actually
// show up as table or column names in practice.
var fallbackReserved = []string{
	"ADD", "ALL", "ALTER", "AND", "AS", "ASC", "BETWEEN", "BIGINT", "BINARY",
	"BLOB", "BOTH", "BY", "CASCADE", "CASE", "CHANGE", "CHAR", "CHARACTER",
	"CHECK", "COLLATE", "COLUMN", "CONDITION", "CONSTRAINT", "CONTINUE",
	"CONVERT", "CREATE", "CROSS", "CURRENT_DATE", "CURRENT_TIME",
	"CURRENT_TIMESTAMP", "CURRENT_USER", "CURSOR", "DATABASE", "DATABASES",
	"DECIMAL", "DECLARE", "DEFAULT", "DELETE", "DESC", "DESCRIBE", "DISTINCT",
	"DIV", "DOUBLE", "DROP", "EACH", "ELSE", "ELSEIF", "ENCLOSED", "ESCAPED",
	"EXISTS", "EXIT", "EXPLAIN", "FALSE", "FETCH", "FLOAT", "FOR", "FORCE",
	"FOREIGN", "FROM", "FULLTEXT", "GENERATED", "GRANT", "GROUP", "GROUPS",
	"HAVING", "HIGH_PRIORITY", "IF", "IGNORE", "IN", "INDEX", "INFILE",
	"INNER", "INOUT", "INSERT", "INT", "INTEGER", "INTERVAL", "INTO", "IS",
	"ITERATE", "JOIN", "KEY", "KEYS", "KILL", "LEADING", "LEAVE", "LEFT",
	"LIKE", "LIMIT", "LINES", "LOAD", "LOCALTIME", "LOCALTIMESTAMP", "LOCK",
	"LONG", "LONGBLOB", "LONGTEXT", "LOOP", "LOW_PRIORITY", "MATCH",
	"MEDIUMBLOB", "MEDIUMINT", "MEDIUMTEXT", "MOD", "MODIFIES", "NATURAL",
	"NOT", "NULL", "NUMERIC", "ON", "OPTIMIZE", "OPTION", "OR", "ORDER",
	"OUT", "OUTER", "OUTFILE", "PARTITION", "PRECISION", "PRIMARY",
	"PROCEDURE", "RANGE", "RANK", "READ", "REAL", "RECURSIVE", "REFERENCES",
	"REGEXP", "RELEASE", "RENAME", "REPEAT", "REPLACE", "REQUIRE", "RESTRICT",
	"RETURN", "REVOKE", "RIGHT", "RLIKE", "ROW", "ROWS", "SCHEMA", "SCHEMAS",
	"SELECT", "SET", "SHOW", "SMALLINT", "SPATIAL", "SQL", "SSL", "STARTING",
	"STORED", "TABLE", "TERMINATED", "THEN", "TINYBLOB", "TINYINT",
	"TINYTEXT", "TO", "TRAILING", "TRIGGER", "TRUE", "UNION", "UNIQUE",
	"UNLOCK", "UNSIGNED", "UPDATE", "USAGE", "USE", "USING", "VALUES",
	"VARBINARY", "VARCHAR", "VARYING", "VIRTUAL", "WHEN", "WHERE", "WHILE",
	"WINDOW", "WITH", "WRITE", "XOR", "YEAR_MONTH", "ZEROFILL",
}

func defaultReserved() map[string]struct{} {
	return BuildReserved(fallbackReserved)
}

// DefaultReserved returns a fresh copy of the built-in fallback set.
func DefaultReserved() map[string]struct{} {
	return defaultReserved()
}

// BuildReserved uppercases words into a lookup set suitable for
// Quoter.SetReserved.
func BuildReserved(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToUpper(w)] = struct{}{}
	}
	return set
}
