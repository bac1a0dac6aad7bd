package client

import (
	"regexp"
	"strings"
)

// MySQL errno values the classifier understands.
const (
	errDupEntry        = 1062
	errBadNull         = 1048
	errNoDefault       = 1364
	errUnknownColumn   = 1054
	errUnknownTable    = 1146
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

var (
	reDupEntry    = regexp.MustCompile(`Duplicate entry '(?s:.*)' for key '([^']+)'`)
	reBadNull     = regexp.MustCompile(`Column '([^']+)' cannot be null`)
	reNoDefault   = regexp.MustCompile(`Field '([^']+)' doesn't have a default value`)
	reUnknownCol  = regexp.MustCompile(`Unknown column '([^']+)'`)
	reUnknownTbl  = regexp.MustCompile(`Table '([^']+)' doesn't exist`)
	reForeignKey  = regexp.MustCompile("CONSTRAINT `[^`]+` FOREIGN KEY \\(`([^`]+)`\\) REFERENCES `([^`]+)`")
	reFKChildInfo = regexp.MustCompile("fails \\(`[^`]+`\\.`([^`]+)`")
)

func init() {
	RegisterClassifier("mysql", classifyMySQL)
	RegisterClassifier("mariadb", classifyMySQL)
}

// classifyMySQL maps MySQL errnos to the normalized error taxonomy,
// pulling column, table and foreign-key details out of the server message.
func classifyMySQL(errno int, sqlstate, message string) *Error {
	e := &Error{SQLCode: errno, SQLState: sqlstate, Message: message}

	switch errno {
	case errDupEntry:
		e.Code = "uk"
		if m := reDupEntry.FindStringSubmatch(message); m != nil {
			// The key name arrives as "table.key"; PRIMARY means the
			// primary key was violated.
			key := m[1]
			if i := strings.LastIndexByte(key, '.'); i >= 0 {
				e.Table = key[:i]
				key = key[i+1:]
			}
			if key == "PRIMARY" {
				e.Code = "pk"
			} else {
				e.Col = key
			}
		}

	case errBadNull:
		e.Code = "not_null"
		if m := reBadNull.FindStringSubmatch(message); m != nil {
			e.Col = m[1]
		}

	case errNoDefault:
		e.Code = "required"
		if m := reNoDefault.FindStringSubmatch(message); m != nil {
			e.Col = m[1]
		}

	case errUnknownColumn:
		e.Code = "unknown_col"
		if m := reUnknownCol.FindStringSubmatch(message); m != nil {
			e.Col = m[1]
		}

	case errUnknownTable:
		e.Code = "unknown_table"
		if m := reUnknownTbl.FindStringSubmatch(message); m != nil {
			e.Table = m[1]
		}

	case errRowIsReferenced, errNoReferencedRow:
		e.Code = "fk"
		if m := reForeignKey.FindStringSubmatch(message); m != nil {
			e.FKCol = m[1]
			e.FKTable = m[2]
		}
		if m := reFKChildInfo.FindStringSubmatch(message); m != nil {
			e.Table = m[1]
		}

	default:
		return nil
	}
	return e
}
