// Package introspect reconstructs the normalized schema model from a
// server's information catalog.
package introspect

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sqlpp-io/sqlpp/schema"
)

// ErrUnsupportedEngine is returned for engines with no introspector.
var ErrUnsupportedEngine = errors.New("unsupported engine")

// Introspector reads a live database schema into the normalized model.
type Introspector interface {
	// Introspect reads the named databases (the connection's current
	// database when none are given) into a schema snapshot.
	Introspect(ctx context.Context, databases ...string) (*schema.Schema, error)
	// ReservedWords loads the engine's reserved-word list, or nil when
	// the server cannot provide one.
	ReservedWords(ctx context.Context) ([]string, error)
}

// New creates an introspector for the given engine. The registries may be
// nil; when present their overlays are applied to every introspected
// table, after canonical typing.
func New(db *sql.DB, engine string, reg *schema.Registries) (Introspector, error) {
	switch engine {
	case "mysql", "mariadb":
		return &MySQLIntrospector{db: db, engine: engine, registries: reg}, nil
	}
	return nil, ErrUnsupportedEngine
}
