// Package sqlgen renders schema entities as CREATE/ALTER/DROP statements.
package sqlgen

import (
	"fmt"

	"github.com/sqlpp-io/sqlpp/quote"
	"github.com/sqlpp-io/sqlpp/schema"
)

// Generator renders schema entities for one engine. Definition methods
// return clause fragments for use inside CREATE TABLE; the statement
// methods return complete, executable DDL.
type Generator interface {
	// Definition fragments.
	ColumnDef(f *schema.Field, width int) string
	PrimaryKeyDef(pk []string) string
	UniqueKeyDef(uk *schema.UniqueKey) string
	IndexDef(ix *schema.Index) string
	ForeignKeyDef(fk *schema.ForeignKey) (string, error)
	CheckDef(c *schema.Check) string

	// Complete statements.
	DatabaseSQL(name string) string
	TableSQL(t *schema.Table, withFKs bool) (string, error)
	DropTableSQL(key string) string
	AddColumnSQL(key string, f *schema.Field) string
	ChangeColumnSQL(key string, f *schema.Field) string
	DropColumnSQL(key, col string) string
	AddPrimaryKeySQL(key string, pk []string) string
	DropPrimaryKeySQL(key string) string
	AddUniqueKeySQL(key string, uk *schema.UniqueKey) string
	DropUniqueKeySQL(key, name string) string
	AddIndexSQL(key string, ix *schema.Index) string
	DropIndexSQL(key, name string) string
	AddForeignKeySQL(key string, fk *schema.ForeignKey) (string, error)
	DropForeignKeySQL(key, name string) string
	AddCheckSQL(key string, c *schema.Check) string
	DropCheckSQL(key, name string) string
	TriggerSQL(key string, trg *schema.Trigger) string
	DropTriggerSQL(schemaName, name string) string
	ProcSQL(p *schema.Procedure) string
	DropProcSQL(p *schema.Procedure) string
}

// New creates a generator for the given engine.
func New(engine string, q *quote.Quoter) (Generator, error) {
	switch engine {
	case "mysql", "mariadb":
		return &MySQLGenerator{q: q}, nil
	}
	return nil, fmt.Errorf("unsupported engine: %s", engine)
}
