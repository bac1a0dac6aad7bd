package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlpp-io/sqlpp/quote"
	"github.com/sqlpp-io/sqlpp/schema"
)

// MySQLGenerator renders MySQL/MariaDB DDL.
type MySQLGenerator struct {
	q *quote.Quoter
}

// ident back-quotes a known-good internal name; names coming out of the
// schema model are never empty.
func (g *MySQLGenerator) ident(name string) string {
	s, err := g.q.Identifier(name)
	if err != nil {
		return name
	}
	return s
}

// typeSQL renders the column's native type text.
func (g *MySQLGenerator) typeSQL(f *schema.Field) string {
	base := f.NativeType
	if base == "" {
		switch f.Type {
		case schema.TypeBool:
			base = "tinyint"
		case schema.TypeNumber, schema.TypeDecimal:
			base = "int"
			if f.Digits > 0 {
				base = "decimal"
			}
		case schema.TypeDate:
			base = "date"
			if f.HasTime {
				base = "datetime"
			}
		case schema.TypeEnum:
			base = "enum"
		case schema.TypeBlob:
			base = "blob"
		default:
			base = "varchar"
			if f.Padded {
				base = "char"
			}
			if f.Size == 0 {
				base = "text"
			}
		}
	}

	switch base {
	case "decimal", "numeric", "float", "double":
		if f.Digits > 0 {
			return fmt.Sprintf("%s(%d,%d)", base, f.Digits, f.Decimals)
		}
		return base
	case "enum", "set":
		vals := make([]string, len(f.EnumValues))
		for i, v := range f.EnumValues {
			vals[i] = "'" + quote.EscapeString(v) + "'"
		}
		return base + "(" + strings.Join(vals, ",") + ")"
	case "tinyint":
		if f.Type == schema.TypeBool {
			return "tinyint(1)"
		}
	}
	if f.Size > 0 {
		return fmt.Sprintf("%s(%d)", base, f.Size)
	}
	return base
}

// ColumnDef renders one column definition, padding the name to width for
// aligned CREATE TABLE bodies.
func (g *MySQLGenerator) ColumnDef(f *schema.Field, width int) string {
	name := g.ident(f.Col)
	var b strings.Builder
	b.WriteString(name)
	for pad := width - len(name); pad > 0; pad-- {
		b.WriteByte(' ')
	}
	b.WriteByte(' ')
	b.WriteString(g.typeSQL(f))

	if f.Unsigned {
		b.WriteString(" unsigned")
	}
	if f.Collation != "" && f.Charset != "" && f.Collation != f.Charset+"_general_ci" {
		b.WriteString(" collate " + f.Collation)
	}
	if f.NotNull {
		b.WriteString(" not null")
	}
	if f.AutoIncrement {
		b.WriteString(" auto_increment")
	}
	if f.Default != nil {
		if lit, err := g.q.Value(f.Default); err == nil {
			b.WriteString(" default " + lit)
		}
	}
	if f.Comment != "" {
		b.WriteString(" comment '" + quote.EscapeString(f.Comment) + "'")
	}
	return b.String()
}

// PrimaryKeyDef renders "primary key (a, b)".
func (g *MySQLGenerator) PrimaryKeyDef(pk []string) string {
	return "primary key (" + g.colList(pk) + ")"
}

// UniqueKeyDef renders "constraint name unique (a, b)".
func (g *MySQLGenerator) UniqueKeyDef(uk *schema.UniqueKey) string {
	return "constraint " + g.ident(uk.Name) + " unique (" + g.colList(uk.Cols) + ")"
}

// IndexDef renders "index name (a, b desc)".
func (g *MySQLGenerator) IndexDef(ix *schema.Index) string {
	parts := make([]string, len(ix.Cols))
	for i, c := range ix.Cols {
		parts[i] = g.ident(c.Col)
		if c.Desc {
			parts[i] += " desc"
		}
	}
	return "index " + g.ident(ix.Name) + " (" + strings.Join(parts, ", ") + ")"
}

// ForeignKeyDef renders the constraint clause, omitting default rules. It
// fails when the referenced columns are unresolved.
func (g *MySQLGenerator) ForeignKeyDef(fk *schema.ForeignKey) (string, error) {
	if len(fk.RefCols) == 0 || len(fk.RefCols) != len(fk.Cols) {
		return "", fmt.Errorf("foreign key %s: unresolved referenced columns", fk.Name)
	}
	var b strings.Builder
	b.WriteString("constraint " + g.ident(fk.Name))
	b.WriteString(" foreign key (" + g.colList(fk.Cols) + ")")
	b.WriteString(" references " + g.ident(fk.RefTable))
	b.WriteString(" (" + g.colList(fk.RefCols) + ")")
	if fk.OnUpdate != "" {
		b.WriteString(" on update " + fk.OnUpdate)
	}
	if fk.OnDelete != "" {
		b.WriteString(" on delete " + fk.OnDelete)
	}
	return b.String(), nil
}

// CheckDef renders "constraint name check (expr)".
func (g *MySQLGenerator) CheckDef(c *schema.Check) string {
	expr := c.Expr
	if !strings.HasPrefix(expr, "(") {
		expr = "(" + expr + ")"
	}
	return "constraint " + g.ident(c.Name) + " check " + expr
}

// DatabaseSQL renders the create-database statement.
func (g *MySQLGenerator) DatabaseSQL(name string) string {
	return "create database if not exists " + g.ident(name)
}

// TableSQL renders the full CREATE TABLE: aligned columns, the primary key
// when composite (a sole-column key rides inline on its column), then
// unique keys, indexes, foreign keys and checks, each group in sorted
// name order.
func (g *MySQLGenerator) TableSQL(t *schema.Table, withFKs bool) (string, error) {
	width := 0
	for _, f := range t.Fields {
		if n := len(g.ident(f.Col)); n > width {
			width = n
		}
	}

	inlinePK := len(t.PK) == 1
	var lines []string
	for _, f := range t.Fields {
		line := g.ColumnDef(f, width)
		if inlinePK && f.Col == t.PK[0] {
			line += " primary key"
		}
		lines = append(lines, line)
	}
	if len(t.PK) > 1 {
		lines = append(lines, g.PrimaryKeyDef(t.PK))
	}
	for _, name := range sortedKeys(t.UKs) {
		lines = append(lines, g.UniqueKeyDef(t.UKs[name]))
	}
	for _, name := range sortedKeys(t.IXs) {
		lines = append(lines, g.IndexDef(t.IXs[name]))
	}
	if withFKs {
		for _, name := range sortedKeys(t.FKs) {
			def, err := g.ForeignKeyDef(t.FKs[name])
			if err != nil {
				return "", err
			}
			lines = append(lines, def)
		}
	}
	for _, name := range sortedKeys(t.Checks) {
		lines = append(lines, g.CheckDef(t.Checks[name]))
	}

	var b strings.Builder
	b.WriteString("create table " + g.ident(t.Key()) + " (\n")
	for i, line := range lines {
		b.WriteString("  " + line)
		if i < len(lines)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(")")
	return b.String(), nil
}

// DropTableSQL renders the drop-table statement.
func (g *MySQLGenerator) DropTableSQL(key string) string {
	return "drop table " + g.ident(key)
}

// AddColumnSQL renders an add-column alter.
func (g *MySQLGenerator) AddColumnSQL(key string, f *schema.Field) string {
	return "alter table " + g.ident(key) + " add column " + g.ColumnDef(f, 0)
}

// ChangeColumnSQL renders a modify-column alter.
func (g *MySQLGenerator) ChangeColumnSQL(key string, f *schema.Field) string {
	return "alter table " + g.ident(key) + " modify column " + g.ColumnDef(f, 0)
}

// DropColumnSQL renders a drop-column alter.
func (g *MySQLGenerator) DropColumnSQL(key, col string) string {
	return "alter table " + g.ident(key) + " drop column " + g.ident(col)
}

// AddPrimaryKeySQL renders an add-primary-key alter.
func (g *MySQLGenerator) AddPrimaryKeySQL(key string, pk []string) string {
	return "alter table " + g.ident(key) + " add " + g.PrimaryKeyDef(pk)
}

// DropPrimaryKeySQL renders a drop-primary-key alter.
func (g *MySQLGenerator) DropPrimaryKeySQL(key string) string {
	return "alter table " + g.ident(key) + " drop primary key"
}

// AddUniqueKeySQL renders an add-unique-key alter.
func (g *MySQLGenerator) AddUniqueKeySQL(key string, uk *schema.UniqueKey) string {
	return "alter table " + g.ident(key) + " add " + g.UniqueKeyDef(uk)
}

// DropUniqueKeySQL renders a drop-unique-key alter. MySQL drops unique
// constraints as indexes.
func (g *MySQLGenerator) DropUniqueKeySQL(key, name string) string {
	return "alter table " + g.ident(key) + " drop index " + g.ident(name)
}

// AddIndexSQL renders an add-index alter.
func (g *MySQLGenerator) AddIndexSQL(key string, ix *schema.Index) string {
	return "alter table " + g.ident(key) + " add " + g.IndexDef(ix)
}

// DropIndexSQL renders a drop-index alter.
func (g *MySQLGenerator) DropIndexSQL(key, name string) string {
	return "alter table " + g.ident(key) + " drop index " + g.ident(name)
}

// AddForeignKeySQL renders an add-foreign-key alter.
func (g *MySQLGenerator) AddForeignKeySQL(key string, fk *schema.ForeignKey) (string, error) {
	def, err := g.ForeignKeyDef(fk)
	if err != nil {
		return "", err
	}
	return "alter table " + g.ident(key) + " add " + def, nil
}

// DropForeignKeySQL renders a drop-foreign-key alter.
func (g *MySQLGenerator) DropForeignKeySQL(key, name string) string {
	return "alter table " + g.ident(key) + " drop foreign key " + g.ident(name)
}

// AddCheckSQL renders an add-check alter.
func (g *MySQLGenerator) AddCheckSQL(key string, c *schema.Check) string {
	return "alter table " + g.ident(key) + " add " + g.CheckDef(c)
}

// DropCheckSQL renders a drop-check alter.
func (g *MySQLGenerator) DropCheckSQL(key, name string) string {
	return "alter table " + g.ident(key) + " drop check " + g.ident(name)
}

// TriggerSQL renders a create-trigger statement.
func (g *MySQLGenerator) TriggerSQL(key string, trg *schema.Trigger) string {
	return "create trigger " + g.ident(trg.Name) + " " + trg.When + " " + trg.Op +
		" on " + g.ident(key) + " for each row\n" + trg.Body
}

// DropTriggerSQL renders a drop-trigger statement.
func (g *MySQLGenerator) DropTriggerSQL(schemaName, name string) string {
	if schemaName != "" {
		return "drop trigger " + g.ident(schemaName+"."+name)
	}
	return "drop trigger " + g.ident(name)
}

// ProcSQL renders a create-procedure or create-function statement.
func (g *MySQLGenerator) ProcSQL(p *schema.Procedure) string {
	params := make([]string, len(p.Params))
	for i, prm := range p.Params {
		var b strings.Builder
		if prm.Mode != "" && prm.Mode != "in" {
			b.WriteString(prm.Mode + " ")
		}
		b.WriteString(g.ident(prm.Name) + " " + prm.Type)
		params[i] = b.String()
	}

	kind := "procedure"
	returns := ""
	if p.Returns != "" {
		kind = "function"
		returns = " returns " + p.Returns
	}
	return "create " + kind + " " + g.ident(p.Name) +
		"(" + strings.Join(params, ", ") + ")" + returns + "\n" + p.Body
}

// DropProcSQL renders a drop statement matching the routine kind.
func (g *MySQLGenerator) DropProcSQL(p *schema.Procedure) string {
	kind := "procedure"
	if p.Returns != "" {
		kind = "function"
	}
	return "drop " + kind + " if exists " + g.ident(p.Name)
}

func (g *MySQLGenerator) colList(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = g.ident(c)
	}
	return strings.Join(out, ", ")
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
