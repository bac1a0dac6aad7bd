// Package diff compares two schema snapshots and produces the structured
// difference the planner turns into ordered DDL.
package diff

import (
	"github.com/sqlpp-io/sqlpp/schema"
)

// SchemaDiff is the full structured difference between two snapshots.
type SchemaDiff struct {
	Tables TablesDiff
	Procs  ProcsDiff
}

// Empty reports whether the diff contains no changes.
func (d *SchemaDiff) Empty() bool {
	return len(d.Tables.Add) == 0 && len(d.Tables.Remove) == 0 && len(d.Tables.Update) == 0 &&
		len(d.Procs.Add) == 0 && len(d.Procs.Remove) == 0
}

// TablesDiff groups table-level changes.
type TablesDiff struct {
	Add    []*schema.Table
	Remove []*schema.Table
	Update []*TableDiff
}

// ProcsDiff groups procedure changes. A changed procedure appears in both
// lists (drop then recreate).
type ProcsDiff struct {
	Add    []*schema.Procedure
	Remove []*schema.Procedure
}

// FieldChange pairs the previous and next descriptor of a changed column.
type FieldChange struct {
	Prev *schema.Field
	Next *schema.Field
}

// FieldsDiff groups column changes of one table.
type FieldsDiff struct {
	Add    []*schema.Field
	Remove []*schema.Field
	Update []FieldChange
}

// TableDiff carries the per-attribute sub-diffs of one updated table.
// Constraint changes are expressed as remove+add pairs.
type TableDiff struct {
	Prev *schema.Table
	Next *schema.Table

	Fields FieldsDiff

	PKDrop bool
	PKAdd  bool

	UKAdd         []*schema.UniqueKey
	UKRemove      []*schema.UniqueKey
	IXAdd         []*schema.Index
	IXRemove      []*schema.Index
	FKAdd         []*schema.ForeignKey
	FKRemove      []*schema.ForeignKey
	CheckAdd      []*schema.Check
	CheckRemove   []*schema.Check
	TriggerAdd    []*schema.Trigger
	TriggerRemove []*schema.Trigger
}

// Key returns the schema-qualified table key.
func (td *TableDiff) Key() string { return td.Next.Key() }

// Empty reports whether the table diff contains no changes.
func (td *TableDiff) Empty() bool {
	return len(td.Fields.Add) == 0 && len(td.Fields.Remove) == 0 && len(td.Fields.Update) == 0 &&
		!td.PKDrop && !td.PKAdd &&
		len(td.UKAdd) == 0 && len(td.UKRemove) == 0 &&
		len(td.IXAdd) == 0 && len(td.IXRemove) == 0 &&
		len(td.FKAdd) == 0 && len(td.FKRemove) == 0 &&
		len(td.CheckAdd) == 0 && len(td.CheckRemove) == 0 &&
		len(td.TriggerAdd) == 0 && len(td.TriggerRemove) == 0
}
