package schema

import (
	"fmt"
)

// ForeignKey is a referential constraint. OnUpdate/OnDelete are stored
// empty when they are the engine default (no action).
type ForeignKey struct {
	Name     string   `json:"name"`
	RefTable string   `json:"ref_table"`
	Cols     []string `json:"cols"`
	RefCols  []string `json:"ref_cols"`
	OnUpdate string   `json:"onupdate,omitempty"`
	OnDelete string   `json:"ondelete,omitempty"`
}

// UniqueKey is a named unique constraint.
type UniqueKey struct {
	Name string   `json:"name"`
	Cols []string `json:"cols"`
}

// IndexCol is one indexed column with its direction.
type IndexCol struct {
	Col  string `json:"col"`
	Desc bool   `json:"desc,omitempty"`
}

// Index is a non-unique secondary index.
type Index struct {
	Name string     `json:"name"`
	Cols []IndexCol `json:"cols"`
}

// Check is a named check constraint.
type Check struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
}

// Trigger timing and operation values.
const (
	TriggerBefore = "before"
	TriggerAfter  = "after"

	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Trigger is a row trigger with its action order and engine-specific body.
type Trigger struct {
	Name string `json:"name"`
	When string `json:"when"` // before | after
	Op   string `json:"op"`   // insert | update | delete
	Pos  int    `json:"pos"`  // action order among same-event triggers
	Body string `json:"body"`
}

// ProcParam is one procedure parameter in declaration order.
type ProcParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mode string `json:"mode,omitempty"` // in | out | inout
}

// Procedure is a stored procedure or function.
type Procedure struct {
	Name    string      `json:"name"`
	Params  []ProcParam `json:"params,omitempty"`
	Returns string      `json:"returns,omitempty"`
	Body    string      `json:"body"`
}

// Table is the normalized table descriptor. Fields keep column order;
// constraint maps are keyed by constraint name. Once published into the
// schema cache a Table is treated as immutable.
type Table struct {
	Schema   string                 `json:"schema"`
	Name     string                 `json:"name"`
	Fields   []*Field               `json:"fields"`
	PK       []string               `json:"pk,omitempty"`
	AICol    string                 `json:"ai_col,omitempty"`
	UKs      map[string]*UniqueKey  `json:"uks,omitempty"`
	IXs      map[string]*Index      `json:"ixs,omitempty"`
	FKs      map[string]*ForeignKey `json:"fks,omitempty"`
	Checks   map[string]*Check      `json:"checks,omitempty"`
	Triggers map[string]*Trigger    `json:"triggers,omitempty"`
}

// NewTable creates an empty table descriptor.
func NewTable(schemaName, name string) *Table {
	return &Table{
		Schema:   schemaName,
		Name:     name,
		UKs:      map[string]*UniqueKey{},
		IXs:      map[string]*Index{},
		FKs:      map[string]*ForeignKey{},
		Checks:   map[string]*Check{},
		Triggers: map[string]*Trigger{},
	}
}

// Key returns the schema-qualified table key, "schema.table".
func (t *Table) Key() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Field returns the column descriptor by name, or nil.
func (t *Table) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Col == name {
			return f
		}
	}
	return nil
}

// AddField appends a column, maintaining the column index and the
// auto-increment bookkeeping.
func (t *Table) AddField(f *Field) error {
	if t.Field(f.Col) != nil {
		return fmt.Errorf("table %s: duplicate column %s", t.Key(), f.Col)
	}
	f.ColIndex = len(t.Fields)
	t.Fields = append(t.Fields, f)
	if f.AutoIncrement {
		if t.AICol != "" && t.AICol != f.Col {
			return fmt.Errorf("table %s: more than one auto_increment column (%s, %s)", t.Key(), t.AICol, f.Col)
		}
		t.AICol = f.Col
	}
	return nil
}

// Validate enforces the structural invariants: every referenced column
// exists, at most one auto-increment column, and foreign keys have
// matching column counts.
func (t *Table) Validate() error {
	for _, col := range t.PK {
		if t.Field(col) == nil {
			return fmt.Errorf("table %s: pk references unknown column %s", t.Key(), col)
		}
	}

	ai := 0
	for _, f := range t.Fields {
		if f.AutoIncrement {
			ai++
		}
	}
	if ai > 1 {
		return fmt.Errorf("table %s: %d auto_increment columns", t.Key(), ai)
	}

	for name, uk := range t.UKs {
		for _, col := range uk.Cols {
			if t.Field(col) == nil {
				return fmt.Errorf("table %s: unique key %s references unknown column %s", t.Key(), name, col)
			}
		}
	}
	for name, ix := range t.IXs {
		for _, c := range ix.Cols {
			if t.Field(c.Col) == nil {
				return fmt.Errorf("table %s: index %s references unknown column %s", t.Key(), name, c.Col)
			}
		}
	}
	for name, fk := range t.FKs {
		if len(fk.Cols) != len(fk.RefCols) {
			return fmt.Errorf("table %s: foreign key %s has %d columns but %d referenced columns",
				t.Key(), name, len(fk.Cols), len(fk.RefCols))
		}
		for _, col := range fk.Cols {
			if t.Field(col) == nil {
				return fmt.Errorf("table %s: foreign key %s references unknown column %s", t.Key(), name, col)
			}
		}
	}
	return nil
}

// Schema is a full snapshot of one server's schema objects.
type Schema struct {
	Engine string                `json:"engine"`
	Tables map[string]*Table     `json:"tables"` // keyed "schema.table"
	Procs  map[string]*Procedure `json:"procs,omitempty"`
}

// NewSchema creates an empty schema snapshot for the given engine.
func NewSchema(engine string) *Schema {
	return &Schema{
		Engine: engine,
		Tables: map[string]*Table{},
		Procs:  map[string]*Procedure{},
	}
}

// Validate checks every table plus cross-table foreign-key targets. A
// foreign key may reference a table outside the snapshot; only keys whose
// target is present are checked column-by-column.
func (s *Schema) Validate() error {
	for _, t := range s.Tables {
		if err := t.Validate(); err != nil {
			return err
		}
		for name, fk := range t.FKs {
			ref := s.lookupTable(t.Schema, fk.RefTable)
			if ref == nil {
				continue
			}
			for _, col := range fk.RefCols {
				if ref.Field(col) == nil {
					return fmt.Errorf("table %s: foreign key %s references unknown column %s.%s",
						t.Key(), name, fk.RefTable, col)
				}
			}
		}
	}
	return nil
}

// lookupTable resolves a possibly unqualified table reference against the
// snapshot, trying the referencing table's schema first.
func (s *Schema) lookupTable(schemaName, ref string) *Table {
	if t, ok := s.Tables[ref]; ok {
		return t
	}
	if schemaName != "" {
		if t, ok := s.Tables[schemaName+"."+ref]; ok {
			return t
		}
	}
	return nil
}
