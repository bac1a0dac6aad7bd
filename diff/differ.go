package diff

import (
	"reflect"
	"sort"

	"github.com/sqlpp-io/sqlpp/schema"
)

// Differ compares schema snapshots.
type Differ struct{}

// NewDiffer creates a schema differ.
func NewDiffer() *Differ {
	return &Differ{}
}

// Compare computes the structured diff that transforms prev into next.
// Tables and constraints are visited in sorted key order so the diff, and
// any plan built from it, is deterministic.
func (d *Differ) Compare(prev, next *schema.Schema) (*SchemaDiff, error) {
	out := &SchemaDiff{}

	for _, key := range sortedTableKeys(next) {
		if _, ok := prev.Tables[key]; !ok {
			out.Tables.Add = append(out.Tables.Add, next.Tables[key])
		}
	}
	for _, key := range sortedTableKeys(prev) {
		if _, ok := next.Tables[key]; !ok {
			out.Tables.Remove = append(out.Tables.Remove, prev.Tables[key])
		}
	}
	for _, key := range sortedTableKeys(prev) {
		nt, ok := next.Tables[key]
		if !ok {
			continue
		}
		td := d.compareTable(prev.Tables[key], nt)
		if !td.Empty() {
			out.Tables.Update = append(out.Tables.Update, td)
		}
	}

	for _, name := range sortedProcNames(next) {
		pp, ok := prev.Procs[name]
		np := next.Procs[name]
		if !ok {
			out.Procs.Add = append(out.Procs.Add, np)
			continue
		}
		if !reflect.DeepEqual(pp, np) {
			out.Procs.Remove = append(out.Procs.Remove, pp)
			out.Procs.Add = append(out.Procs.Add, np)
		}
	}
	for _, name := range sortedProcNames(prev) {
		if _, ok := next.Procs[name]; !ok {
			out.Procs.Remove = append(out.Procs.Remove, prev.Procs[name])
		}
	}

	return out, nil
}

func (d *Differ) compareTable(prev, next *schema.Table) *TableDiff {
	td := &TableDiff{Prev: prev, Next: next}

	for _, f := range next.Fields {
		if prev.Field(f.Col) == nil {
			td.Fields.Add = append(td.Fields.Add, f)
		}
	}
	for _, f := range prev.Fields {
		if next.Field(f.Col) == nil {
			td.Fields.Remove = append(td.Fields.Remove, f)
		}
	}
	for _, pf := range prev.Fields {
		nf := next.Field(pf.Col)
		if nf == nil {
			continue
		}
		if !fieldsEqual(pf, nf) {
			td.Fields.Update = append(td.Fields.Update, FieldChange{Prev: pf, Next: nf})
		}
	}

	if !reflect.DeepEqual(prev.PK, next.PK) {
		td.PKDrop = len(prev.PK) > 0
		td.PKAdd = len(next.PK) > 0
	}

	diffNamed(prev.UKs, next.UKs, &td.UKRemove, &td.UKAdd)
	diffNamed(prev.IXs, next.IXs, &td.IXRemove, &td.IXAdd)
	diffNamed(prev.FKs, next.FKs, &td.FKRemove, &td.FKAdd)
	diffNamed(prev.Checks, next.Checks, &td.CheckRemove, &td.CheckAdd)
	diffNamed(prev.Triggers, next.Triggers, &td.TriggerRemove, &td.TriggerAdd)

	return td
}

// diffNamed computes remove/add lists for a named constraint map. A
// constraint whose definition changed lands in both lists so the plan
// drops and recreates it.
func diffNamed[V any](prev, next map[string]*V, remove, add *[]*V) {
	var prevKeys, nextKeys []string
	for k := range prev {
		prevKeys = append(prevKeys, k)
	}
	for k := range next {
		nextKeys = append(nextKeys, k)
	}
	sort.Strings(prevKeys)
	sort.Strings(nextKeys)

	for _, k := range prevKeys {
		nv, ok := next[k]
		if !ok || !reflect.DeepEqual(prev[k], nv) {
			*remove = append(*remove, prev[k])
		}
	}
	for _, k := range nextKeys {
		pv, ok := prev[k]
		if !ok || !reflect.DeepEqual(pv, next[k]) {
			*add = append(*add, next[k])
		}
	}
}

// fieldsEqual compares the persistent attributes of two column
// descriptors; serializer hooks and the column index are not part of the
// stored definition.
func fieldsEqual(a, b *schema.Field) bool {
	return a.Col == b.Col &&
		a.Type == b.Type &&
		a.NativeType == b.NativeType &&
		a.Size == b.Size &&
		a.Digits == b.Digits &&
		a.Decimals == b.Decimals &&
		a.Unsigned == b.Unsigned &&
		a.NotNull == b.NotNull &&
		a.AutoIncrement == b.AutoIncrement &&
		reflect.DeepEqual(a.Default, b.Default) &&
		a.HasTime == b.HasTime &&
		a.Padded == b.Padded &&
		reflect.DeepEqual(a.EnumValues, b.EnumValues) &&
		a.Charset == b.Charset &&
		a.Collation == b.Collation &&
		a.Comment == b.Comment
}

func sortedTableKeys(s *schema.Schema) []string {
	keys := make([]string, 0, len(s.Tables))
	for k := range s.Tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedProcNames(s *schema.Schema) []string {
	keys := make([]string, 0, len(s.Procs))
	for k := range s.Procs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
