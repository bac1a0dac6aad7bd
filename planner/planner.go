// Package planner turns a structured schema diff into the ordered DDL
// statement list that applies it.
package planner

import (
	"fmt"
	"sort"

	"github.com/sqlpp-io/sqlpp/diff"
	"github.com/sqlpp-io/sqlpp/schema"
	"github.com/sqlpp-io/sqlpp/sqlgen"
)

// Planner renders diff plans with one engine's generator.
type Planner struct {
	gen sqlgen.Generator
}

// New creates a planner over the given DDL generator.
func New(gen sqlgen.Generator) *Planner {
	return &Planner{gen: gen}
}

// Plan emits the DDL statements that transform the previous snapshot into
// the next one. Statement order matters: foreign keys referring to a table
// are dropped before the table and added only after every referenced
// table exists.
//
// The order is: drop removed procs; drop removed foreign keys of updated
// tables; drop removed tables; create added tables (bodies only) with
// their triggers; per-table column/key/index/check/trigger changes; add
// foreign keys of updated tables; add foreign keys of added tables;
// create added procs.
func (p *Planner) Plan(d *diff.SchemaDiff) ([]string, error) {
	var stmts []string

	for _, proc := range d.Procs.Remove {
		stmts = append(stmts, p.gen.DropProcSQL(proc))
	}

	for _, td := range d.Tables.Update {
		for _, fk := range td.FKRemove {
			stmts = append(stmts, p.gen.DropForeignKeySQL(td.Key(), fk.Name))
		}
	}

	for _, t := range d.Tables.Remove {
		stmts = append(stmts, p.gen.DropTableSQL(t.Key()))
	}

	for _, t := range d.Tables.Add {
		sql, err := p.gen.TableSQL(t, false)
		if err != nil {
			return nil, fmt.Errorf("failed to plan create of %s: %w", t.Key(), err)
		}
		stmts = append(stmts, sql)
		for _, trg := range sortTriggers(t.Triggers) {
			stmts = append(stmts, p.gen.TriggerSQL(t.Key(), trg))
		}
	}

	for _, td := range d.Tables.Update {
		stmts = append(stmts, p.planTableUpdate(td)...)
	}

	for _, td := range d.Tables.Update {
		for _, fk := range td.FKAdd {
			sql, err := p.gen.AddForeignKeySQL(td.Key(), fk)
			if err != nil {
				return nil, fmt.Errorf("failed to plan foreign key %s on %s: %w", fk.Name, td.Key(), err)
			}
			stmts = append(stmts, sql)
		}
	}

	for _, t := range d.Tables.Add {
		for _, name := range sortedNames(t.FKs) {
			sql, err := p.gen.AddForeignKeySQL(t.Key(), t.FKs[name])
			if err != nil {
				return nil, fmt.Errorf("failed to plan foreign key %s on %s: %w", name, t.Key(), err)
			}
			stmts = append(stmts, sql)
		}
	}

	for _, proc := range d.Procs.Add {
		stmts = append(stmts, p.gen.ProcSQL(proc))
	}

	return stmts, nil
}

// planTableUpdate emits one updated table's changes in dependency-safe
// order: columns first, then the primary key, then keys, indexes, checks
// and triggers, drops before adds within each group.
func (p *Planner) planTableUpdate(td *diff.TableDiff) []string {
	key := td.Key()
	var stmts []string

	for _, f := range td.Fields.Remove {
		stmts = append(stmts, p.gen.DropColumnSQL(key, f.Col))
	}
	for _, f := range td.Fields.Add {
		stmts = append(stmts, p.gen.AddColumnSQL(key, f))
	}
	for _, ch := range td.Fields.Update {
		stmts = append(stmts, p.gen.ChangeColumnSQL(key, ch.Next))
	}

	if td.PKDrop {
		stmts = append(stmts, p.gen.DropPrimaryKeySQL(key))
	}
	if td.PKAdd {
		stmts = append(stmts, p.gen.AddPrimaryKeySQL(key, td.Next.PK))
	}

	for _, uk := range td.UKRemove {
		stmts = append(stmts, p.gen.DropUniqueKeySQL(key, uk.Name))
	}
	for _, uk := range td.UKAdd {
		stmts = append(stmts, p.gen.AddUniqueKeySQL(key, uk))
	}
	for _, ix := range td.IXRemove {
		stmts = append(stmts, p.gen.DropIndexSQL(key, ix.Name))
	}
	for _, ix := range td.IXAdd {
		stmts = append(stmts, p.gen.AddIndexSQL(key, ix))
	}
	for _, c := range td.CheckRemove {
		stmts = append(stmts, p.gen.DropCheckSQL(key, c.Name))
	}
	for _, c := range td.CheckAdd {
		stmts = append(stmts, p.gen.AddCheckSQL(key, c))
	}
	for _, trg := range td.TriggerRemove {
		stmts = append(stmts, p.gen.DropTriggerSQL(td.Next.Schema, trg.Name))
	}
	for _, trg := range td.TriggerAdd {
		stmts = append(stmts, p.gen.TriggerSQL(key, trg))
	}

	return stmts
}

// sortTriggers orders a table's triggers by operation, then timing, then
// action order.
func sortTriggers(m map[string]*schema.Trigger) []*schema.Trigger {
	out := make([]*schema.Trigger, 0, len(m))
	for _, trg := range m {
		out = append(out, trg)
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := opRank(out[i].Op), opRank(out[j].Op); a != b {
			return a < b
		}
		if a, b := timingRank(out[i].When), timingRank(out[j].When); a != b {
			return a < b
		}
		if out[i].Pos != out[j].Pos {
			return out[i].Pos < out[j].Pos
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func opRank(op string) int {
	switch op {
	case schema.OpInsert:
		return 0
	case schema.OpUpdate:
		return 1
	case schema.OpDelete:
		return 2
	}
	return 3
}

func timingRank(when string) int {
	if when == schema.TriggerBefore {
		return 0
	}
	return 1
}

func sortedNames[V any](m map[string]*V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
