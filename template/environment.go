package template

import (
	"fmt"

	"github.com/sqlpp-io/sqlpp/quote"
)

// Macro is a callable substitution: $name(arg1, arg2) invokes the macro
// with the already-expanded argument strings and splices the result into
// the query.
type Macro func(args ...string) (string, error)

// Env carries everything one template expansion needs: the named parameter
// map, the positional argument list, the constant and macro registries, and
// the quoter for the target engine. An Env is transient per query; the
// registries are typically shared.
type Env struct {
	Params  map[string]any
	Args    []any
	Defines map[string]string
	Macros  map[string]Macro
	Quoter  *quote.Quoter
}

// NewEnv creates an empty environment for the given quoter.
func NewEnv(q *quote.Quoter) *Env {
	return &Env{
		Params:  map[string]any{},
		Defines: map[string]string{},
		Macros:  map[string]Macro{},
		Quoter:  q,
	}
}

// WithParams returns a shallow copy of the environment using the given
// named parameters.
func (e *Env) WithParams(params map[string]any) *Env {
	c := *e
	c.Params = params
	return &c
}

// WithArgs returns a shallow copy of the environment using the given
// positional arguments.
func (e *Env) WithArgs(args ...any) *Env {
	c := *e
	c.Args = args
	return &c
}

// Default returns an environment preloaded with the stock constraint
// macros. Callers extend or replace the registries as needed.
func Default(q *quote.Quoter) *Env {
	e := NewEnv(q)
	e.Macros["fk"] = macroForeignKey
	e.Macros["uk"] = macroUniqueKey
	e.Macros["ix"] = macroIndex
	return e
}

// macroForeignKey renders a named foreign-key clause:
// $fk(t, a, u) -> constraint fk_t_a foreign key (a) references u (a)
func macroForeignKey(args ...string) (string, error) {
	if len(args) != 3 && len(args) != 4 {
		return "", fmt.Errorf("fk: want 3 or 4 args (table, col, ref_table[, ref_col]), got %d", len(args))
	}
	tbl, col, ftbl := args[0], args[1], args[2]
	fcol := col
	if len(args) == 4 {
		fcol = args[3]
	}
	return "constraint fk_" + tbl + "_" + col +
		" foreign key (" + col + ") references " + ftbl + " (" + fcol + ")", nil
}

// macroUniqueKey renders a named unique-key clause:
// $uk(t, a) -> constraint uk_t_a unique (a)
func macroUniqueKey(args ...string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("uk: want table plus at least one column, got %d args", len(args))
	}
	name := "uk_" + args[0]
	for _, c := range args[1:] {
		name += "_" + c
	}
	cols := args[1]
	for _, c := range args[2:] {
		cols += ", " + c
	}
	return "constraint " + name + " unique (" + cols + ")", nil
}

// macroIndex renders an index clause: $ix(t, a) -> index ix_t_a (a)
func macroIndex(args ...string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("ix: want table plus at least one column, got %d args", len(args))
	}
	name := "ix_" + args[0]
	for _, c := range args[1:] {
		name += "_" + c
	}
	cols := args[1]
	for _, c := range args[2:] {
		cols += ", " + c
	}
	return "index " + name + " (" + cols + ")", nil
}

// stringify renders a parameter value for unquoted insertion (verbatim
// slots and macro arguments).
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}
