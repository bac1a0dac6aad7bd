package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The #if expression language: identifier lookup, numeric and string
// literals, comparisons, and boolean operators. Expressions are evaluated
// against the parameter environment and never mutate it.

// condLexer defines the token types for #if conditions.
var condLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Op", Pattern: `==|!=|<=|>=|&&|\|\||[=<>!()]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type condExpr struct {
	Or *orExpr `@@`
}

type orExpr struct {
	Left  *andExpr   `@@`
	Right []*andExpr `(("||" | "or") @@)*`
}

type andExpr struct {
	Left  *notExpr   `@@`
	Right []*notExpr `(("&&" | "and") @@)*`
}

type notExpr struct {
	Negated *notExpr `("!" | "not") @@`
	Cmp     *cmpExpr `| @@`
}

type cmpExpr struct {
	Left  *primary `@@`
	Op    string   `[@("==" | "!=" | "<=" | ">=" | "<" | ">" | "=")`
	Right *primary `@@]`
}

type primary struct {
	Number *float64  `@Number`
	String *string   `| @String`
	Ident  *string   `| @Ident`
	Sub    *condExpr `| "(" @@ ")"`
}

var condParser = participle.MustBuild[condExpr](
	participle.Lexer(condLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// evalCond parses and evaluates a directive condition against params.
func evalCond(expr string, params map[string]any) (bool, error) {
	tree, err := condParser.ParseString("", expr)
	if err != nil {
		return false, fmt.Errorf("invalid #if condition %q: %w", expr, err)
	}
	v, err := tree.eval(params)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func (e *condExpr) eval(params map[string]any) (any, error) {
	return e.Or.eval(params)
}

func (e *orExpr) eval(params map[string]any) (any, error) {
	v, err := e.Left.eval(params)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		if truthy(v) {
			return true, nil
		}
		if v, err = r.eval(params); err != nil {
			return nil, err
		}
	}
	if len(e.Right) > 0 {
		return truthy(v), nil
	}
	return v, nil
}

func (e *andExpr) eval(params map[string]any) (any, error) {
	v, err := e.Left.eval(params)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		if !truthy(v) {
			return false, nil
		}
		if v, err = r.eval(params); err != nil {
			return nil, err
		}
	}
	if len(e.Right) > 0 {
		return truthy(v), nil
	}
	return v, nil
}

func (e *notExpr) eval(params map[string]any) (any, error) {
	if e.Negated != nil {
		v, err := e.Negated.eval(params)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	}
	return e.Cmp.eval(params)
}

func (e *cmpExpr) eval(params map[string]any) (any, error) {
	left, err := e.Left.eval(params)
	if err != nil {
		return nil, err
	}
	if e.Op == "" {
		return left, nil
	}
	right, err := e.Right.eval(params)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "==", "=":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if lok && rok {
		switch e.Op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}
	ls, rs := fmt.Sprint(left), fmt.Sprint(right)
	switch e.Op {
	case "<":
		return ls < rs, nil
	case "<=":
		return ls <= rs, nil
	case ">":
		return ls > rs, nil
	case ">=":
		return ls >= rs, nil
	}
	return nil, fmt.Errorf("unsupported comparison operator %q", e.Op)
}

func (e *primary) eval(params map[string]any) (any, error) {
	switch {
	case e.Number != nil:
		return *e.Number, nil
	case e.String != nil:
		return unquoteCond(*e.String), nil
	case e.Ident != nil:
		switch *e.Ident {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null", "nil":
			return nil, nil
		}
		return params[*e.Ident], nil
	case e.Sub != nil:
		return e.Sub.eval(params)
	}
	return nil, nil
}

func unquoteCond(s string) string {
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, `\'`, `'`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

// truthy follows the usual scripting rules: nil and zero values are false,
// everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		if bs, ok := b.(string); ok {
			if bf, err := strconv.ParseFloat(bs, 64); err == nil {
				return af == bf
			}
		}
		return false
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
		if bf, bok := toFloat(b); bok {
			if af, err := strconv.ParseFloat(as, 64); err == nil {
				return af == bf
			}
		}
		return false
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
