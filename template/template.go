package template

import (
	"fmt"
	"strings"
)

// Mode selects between literalized SQL and prepared-statement output.
type Mode int

const (
	// ModeLiteral splices quoted values directly into the SQL text.
	ModeLiteral Mode = iota
	// ModePrepare leaves ? placeholders and records a bind plan.
	ModePrepare
)

// Bind is one entry of a prepared statement's bind plan: either a named
// parameter (Name set, Index -1) or a positional argument index.
type Bind struct {
	Name  string
	Index int
}

// Result is the outcome of one template expansion.
type Result struct {
	// SQL is the final query text.
	SQL string
	// ParamNames lists the named parameters encountered, in order.
	ParamNames []string
	// Binds is the ordered bind plan; only populated in prepare mode.
	Binds []Bind
}

// Render expands the template in literal mode: every parameter and
// argument is quoted into the SQL text.
func (e *Env) Render(sql string) (*Result, error) {
	return e.expand(sql, ModeLiteral)
}

// Prepare expands the template in prepare mode: parameters and arguments
// become ? placeholders and the bind plan records where each value goes.
func (e *Env) Prepare(sql string) (*Result, error) {
	return e.expand(sql, ModePrepare)
}

// expand runs the substitution pipeline on preprocessed SQL. Every
// expansion point is replaced by a two-byte marker into a side table so a
// later pass can never re-parse an earlier pass's output, and a final walk
// splices the recorded replacements back in.
func (e *Env) expand(sql string, mode Mode) (*Result, error) {
	if !strings.ContainsAny(sql, "#$:?{") && !strings.Contains(sql, "--") {
		return &Result{SQL: sql}, nil
	}

	repl := &replTable{}
	res := &Result{}

	s, err := scanLiterals(sql, repl)
	if err != nil {
		return nil, err
	}
	if s, err = e.expandMacros(s, repl); err != nil {
		return nil, err
	}
	if s, err = e.expandDefines(s, repl); err != nil {
		return nil, err
	}
	if s, err = e.expandVerbatim(s, repl); err != nil {
		return nil, err
	}
	s, sawNamed, err := e.expandNamed(s, repl, mode, res)
	if err != nil {
		return nil, err
	}
	s, sawPositional, err := e.expandPositional(s, repl, mode, res)
	if err != nil {
		return nil, err
	}
	if sawNamed && sawPositional {
		return nil, ErrMixedPlaceholders
	}

	res.SQL = repl.resolve(s)
	return res, nil
}

// expandMacros replaces $name(arg, ...) calls. Arguments are split on
// top-level commas, expanded unquoted through the named-parameter rule,
// and handed to the macro callable.
func (e *Env) expandMacros(s string, repl *replTable) (string, error) {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == markerByte {
			out.WriteString(s[i : i+2])
			i += 2
			continue
		}
		if s[i] != '$' || i+1 >= len(s) || !isIdentStart(s[i+1]) {
			out.WriteByte(s[i])
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isIdentChar(s[j]) {
			j++
		}
		if j >= len(s) || s[j] != '(' {
			// Bare constant, handled by the next pass.
			out.WriteString(s[i:j])
			i = j
			continue
		}
		name := s[i+1 : j]
		end, err := matchParen(s, j)
		if err != nil {
			return "", err
		}
		macro, ok := e.Macros[name]
		if !ok {
			return "", fmt.Errorf("%w: $%s", ErrUnknownMacro, name)
		}
		args, err := e.macroArgs(s[j+1 : end])
		if err != nil {
			return "", fmt.Errorf("macro $%s: %w", name, err)
		}
		body, err := macro(args...)
		if err != nil {
			return "", fmt.Errorf("macro $%s: %w", name, err)
		}
		marker, err := repl.add(body)
		if err != nil {
			return "", err
		}
		out.WriteString(marker)
		i = end + 1
	}
	return out.String(), nil
}

// matchParen returns the index of the ) balancing the ( at open.
func matchParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case markerByte:
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced parentheses in macro call")
}

// macroArgs splits the argument text on top-level commas and expands each
// argument's named parameters without quoting.
func (e *Env) macroArgs(body string) ([]string, error) {
	var args []string
	depth := 0
	start := 0
	flush := func(end int) error {
		raw := strings.TrimSpace(body[start:end])
		expanded, err := e.expandArg(raw)
		if err != nil {
			return err
		}
		args = append(args, expanded)
		return nil
	}
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case markerByte:
			i++
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(body[start:]) != "" || len(args) > 0 {
		if err := flush(len(body)); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// expandArg substitutes :name references in a macro argument with the raw
// parameter value, unquoted.
func (e *Env) expandArg(arg string) (string, error) {
	if !strings.Contains(arg, ":") {
		return arg, nil
	}
	var out strings.Builder
	for i := 0; i < len(arg); {
		if arg[i] == markerByte {
			out.WriteString(arg[i : i+2])
			i += 2
			continue
		}
		if arg[i] != ':' {
			out.WriteByte(arg[i])
			i++
			continue
		}
		j := i + 1
		if j < len(arg) && arg[j] == ':' {
			j++
		}
		if j >= len(arg) || !isIdentStart(arg[j]) {
			out.WriteByte(arg[i])
			i++
			continue
		}
		key, next := scanParamKey(arg, j)
		v, ok := e.Params[key]
		if !ok {
			return "", fmt.Errorf("%w: :%s", ErrMissingParam, key)
		}
		out.WriteString(stringify(v))
		i = next
	}
	return out.String(), nil
}

// expandDefines replaces bare $name constants from the define registry.
func (e *Env) expandDefines(s string, repl *replTable) (string, error) {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == markerByte {
			out.WriteString(s[i : i+2])
			i += 2
			continue
		}
		if s[i] != '$' || i+1 >= len(s) || !isIdentStart(s[i+1]) {
			out.WriteByte(s[i])
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isIdentChar(s[j]) {
			j++
		}
		name := s[i+1 : j]
		body, ok := e.Defines[name]
		if !ok {
			return "", fmt.Errorf("%w: $%s", ErrUnknownConstant, name)
		}
		marker, err := repl.add(body)
		if err != nil {
			return "", err
		}
		out.WriteString(marker)
		i = j
	}
	return out.String(), nil
}

// expandVerbatim replaces {name} slots with the raw parameter value. No
// quoting is applied; the caller owns the safety of verbatim insertions.
func (e *Env) expandVerbatim(s string, repl *replTable) (string, error) {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == markerByte {
			out.WriteString(s[i : i+2])
			i += 2
			continue
		}
		if s[i] != '{' || i+1 >= len(s) || !isIdentStart(s[i+1]) {
			out.WriteByte(s[i])
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isIdentChar(s[j]) {
			j++
		}
		if j >= len(s) || s[j] != '}' {
			out.WriteByte(s[i])
			i++
			continue
		}
		name := s[i+1 : j]
		v, ok := e.Params[name]
		if !ok {
			return "", fmt.Errorf("%w: {%s}", ErrMissingParam, name)
		}
		marker, err := repl.add(stringify(v))
		if err != nil {
			return "", err
		}
		out.WriteString(marker)
		i = j + 1
	}
	return out.String(), nil
}

// expandNamed replaces ::name identifier parameters and :name[:suffix]
// value parameters. The suffix chain is part of the parameter key.
func (e *Env) expandNamed(s string, repl *replTable, mode Mode, res *Result) (string, bool, error) {
	saw := false
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == markerByte {
			out.WriteString(s[i : i+2])
			i += 2
			continue
		}
		if s[i] != ':' {
			out.WriteByte(s[i])
			i++
			continue
		}

		if i+1 < len(s) && s[i+1] == ':' && i+2 < len(s) && isIdentStart(s[i+2]) {
			// ::name - identifier-quoted parameter.
			key, next := scanParamKey(s, i+2)
			v, ok := e.Params[key]
			if !ok {
				return "", false, fmt.Errorf("%w: ::%s", ErrMissingParam, key)
			}
			ident, err := e.Quoter.Identifier(v)
			if err != nil {
				return "", false, err
			}
			marker, err := repl.add(ident)
			if err != nil {
				return "", false, err
			}
			out.WriteString(marker)
			res.ParamNames = append(res.ParamNames, key)
			saw = true
			i = next
			continue
		}

		if i+1 >= len(s) || !isIdentStart(s[i+1]) {
			out.WriteByte(s[i])
			i++
			continue
		}

		key, next := scanParamKey(s, i+1)
		res.ParamNames = append(res.ParamNames, key)
		saw = true
		if mode == ModePrepare {
			marker, err := repl.add("?")
			if err != nil {
				return "", false, err
			}
			out.WriteString(marker)
			res.Binds = append(res.Binds, Bind{Name: key, Index: -1})
			i = next
			continue
		}
		v, ok := e.Params[key]
		if !ok {
			return "", false, fmt.Errorf("%w: :%s", ErrMissingParam, key)
		}
		lit, err := e.Quoter.Value(v)
		if err != nil {
			return "", false, err
		}
		marker, err := repl.add(lit)
		if err != nil {
			return "", false, err
		}
		out.WriteString(marker)
		i = next
	}
	return out.String(), saw, nil
}

// scanParamKey reads an identifier starting at start, plus any :suffix
// chain, and returns the full key and the index after it.
func scanParamKey(s string, start int) (string, int) {
	j := start
	for j < len(s) && isIdentChar(s[j]) {
		j++
	}
	for j+1 < len(s) && s[j] == ':' && isIdentStart(s[j+1]) {
		k := j + 1
		for k < len(s) && isIdentChar(s[k]) {
			k++
		}
		j = k
	}
	return s[start:j], j
}

// expandPositional replaces ?? identifier arguments and ? value arguments,
// consuming args in order.
func (e *Env) expandPositional(s string, repl *replTable, mode Mode, res *Result) (string, bool, error) {
	saw := false
	next := 0
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == markerByte {
			out.WriteString(s[i : i+2])
			i += 2
			continue
		}
		if s[i] != '?' {
			out.WriteByte(s[i])
			i++
			continue
		}
		saw = true

		if i+1 < len(s) && s[i+1] == '?' {
			if next >= len(e.Args) {
				return "", false, fmt.Errorf("%w: ?? #%d", ErrMissingArg, next+1)
			}
			ident, err := e.Quoter.Identifier(e.Args[next])
			if err != nil {
				return "", false, err
			}
			marker, err := repl.add(ident)
			if err != nil {
				return "", false, err
			}
			out.WriteString(marker)
			next++
			i += 2
			continue
		}

		if mode == ModePrepare {
			marker, err := repl.add("?")
			if err != nil {
				return "", false, err
			}
			out.WriteString(marker)
			res.Binds = append(res.Binds, Bind{Index: next})
			next++
			i++
			continue
		}
		if next >= len(e.Args) {
			return "", false, fmt.Errorf("%w: ? #%d", ErrMissingArg, next+1)
		}
		lit, err := e.Quoter.Value(e.Args[next])
		if err != nil {
			return "", false, err
		}
		marker, err := repl.add(lit)
		if err != nil {
			return "", false, err
		}
		out.WriteString(marker)
		next++
		i++
	}
	return out.String(), saw, nil
}
