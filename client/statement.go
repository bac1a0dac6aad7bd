package client

import (
	"context"
	"fmt"

	"github.com/sqlpp-io/sqlpp/schema"
	"github.com/sqlpp-io/sqlpp/template"
)

// Statement is a prepared-statement handle. It is built once and rebinds
// its bind plan (a mix of named parameters and positional argument
// indexes) into driver values at each execution. Binding failures leave
// the statement reusable.
type Statement struct {
	client *Client
	stmt   Stmt

	// SQL is the prepared text with ? placeholders.
	SQL string
	// ParamNames lists the named parameters the template encountered.
	ParamNames []string

	binds  []template.Bind
	fields map[string]*schema.Field
}

// Prepare runs the template pipeline in prepare mode and creates the
// server-side statement.
func (c *Client) Prepare(ctx context.Context, sqlText string, opts *Options) (*Statement, error) {
	opts = opts.orDefault()
	if err := c.loadReserved(); err != nil {
		return nil, err
	}

	pre, err := template.Preprocess(sqlText, opts.Params)
	if err != nil {
		return nil, err
	}
	env := c.env.WithParams(opts.Params)
	env.Args = opts.Args
	res, err := env.Prepare(pre)
	if err != nil {
		return nil, err
	}

	st, err := c.conn.Prepare(ctx, res.SQL)
	if err != nil {
		return nil, c.wrap(err)
	}
	return &Statement{
		client:     c,
		stmt:       st,
		SQL:        res.SQL,
		ParamNames: res.ParamNames,
		binds:      res.Binds,
		fields:     opts.Fields,
	}, nil
}

// bindValues resolves the bind plan against fresh parameters and
// arguments, applying per-field to_bin hooks where present.
func (s *Statement) bindValues(params map[string]any, args []any) ([]any, error) {
	vals := make([]any, 0, len(s.binds))
	for _, b := range s.binds {
		var v any
		if b.Name != "" {
			var ok bool
			v, ok = params[b.Name]
			if !ok {
				return nil, fmt.Errorf("%w: :%s", template.ErrMissingParam, b.Name)
			}
			if f := s.fields[b.Name]; f != nil {
				var err error
				if v, err = f.BinValue(v); err != nil {
					return nil, fmt.Errorf("failed to bind :%s: %w", b.Name, err)
				}
			}
		} else {
			if b.Index >= len(args) {
				return nil, fmt.Errorf("%w: ? #%d", template.ErrMissingArg, b.Index+1)
			}
			v = args[b.Index]
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// Query executes the statement with fresh parameter values.
func (s *Statement) Query(ctx context.Context, params map[string]any, args ...any) (*ResultSet, error) {
	vals, err := s.bindValues(params, args)
	if err != nil {
		return nil, err
	}
	raw, err := s.stmt.Query(ctx, vals...)
	if err != nil {
		return nil, s.client.wrap(err)
	}
	return s.client.shape(ctx, raw, &Options{})
}

// Exec executes the statement without reading rows.
func (s *Statement) Exec(ctx context.Context, params map[string]any, args ...any) (*ResultSet, error) {
	vals, err := s.bindValues(params, args)
	if err != nil {
		return nil, err
	}
	raw, err := s.stmt.Exec(ctx, vals...)
	if err != nil {
		return nil, s.client.wrap(err)
	}
	if isDDL(s.SQL) {
		s.client.cache.Invalidate()
	}
	return &ResultSet{Affected: raw.Affected, LastID: raw.LastID}, nil
}

// Free releases the server-side statement. Call it exactly once; the
// handle is unusable afterwards.
func (s *Statement) Free() error {
	return s.stmt.Free()
}
