package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sqlpp-io/sqlpp/quote"
)

// sqlConn adapts a single database/sql connection to the Conn
// collaborator. A dedicated *sql.Conn keeps transaction state and
// multi-result reads on one wire connection.
type sqlConn struct {
	conn    *sql.Conn
	pending *sql.Rows
}

func newSQLConn(conn *sql.Conn) *sqlConn {
	return &sqlConn{conn: conn}
}

func (c *sqlConn) Close() error {
	if c.pending != nil {
		c.pending.Close()
		c.pending = nil
	}
	return c.conn.Close()
}

func (c *sqlConn) Use(ctx context.Context, db string) error {
	_, err := c.conn.ExecContext(ctx, "use "+db)
	return err
}

func (c *sqlConn) Esc(s string) string {
	return quote.EscapeString(s)
}

func (c *sqlConn) Query(ctx context.Context, sqlText string) (*Result, error) {
	if c.pending != nil {
		c.pending.Close()
		c.pending = nil
	}
	rows, err := c.conn.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	return c.readSet(rows)
}

func (c *sqlConn) ReadResult(ctx context.Context) (*Result, error) {
	if c.pending == nil {
		return nil, fmt.Errorf("no further result sets")
	}
	return c.readSet(c.pending)
}

// readSet drains the current result set and records whether another one
// follows.
func (c *sqlConn) readSet(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		c.pending = nil
		return nil, err
	}

	res := &Result{Fields: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			rows.Close()
			c.pending = nil
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		c.pending = nil
		return nil, err
	}

	if rows.NextResultSet() {
		res.HasMore = true
		c.pending = rows
	} else {
		rows.Close()
		c.pending = nil
	}
	return res, nil
}

func (c *sqlConn) Exec(ctx context.Context, sqlText string) (*Result, error) {
	if c.pending != nil {
		c.pending.Close()
		c.pending = nil
	}
	r, err := c.conn.ExecContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	res.Affected, _ = r.RowsAffected()
	res.LastID, _ = r.LastInsertId()
	return res, nil
}

func (c *sqlConn) Prepare(ctx context.Context, sqlText string) (Stmt, error) {
	st, err := c.conn.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	return &sqlStmt{stmt: st}, nil
}

// sqlStmt adapts *sql.Stmt to the Stmt collaborator.
type sqlStmt struct {
	stmt *sql.Stmt
}

func (s *sqlStmt) Query(ctx context.Context, values ...any) (*Result, error) {
	rows, err := s.stmt.QueryContext(ctx, values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &Result{Fields: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	return res, rows.Err()
}

func (s *sqlStmt) Exec(ctx context.Context, values ...any) (*Result, error) {
	r, err := s.stmt.ExecContext(ctx, values...)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	res.Affected, _ = r.RowsAffected()
	res.LastID, _ = r.LastInsertId()
	return res, nil
}

func (s *sqlStmt) Free() error {
	return s.stmt.Close()
}
