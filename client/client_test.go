package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlpp-io/sqlpp/schema"
)

// fakeConn records executed SQL and plays back canned result sets.
type fakeConn struct {
	executed []string
	results  []*Result
	prepared []*fakeStmt
	failWith error
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) Use(ctx context.Context, db string) error {
	f.executed = append(f.executed, "use "+db)
	return nil
}

func (f *fakeConn) Esc(s string) string { return s }

func (f *fakeConn) ReadResult(ctx context.Context) (*Result, error) {
	return f.pop()
}

func (f *fakeConn) Query(ctx context.Context, sql string) (*Result, error) {
	f.executed = append(f.executed, sql)
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.pop()
}

func (f *fakeConn) Exec(ctx context.Context, sql string) (*Result, error) {
	f.executed = append(f.executed, sql)
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &Result{Affected: 1}, nil
}

func (f *fakeConn) Prepare(ctx context.Context, sql string) (Stmt, error) {
	f.executed = append(f.executed, "prepare "+sql)
	st := &fakeStmt{sql: sql}
	f.prepared = append(f.prepared, st)
	return st, nil
}

func (f *fakeConn) pop() (*Result, error) {
	if len(f.results) == 0 {
		return &Result{}, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

type fakeStmt struct {
	sql   string
	calls [][]any
	freed bool
}

func (s *fakeStmt) Query(ctx context.Context, values ...any) (*Result, error) {
	s.calls = append(s.calls, values)
	return &Result{Fields: []string{"ok"}, Rows: [][]any{{int64(1)}}}, nil
}

func (s *fakeStmt) Exec(ctx context.Context, values ...any) (*Result, error) {
	s.calls = append(s.calls, values)
	return &Result{Affected: 1}, nil
}

func (s *fakeStmt) Free() error {
	s.freed = true
	return nil
}

func newTestClient(t *testing.T, key string) (*Client, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	c := New(conn, "mysql", key)
	return c, conn
}

func TestQueryRendersTemplates(t *testing.T) {
	c, conn := newTestClient(t, "t1:3306")
	conn.results = []*Result{{Fields: []string{"id", "name"}, Rows: [][]any{{int64(1), "ada"}}}}

	sets, err := c.Query(context.Background(), "SELECT * FROM users WHERE id=:id",
		&Options{Params: map[string]any{"id": 1}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE id=1", conn.executed[0])
	require.Len(t, sets, 1)
	require.Len(t, sets[0].Rows, 1)
	assert.Equal(t, "ada", sets[0].Rows[0]["name"])
}

func TestQueryNoParse(t *testing.T) {
	c, conn := newTestClient(t, "t2:3306")
	conn.results = []*Result{{}}

	_, err := c.Query(context.Background(), "SELECT ':not_a_param' -- raw", &Options{NoParse: true})
	require.NoError(t, err)
	assert.Equal(t, "SELECT ':not_a_param' -- raw", conn.executed[0])
}

func TestQueryCompact(t *testing.T) {
	c, conn := newTestClient(t, "t3:3306")
	conn.results = []*Result{{Fields: []string{"a", "b"}, Rows: [][]any{{int64(1), int64(2)}}}}

	sets, err := c.Query(context.Background(), "SELECT a, b FROM t", &Options{Compact: true})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Nil(t, sets[0].Rows)
	assert.Equal(t, [][]any{{int64(1), int64(2)}}, sets[0].Vals)
}

func TestQueryMultiResult(t *testing.T) {
	c, conn := newTestClient(t, "t4:3306")
	conn.results = []*Result{
		{Fields: []string{"a"}, Rows: [][]any{{int64(1)}}, HasMore: true},
		{Fields: []string{"b"}, Rows: [][]any{{int64(2)}}},
	}

	sets, err := c.Query(context.Background(), "SELECT 1; SELECT 2", &Options{NoParse: true})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, int64(1), sets[0].Rows[0]["a"])
	assert.Equal(t, int64(2), sets[1].Rows[0]["b"])
}

func TestFieldAttrsOverlay(t *testing.T) {
	c, conn := newTestClient(t, "t5:3306")
	conn.results = []*Result{{Fields: []string{"ts"}, Rows: [][]any{{int64(0)}}}}

	sets, err := c.Query(context.Background(), "SELECT ts FROM t", &Options{
		FieldAttrs: map[string]schema.Attrs{"ts": {"type": "date", "has_time": true}},
	})
	require.NoError(t, err)
	require.Len(t, sets[0].Fields, 1)
	assert.Equal(t, schema.TypeDate, sets[0].Fields[0].Type)
	assert.True(t, sets[0].Fields[0].HasTime)
}

func TestDDLInvalidatesSchemaCache(t *testing.T) {
	c, conn := newTestClient(t, "t6:3306")

	cached := schema.NewSchema("mysql")
	c.cache.SetSchema(cached)

	conn.results = []*Result{{}}
	_, err := c.Query(context.Background(), "SELECT 1 FROM t", &Options{NoParse: true})
	require.NoError(t, err)
	assert.Same(t, cached, c.cache.Schema(), "plain query must keep the cache")

	_, err = c.Exec(context.Background(), "alter table t add column x int", &Options{NoParse: true})
	require.NoError(t, err)
	assert.Nil(t, c.cache.Schema(), "DDL must invalidate the cache")
}

func TestDDLInvalidationSharedAcrossHandles(t *testing.T) {
	c1, _ := newTestClient(t, "shared:3306")
	c2, conn2 := newTestClient(t, "shared:3306")

	c1.cache.SetSchema(schema.NewSchema("mysql"))
	_, err := c2.Exec(context.Background(), "drop table old", &Options{NoParse: true})
	require.NoError(t, err)
	_ = conn2
	assert.Nil(t, c1.cache.Schema(), "handles sharing a server key share invalidation")
}

func TestIsDDL(t *testing.T) {
	assert.True(t, isDDL("create table t (a int)"))
	assert.True(t, isDDL("  ALTER TABLE t ADD x int"))
	assert.True(t, isDDL("select 1; drop table t"))
	assert.True(t, isDDL("GRANT ALL ON *.* TO x"))
	assert.False(t, isDDL("select * from created_things"))
	assert.False(t, isDDL("update t set created = 1"))
}

func TestAtomicCommitAndRollback(t *testing.T) {
	c, conn := newTestClient(t, "t7:3306")

	err := c.Atomic(context.Background(), func(ctx context.Context) error {
		_, err := c.Exec(ctx, "update t set x=1", &Options{NoParse: true})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"start transaction", "update t set x=1", "commit"}, conn.executed)

	conn.executed = nil
	boom := errors.New("boom")
	err = c.Atomic(context.Background(), func(ctx context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start transaction", "rollback"}, conn.executed)
}

func TestAtomicRollsBackOnPanic(t *testing.T) {
	c, conn := newTestClient(t, "t8:3306")

	assert.Panics(t, func() {
		_ = c.Atomic(context.Background(), func(ctx context.Context) error {
			panic("unexpected")
		})
	})
	assert.Equal(t, []string{"start transaction", "rollback"}, conn.executed)
}

func TestPrepareAndRebind(t *testing.T) {
	c, conn := newTestClient(t, "t9:3306")

	st, err := c.Prepare(context.Background(),
		"SELECT * FROM t WHERE a=:a AND b=:b AND a2=:a", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a=? AND b=? AND a2=?", st.SQL)

	_, err = st.Query(context.Background(), map[string]any{"a": 1, "b": "x"})
	require.NoError(t, err)
	require.Len(t, conn.prepared, 1)
	assert.Equal(t, []any{1, "x", 1}, conn.prepared[0].calls[0])

	// A missing parameter fails the call but leaves the statement usable.
	_, err = st.Query(context.Background(), map[string]any{"a": 1})
	require.Error(t, err)
	_, err = st.Query(context.Background(), map[string]any{"a": 2, "b": "y"})
	require.NoError(t, err)

	require.NoError(t, st.Free())
	assert.True(t, conn.prepared[0].freed)
}

func TestPreparePositionalRebind(t *testing.T) {
	c, conn := newTestClient(t, "t10:3306")

	st, err := c.Prepare(context.Background(), "INSERT INTO t (a, b) VALUES (?, ?)", nil)
	require.NoError(t, err)

	_, err = st.Exec(context.Background(), nil, "first", 2)
	require.NoError(t, err)
	assert.Equal(t, []any{"first", 2}, conn.prepared[0].calls[0])
}

func TestPrepareToBinHook(t *testing.T) {
	c, conn := newTestClient(t, "t11:3306")

	fields := map[string]*schema.Field{
		"ts": {Col: "ts", Type: schema.TypeDate, ToBin: func(v any) (any, error) {
			return fmt.Sprintf("from_unix:%v", v), nil
		}},
	}
	st, err := c.Prepare(context.Background(), "UPDATE t SET ts=:ts", &Options{Fields: fields})
	require.NoError(t, err)

	_, err = st.Exec(context.Background(), map[string]any{"ts": 42})
	require.NoError(t, err)
	assert.Equal(t, []any{"from_unix:42"}, conn.prepared[0].calls[0])
}

func TestEachRowAndGroup(t *testing.T) {
	c, conn := newTestClient(t, "t12:3306")
	conn.results = []*Result{{
		Fields: []string{"grp", "val"},
		Rows:   [][]any{{"a", int64(1)}, {"a", int64(2)}, {"b", int64(3)}},
	}}

	var groups []string
	var sizes []int
	err := c.EachGroup(context.Background(), "SELECT grp, val FROM t ORDER BY grp", "grp", &Options{NoParse: true},
		func(key any, rows []map[string]any) error {
			groups = append(groups, key.(string))
			sizes = append(sizes, len(rows))
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, groups)
	assert.Equal(t, []int{2, 1}, sizes)

	conn.results = []*Result{{Fields: []string{"v"}, Rows: [][]any{{int64(1)}, {int64(2)}}}}
	var vals []any
	err = c.EachRowVals(context.Background(), "SELECT v FROM t", &Options{NoParse: true}, func(row []any) error {
		vals = append(vals, row[0])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, vals)
}

func TestClassifyMySQLErrors(t *testing.T) {
	e := classify("mysql", 1062, "23000", "Duplicate entry 'x' for key 'users.uk_email'")
	assert.Equal(t, "uk", e.Code)
	assert.Equal(t, "users", e.Table)
	assert.Equal(t, "uk_email", e.Col)

	e = classify("mysql", 1062, "23000", "Duplicate entry '7' for key 'users.PRIMARY'")
	assert.Equal(t, "pk", e.Code)

	e = classify("mysql", 1048, "23000", "Column 'name' cannot be null")
	assert.Equal(t, "not_null", e.Code)
	assert.Equal(t, "name", e.Col)

	e = classify("mysql", 1364, "HY000", "Field 'email' doesn't have a default value")
	assert.Equal(t, "required", e.Code)
	assert.Equal(t, "email", e.Col)

	e = classify("mysql", 1452, "23000",
		"Cannot add or update a child row: a foreign key constraint fails (`shop`.`orders`, CONSTRAINT `fk_orders_user` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`))")
	assert.Equal(t, "fk", e.Code)
	assert.Equal(t, "user_id", e.FKCol)
	assert.Equal(t, "users", e.FKTable)
	assert.Equal(t, "orders", e.Table)

	// Unrecognized errnos keep the raw form.
	e = classify("mysql", 9999, "HY000", "strange")
	assert.Equal(t, "", e.Code)
	assert.Equal(t, 9999, e.SQLCode)
}
