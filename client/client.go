package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-sql-driver/mysql"

	"github.com/sqlpp-io/sqlpp/introspect"
	"github.com/sqlpp-io/sqlpp/quote"
	"github.com/sqlpp-io/sqlpp/schema"
	"github.com/sqlpp-io/sqlpp/template"
)

// Client is the command facade: it routes SQL through the template
// pipeline, executes it on one connection, shapes result sets, and keeps
// the per-server caches coherent across DDL.
type Client struct {
	conn   Conn
	db     *sql.DB
	engine string
	key    string

	quoter     *quote.Quoter
	env        *template.Env
	cache      *serverCache
	registries *schema.Registries
}

// Open connects to a MySQL-compatible server and builds a client around a
// single dedicated connection.
func Open(ctx context.Context, engine, dsn string) (*Client, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	c := New(newSQLConn(conn), engine, cfg.Addr)
	c.db = db
	return c, nil
}

// New builds a client over an existing connection collaborator. key is the
// server cache key (host:port); handles sharing a key share the
// reserved-word and schema caches.
func New(conn Conn, engine, key string) *Client {
	q := quote.New(engine)
	c := &Client{
		conn:   conn,
		engine: engine,
		key:    key,
		quoter: q,
		env:    template.Default(q),
		cache:  cacheFor(key),
	}
	if words := c.cache.Reserved(); words != nil {
		q.SetReserved(words)
	}
	return c
}

// Env exposes the client's template environment so callers can register
// macros and defines at startup.
func (c *Client) Env() *template.Env { return c.env }

// Quoter exposes the client's quoter.
func (c *Client) Quoter() *quote.Quoter { return c.quoter }

// SetRegistries installs the attribute overlay registries used by
// introspection.
func (c *Client) SetRegistries(r *schema.Registries) { c.registries = r }

// Key returns the server cache key.
func (c *Client) Key() string { return c.key }

// Close releases the connection.
func (c *Client) Close() error {
	err := c.conn.Close()
	if c.db != nil {
		if e := c.db.Close(); err == nil {
			err = e
		}
	}
	return err
}

// Use switches the current database.
func (c *Client) Use(ctx context.Context, db string) error {
	return c.wrap(c.conn.Use(ctx, db))
}

// ddlRe detects statements that change schema objects, at the start of the
// text or of any ;-separated statement.
var ddlRe = regexp.MustCompile(`(?is)(^|;)\s*(create|alter|drop|grant|revoke)\b`)

func isDDL(sqlText string) bool {
	return ddlRe.MatchString(sqlText)
}

// render runs the template pipeline unless the options disable parsing.
func (c *Client) render(sqlText string, opts *Options) (string, error) {
	if opts.NoParse {
		return sqlText, nil
	}
	if err := c.loadReserved(); err != nil {
		return "", err
	}
	pre, err := template.Preprocess(sqlText, opts.Params)
	if err != nil {
		return "", err
	}
	env := c.env.WithParams(opts.Params)
	env.Args = opts.Args
	res, err := env.Render(pre)
	if err != nil {
		return "", err
	}
	return res.SQL, nil
}

// loadReserved lazily loads the server's reserved-word list into the
// shared cache, falling back to the built-in table.
func (c *Client) loadReserved() error {
	if c.cache.Reserved() != nil {
		return nil
	}
	words := quote.DefaultReserved()
	if c.db != nil {
		ins, err := introspect.New(c.db, c.engine, c.registries)
		if err == nil {
			if live, err := ins.ReservedWords(context.Background()); err == nil && live != nil {
				words = quote.BuildReserved(live)
			}
		}
	}
	c.cache.SetReserved(words)
	c.quoter.SetReserved(words)
	return nil
}

// Query executes SQL and returns every result set, shaped per the
// options. Multi-statement queries return sets in statement order.
func (c *Client) Query(ctx context.Context, sqlText string, opts *Options) ([]*ResultSet, error) {
	opts = opts.orDefault()
	rendered, err := c.render(sqlText, opts)
	if err != nil {
		return nil, err
	}

	raw, err := c.conn.Query(ctx, rendered)
	if err != nil {
		return nil, c.wrap(err)
	}
	sets := []*Result{raw}
	for raw.HasMore {
		raw, err = c.conn.ReadResult(ctx)
		if err != nil {
			return nil, c.wrap(err)
		}
		sets = append(sets, raw)
	}

	if isDDL(rendered) {
		c.cache.Invalidate()
	}

	out := make([]*ResultSet, 0, len(sets))
	for _, set := range sets {
		shaped, err := c.shape(ctx, set, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, shaped)
	}
	return out, nil
}

// Exec executes SQL without reading rows and returns the affected-rows
// result.
func (c *Client) Exec(ctx context.Context, sqlText string, opts *Options) (*ResultSet, error) {
	opts = opts.orDefault()
	rendered, err := c.render(sqlText, opts)
	if err != nil {
		return nil, err
	}
	raw, err := c.conn.Exec(ctx, rendered)
	if err != nil {
		return nil, c.wrap(err)
	}
	if isDDL(rendered) {
		c.cache.Invalidate()
	}
	return &ResultSet{Affected: raw.Affected, LastID: raw.LastID}, nil
}

// FirstRow returns the first row of the first result set, or nil when the
// query matched nothing.
func (c *Client) FirstRow(ctx context.Context, sqlText string, opts *Options) (map[string]any, error) {
	sets, err := c.Query(ctx, sqlText, opts)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 || len(sets[0].Rows) == 0 {
		return nil, nil
	}
	return sets[0].Rows[0], nil
}

// EachRow invokes fn once per row of the first result set.
func (c *Client) EachRow(ctx context.Context, sqlText string, opts *Options, fn func(row map[string]any) error) error {
	sets, err := c.Query(ctx, sqlText, opts)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return nil
	}
	for _, row := range sets[0].Rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// EachRowVals invokes fn once per row with positional values.
func (c *Client) EachRowVals(ctx context.Context, sqlText string, opts *Options, fn func(vals []any) error) error {
	opts = opts.orDefault()
	compact := *opts
	compact.Compact = true
	sets, err := c.Query(ctx, sqlText, &compact)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return nil
	}
	for _, vals := range sets[0].Vals {
		if err := fn(vals); err != nil {
			return err
		}
	}
	return nil
}

// EachGroup invokes fn once per run of consecutive rows sharing a value in
// groupCol. Order the query by the group column for full grouping.
func (c *Client) EachGroup(ctx context.Context, sqlText, groupCol string, opts *Options, fn func(key any, rows []map[string]any) error) error {
	sets, err := c.Query(ctx, sqlText, opts)
	if err != nil {
		return err
	}
	if len(sets) == 0 || len(sets[0].Rows) == 0 {
		return nil
	}

	rows := sets[0].Rows
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) && rows[i][groupCol] == rows[start][groupCol] {
			continue
		}
		if err := fn(rows[start][groupCol], rows[start:i]); err != nil {
			return err
		}
		start = i
	}
	return nil
}

// shape converts one raw result set per the options.
func (c *Client) shape(ctx context.Context, raw *Result, opts *Options) (*ResultSet, error) {
	rs := &ResultSet{Affected: raw.Affected, LastID: raw.LastID}

	var defs *schema.Table
	if opts.GetTableDefs && opts.Table != "" {
		t, err := c.TableDef(ctx, opts.Table)
		if err != nil {
			return nil, err
		}
		defs = t
	}

	for _, name := range raw.Fields {
		f := &schema.Field{Col: name, Type: schema.TypeString}
		if defs != nil {
			if cf := defs.Field(name); cf != nil {
				f = cf.Clone()
			}
		}
		if attrs, ok := opts.FieldAttrs[name]; ok {
			if err := f.Apply(attrs); err != nil {
				return nil, err
			}
		}
		f.ColIndex = len(rs.Fields)
		rs.Fields = append(rs.Fields, f)
	}

	if opts.Compact {
		rs.Vals = raw.Rows
		return rs, nil
	}
	for _, vals := range raw.Rows {
		row := make(map[string]any, len(raw.Fields))
		for i, name := range raw.Fields {
			row[name] = vals[i]
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

// Atomic brackets fn in a transaction, committing on success and rolling
// back on error, panic or cancellation.
func (c *Client) Atomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, err = c.conn.Exec(ctx, "start transaction"); err != nil {
		return c.wrap(err)
	}
	defer func() {
		if p := recover(); p != nil {
			c.conn.Exec(ctx, "rollback")
			panic(p)
		}
		if err != nil {
			c.conn.Exec(ctx, "rollback")
			return
		}
		if _, cerr := c.conn.Exec(ctx, "commit"); cerr != nil {
			err = c.wrap(cerr)
		}
	}()
	return fn(ctx)
}

// Schema returns the server's schema snapshot, introspecting when the
// cache is cold. Any DDL through this client (or one sharing its server
// key) invalidates the cache, so the next call observes fresh state.
func (c *Client) Schema(ctx context.Context) (*schema.Schema, error) {
	if s := c.cache.Schema(); s != nil {
		return s, nil
	}
	if c.db == nil {
		return nil, errors.New("schema introspection requires a database-backed client")
	}
	ins, err := introspect.New(c.db, c.engine, c.registries)
	if err != nil {
		return nil, err
	}
	s, err := ins.Introspect(ctx)
	if err != nil {
		return nil, c.wrap(err)
	}
	c.cache.SetSchema(s)
	return s, nil
}

// TableDef returns one table's canonical descriptor by "schema.table" key.
func (c *Client) TableDef(ctx context.Context, key string) (*schema.Table, error) {
	s, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := s.Tables[key]
	if !ok {
		return nil, fmt.Errorf("unknown table %s", key)
	}
	return t, nil
}

// wrap converts driver errors into the surfaced taxonomy.
func (c *Client) wrap(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return classify(c.engine, int(me.Number), string(me.SQLState[:]), me.Message)
	}
	return err
}
