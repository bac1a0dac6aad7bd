// Package client binds the template pipeline and the schema subsystem to a
// live connection: query routing, result shaping, prepared statements,
// transactions, and the per-server reserved-word and schema caches.
package client

import (
	"context"
)

// Result is one raw result set from the wire. Multi-statement queries set
// HasMore; the next set is fetched with ReadResult.
type Result struct {
	Fields   []string
	Rows     [][]any
	HasMore  bool
	Affected int64
	LastID   int64
}

// Conn is the underlying connection collaborator. The core never opens
// sockets itself; pooling, auth and transport belong to the driver behind
// this interface. One operation is in flight per Conn at a time; the
// caller serializes access.
type Conn interface {
	Close() error
	// Use switches the current database.
	Use(ctx context.Context, db string) error
	// Esc escapes a string body for the engine.
	Esc(s string) string
	// Query runs a statement that returns rows.
	Query(ctx context.Context, sql string) (*Result, error)
	// ReadResult fetches the next result set of a multi-statement query.
	ReadResult(ctx context.Context) (*Result, error)
	// Exec runs a statement without reading rows.
	Exec(ctx context.Context, sql string) (*Result, error)
	// Prepare creates a server-side prepared statement.
	Prepare(ctx context.Context, sql string) (Stmt, error)
}

// Stmt is a server-side prepared statement handle.
type Stmt interface {
	Query(ctx context.Context, values ...any) (*Result, error)
	Exec(ctx context.Context, values ...any) (*Result, error)
	// Free releases the statement on the server. Required; rely on it
	// rather than finalizers.
	Free() error
}
