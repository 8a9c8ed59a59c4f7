// Package storage defines the connection contract every catalog backend implements.
//
// A Conn is scoped to one logical operation. Callers perform their writes and reads
// and then call exactly one of Commit or Abort. What that buys depends on the backend:
// the relational backend is fully atomic, the graph backend is atomic per host
// transaction, and the wide-column backend applies each write immediately, so an
// aborted multi-row operation can leave partial state behind.
package storage

import "context"

// Kind identifies a backend implementation.
type Kind string

const (
	KindRelational Kind = "relational"
	KindWideColumn Kind = "widecolumn"
	KindGraph      Kind = "graph"
)

// Row is one record keyed by column name. Values are strings; nil marks an absent optional column.
type Row map[string]any

// String returns the column value, or "" when it is absent.
func (r Row) String(col string) string {
	if p := r.StringPtr(col); p != nil {
		return *p
	}
	return ""
}

// StringPtr returns the column value, or nil when it is absent.
func (r Row) StringPtr(col string) *string {
	switch v := r[col].(type) {
	case string:
		return &v
	case *string:
		return v
	case []byte:
		s := string(v)
		return &s
	default:
		return nil
	}
}

// Conn is a connection scoped to a single operation.
type Conn interface {
	// Insert writes a new row; a row with the same key fails with already_exists.
	Insert(ctx context.Context, table *Table, row Row) error
	// Select returns rows whose columns equal every value in where, ordered by key.
	Select(ctx context.Context, table *Table, where Row) ([]Row, error)
	// Delete removes rows whose columns equal every value in where. Missing rows are not an error.
	Delete(ctx context.Context, table *Table, where Row) error
	// Lock serializes concurrent writers on the row with the given key until Commit or Abort.
	// Backends without row locks treat it as a no-op.
	Lock(ctx context.Context, table *Table, key Row) error
	// Reachable returns the ids reachable from versionID over link tables, including versionID itself.
	Reachable(ctx context.Context, versionID string) ([]string, error)
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// Backend hands out scoped connections. It is selected once at startup.
type Backend interface {
	Kind() Kind
	Begin(ctx context.Context) (Conn, error)
	// Migrate creates tables, constraints or the backing table idempotently.
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}
