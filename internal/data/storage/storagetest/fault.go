package storagetest

import (
	"context"
	"sync"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
)

// FaultBackend wraps a backend and injects failures into the connections it hands out.
// It also counts how every connection ended.
type FaultBackend struct {
	storage.Backend

	mu sync.Mutex
	// FailInsertOn makes every Insert into the named table fail.
	FailInsertOn string
	// FailCommit makes Commit fail after delegating the abort to the inner connection.
	FailCommit bool
	// FailBegin makes Begin fail.
	FailBegin bool

	Begins  int
	Commits int
	Aborts  int
}

func NewFaultBackend(inner storage.Backend) *FaultBackend {
	return &FaultBackend{Backend: inner}
}

func (f *FaultBackend) Begin(ctx context.Context) (storage.Conn, error) {
	f.mu.Lock()
	f.Begins++
	failBegin := f.FailBegin
	f.mu.Unlock()
	if failBegin {
		return nil, domain.Errorf(domain.CodeBackendFailure, "fault.Begin", "injected begin failure")
	}
	inner, err := f.Backend.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultConn{Conn: inner, parent: f}, nil
}

// Outstanding reports connections that were begun but never committed or aborted.
func (f *FaultBackend) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Begins - f.Commits - f.Aborts
}

type faultConn struct {
	storage.Conn
	parent *FaultBackend
}

func (c *faultConn) Insert(ctx context.Context, table *storage.Table, row storage.Row) error {
	c.parent.mu.Lock()
	fail := c.parent.FailInsertOn != "" && c.parent.FailInsertOn == table.Name
	c.parent.mu.Unlock()
	if fail {
		return domain.Errorf(domain.CodeBackendFailure, "fault.Insert", "injected insert failure on %s", table.Name)
	}
	return c.Conn.Insert(ctx, table, row)
}

func (c *faultConn) Commit(ctx context.Context) error {
	c.parent.mu.Lock()
	fail := c.parent.FailCommit
	c.parent.mu.Unlock()
	if fail {
		// the transaction is gone either way
		_ = c.Conn.Abort(ctx)
		c.parent.mu.Lock()
		c.parent.Aborts++
		c.parent.mu.Unlock()
		return domain.Errorf(domain.CodeBackendFailure, "fault.Commit", "injected commit failure")
	}
	err := c.Conn.Commit(ctx)
	c.parent.mu.Lock()
	c.parent.Commits++
	c.parent.mu.Unlock()
	return err
}

func (c *faultConn) Abort(ctx context.Context) error {
	err := c.Conn.Abort(ctx)
	c.parent.mu.Lock()
	c.parent.Aborts++
	c.parent.mu.Unlock()
	return err
}
