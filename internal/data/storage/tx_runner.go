package storage

import (
	"context"
	"time"

	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

// Transaction outcomes reported to a TxObserver.
const (
	OutcomeCommit      = "commit"
	OutcomeAbort       = "abort"
	OutcomeBeginError  = "begin_error"
	OutcomeCommitError = "commit_error"
)

// TxObserver receives one call per finished transaction.
type TxObserver func(kind Kind, outcome string, elapsed time.Duration)

// TxRunner provides the shared connection boundary for catalog operations.
type TxRunner interface {
	InTx(ctx context.Context, fn func(conn Conn) error) error
	Backend() Backend
}

type backendTxRunner struct {
	backend  Backend
	log      *logger.Logger
	observer TxObserver
}

// NewTxRunner returns a runner that scopes one connection of b to each call.
func NewTxRunner(b Backend, log *logger.Logger, observer TxObserver) TxRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &backendTxRunner{
		backend:  b,
		log:      log.With("component", "TxRunner", "backend", string(b.Kind())),
		observer: observer,
	}
}

func (r *backendTxRunner) Backend() Backend { return r.backend }

// InTx commits when fn succeeds and aborts when it fails or panics, never both.
// The error returned by fn is surfaced unchanged.
func (r *backendTxRunner) InTx(ctx context.Context, fn func(conn Conn) error) error {
	start := time.Now()
	conn, err := r.backend.Begin(ctx)
	if err != nil {
		r.observe(OutcomeBeginError, start)
		return domain.Wrap(domain.CodeBackendFailure, "storage.Begin", err)
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		p := recover()
		r.abort(ctx, conn, nil)
		r.observe(OutcomeAbort, start)
		if p != nil {
			panic(p)
		}
	}()

	if fnErr := fn(conn); fnErr != nil {
		finished = true
		r.abort(ctx, conn, fnErr)
		r.observe(OutcomeAbort, start)
		return fnErr
	}

	finished = true
	if commitErr := conn.Commit(ctx); commitErr != nil {
		r.observe(OutcomeCommitError, start)
		return domain.Wrap(domain.CodeBackendFailure, "storage.Commit", commitErr)
	}
	r.observe(OutcomeCommit, start)
	return nil
}

func (r *backendTxRunner) abort(ctx context.Context, conn Conn, cause error) {
	if err := conn.Abort(ctx); err != nil {
		r.log.Warn("abort failed", "error", err, "cause", cause)
	}
}

func (r *backendTxRunner) observe(outcome string, start time.Time) {
	if r.observer != nil {
		r.observer(r.backend.Kind(), outcome, time.Since(start))
	}
}
