// Package journal provides the begin_op/end_op transaction envelope that
// every mutating syscall wraps itself in. It models the log's behavior
// closely enough to exercise the discipline it requires: begin_op may
// block for log space, nested transactions on the same goroutine are
// forbidden, and end_op commits when the last in-flight op completes.
// The buffer cache and on-disk log format themselves are not modeled;
// this package only tracks the *bracket*, not the bytes.
package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/jacobsa/syncutil"
)

// Log is the kernel-wide write-ahead log handle. There is exactly one per
// running kernel image, shared by every process, mirroring the source's
// single global log struct.
type Log struct {
	mu syncutil.InvariantMutex

	// maxOutstanding caps how many concurrent transactions may be
	// in-flight before begin_op blocks, standing in for "log space".
	maxOutstanding int

	outstanding int // GUARDED_BY(mu)
	cond        *sync.Cond
}

// NewLog creates a log that admits up to maxOutstanding concurrent
// transactions before BeginOp blocks. A value <= 0 means unbounded.
func NewLog(maxOutstanding int) *Log {
	l := &Log{maxOutstanding: maxOutstanding}
	l.mu = syncutil.NewInvariantMutex(l.checkInvariants)
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *Log) checkInvariants() {
	if l.outstanding < 0 {
		panic(fmt.Sprintf("journal: negative outstanding count: %d", l.outstanding))
	}
}

type txnKeyType struct{}

var txnKey = txnKeyType{}

// BeginOp opens a transaction, blocking if the log has no free space, and
// returns a context tagged with the open transaction so EndOp (and a
// defensive check in a later BeginOp on the same call chain) can detect
// nesting. Nested transactions are forbidden; calling BeginOp again on an
// already-tagged context panics, since that can only happen through a
// programming error in the caller, not a runtime condition worth
// returning as an ordinary error.
func (l *Log) BeginOp(ctx context.Context) context.Context {
	if ctx.Value(txnKey) != nil {
		panic("journal: nested begin_op")
	}

	l.mu.Lock()
	for l.maxOutstanding > 0 && l.outstanding >= l.maxOutstanding {
		l.cond.Wait()
	}
	l.outstanding++
	l.mu.Unlock()

	return context.WithValue(ctx, txnKey, l)
}

// EndOp closes the transaction opened by BeginOp on this context. It is
// safe, and required, to call on every exit path including error paths. It
// commits (here: simply frees a log slot and wakes waiters) when the last
// in-flight transaction on this Log completes.
func (l *Log) EndOp(ctx context.Context) {
	v := ctx.Value(txnKey)
	if v == nil {
		panic("journal: end_op without a matching begin_op")
	}
	if v.(*Log) != l {
		panic("journal: end_op on the wrong log")
	}

	l.mu.Lock()
	l.outstanding--
	l.cond.Broadcast()
	l.mu.Unlock()
}

// InTxn reports whether ctx carries an open transaction on this log.
// Nothing in this module calls it; kernel/sysfile brackets its mutating
// paths with BeginOp/EndOp directly.
func (l *Log) InTxn(ctx context.Context) bool {
	v, _ := ctx.Value(txnKey).(*Log)
	return v == l
}
