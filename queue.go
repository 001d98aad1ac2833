// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import (
	"unsafe"

	"code.hybscloud.com/atomix"

	"github.com/nodeforge/mpmcq/internal/nodepool"
	"github.com/nodeforge/mpmcq/internal/reclaim"
)

// LockFreeQueue is an unbounded, intrusive-linked, multi-producer/multi-consumer
// FIFO, and the package's implementation of the [Queue] interface. It is
// parameterized over R, a concrete reclaimer type — [reclaim.HP],
// [reclaim.EBR], [reclaim.Leak], or [reclaim.Immediate] — and S, the
// concrete session type R.Enter returns, so the compiler monomorphizes one
// copy of Enqueue/TryDequeue per reclamation strategy instead of boxing a
// Session into an interface and dispatching through a vtable on every call.
// Construct with [New], or one of the [NewHP]/[NewEBR]/[NewLeak] convenience
// constructors.
//
// The zero value is not usable.
type LockFreeQueue[T any, S reclaim.Session, R reclaim.Reclaimer[S]] struct {
	_    pad
	head atomix.Pointer[node[T]]
	_    pad
	tail atomix.Pointer[node[T]]
	_    pad
	closed atomix.Bool
	_    pad

	reclaimer      R
	pool           *nodepool.Pool[node[T]]
	freeFn         reclaim.Deleter
	backoffEnabled bool
}

// New constructs a queue using reclaimer for safe memory reclamation. Most
// callers want [NewHP], [NewEBR], or [NewLeak] instead of calling New
// directly with a hand-built reclaimer.
func New[T any, S reclaim.Session, R reclaim.Reclaimer[S]](reclaimer R, opts ...Option) *LockFreeQueue[T, S, R] {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &LockFreeQueue[T, S, R]{reclaimer: reclaimer, backoffEnabled: cfg.backoff}
	var poolOpts []nodepool.Option[node[T]]
	if cfg.capacityHint > 0 {
		poolOpts = append(poolOpts, nodepool.WithCapacity[node[T]](cfg.capacityHint))
	}
	q.pool = nodepool.New[node[T]](func() *node[T] { return &node[T]{} }, poolOpts...)
	q.freeFn = func(p unsafe.Pointer) { q.pool.Deallocate((*node[T])(p)) }

	dummy := q.pool.Allocate()
	var zero T
	dummy.value = zero
	dummy.next.StoreRelaxed(nil)
	q.head.StoreRelaxed(dummy)
	q.tail.StoreRelaxed(dummy)
	return q
}

// NewHP constructs a queue reclaimed with the process-wide hazard-pointer
// manager.
func NewHP[T any](opts ...Option) *LockFreeQueue[T, reclaim.HPSession, *reclaim.HP] {
	return New[T, reclaim.HPSession, *reclaim.HP](reclaim.NewHP(), opts...)
}

// NewEBR constructs a queue reclaimed with the process-wide epoch-based
// reclamation manager. Consumers on an intermittent or pure-producer
// workload should call [LockFreeQueue.Quiescent] at a coarse interval so the
// global epoch is not stalled behind one idle goroutine.
func NewEBR[T any](opts ...Option) *LockFreeQueue[T, reclaim.EBRSession, *reclaim.EBR] {
	return New[T, reclaim.EBRSession, *reclaim.EBR](reclaim.NewEBR(), opts...)
}

// NewLeak constructs a queue that never frees a retired node. It exists to
// measure the queue protocol's own throughput ceiling with reclamation
// cost removed.
func NewLeak[T any](opts ...Option) *LockFreeQueue[T, reclaim.LeakSession, reclaim.Leak] {
	return New[T, reclaim.LeakSession, reclaim.Leak](reclaim.Leak{}, opts...)
}

// NewUnsafeImmediate constructs a queue that frees a retired node the
// instant it is retired, with no hazard or epoch protection at all. It
// exists only to demonstrate ABA corruption in a negative test; do not use
// it for anything else.
func NewUnsafeImmediate[T any](opts ...Option) *LockFreeQueue[T, reclaim.ImmediateSession, reclaim.Immediate] {
	return New[T, reclaim.ImmediateSession, reclaim.Immediate](reclaim.Immediate{}, opts...)
}

// Enqueue appends v. It returns [ErrClosed] if the queue has been closed;
// it never blocks and never returns any other error.
func (q *LockFreeQueue[T, S, R]) Enqueue(v T) error {
	n := q.pool.Allocate()
	n.value = v
	n.next.StoreRelaxed(nil)

	var bo Backoff
	bo.Enabled = q.backoffEnabled
	sess := q.reclaimer.Enter()
	defer sess.Release()

	for {
		t := q.tail.LoadAcquire()
		sess.ProtectAt(0, unsafe.Pointer(t))
		if q.tail.LoadAcquire() != t {
			continue
		}
		if q.closed.LoadAcquire() {
			q.pool.Deallocate(n)
			return ErrClosed
		}

		next := t.next.LoadAcquire()
		if next == nil {
			if t.next.CompareAndSwapAcqRel(nil, n) {
				q.tail.CompareAndSwapAcqRel(t, n)
				return nil
			}
		} else {
			// Another enqueuer linked a node but has not yet swung tail
			// onto it; help it along before retrying.
			q.tail.CompareAndSwapAcqRel(t, next)
		}
		bo.Pause()
	}
}

// TryDequeue removes and returns the oldest element. It returns [ErrEmpty]
// if the queue currently has no elements, or [ErrClosed] if the queue is
// closed and drained. It never blocks.
func (q *LockFreeQueue[T, S, R]) TryDequeue() (T, error) {
	var zero T
	var bo Backoff
	bo.Enabled = q.backoffEnabled
	sess := q.reclaimer.Enter()
	defer sess.Release()

	for {
		h := q.head.LoadAcquire()
		sess.ProtectAt(0, unsafe.Pointer(h))
		if q.head.LoadAcquire() != h {
			continue
		}

		t := q.tail.LoadAcquire()
		next := h.next.LoadAcquire()
		if next == nil {
			if q.closed.LoadAcquire() {
				return zero, ErrClosed
			}
			return zero, ErrEmpty
		}
		sess.ProtectAt(1, unsafe.Pointer(next))
		if q.head.LoadAcquire() != h {
			continue
		}

		if h == t {
			// Tail has fallen behind a real successor; help it catch up
			// before retrying the dequeue.
			q.tail.CompareAndSwapAcqRel(t, next)
			bo.Pause()
			continue
		}

		out := next.value
		if q.head.CompareAndSwapAcqRel(h, next) {
			sess.Retire(unsafe.Pointer(h), q.freeFn)
			return out, nil
		}
		bo.Pause()
	}
}

// Close marks the queue closed. Already-queued elements remain available
// to TryDequeue; Enqueue after Close returns [ErrClosed]. Close is
// idempotent and safe to call concurrently with any other method.
func (q *LockFreeQueue[T, S, R]) Close() {
	q.closed.StoreRelease(true)
}

// IsClosed reports whether Close has been called.
func (q *LockFreeQueue[T, S, R]) IsClosed() bool {
	return q.closed.LoadAcquire()
}

// Quiescent tells the reclaimer that the calling goroutine currently holds
// no pointer obtained from this queue. Required at a coarse interval by
// [reclaim.EBR] to bound memory use on an intermittent consumer; under
// [reclaim.HP] it runs an early scan; a no-op for Leak and Immediate.
func (q *LockFreeQueue[T, S, R]) Quiescent() {
	q.reclaimer.Quiescent()
}
