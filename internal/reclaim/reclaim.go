// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reclaim implements the safe-memory-reclamation (SMR) strategies
// that let the queue core free retired nodes while concurrent readers may
// still hold raw pointers to them: hazard pointers, epoch-based
// reclamation, and two control strategies (leak, immediate-free).
//
// Each strategy is a capability set {Enter, ProtectAt, Retire, Quiescent}
// rather than a class hierarchy. Session is itself a type parameter the
// queue core carries alongside the reclaimer type, constrained by the
// Session interface below rather than stored as one: a field typed as an
// interface boxes whatever concrete value is assigned into it onto the
// heap (an interface header plus, for a multi-word value like HPSession or
// EBRSession, a pointer to a heap-allocated copy). A field typed as a
// constrained type parameter holds the concrete value directly, so the
// compiler monomorphizes one copy of the hot path — and the concrete
// ProtectAt/Retire/Release calls within it — per reclamation strategy,
// instead of allocating a Session per call and dispatching through a
// vtable on every enqueue/dequeue.
//
// Go goroutines have no OS-thread-local storage and no exit hook, unlike
// the pthread-style thread_local the algorithms were designed around. Each
// strategy here instead keeps a global, append-only registry of records
// with an "acquired" flag; Enter borrows a free record for the duration of
// a single call and Release returns it, exactly matching the hazard
// pointer design's own "records are never freed, inactive records are
// reused" rule — so there is no separate teardown path to leak through.
package reclaim

import "unsafe"

// Deleter returns a retired pointer to the node allocator. It must not
// block and must not retire or protect anything itself.
type Deleter = func(p unsafe.Pointer)

// Session is the per-call handle returned by Reclaimer.Enter. A queue
// operation borrows a Session, uses it for the duration of one
// Enqueue/TryDequeue call, and releases it before returning. It is a
// constraint, not a type a field is ever declared as: a Reclaimer's own
// Enter method returns a concrete type satisfying it.
type Session interface {
	// ProtectAt publishes p into hazard slot i. No-op for reclaimers that
	// do not use per-pointer hazard slots (EBR, Leak, Immediate).
	ProtectAt(slot int, p unsafe.Pointer)
	// Retire hands p to the reclaimer. free is called once it is provably
	// safe to reuse p's storage; it may be called synchronously, later,
	// or (Leak) never.
	Retire(p unsafe.Pointer, free Deleter)
	// Release ends the session, clearing any published hazards.
	Release()
}

// Reclaimer is the capability set a queue is parameterized over, generic
// in the concrete Session type its Enter method hands back.
type Reclaimer[S Session] interface {
	// Enter begins a session. Must be paired with a call to S.Release.
	Enter() S
	// Quiescent is an advisory checkpoint: the caller holds no
	// queue-derived pointers right now. EBR uses this to refresh the
	// calling thread's epoch and drive the global epoch forward; HP uses
	// it to run an early scan; Leak and Immediate ignore it.
	Quiescent()
}

// retireRecord pairs a retired pointer with its type-erased deleter, so
// the reclaimer can free nodes of any instantiated queue without knowing
// its element type.
type retireRecord struct {
	ptr  unsafe.Pointer
	free Deleter
}
