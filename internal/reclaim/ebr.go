// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import (
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// ebrRetireThreshold is the per-bucket size that triggers an attempted
// epoch advance.
const ebrRetireThreshold = 512

// ebrBuckets is fixed at 3: current / previous / safe-to-free.
const ebrBuckets = 3

type ebrRecord struct {
	_          pad
	localEpoch atomix.Uint64
	_          pad
	inCritical atomix.Bool
	_          pad
	acquired   atomix.Bool
	_          pad
	next       atomix.Pointer[ebrRecord]

	buckets [ebrBuckets][]retireRecord // owned exclusively by the current borrower
}

// EBR is the epoch-based reclaimer (C4). The zero value is not usable;
// construct with [NewEBR].
type EBR struct {
	epoch  atomix.Uint64
	head   atomix.Pointer[ebrRecord]
	scanMu sync.Mutex
}

var ebrOnce sync.Once
var ebrSingleton *EBR

// NewEBR returns the process-wide epoch-based-reclamation manager,
// constructing it on first call.
func NewEBR() *EBR {
	ebrOnce.Do(func() { ebrSingleton = &EBR{} })
	return ebrSingleton
}

func (m *EBR) acquire() *ebrRecord {
	for r := m.head.LoadAcquire(); r != nil; r = r.next.LoadAcquire() {
		if r.acquired.CompareAndSwapAcqRel(false, true) {
			return r
		}
	}
	r := &ebrRecord{}
	r.acquired.StoreRelaxed(true)
	for {
		head := m.head.LoadAcquire()
		r.next.StoreRelaxed(head)
		if m.head.CompareAndSwapAcqRel(head, r) {
			return r
		}
	}
}

// tryScan attempts to advance the global epoch by one. It gives up
// immediately (instead of blocking) if another thread already holds the
// coordination mutex, avoiding a convoy under contention.
func (m *EBR) tryScan() {
	if !m.scanMu.TryLock() {
		return
	}
	defer m.scanMu.Unlock()

	snapshot := m.epoch.LoadRelaxed()
	for r := m.head.LoadAcquire(); r != nil; r = r.next.LoadAcquire() {
		if r.inCritical.Load() && r.localEpoch.LoadRelaxed() != snapshot {
			return
		}
	}
	m.epoch.CompareAndSwapRelaxed(snapshot, snapshot+1)
}

// cleanup frees the bucket that is two epochs behind the current one —
// the bucket no thread still "in_critical" at the previous epoch could
// possibly be holding a pointer into, per the three-bucket argument in
// the design (§4.10).
func (m *EBR) cleanup(rec *ebrRecord) {
	safeIdx := (m.epoch.LoadRelaxed() + 1) % ebrBuckets
	bucket := rec.buckets[safeIdx]
	for _, rr := range bucket {
		rr.free(rr.ptr)
	}
	rec.buckets[safeIdx] = bucket[:0]
}

// Enter borrows a record and marks it active in the current epoch.
func (m *EBR) Enter() EBRSession {
	rec := m.acquire()
	rec.localEpoch.StoreRelaxed(m.epoch.LoadRelaxed())
	rec.inCritical.Store(true) // seq-cst: pairs with tryScan's seq-cst load
	return EBRSession{m: m, rec: rec}
}

// Quiescent refreshes the calling thread's epoch and nudges the global
// epoch forward. Required at a coarse interval on a hot consumer path for
// EBR to make progress in pure-producer / intermittent-consumer
// workloads; harmless to call more often.
func (m *EBR) Quiescent() {
	rec := m.acquire()
	rec.localEpoch.StoreRelaxed(m.epoch.LoadRelaxed())
	m.tryScan()
	m.cleanup(rec)
	rec.acquired.StoreRelease(false)
}

var _ Reclaimer[EBRSession] = (*EBR)(nil)

// EBRSession is the per-call handle [EBR.Enter] returns.
type EBRSession struct {
	m   *EBR
	rec *ebrRecord
}

func (EBRSession) ProtectAt(int, unsafe.Pointer) {} // EBR protects by epoch, not by slot

func (s EBRSession) Retire(p unsafe.Pointer, free Deleter) {
	idx := s.m.epoch.LoadRelaxed() % ebrBuckets
	s.rec.buckets[idx] = append(s.rec.buckets[idx], retireRecord{ptr: p, free: free})
	if len(s.rec.buckets[idx]) >= ebrRetireThreshold {
		s.m.tryScan()
		s.m.cleanup(s.rec)
	}
}

func (s EBRSession) Release() {
	s.rec.inCritical.StoreRelease(false)
	s.rec.acquired.StoreRelease(false)
}
