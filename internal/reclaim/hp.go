// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import (
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// hpSlots is K in the spec: the number of hazard slots a thread needs
// live at once. The Michael & Scott protocol never holds more than two
// (the current head/tail and the node immediately after it).
const hpSlots = 2

// hpRetireThreshold is the local retire-buffer size that triggers a scan.
const hpRetireThreshold = 128

type pad [64]byte

// hpRecord is one thread's hazard-pointer announcement. Cache-line
// separated so that one thread publishing a hazard does not bounce the
// cache line another thread uses to append its own retirements.
type hpRecord struct {
	_        pad
	hazards  [hpSlots]atomix.Pointer[byte]
	_        pad
	acquired atomix.Bool
	_        pad
	next     atomix.Pointer[hpRecord]

	retire []retireRecord // owned exclusively by the current borrower
}

// HP is the hazard-pointer reclaimer (C3). The zero value is not usable;
// construct with [NewHP].
type HP struct {
	head atomix.Pointer[hpRecord]
}

var hpOnce sync.Once
var hpSingleton *HP

// NewHP returns the process-wide hazard-pointer manager, constructing it
// on first call.
func NewHP() *HP {
	hpOnce.Do(func() { hpSingleton = &HP{} })
	return hpSingleton
}

// acquire finds a free record in the registry or appends a new one.
func (m *HP) acquire() *hpRecord {
	for r := m.head.LoadAcquire(); r != nil; r = r.next.LoadAcquire() {
		if r.acquired.CompareAndSwapAcqRel(false, true) {
			return r
		}
	}
	r := &hpRecord{}
	r.acquired.StoreRelaxed(true)
	for {
		head := m.head.LoadAcquire()
		r.next.StoreRelaxed(head)
		if m.head.CompareAndSwapAcqRel(head, r) {
			return r
		}
	}
}

// scan frees entries from rec's retire buffer that are not currently
// published as a hazard by any thread in the registry.
func (m *HP) scan(rec *hpRecord) {
	hazardous := make(map[unsafe.Pointer]struct{}, hpRetireThreshold)
	for r := m.head.LoadAcquire(); r != nil; r = r.next.LoadAcquire() {
		for i := range r.hazards {
			if p := unsafe.Pointer(r.hazards[i].Load()); p != nil {
				hazardous[p] = struct{}{}
			}
		}
	}
	kept := rec.retire[:0]
	for _, rr := range rec.retire {
		if _, stillHazardous := hazardous[rr.ptr]; stillHazardous {
			kept = append(kept, rr)
		} else {
			rr.free(rr.ptr)
		}
	}
	rec.retire = kept
}

// Enter borrows a record from the registry for one queue operation.
func (m *HP) Enter() HPSession {
	return HPSession{m: m, rec: m.acquire()}
}

// Quiescent drains whatever local retirees a borrowed-then-returned
// record is still holding. HP does not require periodic calls to make
// progress — retire() already scans once its buffer crosses the
// threshold — but a caller may use this to force an early scan.
func (m *HP) Quiescent() {
	rec := m.acquire()
	m.scan(rec)
	rec.acquired.StoreRelease(false)
}

var _ Reclaimer[HPSession] = (*HP)(nil)

// HPSession is the per-call handle [HP.Enter] returns.
type HPSession struct {
	m   *HP
	rec *hpRecord
}

func (s HPSession) ProtectAt(slot int, p unsafe.Pointer) {
	s.rec.hazards[slot].Store((*byte)(p))
}

func (s HPSession) Retire(p unsafe.Pointer, free Deleter) {
	s.rec.retire = append(s.rec.retire, retireRecord{ptr: p, free: free})
	if len(s.rec.retire) >= hpRetireThreshold {
		s.m.scan(s.rec)
	}
}

func (s HPSession) Release() {
	for i := range s.rec.hazards {
		s.rec.hazards[i].Store(nil)
	}
	s.rec.acquired.StoreRelease(false)
}
