// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import (
	"testing"
	"unsafe"
)

// TestEBRQuiescentAdvancesEpochUnderSingleThread verifies that a lone
// thread calling Quiescent after every retire can still advance the global
// epoch: with only one registered record, tryScan never finds another
// thread still behind, so the epoch is free to move every time.
func TestEBRQuiescentAdvancesEpochUnderSingleThread(t *testing.T) {
	m := &EBR{}

	freed := 0
	free := func(unsafe.Pointer) { freed++ }

	const n = ebrRetireThreshold * 3
	objs := make([]int, n)
	for i := range objs {
		sess := m.Enter()
		sess.Retire(unsafe.Pointer(&objs[i]), free)
		sess.Release()
		m.Quiescent()
	}

	if freed == 0 {
		t.Fatal("expected EBR to have freed at least some retired objects under repeated Quiescent calls")
	}
}

// TestEBRAcquireReusesReleasedRecord verifies the registry never grows
// once a record has been returned, matching the "records are never freed,
// inactive records are reused" rule this package's records depend on in
// place of thread-exit destructors.
func TestEBRAcquireReusesReleasedRecord(t *testing.T) {
	m := &EBR{}

	sess := m.Enter()
	sess.Release()

	first := m.head.LoadAcquire()
	if first == nil {
		t.Fatal("expected a record to be registered after Enter")
	}

	sess2 := m.Enter()
	sess2.Release()

	if m.head.LoadAcquire() != first {
		t.Fatal("expected the second Enter to reuse the released record instead of allocating a new one")
	}
}

// TestEBRStalledReaderBlocksCleanupNotCorrectness verifies that a thread
// that never calls Release holds the epoch back — bounding how much can be
// freed, not corrupting what is freed. Retired objects behind the stalled
// reader's epoch stay in their bucket until it releases.
func TestEBRStalledReaderBlocksCleanupNotCorrectness(t *testing.T) {
	m := &EBR{}
	stalled := m.Enter() // never released during this test

	freed := 0
	free := func(unsafe.Pointer) { freed++ }

	objs := make([]int, ebrRetireThreshold*2)
	for i := range objs {
		sess := m.Enter()
		sess.Retire(unsafe.Pointer(&objs[i]), free)
		sess.Release()
	}
	m.Quiescent()

	if freed == ebrRetireThreshold*2 {
		t.Fatal("expected the stalled reader to prevent a full drain")
	}

	stalled.Release()
	m.Quiescent()
}
