// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq_test

import (
	"errors"
	"testing"

	"github.com/nodeforge/mpmcq"
)

// =============================================================================
// Basic Operations
// =============================================================================

func TestHPBasic(t *testing.T) {
	q := mpmcq.NewHP[int]()
	testBasicFIFO(t, q)
}

func TestEBRBasic(t *testing.T) {
	q := mpmcq.NewEBR[int]()
	testBasicFIFO(t, q)
}

func TestLeakBasic(t *testing.T) {
	q := mpmcq.NewLeak[int]()
	testBasicFIFO(t, q)
}

func TestMutexQueueBasic(t *testing.T) {
	q := mpmcq.NewMutexQueue[int]()
	testBasicFIFO(t, q)
}

func testBasicFIFO(t *testing.T, q mpmcq.Queue[int]) {
	t.Helper()

	if _, err := q.TryDequeue(); !mpmcq.IsEmpty(err) {
		t.Fatalf("TryDequeue on empty: got %v, want IsEmpty", err)
	}

	for i := range 8 {
		if err := q.Enqueue(i + 100); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	for i := range 8 {
		v, err := q.TryDequeue()
		if err != nil {
			t.Fatalf("TryDequeue(%d): %v", i, err)
		}
		if v != i+100 {
			t.Fatalf("TryDequeue(%d): got %d, want %d", i, v, i+100)
		}
	}

	if _, err := q.TryDequeue(); !mpmcq.IsEmpty(err) {
		t.Fatalf("TryDequeue on drained: got %v, want IsEmpty", err)
	}
}

// =============================================================================
// Close semantics
// =============================================================================

func TestCloseRejectsEnqueue(t *testing.T) {
	q := mpmcq.NewHP[int]()
	q.Close()
	if !q.IsClosed() {
		t.Fatal("IsClosed: got false after Close")
	}
	if err := q.Enqueue(1); !errors.Is(err, mpmcq.ErrClosed) {
		t.Fatalf("Enqueue after Close: got %v, want ErrClosed", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	q := mpmcq.NewHP[int]()
	q.Close()
	q.Close()
	if !q.IsClosed() {
		t.Fatal("IsClosed: got false after repeated Close")
	}
}

func TestCloseDrainsBeforeEmpty(t *testing.T) {
	q := mpmcq.NewHP[int]()
	for i := range 4 {
		if err := q.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	q.Close()

	for i := range 4 {
		v, err := q.TryDequeue()
		if err != nil {
			t.Fatalf("TryDequeue after Close, still queued: item %d: %v", i, err)
		}
		if v != i {
			t.Fatalf("TryDequeue after Close: got %d, want %d", v, i)
		}
	}

	if _, err := q.TryDequeue(); !errors.Is(err, mpmcq.ErrClosed) {
		t.Fatalf("TryDequeue on closed+drained: got %v, want ErrClosed", err)
	}
}

// =============================================================================
// Options
// =============================================================================

func TestWithBackoffDoesNotChangeObservableBehavior(t *testing.T) {
	q := mpmcq.NewHP[int](mpmcq.WithBackoff(true), mpmcq.WithCapacityHint(64))
	testBasicFIFO(t, q)
}

func TestBuilder(t *testing.T) {
	q := mpmcq.BuildHP[int](mpmcq.NewBuilder().Backoff().CapacityHint(32))
	testBasicFIFO(t, q)
}
