// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mpmcq provides an unbounded, lock-free, multi-producer
// multi-consumer FIFO queue with pluggable safe-memory-reclamation
// strategies.
//
// Unlike a ring buffer, the queue is an intrusive singly linked list
// (the Michael & Scott algorithm): it has no fixed capacity and Enqueue
// only fails once the queue is closed. The cost a ring buffer avoids —
// freeing a node while another thread may still hold a raw pointer into
// it — is paid explicitly here through a reclamation strategy selected
// at construction time.
//
// # Quick Start
//
//	q := mpmcq.NewHP[Event]()
//
//	go func() { // producer
//	    for ev := range events {
//	        if err := q.Enqueue(ev); err != nil {
//	            return // mpmcq.ErrClosed: queue was closed under us
//	        }
//	    }
//	}()
//
//	go func() { // consumer
//	    for {
//	        ev, err := q.TryDequeue()
//	        if err == nil {
//	            process(ev)
//	            continue
//	        }
//	        if mpmcq.IsClosed(err) {
//	            return
//	        }
//	        // mpmcq.IsEmpty(err): nothing to do right now, retry later
//	    }
//	}()
//
// # Reclamation Strategies
//
// [LockFreeQueue] is parameterized over a reclaimer type so the compiler
// monomorphizes a dedicated copy of the hot enqueue/dequeue path per
// strategy, instead of paying for a virtual dispatch on every call:
//
//	NewHP[T]()             - hazard pointers (package internal/reclaim, [reclaim.HP])
//	NewEBR[T]()            - epoch-based reclamation ([reclaim.EBR])
//	NewLeak[T]()           - never frees; throughput ceiling baseline
//	NewUnsafeImmediate[T]()- frees immediately; ABA demonstration only
//
// Hazard pointers bound worst-case unreclaimed memory tightly at the
// cost of a published store per pointer dereference. Epoch-based
// reclamation is cheaper on the fast path but needs every goroutine to
// call [LockFreeQueue.Quiescent] at a coarse interval, or a goroutine parked
// mid-operation can stall the global epoch and every other goroutine's
// reclamation along with it:
//
//	go func() {
//	    for {
//	        v, err := q.TryDequeue()
//	        if mpmcq.IsEmpty(err) {
//	            q.Quiescent() // nothing pinned right now; let EBR advance
//	            time.Sleep(idleInterval)
//	            continue
//	        }
//	        process(v)
//	    }
//	}()
//
// [NewLeak] and [NewUnsafeImmediate] are not for production use: Leak
// exhausts memory under sustained load, and the immediate-free strategy
// is a textbook ABA hazard. Both exist to make the case for the other
// two strategies measurable in this package's own tests.
//
// # Configuration
//
// Constructors take functional [Option] values, or use the fluent
// [Builder]:
//
//	q := mpmcq.NewHP[Event](mpmcq.WithBackoff(true), mpmcq.WithCapacityHint(4096))
//	q := mpmcq.BuildHP[Event](mpmcq.NewBuilder().Backoff().CapacityHint(4096))
//
// # Baseline
//
// [MutexQueue] implements the same surface with a single mutex and no
// reclamation concerns at all. The stress tests run the same scenarios
// against it; it is also a reasonable production choice when contention
// is low enough that lock-free complexity buys nothing.
//
// # Error Handling
//
// TryDequeue and Enqueue signal control flow, not failure, through two
// sentinels: [ErrEmpty], which is [code.hybscloud.com/iox]'s would-block
// sentinel for ecosystem consistency, and [ErrClosed], this package's own:
//
//	mpmcq.IsEmpty(err)      // TryDequeue found nothing; try again later
//	mpmcq.IsClosed(err)     // terminal: Close was called
//	mpmcq.IsNonFailure(err) // nil, IsEmpty, or IsClosed
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomics with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU-relaxation spin
// cycles in CAS retry loops, and [code.hybscloud.com/iox] for the shared
// would-block error sentinel.
package mpmcq
