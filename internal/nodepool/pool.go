// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package nodepool implements the two-tier node allocator (C1): a table
// of lock-guarded local shards backed by a mutex-guarded global overflow
// stack, so the hot enqueue/dequeue path avoids the runtime allocator.
//
// The original design assumes pthread-style thread-local storage with a
// destructor hook run on thread exit. Goroutines have neither: there is
// no processor-pinning API available to library code, and no notification
// when a goroutine that has been calling Allocate/Deallocate stops doing
// so. This package approximates thread affinity with a fixed table of
// shards (2×GOMAXPROCS rounded up to a power of 2 by default) selected by
// a cheap per-call hash of a stack
// address (grounded on the round-robin worker selection in
// Tahsin716-flock's pool.go and on the real per-P design of sync.Pool),
// and sidesteps the exit-hook problem entirely: a shard is never owned by
// a goroutine identity, only borrowed for the duration of one call, so
// there is nothing to drain when that goroutine eventually stops calling.
package nodepool

import (
	"runtime"
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// defaultBatch is the number of nodes moved between a shard and the
// global overflow stack on a refill or high-water eviction.
const defaultBatch = 128

// defaultCap is a single shard's capacity: Deallocate spills a batch to the
// global overflow stack once the shard holds more than defaultCap minus one
// batch of nodes.
const defaultCap = 4096

// Pool is a two-tier node allocator for *T. The zero value is not usable;
// construct with [New].
type Pool[T any] struct {
	shards    []shard[T]
	mask      uint64
	batch     int
	highWater int

	globalMu sync.Mutex
	global   []*T

	newFn    func() *T
	poisonFn func(p *T, poisoned bool)

	rawAllocs atomix.Uint64
}

type shard[T any] struct {
	_    pad
	lock atomix.Bool
	free []*T
}

type pad [64]byte

// Option configures a [Pool] at construction time.
type Option[T any] func(*Pool[T])

// WithShardCount overrides the number of local shards (rounded up to a
// power of 2, minimum 2). Defaults to 2×GOMAXPROCS.
func WithShardCount[T any](n int) Option[T] {
	return func(p *Pool[T]) { p.mask = uint64(roundToPow2(n) - 1) }
}

// WithBatch overrides how many nodes move between a shard and the global
// overflow stack on a refill or eviction.
func WithBatch[T any](batch int) Option[T] {
	return func(p *Pool[T]) { p.batch = batch }
}

// WithCapacity overrides a shard's capacity; a shard spills once it holds
// more than capacity minus one batch of nodes.
func WithCapacity[T any](cap int) Option[T] {
	return func(p *Pool[T]) { p.highWater = cap }
}

// WithPoison installs a hook that marks a node poisoned on Deallocate and
// unpoisoned on Allocate, for integration with a memory-error detector.
// Optional; nil by default.
func WithPoison[T any](fn func(p *T, poisoned bool)) Option[T] {
	return func(p *Pool[T]) { p.poisonFn = fn }
}

// New creates a node allocator. newFn is called to obtain raw storage
// when both tiers of the cache are empty; it must not itself call back
// into this pool.
func New[T any](newFn func() *T, opts ...Option[T]) *Pool[T] {
	p := &Pool[T]{
		newFn:     newFn,
		batch:     defaultBatch,
		highWater: defaultCap,
		mask:      uint64(roundToPow2(2*runtime.GOMAXPROCS(0)) - 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.shards = make([]shard[T], p.mask+1)
	return p
}

// Allocate returns a node, preferring the local shard, then the global
// overflow stack, then raw storage from newFn.
func (p *Pool[T]) Allocate() *T {
	sh := &p.shards[p.shardIndex()]
	if v, ok := sh.pop(); ok {
		p.unpoison(v)
		return v
	}
	p.refill(sh)
	if v, ok := sh.pop(); ok {
		p.unpoison(v)
		return v
	}
	p.rawAllocs.Add(1)
	return p.newFn()
}

// Deallocate returns a node to the local shard, spilling a batch to the
// global overflow stack once the shard holds more than its capacity minus
// one batch.
func (p *Pool[T]) Deallocate(v *T) {
	p.poison(v)
	sh := &p.shards[p.shardIndex()]
	sh.push(v)
	if sh.len() > p.highWater-p.batch {
		p.spill(sh)
	}
}

// RawAllocs reports how many times Allocate fell all the way through to
// newFn. Used to verify cache locality under a warm workload.
func (p *Pool[T]) RawAllocs() uint64 {
	return p.rawAllocs.Load()
}

func (p *Pool[T]) refill(sh *shard[T]) {
	p.globalMu.Lock()
	n := len(p.global)
	take := p.batch
	if take > n {
		take = n
	}
	if take > 0 {
		moved := p.global[n-take:]
		p.global = p.global[:n-take]
		p.globalMu.Unlock()
		sh.pushAll(moved)
		return
	}
	p.globalMu.Unlock()
}

func (p *Pool[T]) spill(sh *shard[T]) {
	moved := sh.popMany(p.batch)
	if len(moved) == 0 {
		return
	}
	p.globalMu.Lock()
	p.global = append(p.global, moved...)
	p.globalMu.Unlock()
}

func (p *Pool[T]) unpoison(v *T) {
	if p.poisonFn != nil {
		p.poisonFn(v, false)
	}
}

func (p *Pool[T]) poison(v *T) {
	if p.poisonFn != nil {
		p.poisonFn(v, true)
	}
}

// shardIndex picks a shard using a cheap hash of a stack address instead
// of a true thread-local id (Go exposes none to library code). The low 13
// bits of the address are dropped before hashing, so nearby frames of one
// goroutine's stack (an Allocate and a Deallocate made from the same
// caller, for instance) land on the same shard. This is a statistical
// tendency, not a guarantee — frames on either side of an 8 KiB boundary,
// or a stack moved by growth, can pick another shard — and safe because no
// correctness invariant in this package depends on shard stickiness.
func (p *Pool[T]) shardIndex() uint64 {
	var probe byte
	h := uint64(uintptr(unsafe.Pointer(&probe))) >> 13
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return h & p.mask
}

func (s *shard[T]) tryLock() bool { return s.lock.CompareAndSwapAcqRel(false, true) }
func (s *shard[T]) unlock()       { s.lock.StoreRelease(false) }

func (s *shard[T]) withLock(f func()) {
	var sw spin.Wait
	for !s.tryLock() {
		sw.Once()
	}
	f()
	s.unlock()
}

func (s *shard[T]) pop() (v *T, ok bool) {
	s.withLock(func() {
		n := len(s.free)
		if n == 0 {
			return
		}
		v, ok = s.free[n-1], true
		s.free = s.free[:n-1]
	})
	return
}

func (s *shard[T]) popMany(n int) (out []*T) {
	s.withLock(func() {
		have := len(s.free)
		if n > have {
			n = have
		}
		if n == 0 {
			return
		}
		out = make([]*T, n)
		copy(out, s.free[have-n:])
		s.free = s.free[:have-n]
	})
	return
}

func (s *shard[T]) push(v *T) {
	s.withLock(func() {
		s.free = append(s.free, v)
	})
}

func (s *shard[T]) pushAll(vs []*T) {
	s.withLock(func() {
		s.free = append(s.free, vs...)
	})
}

func (s *shard[T]) len() int {
	var n int
	s.withLock(func() { n = len(s.free) })
	return n
}

func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
