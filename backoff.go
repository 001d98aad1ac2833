// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import (
	"runtime"
	"unsafe"

	"code.hybscloud.com/spin"
)

// backoffMax is the spin count above which a retrying goroutine stops
// doubling and yields to the scheduler instead.
const backoffMax = 1 << 10

// Backoff is the escalating CAS-retry delay (C2): a failed compare-and-swap
// spins for a jittered number of [spin.Wait] cycles, doubling the spin
// count on every further failure, until it crosses backoffMax, at which
// point it yields the goroutine and starts over. Disabled by default —
// a fresh retry loop runs at full speed until [Backoff.Enabled] is set,
// matching the queue's own default of backoff off.
type Backoff struct {
	Enabled bool

	n   uint32
	rng uint64
	sw  spin.Wait
}

// Pause executes one escalation step. A no-op when Enabled is false.
func (b *Backoff) Pause() {
	if !b.Enabled {
		return
	}
	if b.n == 0 {
		b.n = 1
	}
	if b.rng == 0 {
		b.rng = seedBackoffRNG()
	}
	if b.n > backoffMax {
		runtime.Gosched()
		b.n = 1
		return
	}
	jitter := b.xorshift() % uint64(b.n)
	for i := uint64(0); i < uint64(b.n)+jitter; i++ {
		b.sw.Once()
	}
	b.n *= 2
}

// Reset returns the escalation counter to its initial state, for reuse
// across an unrelated retry loop.
func (b *Backoff) Reset() {
	b.n = 0
}

func (b *Backoff) xorshift() uint64 {
	x := b.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	b.rng = x
	return x
}

// seedBackoffRNG derives a non-zero per-goroutine seed from a local stack
// address, avoiding a dependency on a time source for what is only a
// jitter source, not a security- or correctness-sensitive value.
func seedBackoffRNG() uint64 {
	var probe byte
	seed := uint64(uintptr(unsafe.Pointer(&probe)))
	seed ^= seed >> 21
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return seed
}
