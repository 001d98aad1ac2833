// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import "github.com/nodeforge/mpmcq/internal/reclaim"

// Options configures queue construction.
type Options struct {
	backoff      bool
	capacityHint int
}

func defaultOptions() Options {
	return Options{}
}

// Option configures a [Queue] at construction time. Pass zero or more to
// [New], [NewHP], [NewEBR], or [NewLeak].
type Option func(*Options)

// WithBackoff enables the escalating CAS-retry delay ([Backoff]) on the
// Enqueue/TryDequeue contention path. Off by default: a fresh retry loop
// runs at full speed, which is the better choice until profiling on the
// target workload shows CAS contention actually dominates.
func WithBackoff(enabled bool) Option {
	return func(o *Options) { o.backoff = enabled }
}

// WithCapacityHint records an expected steady-state element count. The
// core queue is unbounded and ignores this for admission control; the
// node allocator uses it as each shard's capacity, which sets how many
// freed nodes a shard keeps before spilling a batch to the shared
// overflow stack. Nothing is preallocated.
func WithCapacityHint(n int) Option {
	return func(o *Options) { o.capacityHint = n }
}

// Builder offers a fluent alternative to passing [Option] values directly,
// matching the configuration style of this package's bounded-queue
// predecessor.
//
// Example:
//
//	q := mpmcq.BuildHP[Event](mpmcq.NewBuilder().Backoff().CapacityHint(4096))
type Builder struct {
	opts []Option
}

// NewBuilder creates an empty queue builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Backoff enables the escalating CAS-retry delay.
func (b *Builder) Backoff() *Builder {
	b.opts = append(b.opts, WithBackoff(true))
	return b
}

// CapacityHint records an expected steady-state element count.
func (b *Builder) CapacityHint(n int) *Builder {
	b.opts = append(b.opts, WithCapacityHint(n))
	return b
}

// BuildHP builds a queue reclaimed with hazard pointers.
func BuildHP[T any](b *Builder) *LockFreeQueue[T, reclaim.HPSession, *reclaim.HP] {
	return NewHP[T](b.opts...)
}

// BuildEBR builds a queue reclaimed with epoch-based reclamation.
func BuildEBR[T any](b *Builder) *LockFreeQueue[T, reclaim.EBRSession, *reclaim.EBR] {
	return NewEBR[T](b.opts...)
}

// BuildLeak builds a queue that never frees a retired node.
func BuildLeak[T any](b *Builder) *LockFreeQueue[T, reclaim.LeakSession, reclaim.Leak] {
	return NewLeak[T](b.opts...)
}
