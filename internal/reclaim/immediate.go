// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import "unsafe"

// Immediate frees a node the instant it is retired, with no hazard or
// epoch check at all. It is not a safe strategy — any thread still
// dereferencing the old head or tail when another thread recycles it hits
// an ABA: the node allocator hands the same address to a new enqueue
// before the stale reader is done with it.
//
// Immediate exists only as a negative test: running the linearizability
// stress scenario under it is expected to corrupt the observed count
// (see the ABA demonstration property in the design).
type Immediate struct{}

func (Immediate) Enter() ImmediateSession { return ImmediateSession{} }
func (Immediate) Quiescent()              {}

var _ Reclaimer[ImmediateSession] = Immediate{}

// ImmediateSession is the per-call handle [Immediate.Enter] returns.
type ImmediateSession struct{}

func (ImmediateSession) ProtectAt(int, unsafe.Pointer) {}
func (ImmediateSession) Retire(p unsafe.Pointer, free Deleter) {
	free(p)
}
func (ImmediateSession) Release() {}
