// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import "unsafe"

// Leak never frees a retired node. It exists to measure the queue's own
// throughput ceiling with reclamation cost removed entirely, and to show
// that recycling node addresses — not the queue protocol itself — is what
// causes ABA corruption (see [Immediate]).
type Leak struct{}

func (Leak) Enter() LeakSession { return LeakSession{} }
func (Leak) Quiescent()         {}

var _ Reclaimer[LeakSession] = Leak{}

// LeakSession is the per-call handle [Leak.Enter] returns.
type LeakSession struct{}

func (LeakSession) ProtectAt(int, unsafe.Pointer)  {}
func (LeakSession) Retire(unsafe.Pointer, Deleter) {}
func (LeakSession) Release()                       {}
