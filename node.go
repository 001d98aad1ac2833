// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import "code.hybscloud.com/atomix"

// node is one link in the queue. A node moves through exactly three
// phases — fresh (just allocated, unlinked), live (reachable from head),
// retired (unlinked, awaiting a safe free) — and never returns to an
// earlier phase: next is only ever set once, from nil to a real pointer.
type node[T any] struct {
	next  atomix.Pointer[node[T]]
	value T
}
