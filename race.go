// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package mpmcq

// RaceEnabled is true when the race detector is active.
// Used by tests to skip stress scenarios that the race detector cannot
// reason about: it tracks explicit synchronization primitives, not the
// happens-before relationships hazard pointers and epochs establish
// through plain atomic loads and stores on separate variables.
const RaceEnabled = true
