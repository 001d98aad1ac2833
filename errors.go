// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrEmpty indicates that TryDequeue observed no item.
//
// ErrEmpty is a control flow signal, not a failure: the queue may be
// non-empty again by the time the caller retries. It is an alias for
// [iox.ErrWouldBlock] for ecosystem consistency with the rest of the
// code.hybscloud.com queue family.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := q.TryDequeue()
//	    if err == nil {
//	        backoff.Reset()
//	        process(v)
//	        continue
//	    }
//	    if mpmcq.IsEmpty(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    if mpmcq.IsClosed(err) {
//	        break // closed and fully drained
//	    }
//	    panic(err) // unreachable: TryDequeue has no other failure mode
//	}
var ErrEmpty = iox.ErrWouldBlock

// ErrClosed indicates that Enqueue was rejected because the queue was
// already closed, or that TryDequeue found a closed queue with no items
// left. Unlike ErrEmpty, ErrClosed is terminal: retrying will
// not help, since Close is sticky (§ Close semantics).
var ErrClosed = errors.New("mpmcq: queue is closed")

// IsEmpty reports whether err indicates TryDequeue found nothing to return.
// Delegates to [iox.IsWouldBlock] for wrapped-error support.
func IsEmpty(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsClosed reports whether err is [ErrClosed] (directly or wrapped).
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsNonFailure reports whether err represents a non-failure condition:
// nil, ErrEmpty, or ErrClosed. Both are ordinary, expected control-flow
// outcomes a caller loop is expected to branch on, not errors to log.
func IsNonFailure(err error) bool {
	return err == nil || iox.IsNonFailure(err) || IsClosed(err)
}
