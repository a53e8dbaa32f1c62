// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// lockSpinLimit bounds the lock-free fast-path spin before Acquire falls
// back to the FIFO wait queue. A pool's critical sections are bounded by a
// free-list walk (spec §5's "suspension points"), so a short spin usually
// beats parking a goroutine when the lock is only briefly held.
const lockSpinLimit = 64

// poolLock is a binary, FIFO-fair mutual-exclusion primitive: the Go
// analog of spec §5's "semaphore with initial count 1, FIFO
// wait-ordering". It is grounded on the FIFO weighted-semaphore pattern
// (acquire queue of wake channels, head-first draining) used elsewhere in
// the example corpus for fair blocking acquisition, specialized here to
// weight 1 since a pool lock is never anything but mutual exclusion, and
// rewritten without context.Context since the reference has no
// cancellation: the lock wait is unbounded by design (spec §5).
//
// The zero value is an unlocked poolLock, ready to use.
type poolLock struct {
	state   atomic.Bool
	mu      sync.Mutex
	waiters []chan struct{}
}

// TryAcquire attempts to take the lock without blocking, reporting whether
// it succeeded. It never queues: a failed TryAcquire leaves the caller free
// to fall back to a polling strategy of its own.
func (l *poolLock) TryAcquire() bool {
	return l.state.CompareAndSwap(false, true)
}

// Acquire blocks until the lock is held, waking waiters in the order they
// queued. It first spins up to lockSpinLimit times against the lock-free
// fast path (mirroring bounded_pool.go's tryGet/tryPut retry shape) before
// parking on a wake channel.
func (l *poolLock) Acquire() {
	var sw spin.Wait
	for n := 0; n < lockSpinLimit; n++ {
		if l.TryAcquire() {
			return
		}
		sw.Once()
	}

	l.mu.Lock()
	if l.TryAcquire() {
		l.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()

	<-ch
	// Ownership was handed directly to us by Release; state is already true.
}

// Release releases the lock. If another goroutine is queued, ownership is
// handed directly to the oldest waiter (FIFO) without ever clearing state,
// so a newly arriving Acquire cannot jump the queue between Release and
// the waiter resuming.
func (l *poolLock) Release() {
	l.mu.Lock()
	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.mu.Unlock()
		close(next)
		return
	}
	l.state.Store(false)
	l.mu.Unlock()
}
