// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package memheap implements an intrusive boundary-tag heap allocator over
// a caller-supplied contiguous byte region, suitable for embedded and
// real-time systems where the OS does not provide a general-purpose heap.
//
// # Boundary-tag heap
//
// Every byte of a pool's region belongs to exactly one block: a small
// in-band header followed by a payload. Blocks form two intrusive doubly
// linked lists:
//
//   - the block list, all blocks in physical address order, terminated by
//     a zero-payload tailer sentinel that blocks forward coalescing past
//     the end of the region;
//   - the free list, every FREE block, anchored at a sentinel header kept
//     in the Pool descriptor rather than in the region.
//
// Allocation is first-fit over the free list with an eager split when the
// remainder is large enough to hold another block; freeing eagerly
// coalesces with both physical neighbors when they are FREE. Reallocation
// grows in place into a FREE right neighbor when there is room, and falls
// back to allocate-copy-free otherwise.
//
// # Handles instead of pointers
//
// Block links are stored as byte offsets into the pool's region, and a
// block's owning pool is stored as a small registry-assigned ID, not a raw
// Go pointer. Storing live pointers inside a plain []byte region is
// invisible to the garbage collector, since the backing array's type
// carries no pointer bitmap; offsets and IDs sidestep that hazard entirely.
//
// # Usage pattern
//
//	region := memheap.AlignedMem(64*1024, memheap.PageSize)
//	pool, err := memheap.Init("net-rx", region)
//	if err != nil {
//	    // region too small for even one block
//	}
//	ptr, err := pool.Alloc(256)
//	if err != nil {
//	    // out of memory
//	}
//	// use ptr...
//	_ = pool.Free(ptr)
//
// # Multiple pools
//
// Independent pools never share locks, lists, or region memory. The
// optional code.hybscloud.com/memheap/sysheap package layers a
// system-wide malloc/free/realloc facade across every pool registered
// with this package, trying the default pool first and falling back to
// every other registered pool in registry (pool-ID) order.
//
// # Concurrency
//
// Every mutating Pool method acquires a per-pool FIFO mutual-exclusion
// lock; distinct pools are fully independent and never block each other.
// The lock is never held across a call into caller code. A Pool must not
// be copied after Init.
//
// # Dependencies
//
// memheap depends on:
//   - iox: semantic error types (ErrWouldBlock) for the pool-ID registry
//   - spin: spin-wait primitives backing the lock's pre-queue fast path
package memheap
