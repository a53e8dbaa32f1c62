// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import "errors"

// Sentinel errors, compared by value like iox.ErrWouldBlock (never wrapped
// across the allocator boundary).
var (
	// ErrOutOfMemory is returned by Alloc/Realloc when no free block large
	// enough to satisfy the request exists. Non-fatal: spec §7.
	ErrOutOfMemory = errors.New("memheap: out of memory")

	// ErrPoolTooSmall is returned by Init when region, rounded down to
	// Align, cannot hold 3*headerSize+MinPayload bytes (spec §4.1).
	ErrPoolTooSmall = errors.New("memheap: pool region too small")

	// ErrDetached is returned when an operation is attempted against a
	// pool ID no longer present in the registry (spec §5/§7's lock
	// acquisition failure analog).
	ErrDetached = errors.New("memheap: pool detached")

	// ErrRegistryFull is returned by Init when the pool-ID registry has no
	// free handles left (DefaultMaxPools reached).
	ErrRegistryFull = errors.New("memheap: pool registry full")

	// ErrCorrupt is the message panicked with when a block's magic fails
	// validation. Spec §7 treats corruption as a fatal programming error;
	// this is surfaced as a panic, not a returned error, so callers cannot
	// mistake it for something recoverable.
	ErrCorrupt = errors.New("memheap: corrupt block header")

	// ErrWrongPool is panicked with when Free is called on a *Pool that
	// does not own the block (spec §7's "freeing into the wrong pool").
	ErrWrongPool = errors.New("memheap: pointer belongs to a different pool")
)
