// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import (
	"math"
	"sync/atomic"
)

// sentinelOffset is a reserved offset value meaning "the pool descriptor's
// embedded free-list sentinel", never a real region offset. The reference
// implementation's free-list sentinel is a real struct with a real address
// living inside the pool descriptor (spec §3.2/§3.3); since our descriptor
// is a plain Go value and not part of the byte region the rest of the
// header links are offsets into, the sentinel needs a reserved marker
// instead of a reachable offset.
const sentinelOffset uint32 = math.MaxUint32

// Pool is a single contiguous managed memory region with its own block
// list, free list, counters, and lock. A Pool must not be copied after
// Init; all mutating methods take the pool lock internally.
type Pool struct {
	_ noCopy

	name   string
	id     uint32
	region []byte

	poolSize uint32

	// availableSize and maxUsedSize are atomic so the early-reject check in
	// Alloc (spec §4.2 step 1) can read availableSize without taking the
	// pool lock, matching the reference's lock-free fast-path read, while
	// still being race-free under the Go memory model.
	availableSize atomic.Uint32
	maxUsedSize   atomic.Uint32

	freeSentinel blockHeader // embedded, never part of region
	blockListOff uint32      // offset of the first physical block
	tailerOff    uint32      // offset of the tailer sentinel

	lock poolLock
}

// Init builds the initial block topology inside region: a header sentinel
// held in the descriptor, one big free block spanning region, and a
// tailer sentinel bounding forward coalescing, then registers the pool
// and assigns it a handle (spec §4.1).
//
// Init fails if region is too small to hold even one block plus the
// tailer, matching spec §4.1's precondition "size >= 3*H + minimum
// payload" — the reference leaves violating this undefined; this module
// rejects it explicitly with ErrPoolTooSmall.
func Init(name string, region []byte) (*Pool, error) {
	poolSize := alignDown(uint32(len(region)), Align)
	if poolSize < 3*headerSize+MinPayload {
		return nil, ErrPoolTooSmall
	}

	id, err := acquirePoolID()
	if err != nil {
		return nil, err
	}

	p := &Pool{
		name:     name,
		id:       id,
		region:   region[:poolSize],
		poolSize: poolSize,
	}

	// Free-list sentinel: FREE, self-referential, never inserted as a
	// region offset on either side of itself.
	p.freeSentinel.magicFlag = headerMagic | freedFlag
	p.freeSentinel.nextFree = sentinelOffset
	p.freeSentinel.prevFree = sentinelOffset

	available := poolSize - 2*headerSize
	bigOff := uint32(0)
	tailerOff := bigOff + headerSize + available

	big := headerAt(p.region, bigOff)
	big.magicFlag = headerMagic | freedFlag
	big.poolID = id
	big.next = tailerOff
	big.prev = tailerOff // block list is circular: first block's prev is the tailer
	big.setTag("")

	tailer := headerAt(p.region, tailerOff)
	tailer.magicFlag = headerMagic | usedFlag
	tailer.poolID = id
	tailer.next = bigOff
	tailer.prev = bigOff
	tailer.nextFree = 0
	tailer.prevFree = 0

	p.blockListOff = bigOff
	p.tailerOff = tailerOff
	p.availableSize.Store(available)
	p.maxUsedSize.Store(poolSize - available)

	p.freeListInsert(bigOff, big)

	registerPool(id, p)

	return p, nil
}

// Detach releases the pool's registry handle so it can be reused by a
// later Init call. It does not unmap or zero region: the underlying
// memory remains owned by whoever passed it to Init (spec §3.4).
//
// Detach must not be called concurrently with any other operation on the
// pool; doing so is a precondition violation, not a recoverable error
// (spec §5's reentrancy assumption).
func (p *Pool) Detach() error {
	unregisterPool(p.id)
	releasePoolID(p.id)
	return nil
}

// Name returns the name the pool was initialized with.
func (p *Pool) Name() string { return p.name }

// AvailableSize returns the current free byte count (spec I6). It reads the
// atomic counter directly, the same lock-free fast path Alloc's early-reject
// check uses, rather than taking the pool lock.
func (p *Pool) AvailableSize() int {
	return int(p.availableSize.Load())
}

// Size returns the pool's total usable size (region size rounded down to
// Align), excluding nothing — this is the same pool_size spec §3.2 tracks.
func (p *Pool) Size() int {
	return int(p.poolSize)
}

// MaxUsedSize returns the high-water mark of pool_size - available_size
// (spec I5).
func (p *Pool) MaxUsedSize() int {
	return int(p.maxUsedSize.Load())
}

func alignDown(n, align uint32) uint32 {
	return n &^ (align - 1)
}

// bumpMaxUsed raises maxUsedSize to pool_size - available_size if that is a
// new high (spec I5). Called under the pool lock after Alloc and an in-place
// Realloc grow lower availableSize; Free and a shrinking Realloc only raise
// availableSize and do not call it.
func (p *Pool) bumpMaxUsed() {
	used := p.poolSize - p.availableSize.Load()
	for {
		cur := p.maxUsedSize.Load()
		if used <= cur {
			return
		}
		if p.maxUsedSize.CompareAndSwap(cur, used) {
			return
		}
	}
}

// payloadSize returns the payload capacity of the block at off, using its
// header's next-block offset. This must never be called on the tailer:
// the tailer's next wraps back to the first block and would yield a
// meaningless (and likely huge, due to uint32 wraparound) result. Callers
// detect the tailer by comparing the offset against p.tailerOff instead of
// relying on this arithmetic, exactly as spec §3.3 describes.
func (p *Pool) payloadSize(off uint32, h *blockHeader) uint32 {
	return h.next - off - headerSize
}
