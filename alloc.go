// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import "unsafe"

// normalizeSize aligns a requested payload size up to Align and clamps it
// to MinPayload, matching RT_ALIGN(size, RT_ALIGN_SIZE) plus the
// RT_MEMHEAP_MINIALLOC floor in the reference allocator.
func normalizeSize(size int) uint32 {
	if size < 0 {
		size = 0
	}
	n := alignUp(uint32(size), Align)
	if n < MinPayload {
		n = MinPayload
	}
	return n
}

// subAvailable and addAvailable mutate the available-byte counter. Both are
// only ever called while the caller holds p.lock: the lock is the single
// writer, so a plain Load-modify-Store round trip is race-free even though
// the field is also read lock-free from AvailableSize and Alloc's
// early-reject check.
func (p *Pool) subAvailable(n uint32) {
	p.availableSize.Store(p.availableSize.Load() - n)
}

func (p *Pool) addAvailable(n uint32) {
	p.availableSize.Store(p.availableSize.Load() + n)
}

// Alloc carves a payload of at least size bytes out of the pool's free
// list and returns a pointer to it (spec §4.2).
//
// The early-reject check below reads availableSize without the pool lock,
// same as the reference implementation's lock-free fast path; it uses a
// strict less-than, so a request for exactly AvailableSize() bytes is
// rejected even though the free list may in fact satisfy it once headers
// are accounted for elsewhere. This is not "fixed": it is the reference's
// own behavior, preserved deliberately (see DESIGN.md).
func (p *Pool) Alloc(size int) (unsafe.Pointer, error) {
	n := normalizeSize(size)
	if n >= p.availableSize.Load() {
		return nil, ErrOutOfMemory
	}

	p.lock.Acquire()

	off := p.freeSentinel.nextFree
	var freeSize uint32
	for off != sentinelOffset {
		h := headerAt(p.region, off)
		freeSize = p.payloadSize(off, h)
		if freeSize >= n {
			break
		}
		off = h.nextFree
	}
	if off == sentinelOffset {
		p.lock.Release()
		return nil, ErrOutOfMemory
	}

	h := headerAt(p.region, off)
	if freeSize >= n+headerSize+MinPayload {
		// Split: carve a new free block out of the tail of this one.
		newOff := off + headerSize + n
		newH := headerAt(p.region, newOff)
		newH.magicFlag = headerMagic | freedFlag
		newH.poolID = p.id
		newH.setTag("")

		p.blockListSplice(off, h, newOff, newH)
		p.freeListRemove(h)
		p.freeListInsert(newOff, newH)

		p.subAvailable(n + headerSize)
	} else {
		// Whole block satisfies the request; hand over the entire
		// payload rather than carving a sliver too small to reuse.
		p.freeListRemove(h)
		p.subAvailable(freeSize)
	}
	p.bumpMaxUsed()

	h.magicFlag = headerMagic | usedFlag
	p.lock.Release()

	return payloadPointer(p.region, off), nil
}

// Free returns ptr's block to the pool, coalescing with either physical
// neighbor that is also free (spec §4.3). Freeing nil is a no-op.
//
// Free panics with ErrCorrupt if ptr's header, or its physical next
// neighbor's header, fails magic validation — the neighbor check is a
// sanity check against heap overrun, not just a self-check — and with
// ErrWrongPool if the block's recorded pool ID does not match p — all are
// precondition violations, not recoverable runtime conditions (spec §7).
func (p *Pool) Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}

	raw := rawHeaderAtPointer(ptr)
	if magicOf(raw.magicFlag) != headerMagic || !isUsed(raw.magicFlag) {
		panic(ErrCorrupt)
	}
	if raw.poolID != p.id {
		panic(ErrWrongPool)
	}
	if magicOf(headerAt(p.region, raw.next).magicFlag) != headerMagic {
		panic(ErrCorrupt)
	}

	off := headerOffsetFromPayload(p.region, ptr)

	p.lock.Acquire()

	h := headerAt(p.region, off)
	size := p.payloadSize(off, h)
	p.addAvailable(size)
	h.magicFlag = headerMagic | freedFlag

	freeOff, freeH := off, h
	insertHeader := true

	prevOff := h.prev
	prevH := headerAt(p.region, prevOff)
	if !isUsed(prevH.magicFlag) {
		p.addAvailable(headerSize)
		p.blockListUnsplice(off, h)
		freeOff, freeH = prevOff, prevH
		insertHeader = false
	}

	nextOff := freeH.next
	nextH := headerAt(p.region, nextOff)
	if !isUsed(nextH.magicFlag) {
		p.addAvailable(headerSize)
		p.freeListRemove(nextH)
		p.blockListUnsplice(nextOff, nextH)
	}

	if insertHeader {
		p.freeListInsert(freeOff, freeH)
	}
	freeH.setTag("")

	p.lock.Release()
	return nil
}

// Realloc resizes the block at ptr to size bytes, growing in place into a
// free right neighbor when possible, falling back to allocate-copy-free
// otherwise, and splitting off a trailing free block when shrinking enough
// to be worthwhile (spec §4.4).
//
// Realloc(nil, size) behaves like Alloc(size). Realloc(ptr, 0) frees ptr
// and returns (nil, nil).
func (p *Pool) Realloc(ptr unsafe.Pointer, size int) (unsafe.Pointer, error) {
	if size == 0 {
		_ = p.Free(ptr)
		return nil, nil
	}
	if ptr == nil {
		return p.Alloc(size)
	}

	raw := rawHeaderAtPointer(ptr)
	if magicOf(raw.magicFlag) != headerMagic || !isUsed(raw.magicFlag) {
		panic(ErrCorrupt)
	}
	if raw.poolID != p.id {
		panic(ErrWrongPool)
	}
	if magicOf(headerAt(p.region, raw.next).magicFlag) != headerMagic {
		panic(ErrCorrupt)
	}

	off := headerOffsetFromPayload(p.region, ptr)
	n := normalizeSize(size)

	// oldSize is read without the pool lock, mirroring the reference's own
	// unsynchronized read of MEMITEM_SIZE(header_ptr) at function entry:
	// the precondition is that no other goroutine frees or reallocs this
	// same block concurrently (spec §5).
	oldSize := p.payloadSize(off, headerAt(p.region, off))

	if n > oldSize {
		grown, ok := p.growInPlace(off, oldSize, n)
		if ok {
			return grown, nil
		}

		newPtr, err := p.Alloc(size)
		if err != nil {
			return nil, err
		}
		copySize := oldSize
		if n < copySize {
			copySize = n
		}
		src := unsafe.Slice((*byte)(ptr), copySize)
		dst := unsafe.Slice((*byte)(newPtr), copySize)
		copy(dst, src)
		_ = p.Free(ptr)
		return newPtr, nil
	}

	// Don't split when less than one block's worth of space would be
	// freed: the overhead of a new header isn't worth it.
	if n+headerSize+MinPayload > oldSize {
		return ptr, nil
	}

	p.lock.Acquire()
	h := headerAt(p.region, off)

	newOff := off + headerSize + n
	newH := headerAt(p.region, newOff)
	newH.magicFlag = headerMagic | freedFlag
	newH.poolID = p.id
	newH.setTag("")
	p.blockListSplice(off, h, newOff, newH)

	rightOff := newH.next
	rightH := headerAt(p.region, rightOff)
	if !isUsed(rightH.magicFlag) {
		p.subAvailable(p.payloadSize(rightOff, rightH))
		p.freeListRemove(rightH)
		p.blockListUnsplice(rightOff, rightH)
	}

	p.freeListInsert(newOff, newH)
	p.addAvailable(p.payloadSize(newOff, newH))

	p.lock.Release()
	return ptr, nil
}

// growInPlace attempts to extend the block at off into its free right
// neighbor without allocating a new block. It reports ok=false if the
// right neighbor is used or too small, in which case the caller must fall
// back to allocate-copy-free.
//
// The size comparison below is a strict greater-than, matching the
// reference's "nextsize + oldsize > newsize + RT_MEMHEAP_MINIALLOC"
// exactly: a neighbor that would leave precisely MinPayload bytes behind
// is treated as too small to grow into, even though MinPayload bytes is a
// legal free block. Preserved deliberately (see DESIGN.md).
func (p *Pool) growInPlace(off, oldSize, n uint32) (unsafe.Pointer, bool) {
	p.lock.Acquire()

	h := headerAt(p.region, off)
	nextOff := h.next
	nextH := headerAt(p.region, nextOff)
	if isUsed(nextH.magicFlag) {
		p.lock.Release()
		return nil, false
	}

	nextSize := p.payloadSize(nextOff, nextH)
	if nextSize+oldSize <= n+MinPayload {
		p.lock.Release()
		return nil, false
	}

	p.subAvailable(n - oldSize)
	p.bumpMaxUsed()

	p.freeListRemove(nextH)
	p.blockListUnsplice(nextOff, nextH)

	newOff := off + headerSize + n
	newH := headerAt(p.region, newOff)
	newH.magicFlag = headerMagic | freedFlag
	newH.poolID = p.id
	newH.setTag("")
	p.blockListSplice(off, h, newOff, newH)
	p.freeListInsert(newOff, newH)

	p.lock.Release()
	return payloadPointer(p.region, off), true
}
