// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

// headerAtFree resolves an offset that may be sentinelOffset (the
// descriptor-embedded free-list sentinel) or a real region offset, into
// the blockHeader living there. All free-list traversal goes through this
// instead of headerAt so the sentinel never needs a real address.
func (p *Pool) headerAtFree(off uint32) *blockHeader {
	if off == sentinelOffset {
		return &p.freeSentinel
	}
	return headerAt(p.region, off)
}

// freeListInsert links the block at off (with header h) in at the head of
// the free list, immediately after the sentinel — spec §4.2 step 5 /
// §4.3 step 7: "insert at the head of the free list". Recently freed or
// split-off blocks are preferred by the next first-fit scan, trading exact
// best-fit for temporal locality.
func (p *Pool) freeListInsert(off uint32, h *blockHeader) {
	first := p.freeSentinel.nextFree
	h.nextFree = first
	h.prevFree = sentinelOffset
	p.headerAtFree(first).prevFree = off
	p.freeSentinel.nextFree = off
}

// freeListRemove splices the block with header h out of the free list. h's own free-list fields are left stale; callers either
// immediately overwrite them (split, used-marking) or don't care because
// the block is about to be re-linked elsewhere.
func (p *Pool) freeListRemove(h *blockHeader) {
	p.headerAtFree(h.nextFree).prevFree = h.prevFree
	p.headerAtFree(h.prevFree).nextFree = h.nextFree
}

// freeListLen walks the free list and counts its members. It is a
// diagnostic helper; neither the allocation paths nor Dump call it.
func (p *Pool) freeListLen() int {
	n := 0
	for cur := p.freeSentinel.nextFree; cur != sentinelOffset; {
		n++
		cur = p.headerAtFree(cur).nextFree
	}
	return n
}

// blockListSplice inserts a freshly carved block (newOff, newHdr) into the
// physical block list immediately after the block at prevOff (with header
// prevHdr), matching the repeated "break down the block list" sequence in
// rt_memheap_alloc/rt_memheap_realloc: newHdr takes prevHdr's old next,
// prevHdr's next becomes newOff, and the block that used to follow prevHdr
// has its prev corrected to point at newOff.
func (p *Pool) blockListSplice(prevOff uint32, prevHdr *blockHeader, newOff uint32, newHdr *blockHeader) {
	newHdr.prev = prevOff
	newHdr.next = prevHdr.next
	headerAt(p.region, prevHdr.next).prev = newOff
	prevHdr.next = newOff
}

// blockListUnsplice removes the block at off (header h) from the physical
// list, stitching its neighbors directly together. Used when coalescing
// removes a block entirely.
func (p *Pool) blockListUnsplice(off uint32, h *blockHeader) {
	headerAt(p.region, h.next).prev = h.prev
	headerAt(p.region, h.prev).next = h.next
}
