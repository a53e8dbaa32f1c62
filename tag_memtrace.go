// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build memtrace

package memheap

// ownerTagLen is the number of bytes reserved for the per-block debug
// owner tag, matching RT_NAME_MAX-ish conventions in the reference.
const ownerTagLen = 16

// blockHeader is the in-band block header, with the owner-tag debug field
// included. The reference implementation overlays this tag over the
// next_free/prev_free fields of a USED block, since those links are
// meaningless while the block is allocated. This module instead appends a
// dedicated field: reinterpreting the same bytes as either "two offsets"
// or "a byte array" depending on the USED flag is exactly the kind of
// unsafe-but-load-bearing trick spec §9 calls out, and the debug-only
// tag isn't worth the risk of getting that reinterpretation wrong. The
// memtrace build simply carries a few extra bytes per block instead.
type blockHeader struct {
	magicFlag uint32
	poolID    uint32
	next      uint32
	prev      uint32
	nextFree  uint32
	prevFree  uint32
	owner     [ownerTagLen]byte
}

// setTag records a short debug label for the block, truncated to
// ownerTagLen-1 bytes to leave room for an implicit terminator.
func (h *blockHeader) setTag(name string) {
	h.owner = [ownerTagLen]byte{}
	n := copy(h.owner[:ownerTagLen-1], name)
	_ = n
}

// tag returns the block's debug label.
func (h *blockHeader) tag() string {
	n := 0
	for n < len(h.owner) && h.owner[n] != 0 {
		n++
	}
	return string(h.owner[:n])
}
