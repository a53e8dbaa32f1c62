// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import "unsafe"

// Block header magic and flag encoding (spec: RT_MEMHEAP_MAGIC / USED / FREED).
const (
	headerMagic uint32 = 0x1ea01ea0
	magicMask   uint32 = 0xfffffffe
	usedFlag    uint32 = 0x01
	freedFlag   uint32 = 0x00
)

// Align is the compile-time payload/header alignment, in bytes. It must be
// a power of two no smaller than unsafe.Sizeof(uintptr(0)). This is a
// compile-time knob by design (spec §6); there is no runtime override.
const Align = 8

// MinPayload is the minimum payload size of any block. It must be large
// enough to hold a free block's list links, matching the reference
// implementation's RT_MEMHEAP_MINIALLOC.
const MinPayload = 16

// headerSize is H in spec terms: align_up(sizeof(blockHeader), Align).
// blockHeader itself is defined per build tag (tag_memtrace.go /
// tag_notrace.go) since the owner-tag debug field changes its size.
var headerSize = alignUp(uint32(unsafe.Sizeof(blockHeader{})), Align)

func alignUp(n, align uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}

// isUsed reports whether the USED bit is set in a magic-and-flag word.
func isUsed(magicFlag uint32) bool {
	return magicFlag&usedFlag == usedFlag
}

// magicOf strips the flag bit, yielding the bare magic for validation.
func magicOf(magicFlag uint32) uint32 {
	return magicFlag & magicMask
}

// headerAt returns the header living at byte offset off within region.
// The caller must ensure off+headerSize <= len(region).
func headerAt(region []byte, off uint32) *blockHeader {
	return (*blockHeader)(unsafe.Add(unsafe.Pointer(unsafe.SliceData(region)), off))
}

// payloadPointer returns the payload address for the header at off.
func payloadPointer(region []byte, off uint32) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(region)), off+headerSize)
}

// headerOffsetFromPayload recovers a header's offset from a payload pointer
// previously handed to a caller, given the region it was carved from.
func headerOffsetFromPayload(region []byte, payload unsafe.Pointer) uint32 {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(region)))
	return uint32(uintptr(payload)-base) - headerSize
}

// rawHeaderAtPointer reinterprets the headerSize bytes immediately before
// payload as a blockHeader, without requiring the caller to already know
// which region (and therefore which Pool) it belongs to. This is how Free
// recovers the owning pool ID before any Pool is in hand: pointer
// arithmetic on an unsafe.Pointer is valid regardless of which Go
// allocation backs it, as long as it stays within that allocation's bounds.
func rawHeaderAtPointer(payload unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Add(payload, -int(headerSize)))
}
