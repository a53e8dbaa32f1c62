// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !memtrace

package memheap

// blockHeader is the in-band block header, without the owner-tag debug
// field. Build with -tags memtrace to include it (see tag_memtrace.go).
//
// Fields mirror spec §3.1: magicFlag encodes the magic constant and the
// USED/FREE bit; poolID is the owning pool's registry handle (not a raw
// pointer, see doc.go); next/prev are block-list offsets; nextFree/prevFree
// are free-list offsets, meaningful only while the block is FREE.
type blockHeader struct {
	magicFlag uint32
	poolID    uint32
	next      uint32
	prev      uint32
	nextFree  uint32
	prevFree  uint32
}

// setTag is a no-op without -tags memtrace.
func (h *blockHeader) setTag(string) {}

// tag returns the empty string without -tags memtrace.
func (h *blockHeader) tag() string { return "" }
