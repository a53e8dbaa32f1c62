// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import (
	"unsafe"

	"code.hybscloud.com/memheap/internal"
)

// AlignedMem returns a byte slice with the specified size
// and starting address aligned to the memory page size.
//
// This is useful for pool regions that benefit from page-aligned base
// addresses, e.g. when the region will later be passed to mmap/mprotect
// or DMA-facing code outside this package.
//
// The returned slice shares underlying memory with a larger allocation;
// do not assume len(result) == cap(result).
func AlignedMem(size int, pageSize uintptr) []byte {
	p := make([]byte, uintptr(size)+pageSize-1)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+pageSize-1)/pageSize)*pageSize - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}

// AlignedMemBlocks returns n page-aligned byte slices, each of length pageSize.
//
// All returned slices share a single contiguous underlying allocation,
// which is more memory-efficient than calling AlignedMem n times.
//
// Panics if n < 1.
func AlignedMemBlocks(n int, pageSize uintptr) (blocks [][]byte) {
	if n < 1 {
		panic("bad block num")
	}
	blocks = make([][]byte, n)
	p := make([]byte, int(pageSize)*(n+1))
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+pageSize-1)/pageSize)*pageSize - uintptr(base)
	for i := range n {
		blocks[i] = unsafe.Slice((*byte)(unsafe.Add(base, offset+uintptr(i)*pageSize)), pageSize)
	}
	return
}

// AlignedMemBlock returns a single page-aligned block using the system page size.
//
// This is a convenience function equivalent to AlignedMemBlocks(1, PageSize)[0].
func AlignedMemBlock() []byte {
	return AlignedMemBlocks(1, PageSize)[0]
}

// CacheLineSize is the CPU L1 cache line size for the current architecture.
// This is detected at compile time based on the target architecture:
//   - amd64: 64 bytes (Intel/AMD)
//   - arm64: 128 bytes (conservative for Apple Silicon)
//   - riscv64: 64 bytes
//   - loong64: 64 bytes
//   - others: 64 bytes (default)
const CacheLineSize = internal.CacheLineSize

// CacheLineAlignedMem returns a byte slice with the specified size
// and starting address aligned to the CPU cache line size.
// This is useful for preventing false sharing in concurrent data structures,
// and for keeping a pool's block-header arithmetic free of cross-line tearing
// on the first header.
func CacheLineAlignedMem(size int) []byte {
	align := uintptr(CacheLineSize)
	p := make([]byte, uintptr(size)+align-1)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}

// CacheLineAlignedMemBlocks returns n cache-line-aligned byte slices,
// each of length blockSize. Adjacent blocks are separated by cache line
// boundaries to prevent false sharing.
func CacheLineAlignedMemBlocks(n int, blockSize int) (blocks [][]byte) {
	if n < 1 {
		panic("bad block num")
	}
	align := uintptr(CacheLineSize)
	// Round up block size to cache line boundary
	alignedBlockSize := ((uintptr(blockSize) + align - 1) / align) * align
	totalSize := int(alignedBlockSize)*n + int(align) - 1
	p := make([]byte, totalSize)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	blocks = make([][]byte, n)
	for i := range n {
		blocks[i] = unsafe.Slice((*byte)(unsafe.Add(base, offset+uintptr(i)*alignedBlockSize)), blockSize)
	}
	return
}

// NewBuffers creates a Buffers slice containing n byte slices, each of length size.
//
// Returns an empty Buffers if n < 1. Each inner slice is independently allocated;
// for contiguous memory, use AlignedMemBlocks instead.
func NewBuffers(n int, size int) Buffers {
	if n < 1 {
		return Buffers{}
	}
	ret := make(Buffers, n)
	for i := range n {
		if size > 0 {
			ret[i] = make([]byte, size)
		} else {
			ret[i] = []byte{}
		}
	}

	return ret
}

// Pool region size presets follow a power-of-4-ish progression, same idea as
// the tiered buffer sizes this module's region helpers were adapted from,
// just rescaled: a pool needs room for at least one block header plus the
// tailer plus MinPayload (see Init), so the smallest preset starts well
// above a bare buffer's minimum tier.
const (
	PoolSizePico   = 1 << 12 // 4 KiB   - scratch pools, unit tests
	PoolSizeNano   = 1 << 14 // 16 KiB  - small task-local pools
	PoolSizeMicro  = 1 << 16 // 64 KiB  - protocol session state
	PoolSizeSmall  = 1 << 18 // 256 KiB - per-connection pools
	PoolSizeMedium = 1 << 20 // 1 MiB   - per-worker pools
	PoolSizeBig    = 1 << 22 // 4 MiB   - subsystem pools
	PoolSizeLarge  = 1 << 24 // 16 MiB  - component-wide pools
	PoolSizeGreat  = 1 << 26 // 64 MiB  - large subsystem pools
	PoolSizeHuge   = 1 << 28 // 256 MiB - dataset-sized pools
	PoolSizeVast   = 1 << 30 // 1 GiB   - application heaps
	PoolSizeGiant  = 1 << 31 // 2 GiB   - very large application heaps
	PoolSizeTitan  = 1<<32 - Align // just under the uint32 offset ceiling
)

// NewPicoPool creates a pool backed by a freshly page-aligned PoolSizePico region.
func NewPicoPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizePico, PageSize))
}

// NewNanoPool creates a pool backed by a freshly page-aligned PoolSizeNano region.
func NewNanoPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeNano, PageSize))
}

// NewMicroPool creates a pool backed by a freshly page-aligned PoolSizeMicro region.
func NewMicroPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeMicro, PageSize))
}

// NewSmallPool creates a pool backed by a freshly page-aligned PoolSizeSmall region.
func NewSmallPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeSmall, PageSize))
}

// NewMediumPool creates a pool backed by a freshly page-aligned PoolSizeMedium region.
func NewMediumPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeMedium, PageSize))
}

// NewBigPool creates a pool backed by a freshly page-aligned PoolSizeBig region.
func NewBigPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeBig, PageSize))
}

// NewLargePool creates a pool backed by a freshly page-aligned PoolSizeLarge region.
func NewLargePool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeLarge, PageSize))
}

// NewGreatPool creates a pool backed by a freshly page-aligned PoolSizeGreat region.
func NewGreatPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeGreat, PageSize))
}

// NewHugePool creates a pool backed by a freshly page-aligned PoolSizeHuge region.
func NewHugePool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeHuge, PageSize))
}

// NewVastPool creates a pool backed by a freshly page-aligned PoolSizeVast region.
func NewVastPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeVast, PageSize))
}

// NewGiantPool creates a pool backed by a freshly page-aligned PoolSizeGiant region.
func NewGiantPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeGiant, PageSize))
}

// NewTitanPool creates a pool backed by a freshly page-aligned PoolSizeTitan
// region, the largest preset. Callers should have a specific reason to
// reach for this tier: allocating it eagerly touches gigabytes of memory.
func NewTitanPool(name string) (*Pool, error) {
	return Init(name, AlignedMem(PoolSizeTitan, PageSize))
}
