// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap_test

import (
	"testing"
	"unsafe"

	"code.hybscloud.com/memheap"
)

func TestAlignedMem_PageAlignment(t *testing.T) {
	const size = 8192
	mem := memheap.AlignedMem(size, memheap.PageSize)

	if len(mem) != size {
		t.Errorf("AlignedMem length = %d, want %d", len(mem), size)
	}

	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if ptr%memheap.PageSize != 0 {
		t.Errorf("AlignedMem not page-aligned: address %#x %% %d = %d", ptr, memheap.PageSize, ptr%memheap.PageSize)
	}
}

func TestAlignedMem_SmallAllocation(t *testing.T) {
	const size = 64
	mem := memheap.AlignedMem(size, memheap.PageSize)

	if len(mem) != size {
		t.Errorf("AlignedMem length = %d, want %d", len(mem), size)
	}

	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if ptr%memheap.PageSize != 0 {
		t.Errorf("AlignedMem not page-aligned: address %#x %% %d = %d", ptr, memheap.PageSize, ptr%memheap.PageSize)
	}
}

func TestAlignedMemBlocks(t *testing.T) {
	const n = 4
	blocks := memheap.AlignedMemBlocks(n, memheap.PageSize)

	if len(blocks) != n {
		t.Errorf("AlignedMemBlocks returned %d blocks, want %d", len(blocks), n)
	}

	for i, block := range blocks {
		if uintptr(len(block)) != memheap.PageSize {
			t.Errorf("block[%d] length = %d, want %d", i, len(block), memheap.PageSize)
		}
		ptr := uintptr(unsafe.Pointer(unsafe.SliceData(block)))
		if ptr%memheap.PageSize != 0 {
			t.Errorf("block[%d] not page-aligned: address %#x %% %d = %d", i, ptr, memheap.PageSize, ptr%memheap.PageSize)
		}
	}
}

func TestAlignedMemBlock(t *testing.T) {
	block := memheap.AlignedMemBlock()

	if uintptr(len(block)) != memheap.PageSize {
		t.Errorf("AlignedMemBlock length = %d, want %d", len(block), memheap.PageSize)
	}

	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(block)))
	if ptr%memheap.PageSize != 0 {
		t.Errorf("AlignedMemBlock not page-aligned: address %#x %% %d = %d", ptr, memheap.PageSize, ptr%memheap.PageSize)
	}
}

func TestNewBuffers(t *testing.T) {
	const n, size = 8, 256
	bufs := memheap.NewBuffers(n, size)

	if len(bufs) != n {
		t.Errorf("NewBuffers returned %d buffers, want %d", len(bufs), n)
	}

	for i, buf := range bufs {
		if len(buf) != size {
			t.Errorf("buffer[%d] length = %d, want %d", i, len(buf), size)
		}
	}
}

func TestNewBuffers_ZeroSize(t *testing.T) {
	const n = 4
	bufs := memheap.NewBuffers(n, 0)

	if len(bufs) != n {
		t.Errorf("NewBuffers returned %d buffers, want %d", len(bufs), n)
	}

	for i, buf := range bufs {
		if len(buf) != 0 {
			t.Errorf("buffer[%d] length = %d, want 0", i, len(buf))
		}
	}
}

func TestNewBuffers_InvalidN(t *testing.T) {
	bufs := memheap.NewBuffers(0, 64)
	if len(bufs) != 0 {
		t.Errorf("NewBuffers(0, 64) returned %d buffers, want 0", len(bufs))
	}

	bufs = memheap.NewBuffers(-1, 64)
	if len(bufs) != 0 {
		t.Errorf("NewBuffers(-1, 64) returned %d buffers, want 0", len(bufs))
	}
}

func TestAlignedMemBlocks_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("AlignedMemBlocks(0, PageSize) did not panic")
		}
	}()
	_ = memheap.AlignedMemBlocks(0, memheap.PageSize)
}

func TestAlignedMem_NonStandardPageSize(t *testing.T) {
	const customPageSize = 8192
	const size = 16384
	mem := memheap.AlignedMem(size, customPageSize)

	if len(mem) != size {
		t.Errorf("AlignedMem length = %d, want %d", len(mem), size)
	}

	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if ptr%customPageSize != 0 {
		t.Errorf("AlignedMem not aligned to %d: address %#x %% %d = %d",
			customPageSize, ptr, customPageSize, ptr%customPageSize)
	}
}

func TestSetPageSize(t *testing.T) {
	original := memheap.PageSize
	defer memheap.SetPageSize(int(original))

	memheap.SetPageSize(8192)
	if memheap.PageSize != 8192 {
		t.Errorf("SetPageSize(8192) resulted in PageSize = %d, want 8192", memheap.PageSize)
	}
}

func TestPoolSizePresets(t *testing.T) {
	// Verify the preset sizes from Pico to Huge are strictly increasing, with
	// Titan sitting just under the uint32 offset ceiling rather than on it.
	sizes := []int{
		memheap.PoolSizePico,
		memheap.PoolSizeNano,
		memheap.PoolSizeMicro,
		memheap.PoolSizeSmall,
		memheap.PoolSizeMedium,
		memheap.PoolSizeBig,
		memheap.PoolSizeLarge,
		memheap.PoolSizeGreat,
		memheap.PoolSizeHuge,
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i] <= sizes[i-1] {
			t.Errorf("preset[%d]=%d is not larger than preset[%d]=%d", i, sizes[i], i-1, sizes[i-1])
		}
	}
	if memheap.PoolSizeTitan >= 1<<32 {
		t.Errorf("PoolSizeTitan = %d, must stay below the uint32 offset ceiling", memheap.PoolSizeTitan)
	}
}

func TestNewPicoPool(t *testing.T) {
	p, err := memheap.NewPicoPool("pico")
	if err != nil {
		t.Fatalf("NewPicoPool failed: %v", err)
	}
	defer func() { _ = p.Detach() }()

	if p.Size() > memheap.PoolSizePico {
		t.Errorf("pool size = %d, want <= %d", p.Size(), memheap.PoolSizePico)
	}
	ptr, err := p.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if err := p.Free(ptr); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
}

func TestNewNanoPool(t *testing.T) {
	p, err := memheap.NewNanoPool("nano")
	if err != nil {
		t.Fatalf("NewNanoPool failed: %v", err)
	}
	defer func() { _ = p.Detach() }()
	if p.Name() != "nano" {
		t.Errorf("Name() = %q, want %q", p.Name(), "nano")
	}
}

func TestNewMicroPool(t *testing.T) {
	p, err := memheap.NewMicroPool("micro")
	if err != nil {
		t.Fatalf("NewMicroPool failed: %v", err)
	}
	defer func() { _ = p.Detach() }()
}

func TestNewTitanPool(t *testing.T) {
	// Titan pools back a region just under 4 GiB; skip under the race
	// detector where the extra bookkeeping would blow past test memory
	// limits for no additional coverage.
	if raceEnabled {
		t.Skip("skipping multi-gigabyte pool allocation under the race detector")
	}
	p, err := memheap.NewTitanPool("titan")
	if err != nil {
		t.Fatalf("NewTitanPool failed: %v", err)
	}
	defer func() { _ = p.Detach() }()
}
