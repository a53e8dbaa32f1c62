// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sysheap is a process-wide malloc/free/realloc facade over
// memheap.Pool, the Go analog of the reference allocator's
// RT_USING_MEMHEAP_AS_HEAP build option: one designated pool acts as the
// default system heap, with every other pool ever Init'd available as a
// fallback when the default is exhausted.
package sysheap

import (
	"io"
	"sync"
	"unsafe"

	"code.hybscloud.com/memheap"
)

var (
	mu      sync.RWMutex
	primary *memheap.Pool
)

// Init installs region as the default system heap, the analog of
// rt_system_heap_init. A prior call's pool is left registered and
// reachable as a fallback pool; it is not detached.
func Init(name string, region []byte) error {
	p, err := memheap.Init(name, region)
	if err != nil {
		return err
	}
	mu.Lock()
	primary = p
	mu.Unlock()
	return nil
}

// Malloc allocates size bytes from the default system heap, falling back
// to every other registered pool in turn if the default can't satisfy the
// request — the Go analog of rt_malloc's "try the default heap, then walk
// every other registered memheap" behavior.
func Malloc(size int) (unsafe.Pointer, error) {
	mu.RLock()
	p := primary
	mu.RUnlock()
	if p == nil {
		return nil, memheap.ErrDetached
	}

	ptr, err := p.Alloc(size)
	if err == nil {
		return ptr, nil
	}

	for _, other := range memheap.AllPools() {
		if other == p {
			continue
		}
		if altPtr, altErr := other.Alloc(size); altErr == nil {
			return altPtr, nil
		}
	}
	return nil, err
}

// Free releases ptr back to whichever pool it was allocated from, looked
// up from the block's own header — the caller never needs to name the
// pool, matching rt_free's single global entry point.
func Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	id, err := memheap.PoolIDOf(ptr)
	if err != nil {
		return err
	}
	p, ok := memheap.LookupPool(id)
	if !ok {
		return memheap.ErrDetached
	}
	return p.Free(ptr)
}

// Realloc resizes ptr's block, first trying its own owning pool, then
// falling back to allocating on a different registered pool and copying
// over if the owning pool has no room to grow — the Go analog of
// rt_realloc's "allocate on another memheap" fallback.
func Realloc(ptr unsafe.Pointer, size int) (unsafe.Pointer, error) {
	if ptr == nil {
		return Malloc(size)
	}
	if size == 0 {
		return nil, Free(ptr)
	}

	id, err := memheap.PoolIDOf(ptr)
	if err != nil {
		return nil, err
	}
	p, ok := memheap.LookupPool(id)
	if !ok {
		return nil, memheap.ErrDetached
	}

	if newPtr, err := p.Realloc(ptr, size); err == nil {
		return newPtr, nil
	}

	iov := p.PayloadIoVec(ptr)
	newPtr, err := Malloc(size)
	if err != nil {
		return nil, err
	}
	oldSize := int(iov.Len)
	if size < oldSize {
		oldSize = size
	}
	src := unsafe.Slice(iov.Base, oldSize)
	dst := unsafe.Slice((*byte)(newPtr), oldSize)
	copy(dst, src)
	_ = p.Free(ptr)
	return newPtr, nil
}

// Calloc allocates space for count objects of size bytes each and zeroes it.
func Calloc(count, size int) (unsafe.Pointer, error) {
	total := count * size
	ptr, err := Malloc(total)
	if err != nil {
		return nil, err
	}
	clear(unsafe.Slice((*byte)(ptr), total))
	return ptr, nil
}

// MemoryInfo returns total/used/max_used for the default system heap only,
// the Go analog of rt_memory_info, which reports exclusively on
// rt_system_heap rather than summing across every memheap.
func MemoryInfo() (total, used, maxUsed int) {
	mu.RLock()
	p := primary
	mu.RUnlock()
	if p == nil {
		return 0, 0, 0
	}
	return p.Size(), p.Size() - p.AvailableSize(), p.MaxUsedSize()
}

// TraceAll writes a Dump of every registered pool to w, the Go analog of
// memtrace_heap/memheaptrace.
func TraceAll(w io.Writer) error {
	for _, p := range memheap.AllPools() {
		if err := p.Dump(w); err != nil {
			return err
		}
	}
	return nil
}
