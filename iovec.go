// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import (
	"unsafe"
)

// IoVec represents a scatter/gather I/O descriptor compatible with the
// standard Linux struct iovec. It is used to pass multiple non-contiguous
// user-space buffers to the kernel in a single vectored I/O system call
// (readv, writev, preadv, pwritev, io_uring operations).
//
// Memory layout matches the C struct iovec exactly:
//
//	struct iovec {
//	    void  *iov_base;  // Starting address
//	    size_t iov_len;   // Number of bytes
//	};
//
// The caller must ensure Base points to valid memory for the lifetime of
// any I/O operation using this IoVec.
type IoVec struct {
	Base *byte  // Starting address of the memory block
	Len  uint64 // Number of bytes to transfer
}

// IoVecFromBytesSlice converts a slice of byte slices to a pointer and count
// suitable for io_uring buffer registration (IORING_REGISTER_BUFFERS2).
// Returns the address of the first IoVec element and the number of elements.
//
// Note: The returned address points to a newly allocated []IoVec slice.
// The caller must ensure the input slices remain valid for the lifetime
// of the registration.
func IoVecFromBytesSlice(iov [][]byte) (addr uintptr, n int) {
	if len(iov) == 0 {
		return 0, 0
	}
	vec := make([]IoVec, len(iov))
	for i := range len(iov) {
		vec[i] = IoVec{Base: unsafe.SliceData(iov[i]), Len: uint64(len(iov[i]))}
	}
	addr, n = uintptr(unsafe.Pointer(unsafe.SliceData(vec))), len(vec)
	return
}

// IoVecAddrLen extracts the raw pointer and length from an IoVec slice
// for direct syscall consumption (readv, writev, io_uring submission).
//
// Returns (0, 0) for empty or nil slices.
func IoVecAddrLen(vec []IoVec) (addr uintptr, n int) {
	if len(vec) == 0 {
		return 0, 0
	}
	addr, n = uintptr(unsafe.Pointer(unsafe.SliceData(vec))), len(vec)
	return
}

// PayloadIoVec returns a scatter/gather descriptor for the live, allocated
// block whose payload ptr points to, letting a caller hand an allocated
// block straight to a vectored I/O call without learning its size out of
// band. This replaces the per-tier IoVecFromXxxBuffers functions the region
// helpers used to need one of per fixed buffer size: a pool block already
// carries its own size in its header, so one function covers every size.
//
// ptr must be a pointer previously returned by p's Alloc or Realloc and not
// yet freed; PayloadIoVec panics with ErrWrongPool if ptr does not belong
// to p.
func (p *Pool) PayloadIoVec(ptr unsafe.Pointer) IoVec {
	if rawHeaderAtPointer(ptr).poolID != p.id {
		panic(ErrWrongPool)
	}
	off := headerOffsetFromPayload(p.region, ptr)

	p.lock.Acquire()
	defer p.lock.Release()

	h := headerAt(p.region, off)
	size := p.payloadSize(off, h)
	return IoVec{Base: (*byte)(ptr), Len: uint64(size)}
}
