// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import (
	"sync/atomic"
	"unsafe"
)

// DefaultMaxPools bounds how many pools may be Init'd at once. A real
// embedded system has a small, known number of heaps; the registry is
// sized once at package init and never grows (see DESIGN.md).
const DefaultMaxPools = 256

// idPool hands out and reclaims pool IDs. This reuses bounded_pool.go's
// BoundedPool[T] — a lock-free MPMC index pool — for a purpose it was not
// originally written for: instead of storing buffer values and returning
// an indirect slot index, idPool is filled with capacity identical
// zero-size items, so the "indirect" index Get/Put already deals in *is*
// the pool ID; Value/SetValue go unused here.
var idPool = func() *BoundedPool[struct{}] {
	bp := NewBoundedPool[struct{}](DefaultMaxPools)
	bp.Fill(func() struct{} { return struct{}{} })
	bp.SetNonblock(true)
	return bp
}()

// poolTable maps a pool ID directly to its *Pool, indexed by ID. Reads
// and writes are lock-free (atomic.Pointer) since Free's hot path (via the
// sysheap facade) looks a pool up without taking any pool's lock first.
var poolTable [DefaultMaxPools]atomic.Pointer[Pool]

func acquirePoolID() (uint32, error) {
	idx, err := idPool.Get()
	if err != nil {
		return 0, ErrRegistryFull
	}
	return uint32(idx), nil
}

func releasePoolID(id uint32) {
	poolTable[id].Store(nil)
	_ = idPool.Put(int(id))
}

func registerPool(id uint32, p *Pool) {
	poolTable[id].Store(p)
}

func unregisterPool(id uint32) {
	poolTable[id].Store(nil)
}

// LookupPool returns the pool registered under id, if any. Exported for
// the sysheap facade, which must dispatch Free/Realloc to whichever pool a
// block's header says it belongs to without the caller naming that pool
// up front (spec §4.5).
func LookupPool(id uint32) (*Pool, bool) {
	if id >= DefaultMaxPools {
		return nil, false
	}
	p := poolTable[id].Load()
	return p, p != nil
}

// AllPools returns every currently registered pool, in registry order.
// Used by the sysheap facade's Malloc fallback and TraceAll.
func AllPools() []*Pool {
	pools := make([]*Pool, 0, DefaultMaxPools)
	for i := range poolTable {
		if p := poolTable[i].Load(); p != nil {
			pools = append(pools, p)
		}
	}
	return pools
}

// PoolIDOf returns the pool ID recorded in the header immediately
// preceding ptr, without requiring the caller to know which Pool (and
// therefore which region) ptr was carved from. It validates the magic
// but not the USED flag; Free performs the fuller validation.
func PoolIDOf(ptr unsafe.Pointer) (uint32, error) {
	h := rawHeaderAtPointer(ptr)
	if magicOf(h.magicFlag) != headerMagic {
		return 0, ErrCorrupt
	}
	return h.poolID, nil
}
