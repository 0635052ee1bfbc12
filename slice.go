// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"math/bits"
	"unsafe"
)

const growThreshold = 256

// AllocateSlice creates a zeroed slice of type T with the given length and capacity
// in memory obtained from a. If a is nil or cannot satisfy the request, the slice
// is created with Go's built-in make.
func AllocateSlice[T any](a Allocator, len, cap int) []T {
	if a != nil && cap > 0 {
		var x T
		if ptr := (*T)(a.Calloc(uintptr(cap), unsafe.Sizeof(x))); ptr != nil {
			return unsafe.Slice(ptr, cap)[:len]
		}
	}
	return make([]T, len, cap)
}

// SliceAppend appends data to s, growing the backing array through a when it is
// full. A backing array owned by a is resized with Realloc, so s must start at the
// beginning of its block (as returned by AllocateSlice or SliceAppend); after
// growth the old s must no longer be used.
func SliceAppend[T any](a Allocator, s []T, data ...T) []T {
	if a == nil {
		return append(s, data...)
	}
	s = growSlice(a, s, len(data))
	return append(s, data...)
}

// FreeSlice releases the backing array of s if a owns it. Like SliceAppend, s must
// start at the beginning of its block; a slice resliced from an offset such as
// s[k:] must not be passed.
func FreeSlice[T any](a Allocator, s []T) {
	if a == nil || cap(s) == 0 {
		return
	}
	if p := unsafe.Pointer(unsafe.SliceData(s)); a.Owns(p) {
		a.Free(p)
	}
}

func growSlice[T any](a Allocator, s []T, dataLen int) []T {
	newLen := len(s) + dataLen
	newCap := cap(s)
	if newLen <= newCap {
		return s
	}

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}

	var x T
	p := unsafe.Pointer(unsafe.SliceData(s))
	owned := cap(s) > 0 && a.Owns(p)
	if hi, size := bits.Mul(uint(newCap), uint(unsafe.Sizeof(x))); hi == 0 && size > 0 && owned {
		if np := a.Realloc(p, uintptr(size)); np != nil {
			return unsafe.Slice((*T)(np), newCap)[:len(s)]
		}
	}

	s2 := AllocateSlice[T](a, len(s), newCap)
	copy(s2, s)
	if owned {
		// A failed Realloc leaves the old block live; nothing else references it.
		a.Free(p)
	}
	return s2
}
