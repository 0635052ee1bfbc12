// SPDX-License-Identifier: Apache-2.0

// Package malloc implements a best-fit heap allocator over a single lazily
// reserved arena of anonymous virtual memory.
//
// Malloc, Free, Calloc and Realloc mirror the shape of a C dynamic-memory API.
// The package-level functions use a process-wide default heap; New creates
// independent heaps.
//
// Memory handed out by a Heap lives outside the Go garbage collector. It must
// not hold the only reference to a Go-allocated object.
package malloc

import (
	"unsafe"
)

// Allocator is the dynamic-memory API implemented by Heap.
type Allocator interface {
	// Malloc returns a block of at least size bytes, or nil.
	Malloc(size uintptr) unsafe.Pointer

	// Free releases a block returned by Malloc, Calloc or Realloc. Free(nil) is a no-op.
	Free(p unsafe.Pointer)

	// Calloc returns a zeroed block of count*size bytes, or nil.
	Calloc(count, size uintptr) unsafe.Pointer

	// Realloc resizes the block at p, moving it if it must grow.
	Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer

	// Owns reports whether p points into memory managed by the allocator.
	Owns(p unsafe.Pointer) bool

	// Len returns the usable bytes held by live blocks.
	Len() int

	// Cap returns the total capacity of the allocator in bytes.
	Cap() int

	// Peak returns the high-water mark of consumed capacity.
	Peak() int
}

var _ Allocator = (*Heap)(nil)

var std = newDefault()

func newDefault() *Heap {
	opts, err := envOptions()
	h := New(opts...)
	if err != nil {
		h.logger.Warn("ignoring "+EnvArenaSize, "error", err)
	}
	return h
}

// Default returns the process-wide heap used by the package-level functions.
// Its arena is reserved on first use and never released.
func Default() *Heap {
	return std
}

// Malloc allocates size bytes from the default heap.
func Malloc(size uintptr) unsafe.Pointer {
	return std.Malloc(size)
}

// Free releases p to the default heap.
func Free(p unsafe.Pointer) {
	std.Free(p)
}

// Calloc allocates count*size zeroed bytes from the default heap.
func Calloc(count, size uintptr) unsafe.Pointer {
	return std.Calloc(count, size)
}

// Realloc resizes p within the default heap.
func Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	return std.Realloc(p, size)
}

// UsableSize returns the capacity of the default-heap block at p.
func UsableSize(p unsafe.Pointer) uintptr {
	return std.UsableSize(p)
}

// Allocate returns a zeroed *T from a. If a is nil or cannot satisfy the
// request, the value is allocated with Go's built-in new.
func Allocate[T any](a Allocator) *T {
	if a != nil {
		var x T
		if ptr := a.Calloc(1, unsafe.Sizeof(x)); ptr != nil {
			return (*T)(ptr)
		}
	}
	return new(T)
}

// FreeValue releases a value obtained from Allocate. Values that fell back to
// Go allocation are left to the garbage collector.
func FreeValue[T any](a Allocator, v *T) {
	if a == nil || v == nil {
		return
	}
	if p := unsafe.Pointer(v); a.Owns(p) {
		a.Free(p)
	}
}
