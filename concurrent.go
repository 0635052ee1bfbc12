// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"sync"
	"unsafe"
)

type concurrentAllocator struct {
	mtx sync.Mutex
	a   Allocator
}

// NewConcurrent returns an Allocator that serializes every call to a, making it
// safe to share between goroutines. A Heap on its own has no locking.
func NewConcurrent(a Allocator) Allocator {
	return &concurrentAllocator{a: a}
}

// Malloc satisfies the Allocator interface.
func (c *concurrentAllocator) Malloc(size uintptr) unsafe.Pointer {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.a == nil {
		return nil
	}
	return c.a.Malloc(size)
}

// Free satisfies the Allocator interface.
func (c *concurrentAllocator) Free(p unsafe.Pointer) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.a == nil {
		return
	}
	c.a.Free(p)
}

// Calloc satisfies the Allocator interface.
func (c *concurrentAllocator) Calloc(count, size uintptr) unsafe.Pointer {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.a == nil {
		return nil
	}
	return c.a.Calloc(count, size)
}

// Realloc satisfies the Allocator interface.
func (c *concurrentAllocator) Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.a == nil {
		return nil
	}
	return c.a.Realloc(p, size)
}

// Owns satisfies the Allocator interface.
func (c *concurrentAllocator) Owns(p unsafe.Pointer) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.a == nil {
		return false
	}
	return c.a.Owns(p)
}

// Len satisfies the Allocator interface.
func (c *concurrentAllocator) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.a == nil {
		return 0
	}
	return c.a.Len()
}

// Cap satisfies the Allocator interface.
func (c *concurrentAllocator) Cap() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.a == nil {
		return 0
	}
	return c.a.Cap()
}

// Peak satisfies the Allocator interface.
func (c *concurrentAllocator) Peak() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.a == nil {
		return 0
	}
	return c.a.Peak()
}
