// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"errors"
	"fmt"
)

var (
	// ErrArenaReserve indicates the operating system could not reserve the arena.
	ErrArenaReserve = errors.New("malloc: could not reserve arena")

	// ErrCorruptFreeList indicates a live block was found on the free list.
	ErrCorruptFreeList = errors.New("malloc: allocated block on free list")

	// ErrDoubleFree indicates a release of a block that is already free.
	ErrDoubleFree = errors.New("malloc: double free")

	// ErrUseAfterFree indicates a resize or size query on a released block.
	ErrUseAfterFree = errors.New("malloc: use of released block")

	// ErrInvalidPointer indicates a pointer that was not returned by this heap.
	ErrInvalidPointer = errors.New("malloc: invalid pointer")

	// ErrHeapCorrupted is wrapped by every invariant violation reported by Check.
	ErrHeapCorrupted = errors.New("malloc: heap corrupted")
)

// FatalError is the panic value for unrecoverable allocator conditions.
// Exhaustion and zero-size requests are never fatal; they return nil.
type FatalError struct {
	Op   string  // operation that detected the condition
	Addr uintptr // offending header or pointer address, 0 if none
	Err  error
}

func (e *FatalError) Error() string {
	if e.Addr == 0 {
		return fmt.Sprintf("%v (in %s)", e.Err, e.Op)
	}
	return fmt.Sprintf("%v (in %s, address %#x)", e.Err, e.Op, e.Addr)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
