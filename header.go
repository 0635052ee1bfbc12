// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"unsafe"
)

// Alignment is the alignment of every payload address and of every bumped block size.
const Alignment = 16

// nilOffset terminates a block list.
const nilOffset = ^uintptr(0)

// header precedes every payload in the arena. Links are arena offsets of
// other headers, never Go pointers.
type header struct {
	next      uintptr
	prev      uintptr
	size      uintptr // usable payload bytes, excluding the header
	allocated bool
}

const headerSize = unsafe.Sizeof(header{})

// Payloads stay aligned only if headers are a whole number of alignment units.
var _ = [1]struct{}{}[headerSize%Alignment]

// alignUp rounds n up to the next multiple of Alignment.
// It reports false if the result does not fit in a uintptr.
func alignUp(n uintptr) (uintptr, bool) {
	if n > ^uintptr(0)-(Alignment-1) {
		return 0, false
	}
	return (n + Alignment - 1) &^ (Alignment - 1), true
}

// headerAt returns the header stored at arena offset off.
func (h *Heap) headerAt(off uintptr) *header {
	return (*header)(unsafe.Add(h.base, off))
}

// payloadOf returns the payload address of the header at off.
func (h *Heap) payloadOf(off uintptr) unsafe.Pointer {
	return unsafe.Add(h.base, off+headerSize)
}

// offsetOf returns the header offset for payload address p. p must be owned by h.
func (h *Heap) offsetOf(p unsafe.Pointer) uintptr {
	return uintptr(p) - uintptr(h.base) - headerSize
}

// addrOf returns the absolute address of arena offset off, for diagnostics.
func (h *Heap) addrOf(off uintptr) uintptr {
	return uintptr(h.base) + off
}
