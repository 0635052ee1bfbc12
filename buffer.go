// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"errors"
	"io"
	"slices"
)

// minRead is the spare capacity ReadFrom ensures before each read.
const minRead = 512

var errNegativeRead = errors.New("malloc: reader returned negative count from Read")

// Buffer is a bytes.Buffer-like byte queue whose storage comes from an Allocator.
// It implements io.Reader, io.Writer, io.ReaderFrom and io.WriterTo.
// With a nil Allocator it falls back to Go allocation. Call Free when done with
// the buffer to hand its storage back.
type Buffer struct {
	a   Allocator
	buf []byte // unread data is buf[r:]
	r   int
}

// NewBuffer creates an empty Buffer that allocates from a.
func NewBuffer(a Allocator) *Buffer {
	return &Buffer{a: a}
}

// Grow ensures room for at least n more bytes without another allocation.
func (b *Buffer) Grow(n int) {
	if n < 0 {
		panic("malloc: Buffer.Grow: negative count")
	}
	if len(b.buf)+n <= cap(b.buf) {
		return
	}
	if b.r > 0 {
		// Reclaim the consumed prefix before asking for more memory.
		m := copy(b.buf, b.buf[b.r:])
		b.buf = b.buf[:m]
		b.r = 0
		if m+n <= cap(b.buf) {
			return
		}
	}
	if b.a == nil {
		b.buf = slices.Grow(b.buf, n)
		return
	}
	b.buf = growSlice(b.a, b.buf, n)
}

// Write appends p to the buffer. The error is always nil.
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.Grow(len(p))
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends c to the buffer. The error is always nil.
func (b *Buffer) WriteByte(c byte) error {
	b.Grow(1)
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends s to the buffer. The error is always nil.
func (b *Buffer) WriteString(s string) (n int, err error) {
	b.Grow(len(s))
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// WriteTo drains the buffer into w.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if b.Len() == 0 {
		b.Reset()
		return 0, nil
	}
	m, err := w.Write(b.buf[b.r:])
	b.consume(m)
	n = int64(m)
	if err != nil {
		return n, err
	}
	if b.Len() > 0 {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Read reads up to len(p) unread bytes into p. At the end of the data it
// returns io.EOF.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if b.Len() == 0 {
		b.Reset()
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n = copy(p, b.buf[b.r:])
	b.consume(n)
	return n, nil
}

// ReadByte returns the next unread byte, or io.EOF.
func (b *Buffer) ReadByte() (byte, error) {
	if b.Len() == 0 {
		b.Reset()
		return 0, io.EOF
	}
	c := b.buf[b.r]
	b.consume(1)
	return c, nil
}

// Next returns the next n unread bytes, or fewer if the buffer holds less, and
// advances past them. The slice aliases the buffer and is valid only until the
// next write.
func (b *Buffer) Next(n int) []byte {
	n = max(0, min(n, b.Len()))
	out := b.buf[b.r : b.r+n : b.r+n]
	b.r += n
	return out
}

// ReadFrom reads from r until io.EOF, appending to the buffer.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	for {
		b.Grow(minRead)
		free := b.buf[len(b.buf):cap(b.buf)]
		m, e := r.Read(free)
		if m < 0 {
			return n, errNegativeRead
		}
		b.buf = b.buf[:len(b.buf)+m]
		n += int64(m)
		if e == io.EOF {
			return n, nil
		}
		if e != nil {
			return n, e
		}
	}
}

// Bytes returns the unread portion of the buffer. The slice aliases the buffer
// and is valid only until the next modification.
func (b *Buffer) Bytes() []byte {
	return b.buf[b.r:]
}

// String returns the unread portion of the buffer as a string.
func (b *Buffer) String() string {
	if b == nil {
		return "<nil>"
	}
	return string(b.buf[b.r:])
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return len(b.buf) - b.r
}

// Cap returns the capacity of the underlying storage.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset empties the buffer but keeps its storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.r = 0
}

// Truncate discards all but the first n unread bytes.
// It panics if n is negative or greater than Len.
func (b *Buffer) Truncate(n int) {
	if n == 0 {
		b.Reset()
		return
	}
	if n < 0 || n > b.Len() {
		panic("malloc: Buffer.Truncate: out of range")
	}
	b.buf = b.buf[:b.r+n]
}

// Free empties the buffer and returns its storage to the Allocator.
// The buffer may be reused afterwards.
func (b *Buffer) Free() {
	FreeSlice(b.a, b.buf)
	b.buf = nil
	b.r = 0
}

func (b *Buffer) consume(n int) {
	b.r += n
	if b.r == len(b.buf) {
		b.Reset()
	}
}
