// buffer.go: reference-counted, alignment-aware byte buffer
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bufpool

import (
	"sync/atomic"
	"unsafe"
)

// Buffer is a reference-counted byte region with an alignment-aware
// payload pointer and an explicit backing-allocation slice distinct from
// the payload (to accommodate alignment slack and prefix/postfix
// padding).
//
// Buffer is the "external collaborator" spec.md §1 describes: the core
// pool only calls Ref/Unref/Data/SetSize/Size/Backing on it, never
// inspects payload bytes. Callers own a Buffer from AcquireBuffer until
// they call Pool.ReleaseBuffer; Buffer itself never reinserts into a
// free list on its own.
type Buffer struct {
	refcount atomic.Int32

	backing []byte // the raw allocation, including prefix/postfix/align slack
	data    []byte // backing[offset : offset+size], aligned per the pool's config
	offset  int    // start index of data within backing, fixed at construction
}

// NewBuffer wraps backing/data into a Buffer with reference count 1.
// data must be a subslice of backing (or, for the total==0 case, both may
// be nil). The offset of data within backing is captured by pointer
// arithmetic rather than derived from cap(data), since an allocator that
// hands back a three-index slice (as DefaultAllocator does, to keep
// postfix bytes out of data's capacity) makes cap(data) unrelated to how
// much backing space follows data.
func NewBuffer(backing, data []byte) *Buffer {
	b := &Buffer{backing: backing, data: data, offset: sliceOffset(backing, data)}
	b.refcount.Store(1)
	return b
}

// sliceOffset returns the index at which data begins within backing,
// assuming data is a subslice of backing. Returns 0 if either is empty.
func sliceOffset(backing, data []byte) int {
	bp := unsafe.SliceData(backing)
	dp := unsafe.SliceData(data)
	if bp == nil || dp == nil {
		return 0
	}
	return int(uintptr(unsafe.Pointer(dp)) - uintptr(unsafe.Pointer(bp)))
}

// Ref increments the reference count and returns the same Buffer, the
// conventional Go idiom for a ref-counted handle (mirrors gst_buffer_ref).
func (b *Buffer) Ref() *Buffer {
	b.refcount.Add(1)
	return b
}

// Unref decrements the reference count. It reports whether this call
// dropped the count to zero, the point at which a caller using Buffer
// outside of a Pool would release backing. Pool.ReleaseBuffer does not
// rely on this: the spec (§9 Design Notes) treats last-drop auto-release
// as an optional external collaborator behavior, not a core requirement.
func (b *Buffer) Unref() bool {
	return b.refcount.Add(-1) == 0
}

// RefCount returns the current reference count. Intended for tests and
// diagnostics.
func (b *Buffer) RefCount() int32 { return b.refcount.Load() }

// Data returns the buffer's payload slice.
func (b *Buffer) Data() []byte { return b.data }

// SetData replaces the payload slice. Used by allocators that need to
// adjust the slice after construction (e.g. shrinking on a short read).
func (b *Buffer) SetData(data []byte) { b.data = data }

// Size returns the payload length.
func (b *Buffer) Size() int { return len(b.data) }

// SetSize truncates or (up to backing capacity) extends the payload
// slice without reallocating.
func (b *Buffer) SetSize(size int) {
	if size <= cap(b.data) {
		b.data = b.data[:size]
		return
	}
	// Grow within the backing allocation if there's room past the
	// current slice (prefix/postfix slack), otherwise leave as-is: the
	// core allocator never requests a grow past what it originally sized.
	if avail := len(b.backing) - b.offset; size <= avail {
		b.data = b.backing[b.offset : b.offset+size]
	}
}

// Backing returns the buffer's backing allocation, distinct from Data
// when prefix/postfix/align padding is configured.
func (b *Buffer) Backing() []byte { return b.backing }
