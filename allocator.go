// allocator.go: default buffer allocation (size, prefix, postfix, align)
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bufpool

import (
	"fmt"
	"unsafe"
)

// AcquireParams influences a single acquire call. Passing nil params
// means Wait is set; the zero value AcquireParams{} has Wait unset.
type AcquireParams struct {
	// Wait allows AcquireBuffer to block when the pool is saturated.
	Wait bool
}

// defaultAcquireParams is returned when the caller passes nil params to
// AcquireBuffer, matching spec.md §4.5 ("the one recognized flag is
// WAIT, default: set when params absent").
func defaultAcquireParams() *AcquireParams { return &AcquireParams{Wait: true} }

// Allocator allocates and frees the raw memory backing a Buffer. It is a
// pluggable collaborator distinct from the pool's own dispatch logic
// (SPEC_FULL.md §12), so the sharedmem package can swap in mmap-backed
// memory while reusing every other SubclassContract default.
type Allocator interface {
	// AllocBuffer returns a new Buffer honoring size/prefix/postfix/align.
	AllocBuffer(size, prefix, postfix, align uint) (*Buffer, error)
	// FreeBuffer releases a Buffer's backing allocation. Called during
	// flush; must not reinsert buf into any free list.
	FreeBuffer(buf *Buffer)
}

// DefaultAllocator implements spec.md §4.4: a single raw allocation per
// buffer, with the payload pointer aligned within it and offset by
// prefix. Grounded on gstbufferpool.c's default_alloc_buffer, which
// computes the same aligned = (raw + align - 1) & ~(align - 1) pointer
// arithmetic; done here with unsafe.Pointer/uintptr since Go slices
// don't expose a placement-new allocator.
type DefaultAllocator struct{}

// AllocBuffer implements Allocator.
func (DefaultAllocator) AllocBuffer(size, prefix, postfix, align uint) (*Buffer, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return nil, fmt.Errorf("bufpool: align %d is not a power of two", align)
	}

	total := prefix + size + postfix + (align - 1)
	if total == 0 {
		return NewBuffer(nil, nil), nil
	}

	raw := make([]byte, total)
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + uintptr(align-1)) &^ uintptr(align-1)
	offset := aligned - base

	start := offset + uintptr(prefix)
	end := start + uintptr(size)
	if end > uintptr(len(raw)) {
		// Cannot happen given the total computed above; guard anyway
		// rather than let a slice bounds panic escape the allocator.
		return nil, fmt.Errorf("bufpool: alignment arithmetic overflowed buffer of %d bytes", total)
	}

	return NewBuffer(raw, raw[start:end:end]), nil
}

// FreeBuffer implements Allocator. Go's garbage collector reclaims the
// backing array once no Buffer references it; FreeBuffer's job is only
// to drop this pool's own references so that happens.
func (DefaultAllocator) FreeBuffer(buf *Buffer) {
	buf.data = nil
	buf.backing = nil
}
