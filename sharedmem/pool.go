//go:build unix

// Package sharedmem provides a bufpool.Pool backed by anonymous
// mmap-allocated memory rather than Go-heap byte slices, for callers
// that hand buffers to a kernel interface expecting page-aligned,
// GC-untouched memory (DMA rings, io_uring fixed buffers, shared memory
// segments with another process).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package sharedmem

import (
	"fmt"

	"github.com/agilira/bufpool"
	"golang.org/x/sys/unix"
)

// pageSize is cached at init, mirroring the one-time os.Getpagesize
// lookup pattern used throughout rclone's lib packages.
var pageSize = unix.Getpagesize()

// Allocator is a bufpool.Allocator backed by anonymous private mmap
// regions. Every AllocBuffer call rounds the requested size up to a
// whole number of pages, the same contract as rclone's
// lib/mmap.MustAlloc/MustFree (the retrieved source kept only that
// package's test file, so the Mmap/Munmap call shape here follows
// golang.org/x/sys/unix's own documented signatures instead of copying
// unseen implementation code).
type Allocator struct{}

// AllocBuffer implements bufpool.Allocator.
func (Allocator) AllocBuffer(size, prefix, postfix, align uint) (*bufpool.Buffer, error) {
	total := int(prefix + size + postfix)
	if total == 0 {
		return bufpool.NewBuffer(nil, nil), nil
	}

	pages := (total + pageSize - 1) / pageSize
	length := pages * pageSize

	raw, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("sharedmem: mmap %d bytes: %w", length, err)
	}

	// mmap pages are always page-aligned, which satisfies any align <=
	// pageSize without further pointer arithmetic; a caller requesting a
	// coarser alignment than a page is asking for something this
	// allocator cannot provide.
	if align > uint(pageSize) {
		_ = unix.Munmap(raw)
		return nil, fmt.Errorf("sharedmem: requested align %d exceeds page size %d", align, pageSize)
	}

	start := int(prefix)
	end := start + int(size)
	return bufpool.NewBuffer(raw, raw[start:end:end]), nil
}

// FreeBuffer implements bufpool.Allocator, unmapping the backing region.
func (Allocator) FreeBuffer(buf *bufpool.Buffer) {
	backing := buf.Backing()
	if len(backing) == 0 {
		return
	}
	_ = unix.Munmap(backing)
}

// New constructs a bufpool.Pool whose buffers live in anonymous mmap
// regions rather than the Go heap. Every other hook (configure,
// activate, acquire, release) keeps bufpool.BaseSubclass's default
// behavior; only allocation is replaced.
func New(opts *bufpool.Options) *bufpool.Pool {
	if opts == nil {
		opts = &bufpool.Options{}
	}
	opts.Allocator = Allocator{}
	return bufpool.New(opts)
}
