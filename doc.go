// doc.go: package overview
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package bufpool provides a reusable, bounded-capacity pool of
// fixed-shape byte buffers for streaming pipelines.
//
// A Pool amortizes allocation cost and bounds memory by handing out
// pre-allocated Buffers and reclaiming them on release. It combines a
// configurable Allocator (size, prefix, postfix, alignment), a
// concurrent free list with blocking acquisition, and a lifecycle state
// machine (unconfigured -> configured -> active -> flushing -> inactive).
//
// # Quick start
//
//	p := bufpool.New(nil)
//	cfg := bufpool.NewConfigStore()
//	cfg.Set(1400, 0, 0, 0, 0, 1) // size, min, max, prefix, postfix, align
//	if err := p.Configure(cfg); err != nil {
//		log.Fatal(err)
//	}
//	if err := p.SetActive(true); err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	buf, status := p.AcquireBuffer(context.Background(), nil)
//	if status != bufpool.StatusOK {
//		log.Fatal(status)
//	}
//	// ... use buf.Data() ...
//	p.ReleaseBuffer(buf)
//
// # Subclassing
//
// Specialized pools (DMA, shared memory) implement SubclassContract and
// embed BaseSubclass to inherit the default behavior for any hook they
// don't override. A pool that only needs different memory can instead
// supply an Allocator through Options; the sharedmem subpackage does
// this with mmap-backed memory and keeps every BaseSubclass hook.
//
// # Concurrency
//
// Any number of goroutines may call AcquireBuffer/ReleaseBuffer
// concurrently. Configuration and activation transitions are serialized
// internally; AcquireBuffer may block when the pool is saturated and the
// caller asked to wait, and always returns promptly once a buffer is
// released or the pool starts deactivating.
package bufpool
