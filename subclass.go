// subclass.go: the overridable hook contract
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bufpool

import "context"

// SubclassContract is the set of six hooks spec.md §4.6 calls out as
// overridable. A specialized pool (DMA, shared memory) implements this
// interface, typically by embedding BaseSubclass and overriding only the
// hooks it needs, the Go-native reading of spec.md §9's redesign note
// ("a capability set... an interface of six operations with default
// implementations").
//
// Every hook receives the owning *Pool explicitly rather than through a
// stored back-reference, since Go method embedding has no notion of a
// self pointer to the outermost type: BaseSubclass can't discover the
// specialized type it was embedded in, so each hook takes the Pool it
// should act on as a parameter.
type SubclassContract interface {
	// SetConfig validates and adopts cfg. May reject invalid
	// combinations; on error the caller's cfg is not adopted.
	SetConfig(p *Pool, cfg *ConfigStore) error
	// SetActive is invoked on every activate/deactivate transition
	// (after the guard checks pass). Must not call p.AcquireBuffer.
	SetActive(p *Pool, active bool) error
	// AllocBuffer allocates one new Buffer. May fail; failure propagates.
	AllocBuffer(p *Pool, params *AcquireParams) (*Buffer, error)
	// FreeBuffer releases a Buffer during flush. Must not reinsert buf
	// into the free list.
	FreeBuffer(p *Pool, buf *Buffer)
	// AcquireBuffer implements the acquire algorithm. Overrides take
	// full responsibility for flushing/wait semantics but still get
	// outstanding bookkeeping from the dispatcher wrapper regardless
	// (Pool.AcquireBuffer increments it, not this hook).
	AcquireBuffer(p *Pool, ctx context.Context, params *AcquireParams) (*Buffer, Status)
	// ReleaseBuffer returns buf to service. Overrides may recycle
	// differently but must leave buf usable by a later acquire or
	// ensure it will be freed.
	ReleaseBuffer(p *Pool, buf *Buffer)
}

// BaseSubclass implements every SubclassContract hook with the defaults
// spec.md §4.6 documents. Embed it in a specialized pool and override
// only the hooks that need different behavior.
type BaseSubclass struct{}

// SetConfig parses the six core keys and validates them. The default
// accepts any combination ConfigStore.validate accepts.
func (BaseSubclass) SetConfig(_ *Pool, cfg *ConfigStore) error {
	return cfg.validate()
}

// SetActive preallocates min_buffers on activation and does nothing on
// deactivation (flush is handled by the dispatcher, not this hook).
func (BaseSubclass) SetActive(p *Pool, active bool) error {
	if !active {
		return nil
	}
	return p.preallocate()
}

// AllocBuffer delegates to the pool's configured Allocator.
func (BaseSubclass) AllocBuffer(p *Pool, _ *AcquireParams) (*Buffer, error) {
	size, _, _, prefix, postfix, align := p.GetConfig().Get()
	return p.allocator.AllocBuffer(size, prefix, postfix, align)
}

// FreeBuffer delegates to the pool's configured Allocator.
func (BaseSubclass) FreeBuffer(p *Pool, buf *Buffer) {
	p.allocator.FreeBuffer(buf)
}

// AcquireBuffer implements spec.md §4.5's algorithm.
func (BaseSubclass) AcquireBuffer(p *Pool, ctx context.Context, params *AcquireParams) (*Buffer, Status) {
	return p.defaultAcquire(ctx, params)
}

// ReleaseBuffer pushes buf back into the free list and signals one
// waiter; while the pool is flushing it frees buf instead.
func (BaseSubclass) ReleaseBuffer(p *Pool, buf *Buffer) {
	p.defaultRelease(buf)
}
