// lifecycle.go: configure/activate/deactivate state machine
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bufpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// preallocWorkers bounds how many goroutines may call AllocBuffer
// concurrently during Activate. Grounded on tphakala-birdnet-go's
// push_dispatcher, which bounds fan-out with the same
// golang.org/x/sync/semaphore.Weighted rather than an unbounded
// goroutine-per-item loop.
const preallocWorkers = 8

// Configure adopts cfg as the pool's configuration. It fails if the pool
// is active (spec.md §4.1: configuration is frozen once activated) or if
// any buffer is outstanding, including while draining (active==false but
// outstanding>0 right after SetActive(false)): replacing the config out
// from under buffers a caller still holds is never safe, matching
// gst_buffer_pool_set_config's own `if (priv->outstanding != 0) goto
// have_outstanding`. It also fails if the subclass's SetConfig hook
// rejects cfg.
func (p *Pool) Configure(cfg *ConfigStore) error {
	p.mu.Lock()
	if p.active || p.outstanding.Load() != 0 {
		p.mu.Unlock()
		return newPoolError("Configure", StatusConfigRejected, fmt.Errorf("bufpool: cannot reconfigure an active or draining pool"))
	}
	p.mu.Unlock()

	// SetConfig runs without p.mu held: a subclass hook is free to call
	// back into GetConfig (or, in principle, another Pool method) without
	// risking a self-deadlock on this non-reentrant mutex.
	if err := p.contract.SetConfig(p, cfg); err != nil {
		return newPoolError("Configure", StatusConfigRejected, err)
	}

	p.mu.Lock()
	if p.active || p.outstanding.Load() != 0 {
		p.mu.Unlock()
		return newPoolError("Configure", StatusConfigRejected, fmt.Errorf("bufpool: cannot reconfigure an active or draining pool"))
	}
	p.config.Store(cfg)
	p.configured = true
	p.mu.Unlock()

	p.emit(Event{Kind: EventConfigured})
	return nil
}

// GetConfig returns a copy of the pool's current configuration. Returns
// an empty, unconfigured ConfigStore if Configure has never succeeded.
func (p *Pool) GetConfig() *ConfigStore {
	cfg := p.config.Load()
	if cfg == nil {
		return NewConfigStore()
	}
	return cfg.Copy()
}

// IsActive reports whether the pool currently hands out buffers.
func (p *Pool) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// IsFlushing reports whether the pool is mid-flush. Safe to call without
// holding any lock the caller already owns, since it only reads the
// atomic flag set by Deactivate and cleared once flush completes.
func (p *Pool) IsFlushing() bool {
	return p.flushing.Load()
}

// SetActive transitions the pool between active and inactive. Activating
// an unconfigured pool fails. Activating an already-active pool, or
// deactivating an already-inactive one, is a no-op success, matching
// gst_buffer_pool_set_active's idempotence.
func (p *Pool) SetActive(active bool) error {
	if active {
		return p.activate()
	}
	return p.deactivate()
}

func (p *Pool) activate() error {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return nil
	}
	if !p.configured {
		p.mu.Unlock()
		return newPoolError("SetActive", StatusConfigRejected, ErrNotConfigured)
	}
	p.active = true
	p.flushing.Store(false)
	p.mu.Unlock()

	if err := p.contract.SetActive(p, true); err != nil {
		p.mu.Lock()
		p.active = false
		p.mu.Unlock()
		return newPoolError("SetActive", StatusAllocFailed, err)
	}
	p.emit(Event{Kind: EventActivated})
	return nil
}

// deactivate mirrors gst_buffer_pool_set_active(FALSE): it always stops
// handing out buffers and wakes blocked acquirers immediately, but only
// drains the free list here when nothing is outstanding. When buffers
// are still held, flushing stays set and ReleaseBuffer's own check
// (outstanding drops to zero) triggers flushAll instead — draining
// eagerly here would clear flushing before the last holder releases,
// letting those releases land back on the free list unflushed.
func (p *Pool) deactivate() error {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return nil
	}
	p.active = false
	p.mu.Unlock()

	p.flushing.Store(true)
	p.waker.broadcast()

	if err := p.contract.SetActive(p, false); err != nil {
		return newPoolError("SetActive", StatusError, err)
	}

	if p.outstanding.Load() == 0 {
		p.flushAll()
	}
	p.emit(Event{Kind: EventDeactivated})
	return nil
}

// preallocate allocates min_buffers worth of fresh buffers and pushes
// them into the free list, fanned out over a bounded worker pool. Any
// single allocation failure cancels the remaining work and is returned;
// buffers already pushed before the failure stay in the free list rather
// than being unwound, since a partially-filled pool is still usable.
func (p *Pool) preallocate() error {
	_, minBuffers, _, _, _, _ := p.GetConfig().Get()
	if minBuffers == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(preallocWorkers)
	g, ctx := errgroup.WithContext(context.Background())

	for i := uint(0); i < minBuffers; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			buf, err := p.contract.AllocBuffer(p, defaultAcquireParams())
			if err != nil {
				return err
			}
			p.freeList.Push(buf)
			p.waker.signal()
			return nil
		})
	}

	return g.Wait()
}

// flushAll drains the free list and hands every buffer to the subclass's
// FreeBuffer hook. The state mutex is never held while calling into
// subclass hooks here: spec.md §9's Design Notes explicitly permit a
// non-reentrant lock on the condition that the flush path drops it
// before invoking subclass code, since FreeBuffer may itself call back
// into the pool (e.g. to read config).
func (p *Pool) flushAll() {
	for _, buf := range p.freeList.Drain() {
		p.waker.consume()
		p.contract.FreeBuffer(p, buf)
	}
	p.flushing.Store(false)
}
