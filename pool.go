// pool.go: the public Pool type and dispatch algorithm
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bufpool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
	"github.com/google/uuid"
)

// EventKind classifies a lifecycle notification delivered through
// Options.OnEvent.
type EventKind int

const (
	// EventConfigured fires after a successful Configure.
	EventConfigured EventKind = iota
	// EventActivated fires after a successful activation.
	EventActivated
	// EventDeactivated fires when deactivation returns. If buffers are
	// still outstanding, the flush completes later, on the last release.
	EventDeactivated
	// EventClosed fires once, at the end of Close.
	EventClosed
)

// Event is delivered to Options.OnEvent on lifecycle transitions.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Options configures a Pool at construction time. The zero value is
// valid: DefaultAllocator, no logging, no callbacks.
type Options struct {
	// Contract supplies the overridable hook set. Nil uses BaseSubclass.
	Contract SubclassContract
	// Allocator supplies the raw memory allocator. Nil uses DefaultAllocator.
	Allocator Allocator

	// Logger receives a Debug record for every acquire and release
	// (pool id and outstanding count). State transitions and failures
	// are not logged. Nil disables logging.
	Logger *slog.Logger

	// ErrorCallback is an optional function called when an on-demand
	// allocation inside AcquireBuffer fails, with operation
	// "alloc_buffer" and the allocator's error, matching the teacher's
	// ErrorCallback(operation string, err error) signature. Preallocation
	// failures are returned by SetActive and are not reported here.
	ErrorCallback func(operation string, err error)

	// OnEvent is an optional function called on every lifecycle
	// transition (configured, activated, deactivated, closed).
	OnEvent func(Event)
}

// Pool is a concurrent buffer pool: a free list of idle Buffers, an
// outstanding count, and a configure/activate/deactivate lifecycle
// around them. The zero Pool is not usable; construct with New.
type Pool struct {
	id uuid.UUID

	contract  SubclassContract
	allocator Allocator

	mu         sync.Mutex // guards configured/active; dropped before subclass calls
	configured bool
	active     bool
	flushing   atomic.Bool

	config atomic.Pointer[ConfigStore]

	freeList *freeList
	waker    *waker

	outstanding atomic.Int64

	// admitMu serializes the max_buffers admission decision in
	// defaultAcquire: reading (outstanding + free-list length +
	// allocating) and reserving a slot via allocating must happen as one
	// step, or two concurrent acquirers can both pass the check and both
	// allocate, pushing outstanding past max_buffers.
	admitMu    sync.Mutex
	allocating atomic.Int64

	logger        *slog.Logger
	errorCallback func(operation string, err error)
	onEvent       func(Event)

	timeCache *timecache.TimeCache
	closeOnce sync.Once
}

// New constructs a Pool. opts may be nil for all-defaults.
func New(opts *Options) *Pool {
	if opts == nil {
		opts = &Options{}
	}

	p := &Pool{
		id:            uuid.New(),
		contract:      opts.Contract,
		allocator:     opts.Allocator,
		freeList:      newFreeList(),
		waker:         newWaker(),
		logger:        opts.Logger,
		errorCallback: opts.ErrorCallback,
		onEvent:       opts.OnEvent,
		timeCache:     timecache.NewWithResolution(time.Millisecond),
	}
	if p.contract == nil {
		p.contract = BaseSubclass{}
	}
	if p.allocator == nil {
		p.allocator = DefaultAllocator{}
	}
	p.config.Store(NewConfigStore())
	return p
}

// ID returns the pool's unique identifier, stable for the pool's
// lifetime. Useful for correlating log lines and metrics across pools.
func (p *Pool) ID() uuid.UUID { return p.id }

// AcquireBuffer obtains a Buffer from the pool, allocating a new one if
// the free list is empty and the pool has not reached max_buffers. If
// params is nil, defaultAcquireParams is used (Wait: true). ctx governs
// cancellation while blocked; a nil ctx is treated as context.Background.
//
// AcquireBuffer dispatches to the subclass's AcquireBuffer hook but
// always owns outstanding bookkeeping itself, so an override cannot
// accidentally skew the count.
func (p *Pool) AcquireBuffer(ctx context.Context, params *AcquireParams) (*Buffer, Status) {
	if ctx == nil {
		ctx = context.Background()
	}
	if params == nil {
		params = defaultAcquireParams()
	}

	if !p.IsActive() || p.IsFlushing() {
		return nil, StatusFlushing
	}

	buf, status := p.contract.AcquireBuffer(p, ctx, params)
	if status == StatusOK {
		p.outstanding.Add(1)
		p.logf("acquire", "outstanding", p.outstanding.Load())
	}
	return buf, status
}

// ReleaseBuffer returns buf to the pool. Safe to call exactly once per
// successful AcquireBuffer; calling it twice for the same Buffer
// corrupts the outstanding count, same contract as
// gst_buffer_pool_release_buffer.
func (p *Pool) ReleaseBuffer(buf *Buffer) {
	p.outstanding.Add(-1)
	p.contract.ReleaseBuffer(p, buf)
	p.logf("release", "outstanding", p.outstanding.Load())

	if p.IsFlushing() && p.outstanding.Load() <= 0 {
		p.flushAll()
	}
}

// Outstanding returns the number of buffers currently held by callers
// (acquired but not yet released). The only running count spec.md §4.2
// mandates beyond free-list membership.
func (p *Pool) Outstanding() int64 { return p.outstanding.Load() }

// Close deactivates the pool (if active) and releases the internal time
// cache. Mirrors gst_buffer_pool_finalize's teardown order: deactivate,
// flush, release resources. Idle buffers are flushed immediately when no
// buffer is outstanding; otherwise the flush runs when the last
// outstanding buffer is released, and Close does not wait for it. Close is
// idempotent, guarded by sync.Once the way the teacher's Logger.Close is;
// later calls are no-ops returning nil.
func (p *Pool) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.deactivate()
		p.timeCache.Stop()
		p.emit(Event{Kind: EventClosed})
	})
	return err
}

// defaultAcquire implements spec.md §4.5's algorithm: try the free list
// first; if empty and under max_buffers (or max_buffers is unbounded),
// allocate; otherwise wait or fail per params.Wait.
func (p *Pool) defaultAcquire(ctx context.Context, params *AcquireParams) (*Buffer, Status) {
	for {
		if p.IsFlushing() || !p.IsActive() {
			return nil, StatusFlushing
		}
		select {
		case <-ctx.Done():
			return nil, StatusWouldBlock
		default:
		}

		if buf, ok := p.freeList.TryPop(); ok {
			p.waker.consume()
			return buf, StatusOK
		}

		if buf, status, admitted := p.tryAllocUnderCap(params); admitted {
			return buf, status
		}

		if !params.Wait {
			return nil, StatusWouldBlock
		}

		if !p.waitForCreditOrDone(ctx) {
			return nil, StatusWouldBlock
		}
	}
}

// tryAllocUnderCap makes the max_buffers admission decision and, if
// admitted, allocates. admitMu makes "read the in-flight count" and
// "reserve a slot for this allocation" one atomic step: without it, two
// concurrent callers can both observe room under the cap and both
// allocate, overshooting max_buffers. allocating counts reservations
// that have passed the check but whose buffer isn't accounted for by
// outstanding or the free list yet; it is folded into the in-flight
// count so a second caller sees the reservation immediately. The third
// return value reports whether admission was attempted at all (false
// means the caller is over the cap and should fall through to wait).
func (p *Pool) tryAllocUnderCap(params *AcquireParams) (*Buffer, Status, bool) {
	p.admitMu.Lock()
	_, _, maxBuffers, _, _, _ := p.GetConfig().Get()
	inFlight := p.outstanding.Load() + int64(p.freeList.Len()) + p.allocating.Load()
	if maxBuffers != 0 && uint(inFlight) >= maxBuffers {
		p.admitMu.Unlock()
		return nil, StatusOK, false
	}
	p.allocating.Add(1)
	p.admitMu.Unlock()

	buf, err := p.contract.AllocBuffer(p, params)
	p.allocating.Add(-1)
	if err != nil {
		p.reportError("alloc_buffer", err)
		return nil, StatusAllocFailed, true
	}
	return buf, StatusOK, true
}

// waitForCreditOrDone blocks until the free list may have gained an
// entry, the pool stops accepting acquires, or ctx ends. It returns
// false if ctx ended the wait, in which case the caller should give up
// rather than loop back into TryPop. The watcher goroutine is always
// drained before returning, so a canceled acquire never leaks one.
func (p *Pool) waitForCreditOrDone(ctx context.Context) bool {
	canceled := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		p.waker.wait(func() bool {
			select {
			case <-canceled:
				return true
			default:
			}
			return p.IsFlushing() || !p.IsActive()
		})
	}()

	select {
	case <-ctx.Done():
		close(canceled)
		p.waker.broadcast()
		<-stopped
		return false
	case <-stopped:
		return true
	}
}

// defaultRelease pushes buf back into the free list and wakes one
// waiter. While the pool is flushing, buf is handed to the FreeBuffer
// hook instead, so no released buffer re-enters the free list mid-drain.
func (p *Pool) defaultRelease(buf *Buffer) {
	if p.IsFlushing() {
		p.contract.FreeBuffer(p, buf)
		return
	}
	p.freeList.Push(buf)
	p.waker.signal()
}

func (p *Pool) emit(ev Event) {
	ev.At = p.timeCache.CachedTime()
	if p.onEvent != nil {
		p.onEvent(ev)
	}
}

func (p *Pool) reportError(operation string, err error) {
	if p.errorCallback != nil {
		p.errorCallback(operation, err)
	}
}

func (p *Pool) logf(op string, key string, value int64) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(op, "pool_id", p.id, key, value)
}
