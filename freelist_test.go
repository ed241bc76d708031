package bufpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeList_PushTryPop(t *testing.T) {
	fl := newFreeList()
	_, ok := fl.TryPop()
	assert.False(t, ok)

	b1 := NewBuffer(nil, nil)
	b2 := NewBuffer(nil, nil)
	fl.Push(b1)
	fl.Push(b2)
	assert.Equal(t, 2, fl.Len())

	got, ok := fl.TryPop()
	require.True(t, ok)
	assert.Same(t, b2, got) // LIFO: most recently pushed pops first

	got, ok = fl.TryPop()
	require.True(t, ok)
	assert.Same(t, b1, got)

	assert.Equal(t, 0, fl.Len())
}

func TestFreeList_Drain(t *testing.T) {
	fl := newFreeList()
	for i := 0; i < 5; i++ {
		fl.Push(NewBuffer(nil, nil))
	}
	drained := fl.Drain()
	assert.Len(t, drained, 5)
	assert.Equal(t, 0, fl.Len())
}

func TestFreeList_ConcurrentPushPop(t *testing.T) {
	fl := newFreeList()
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			fl.Push(NewBuffer(nil, nil))
		}()
	}
	wg.Wait()
	assert.Equal(t, n, fl.Len())

	var popped int64
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, ok := fl.TryPop(); ok {
				atomic.AddInt64(&popped, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(n), popped)
}

func TestWaker_SignalWaitConsume(t *testing.T) {
	w := newWaker()

	done := make(chan struct{})
	go func() {
		w.wait(func() bool { return false })
		close(done)
	}()

	time.Sleep(10 * time.Millisecond) // let the waiter block
	w.signal()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after signal")
	}

	w.consume()
}

func TestWaker_WaitRespectsStop(t *testing.T) {
	w := newWaker()
	stopped := make(chan struct{})
	var stop atomic.Bool

	go func() {
		w.wait(func() bool { return stop.Load() })
		close(stopped)
	}()

	time.Sleep(10 * time.Millisecond)
	stop.Store(true)
	w.broadcast()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after broadcast with stop condition set")
	}
}
