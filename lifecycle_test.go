package bufpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_ActivateRequiresConfigure(t *testing.T) {
	p := New(nil)
	t.Cleanup(func() { _ = p.Close() })
	err := p.SetActive(true)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLifecycle_ConfigureRejectedWhileActive(t *testing.T) {
	p := New(nil)
	t.Cleanup(func() { _ = p.Close() })
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(64, 1, 4, 0, 0, 1))
	require.NoError(t, p.Configure(cfg))
	require.NoError(t, p.SetActive(true))

	err := p.Configure(NewConfigStore())
	assert.Error(t, err)
}

func TestLifecycle_ActivatePreallocatesMinBuffers(t *testing.T) {
	p := New(nil)
	t.Cleanup(func() { _ = p.Close() })
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(64, 4, 0, 0, 0, 1))
	require.NoError(t, p.Configure(cfg))
	require.NoError(t, p.SetActive(true))

	assert.Equal(t, 4, p.freeList.Len())
}

func TestLifecycle_DeactivateFlushesFreeList(t *testing.T) {
	p := New(nil)
	t.Cleanup(func() { _ = p.Close() })
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(64, 4, 0, 0, 0, 1))
	require.NoError(t, p.Configure(cfg))
	require.NoError(t, p.SetActive(true))
	require.Equal(t, 4, p.freeList.Len())

	require.NoError(t, p.SetActive(false))
	assert.Equal(t, 0, p.freeList.Len())
	assert.False(t, p.IsFlushing())
}

func TestLifecycle_DeactivateDefersFlushUntilOutstandingReleased(t *testing.T) {
	p := New(nil)
	t.Cleanup(func() { _ = p.Close() })
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(64, 2, 2, 0, 0, 1))
	require.NoError(t, p.Configure(cfg))
	require.NoError(t, p.SetActive(true))
	require.Equal(t, 2, p.freeList.Len())

	buf1, status := p.AcquireBuffer(context.Background(), nil)
	require.Equal(t, StatusOK, status)
	buf2, status := p.AcquireBuffer(context.Background(), nil)
	require.Equal(t, StatusOK, status)
	require.Equal(t, int64(2), p.Outstanding())

	require.NoError(t, p.SetActive(false))
	assert.True(t, p.IsFlushing(), "flushing must stay set until the outstanding buffers come back")
	assert.Equal(t, 0, p.freeList.Len(), "deactivate must not drain idle buffers only and clear flushing early")

	p.ReleaseBuffer(buf1)
	assert.True(t, p.IsFlushing(), "one buffer still outstanding, flush must not complete yet")
	assert.Equal(t, 0, p.freeList.Len(), "a release mid-flush must not land the buffer back on the free list")

	p.ReleaseBuffer(buf2)
	assert.False(t, p.IsFlushing())
	assert.Equal(t, 0, p.freeList.Len())
}

func TestLifecycle_ConfigureRejectedWhileDraining(t *testing.T) {
	p := New(nil)
	t.Cleanup(func() { _ = p.Close() })
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(64, 1, 1, 0, 0, 1))
	require.NoError(t, p.Configure(cfg))
	require.NoError(t, p.SetActive(true))

	buf, status := p.AcquireBuffer(context.Background(), nil)
	require.Equal(t, StatusOK, status)

	require.NoError(t, p.SetActive(false))
	require.False(t, p.IsActive())
	require.Equal(t, int64(1), p.Outstanding(), "draining: inactive but a buffer is still outstanding")

	err := p.Configure(NewConfigStore())
	assert.Error(t, err, "Configure must reject while buffers are outstanding, even once inactive")

	p.ReleaseBuffer(buf)
}

func TestLifecycle_SetActiveIsIdempotent(t *testing.T) {
	p := New(nil)
	t.Cleanup(func() { _ = p.Close() })
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(64, 1, 0, 0, 0, 1))
	require.NoError(t, p.Configure(cfg))

	require.NoError(t, p.SetActive(true))
	require.NoError(t, p.SetActive(true))
	assert.True(t, p.IsActive())

	require.NoError(t, p.SetActive(false))
	require.NoError(t, p.SetActive(false))
	assert.False(t, p.IsActive())
}
