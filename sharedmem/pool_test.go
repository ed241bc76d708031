//go:build unix

package sharedmem

import (
	"context"
	"testing"

	"github.com/agilira/bufpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_AllocFreeRoundTrip(t *testing.T) {
	a := Allocator{}
	buf, err := a.AllocBuffer(4096, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 4096, buf.Size())

	data := buf.Data()
	for i := range data {
		data[i] = byte(i)
	}

	a.FreeBuffer(buf)
}

func TestAllocator_RejectsAlignAbovePageSize(t *testing.T) {
	a := Allocator{}
	_, err := a.AllocBuffer(64, 0, 0, uint(pageSize)*2)
	assert.Error(t, err)
}

func TestAllocator_ZeroTotalReturnsEmptyBuffer(t *testing.T) {
	a := Allocator{}
	buf, err := a.AllocBuffer(0, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Size())
}

func TestNew_BuildsPoolWithMmapAllocator(t *testing.T) {
	pool := New(nil)
	defer pool.Close()

	cfg := bufpool.NewConfigStore()
	require.NoError(t, cfg.Set(4096, 1, 4, 0, 0, 1))
	require.NoError(t, pool.Configure(cfg))
	require.NoError(t, pool.SetActive(true))

	buf, status := pool.AcquireBuffer(context.Background(), nil)
	require.Equal(t, bufpool.StatusOK, status)
	assert.Equal(t, 4096, buf.Size())
	pool.ReleaseBuffer(buf)
}
