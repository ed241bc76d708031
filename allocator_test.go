package bufpool

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAllocator_SizesAndAlignment(t *testing.T) {
	a := DefaultAllocator{}

	buf, err := a.AllocBuffer(128, 16, 8, 64)
	require.NoError(t, err)
	assert.Equal(t, 128, buf.Size())

	ptr := uintptr(unsafe.Pointer(&buf.Data()[0]))
	prefixStart := ptr - 16
	assert.Equal(t, uintptr(0), prefixStart%64, "aligned base should be 64-byte aligned")
}

func TestDefaultAllocator_ZeroTotalReturnsEmptyBuffer(t *testing.T) {
	a := DefaultAllocator{}
	buf, err := a.AllocBuffer(0, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Size())
	assert.Nil(t, buf.Backing())
}

func TestDefaultAllocator_RejectsNonPowerOfTwoAlign(t *testing.T) {
	a := DefaultAllocator{}
	_, err := a.AllocBuffer(16, 0, 0, 3)
	assert.Error(t, err)
}

func TestDefaultAllocator_FreeBufferDropsReferences(t *testing.T) {
	a := DefaultAllocator{}
	buf, err := a.AllocBuffer(16, 0, 0, 1)
	require.NoError(t, err)

	a.FreeBuffer(buf)
	assert.Nil(t, buf.Data())
	assert.Nil(t, buf.Backing())
}

func TestDefaultAcquireParams_DefaultsToWait(t *testing.T) {
	p := defaultAcquireParams()
	assert.True(t, p.Wait)
}
