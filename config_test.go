package bufpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetGet(t *testing.T) {
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(4096, 4, 16, 8, 8, 64))

	size, minB, maxB, prefix, postfix, align := cfg.Get()
	assert.Equal(t, uint(4096), size)
	assert.Equal(t, uint(4), minB)
	assert.Equal(t, uint(16), maxB)
	assert.Equal(t, uint(8), prefix)
	assert.Equal(t, uint(8), postfix)
	assert.Equal(t, uint(64), align)
}

func TestConfigStore_ZeroAlignDefaultsToOne(t *testing.T) {
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(1024, 0, 0, 0, 0, 0))
	_, _, _, _, _, align := cfg.Get()
	assert.Equal(t, uint(1), align)
}

func TestConfigStore_RejectsNonPowerOfTwoAlign(t *testing.T) {
	cfg := NewConfigStore()
	err := cfg.Set(1024, 0, 0, 0, 0, 3)
	assert.Error(t, err)
}

func TestConfigStore_ValidateRejectsMinExceedsMax(t *testing.T) {
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(1024, 10, 4, 0, 0, 1))
	assert.Error(t, cfg.validate())
}

func TestConfigStore_CopyIsIndependent(t *testing.T) {
	cfg := NewConfigStore()
	require.NoError(t, cfg.Set(1024, 1, 1, 0, 0, 1))
	cfg.SetExtra("mmap_flags", 42)

	cp := cfg.Copy()
	require.NoError(t, cfg.Set(2048, 2, 2, 0, 0, 1))
	cfg.SetExtra("mmap_flags", 99)

	size, minB, maxB, _, _, _ := cp.Get()
	assert.Equal(t, uint(1024), size)
	assert.Equal(t, uint(1), minB)
	assert.Equal(t, uint(1), maxB)

	v, ok := cp.GetExtra("mmap_flags")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestConfigStore_ExtraRoundTrip(t *testing.T) {
	cfg := NewConfigStore()
	_, ok := cfg.GetExtra("missing")
	assert.False(t, ok)

	cfg.SetExtra("key", "value")
	v, ok := cfg.GetExtra("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	cfg.Free()
	_, ok = cfg.GetExtra("key")
	assert.False(t, ok)
}
