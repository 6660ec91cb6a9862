package globalobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagString(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{PoolTag, "GObj"},
		{'t'<<24 | 's'<<16 | 'e'<<8 | 'T', "Test"},
		{0, "...."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tag.String())
	}
}

func TestTaggedPoolLimit(t *testing.T) {
	pool := NewTaggedPool(64)
	require.NoError(t, pool.Allocate(PoolTag, 48))
	assert.ErrorIs(t, pool.Allocate(PoolTag, 32), ErrPoolExhausted)
	require.NoError(t, pool.Allocate(PoolTag, 16))
	assert.Equal(t, 64, pool.InUse())
	assert.Equal(t, 2, pool.Outstanding(PoolTag))

	pool.Free(PoolTag, 48)
	require.NoError(t, pool.Allocate(PoolTag, 32))
	assert.Equal(t, 48, pool.InUse())
}

func TestTaggedPoolInvalidSize(t *testing.T) {
	pool := NewTaggedPool(0)
	assert.Error(t, pool.Allocate(PoolTag, 0))
	assert.Zero(t, pool.Outstanding(PoolTag))
}

func TestTaggedPoolDoubleFreePanics(t *testing.T) {
	pool := NewTaggedPool(0)
	assert.Panics(t, func() { pool.Free(PoolTag, 8) })
}
