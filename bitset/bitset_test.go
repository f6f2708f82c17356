package bitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitSet(t *testing.T) {
	bs := NewBitSet(100)
	assert.Len(t, bs, 2)
	assert.False(t, bs.Any())

	for _, i := range []uint64{0, 63, 64, 99} {
		bs.Set(i)
	}
	for _, i := range []uint64{0, 63, 64, 99} {
		assert.True(t, bs.IsSet(i), "bit %d", i)
	}
	assert.False(t, bs.IsSet(1))
	assert.Equal(t, 4, bs.Count())
	assert.True(t, bs.Any())

	bs.Set(63)
	assert.Equal(t, 4, bs.Count(), "setting twice is idempotent")

	bs.Unset(63)
	assert.False(t, bs.IsSet(63))
	assert.True(t, bs.IsSet(64))

	bs.Clear()
	assert.Equal(t, 0, bs.Count())
}

func TestBitSet_SetFrom(t *testing.T) {
	src := BitSet{0b1010, 0b1111}
	dst := BitSet{0, 0}
	dst.SetFrom(src)
	assert.Equal(t, src, dst)

	assert.Panics(t, func() { BitSet{0}.SetFrom(src) })
}
