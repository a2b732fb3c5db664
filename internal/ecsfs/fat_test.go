package ecsfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFATAllocFirstFit(t *testing.T) {
	f := make(FAT, 6)
	f[0] = fatEOC

	for want := uint16(1); want < 6; want++ {
		blk, err := f.alloc()
		require.NoError(t, err)
		require.Equal(t, want, blk)
		require.Equal(t, fatEOC, f[blk])
	}

	_, err := f.alloc()
	require.ErrorIs(t, err, ErrNoFreeBlocks)

	f[3] = fatFree
	blk, err := f.alloc()
	require.NoError(t, err)
	require.Equal(t, uint16(3), blk)
}

func TestFATChainOperations(t *testing.T) {
	f := make(FAT, 10)
	f[0] = fatEOC

	first, err := f.alloc()
	require.NoError(t, err)

	last := first
	for i := 0; i < 3; i++ {
		last, err = f.extend(last)
		require.NoError(t, err)
	}

	blocks, err := f.chain(first)
	require.NoError(t, err)
	require.Equal(t, []uint16{1, 2, 3, 4}, blocks)

	length, tail, err := f.walk(first)
	require.NoError(t, err)
	require.Equal(t, 4, length)
	require.Equal(t, uint16(4), tail)

	blk, err := f.nth(first, 2)
	require.NoError(t, err)
	require.Equal(t, uint16(3), blk)

	_, err = f.nth(first, 4)
	require.ErrorIs(t, err, ErrInvalidVolumeFormat)

	require.Equal(t, 5, f.free())

	released, err := f.truncate(first, 2)
	require.NoError(t, err)
	require.Equal(t, 2, released)
	require.Equal(t, fatEOC, f[2])
	require.Equal(t, 7, f.free())

	released, err = f.truncate(first, 2)
	require.NoError(t, err)
	require.Zero(t, released)

	released, err = f.release(first)
	require.NoError(t, err)
	require.Equal(t, 2, released)
	require.Equal(t, 9, f.free())
}

func TestFATCorruptChains(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		f := FAT{fatEOC, 2, 1, fatFree}

		_, _, err := f.walk(1)
		require.ErrorIs(t, err, ErrInvalidVolumeFormat)

		_, err = f.chain(1)
		require.ErrorIs(t, err, ErrInvalidVolumeFormat)

		_, err = f.release(1)
		require.ErrorIs(t, err, ErrInvalidVolumeFormat)
	})

	t.Run("out of range", func(t *testing.T) {
		f := FAT{fatEOC, 7, fatFree}

		_, _, err := f.walk(1)
		require.ErrorIs(t, err, ErrInvalidVolumeFormat)
	})

	t.Run("free block in chain", func(t *testing.T) {
		f := FAT{fatEOC, 2, fatFree}

		_, err := f.chain(1)
		require.ErrorIs(t, err, ErrInvalidVolumeFormat)
	})
}

func TestFATBlockEncoding(t *testing.T) {
	src := make([]uint16, fatEntriesPerBlock)
	src[0] = fatEOC
	src[1] = 2
	src[2] = fatEOC
	src[fatEntriesPerBlock-1] = 0x1234

	buf := make([]byte, BlockSize)
	encodeFATBlock(buf, src)
	require.Equal(t, []byte{0xFF, 0xFF, 0x02, 0x00}, buf[:4])
	require.Equal(t, []byte{0x34, 0x12}, buf[BlockSize-2:])

	dst := make([]uint16, fatEntriesPerBlock)
	decodeFATBlock(dst, buf)
	require.Equal(t, src, dst)
}

func TestBlocksFor(t *testing.T) {
	cases := map[int64]int{
		0:             1,
		1:             1,
		BlockSize:     1,
		BlockSize + 1: 2,
		3 * BlockSize: 3,
	}
	for size, want := range cases {
		require.Equal(t, want, blocksFor(size), "size %d", size)
	}
}
