package ecsfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckDetectsCorruption(t *testing.T) {
	setup := func(t *testing.T) *Volume {
		v, _ := newVolume(t, 32)
		writeFile(t, v, "a", randomBytes(2*BlockSize))
		writeFile(t, v, "b", randomBytes(10))
		require.NoError(t, v.Check())
		return v
	}

	t.Run("leaked block", func(t *testing.T) {
		v := setup(t)
		v.fat[20] = fatEOC
		require.ErrorIs(t, v.Check(), ErrInvalidVolumeFormat)
	})

	t.Run("shared block", func(t *testing.T) {
		v := setup(t)
		slot, _ := v.root.lookup("b")
		v.fat[v.root[slot].FirstBlock] = fatFree
		v.root[slot].FirstBlock = 1
		require.ErrorIs(t, v.Check(), ErrInvalidVolumeFormat)
	})

	t.Run("chain too short", func(t *testing.T) {
		v := setup(t)
		slot, _ := v.root.lookup("b")
		v.root[slot].Size = 3 * BlockSize
		require.ErrorIs(t, v.Check(), ErrInvalidVolumeFormat)
	})

	t.Run("free block in chain", func(t *testing.T) {
		v := setup(t)
		slot, _ := v.root.lookup("a")
		v.fat[v.root[slot].FirstBlock] = 30
		require.ErrorIs(t, v.Check(), ErrInvalidVolumeFormat)
	})

	t.Run("loop", func(t *testing.T) {
		v := setup(t)
		slot, _ := v.root.lookup("a")
		first := v.root[slot].FirstBlock
		second := v.fat[first]
		v.fat[second] = first
		require.ErrorIs(t, v.Check(), ErrInvalidVolumeFormat)
	})
}
