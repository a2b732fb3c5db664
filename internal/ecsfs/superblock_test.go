package ecsfs

import (
	"encoding/binary"
	"testing"

	"github.com/ostafen/ecsfs/internal/disk"
	"github.com/stretchr/testify/require"
)

func TestNewGeometry(t *testing.T) {
	for _, dataBlocks := range []int{1, 2047, 2048, 2049, 8192, 65501} {
		sb, err := NewGeometry(dataBlocks)
		require.NoError(t, err)

		fatBlocks := (dataBlocks*2 + 4095) / 4096
		require.Equal(t, fatBlocks, int(sb.FATBlocks))
		require.Equal(t, 1+fatBlocks, int(sb.RootIndex))
		require.Equal(t, 1+int(sb.RootIndex), int(sb.DataIndex))
		require.Equal(t, int(sb.TotalBlocks)-int(sb.DataIndex), int(sb.DataBlocks))
		require.Equal(t, Signature, string(sb.Signature[:]))
		require.NoError(t, sb.validate(int(sb.TotalBlocks)))
	}

	_, err := NewGeometry(0)
	require.Error(t, err)

	_, err = NewGeometry(65502)
	require.Error(t, err)
}

func TestFitGeometry(t *testing.T) {
	cases := map[int]int{
		4:     1,
		103:   100,
		2051:  2048,
		2052:  2048,
		2053:  2049,
		65535: 65501,
	}
	for total, want := range cases {
		sb, err := FitGeometry(total)
		require.NoError(t, err)
		require.Equal(t, want, int(sb.DataBlocks), "total %d", total)
		require.LessOrEqual(t, int(sb.TotalBlocks), total)
	}

	_, err := FitGeometry(3)
	require.Error(t, err)

	_, err = FitGeometry(MaxBlocks + 1)
	require.Error(t, err)
}

func TestSuperblockEncoding(t *testing.T) {
	sb, err := NewGeometry(8192)
	require.NoError(t, err)
	sb.Padding[100] = 0xAB

	buf := make([]byte, BlockSize)
	require.NoError(t, sb.encode(buf))

	require.Equal(t, "ECS150FS", string(buf[:8]))
	require.Equal(t, uint16(8198), binary.LittleEndian.Uint16(buf[8:]))
	require.Equal(t, uint16(5), binary.LittleEndian.Uint16(buf[10:]))
	require.Equal(t, uint16(6), binary.LittleEndian.Uint16(buf[12:]))
	require.Equal(t, uint16(8192), binary.LittleEndian.Uint16(buf[14:]))
	require.Equal(t, byte(4), buf[16])

	decoded, err := decodeSuperblock(buf)
	require.NoError(t, err)
	require.Equal(t, sb, decoded)

	_, err = decodeSuperblock(buf[:100])
	require.Error(t, err)
}

func TestMountRejectsInvalidSuperblock(t *testing.T) {
	corruptions := map[string]func(b []byte){
		"signature":    func(b []byte) { b[0] = 'X' },
		"total blocks": func(b []byte) { binary.LittleEndian.PutUint16(b[8:], binary.LittleEndian.Uint16(b[8:])+1) },
		"root index":   func(b []byte) { binary.LittleEndian.PutUint16(b[10:], binary.LittleEndian.Uint16(b[10:])+1) },
		"data index":   func(b []byte) { binary.LittleEndian.PutUint16(b[12:], binary.LittleEndian.Uint16(b[12:])+1) },
		"data blocks":  func(b []byte) { binary.LittleEndian.PutUint16(b[14:], binary.LittleEndian.Uint16(b[14:])-1) },
		"fat blocks":   func(b []byte) { b[16]++ },
	}

	for name, corrupt := range corruptions {
		t.Run(name, func(t *testing.T) {
			v, dev := newVolume(t, 100)
			require.NoError(t, v.Unmount())
			dev.Reopen()

			corrupt(dev.Bytes())

			_, err := Mount(dev)
			require.ErrorIs(t, err, ErrInvalidVolumeFormat)
		})
	}
}

func TestMountRejectsDeviceSizeMismatch(t *testing.T) {
	_, dev := newVolume(t, 10)

	bigger := disk.NewMemory(dev.BlockCount() + 1)
	copy(bigger.Bytes(), dev.Bytes())

	_, err := Mount(bigger)
	require.ErrorIs(t, err, ErrInvalidVolumeFormat)
}

func TestMountReadFailure(t *testing.T) {
	for _, blk := range []int{0, 1, 2} {
		_, dev := newVolume(t, 10)

		_, err := Mount(&faultyDevice{Device: dev, failRead: blk})
		require.ErrorIs(t, err, ErrDeviceIO)
		require.ErrorIs(t, err, errInjected)
	}
}
