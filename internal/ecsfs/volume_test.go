package ecsfs

import (
	"path/filepath"
	"testing"

	"github.com/ostafen/ecsfs/internal/disk"
	"github.com/stretchr/testify/require"
)

func TestFreshVolumeInfo(t *testing.T) {
	v, _ := newVolume(t, 8192)

	info, err := v.Info()
	require.NoError(t, err)
	require.Equal(t, Info{
		TotalBlocks: 8198,
		FATBlocks:   4,
		RootIndex:   5,
		DataIndex:   6,
		DataBlocks:  8192,
		FreeBlocks:  8191,
		FreeEntries: MaxFiles,
	}, info)

	entries, err := v.List()
	require.NoError(t, err)
	require.Empty(t, entries)
	require.NoError(t, v.Check())
}

func TestMountUnmountIsIdempotent(t *testing.T) {
	v, dev := newVolume(t, 3000)
	writeFile(t, v, "a", randomBytes(5000))
	writeFile(t, v, "b", randomBytes(10))
	require.NoError(t, v.Unmount())

	image := append([]byte{}, dev.Bytes()...)

	for i := 0; i < 3; i++ {
		dev.Reopen()
		v, err := Mount(dev)
		require.NoError(t, err)
		require.NoError(t, v.Unmount())
		require.Equal(t, image, dev.Bytes())
	}
}

func TestMetadataPersists(t *testing.T) {
	v, dev := newVolume(t, 64)

	a := randomBytes(2*BlockSize + 3)
	writeFile(t, v, "a", a)
	writeFile(t, v, "b", []byte("small"))
	require.NoError(t, v.Delete("b"))
	writeFile(t, v, "c", nil)

	entries, err := v.List()
	require.NoError(t, err)
	info, err := v.Info()
	require.NoError(t, err)

	v = remount(t, v, dev)

	remounted, err := v.List()
	require.NoError(t, err)
	require.Equal(t, entries, remounted)

	remountedInfo, err := v.Info()
	require.NoError(t, err)
	require.Equal(t, info, remountedInfo)

	require.Equal(t, a, readFile(t, v, "a"))
}

func TestNotMounted(t *testing.T) {
	v, _ := newVolume(t, 16)
	require.NoError(t, v.Create("a"))
	fd, err := v.Open("a")
	require.NoError(t, err)

	require.NoError(t, v.Unmount())
	require.ErrorIs(t, v.Unmount(), ErrNotMounted)

	_, err = v.Info()
	require.ErrorIs(t, err, ErrNotMounted)
	require.ErrorIs(t, v.Create("b"), ErrNotMounted)
	require.ErrorIs(t, v.Delete("a"), ErrNotMounted)
	_, err = v.List()
	require.ErrorIs(t, err, ErrNotMounted)
	_, err = v.Open("a")
	require.ErrorIs(t, err, ErrNotMounted)
	_, err = v.Read(fd, make([]byte, 1))
	require.ErrorIs(t, err, ErrNotMounted)
	_, err = v.Write(fd, []byte{1})
	require.ErrorIs(t, err, ErrNotMounted)
	require.ErrorIs(t, v.Close(fd), ErrNotMounted)
	require.ErrorIs(t, v.Check(), ErrNotMounted)

	var nilVolume *Volume
	_, err = nilVolume.Info()
	require.ErrorIs(t, err, ErrNotMounted)
}

func TestUnmountDiscardsDescriptors(t *testing.T) {
	v, dev := newVolume(t, 16)
	require.NoError(t, v.Create("a"))
	_, err := v.Open("a")
	require.NoError(t, err)

	v = remount(t, v, dev)

	require.ErrorIs(t, v.Close(0), ErrHandleNotOpen)
	require.NoError(t, v.Delete("a"))
}

func TestUnmountFlushFailureReleasesState(t *testing.T) {
	_, mem := newVolume(t, 16)
	mem.Reopen()

	dev := &faultyDevice{Device: mem, failRead: -1}
	v, err := Mount(dev)
	require.NoError(t, err)
	require.NoError(t, v.Create("a"))

	dev.failWrites = true
	err = v.Unmount()
	require.ErrorIs(t, err, ErrDeviceIO)
	require.ErrorIs(t, err, errInjected)

	_, err = v.Info()
	require.ErrorIs(t, err, ErrNotMounted)

	err = mem.ReadBlock(0, make([]byte, BlockSize))
	require.ErrorIs(t, err, disk.ErrClosed)
}

func TestFormatRejectsWrongDeviceSize(t *testing.T) {
	_, err := Format(disk.NewMemory(10), 100)
	require.Error(t, err)

	_, err = Format(disk.NewMemory(10), 0)
	require.Error(t, err)
}

func TestImageVolume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")

	sb, err := CreateImage(path, 100)
	require.NoError(t, err)
	require.Equal(t, uint16(103), sb.TotalBlocks)

	v, err := MountImage(path)
	require.NoError(t, err)

	data := randomBytes(BlockSize + 1)
	writeFile(t, v, "file", data)
	require.NoError(t, v.Unmount())

	v, err = MountImage(path)
	require.NoError(t, err)
	require.Equal(t, data, readFile(t, v, "file"))
	require.NoError(t, v.Unmount())

	_, err = MountImage(filepath.Join(t.TempDir(), "missing.img"))
	require.Error(t, err)
}
