package disk_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/ecsfs/internal/disk"
	"github.com/ostafen/ecsfs/internal/fs"
	"github.com/stretchr/testify/require"
)

func testDevice(t *testing.T, dev disk.Device, blocks int) {
	require.Equal(t, blocks, dev.BlockCount())

	buf := make([]byte, disk.BlockSize)
	for i := 0; i < blocks; i++ {
		for j := range buf {
			buf[j] = byte(i + j)
		}
		require.NoError(t, dev.WriteBlock(i, buf))
	}

	got := make([]byte, disk.BlockSize)
	for i := 0; i < blocks; i++ {
		for j := range buf {
			buf[j] = byte(i + j)
		}
		require.NoError(t, dev.ReadBlock(i, got))
		require.True(t, bytes.Equal(buf, got), "block %d", i)
	}

	require.ErrorIs(t, dev.ReadBlock(blocks, got), disk.ErrBlockRange)
	require.ErrorIs(t, dev.ReadBlock(-1, got), disk.ErrBlockRange)
	require.ErrorIs(t, dev.WriteBlock(0, got[:10]), disk.ErrBlockSize)

	require.NoError(t, dev.Close())
	require.ErrorIs(t, dev.ReadBlock(0, got), disk.ErrClosed)
	require.ErrorIs(t, dev.Close(), disk.ErrClosed)
}

func TestMemory(t *testing.T) {
	testDevice(t, disk.NewMemory(8), 8)
}

func TestImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.fs")

	img, err := disk.CreateImage(path, 8)
	require.NoError(t, err)
	testDevice(t, img, 8)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(8*disk.BlockSize), info.Size())

	img, err = disk.OpenImage(path)
	require.NoError(t, err)
	defer img.Close()

	buf := make([]byte, disk.BlockSize)
	require.NoError(t, img.ReadBlock(3, buf))
	require.Equal(t, byte(3), buf[0])
}

func TestImageLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.fs")

	img, err := disk.CreateImage(path, 4)
	require.NoError(t, err)

	_, err = disk.OpenImage(path)
	require.ErrorIs(t, err, fs.ErrLocked)

	require.NoError(t, img.Close())

	img, err = disk.OpenImage(path)
	require.NoError(t, err)
	require.NoError(t, img.Close())
}

func TestOpenImageBadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.fs")
	require.NoError(t, os.WriteFile(path, make([]byte, disk.BlockSize+1), 0644))

	_, err := disk.OpenImage(path)
	require.Error(t, err)
}

func TestCreateImageExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.fs")
	require.NoError(t, os.WriteFile(path, make([]byte, disk.BlockSize), 0644))

	_, err := disk.CreateImage(path, 4)
	require.ErrorIs(t, err, os.ErrExist)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(disk.BlockSize), info.Size())
}
