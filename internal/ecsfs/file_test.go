package ecsfs

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileAdapter(t *testing.T) {
	v, _ := newVolume(t, 32)
	require.NoError(t, v.Create("a"))

	f, err := v.OpenFile("a")
	require.NoError(t, err)

	data := randomBytes(5*BlockSize + 123)
	n, err := io.Copy(f, bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)

	size, err := f.Size()
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), size)

	off, err := f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	require.Zero(t, off)

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, data, got)

	off, err = f.Seek(-100, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)-100), off)

	off, err = f.Seek(-50, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)-150), off)

	_, err = f.Seek(1, io.SeekEnd)
	require.ErrorIs(t, err, ErrOffsetOutOfRange)

	_, err = f.Seek(0, 42)
	require.Error(t, err)

	require.NoError(t, f.Truncate(10))
	off, err = f.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(10), off)

	require.NoError(t, f.Close())
	require.Error(t, f.Close())

	require.NoError(t, v.Delete("a"))
}
