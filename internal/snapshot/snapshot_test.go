package snapshot

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/ostafen/ecsfs/internal/disk"
	"github.com/ostafen/ecsfs/internal/ecsfs"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T) *disk.Memory {
	t.Helper()

	sb, err := ecsfs.NewGeometry(20)
	require.NoError(t, err)

	dev := disk.NewMemory(int(sb.TotalBlocks))
	_, err = ecsfs.Format(dev, 20)
	require.NoError(t, err)

	v, err := ecsfs.Mount(dev)
	require.NoError(t, err)
	require.NoError(t, v.Create("data"))

	fd, err := v.Open("data")
	require.NoError(t, err)

	payload := make([]byte, 5*disk.BlockSize+7)
	rand.New(rand.NewSource(1)).Read(payload)
	_, err = v.Write(fd, payload)
	require.NoError(t, err)
	require.NoError(t, v.Unmount())

	dev.Reopen()
	return dev
}

func memoryDevice(blocks int) (disk.Device, error) {
	return disk.NewMemory(blocks), nil
}

func TestSaveRestore(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			src := newDevice(t)

			var buf bytes.Buffer
			m, err := Save(src, &buf, Options{Compression: c})
			require.NoError(t, err)
			require.Equal(t, src.BlockCount(), m.BlockCount)
			require.Len(t, m.Digest, 32)

			if c != CompressionNone {
				require.Less(t, buf.Len(), len(src.Bytes()))
			}

			dst, restored, err := Restore(&buf, memoryDevice)
			require.NoError(t, err)
			require.Equal(t, m, restored)
			require.Equal(t, src.Bytes(), dst.(*disk.Memory).Bytes())

			v, err := ecsfs.Mount(dst)
			require.NoError(t, err)
			require.NoError(t, v.Check())
		})
	}
}

func TestRestoreDigestMismatch(t *testing.T) {
	src := newDevice(t)

	var buf bytes.Buffer
	_, err := Save(src, &buf, Options{Compression: CompressionNone})
	require.NoError(t, err)

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	_, _, err = Restore(bytes.NewReader(data), memoryDevice)
	require.ErrorIs(t, err, ErrDigestMismatch)
}

func TestRestoreInvalid(t *testing.T) {
	src := newDevice(t)

	var buf bytes.Buffer
	_, err := Save(src, &buf, Options{Compression: CompressionZstd})
	require.NoError(t, err)
	data := buf.Bytes()

	bad := append([]byte{}, data...)
	bad[0] = 'X'
	_, _, err = Restore(bytes.NewReader(bad), memoryDevice)
	require.ErrorIs(t, err, ErrInvalidSnapshot)

	_, _, err = Restore(bytes.NewReader(data[:6]), memoryDevice)
	require.ErrorIs(t, err, ErrInvalidSnapshot)

	m, err := ReadManifest(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, CompressionZstd, m.Compression)
}

func TestRestoreTruncatedBody(t *testing.T) {
	src := newDevice(t)

	var buf bytes.Buffer
	_, err := Save(src, &buf, Options{Compression: CompressionNone})
	require.NoError(t, err)

	data := buf.Bytes()
	_, _, err = Restore(bytes.NewReader(data[:len(data)-disk.BlockSize]), memoryDevice)
	require.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompression(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}

	_, err := ParseCompression("gzip")
	require.Error(t, err)
}
