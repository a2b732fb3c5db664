package ecsfs

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ostafen/ecsfs/internal/disk"
	"github.com/stretchr/testify/require"
)

func newVolume(t *testing.T, dataBlocks int) (*Volume, *disk.Memory) {
	t.Helper()

	sb, err := NewGeometry(dataBlocks)
	require.NoError(t, err)

	dev := disk.NewMemory(int(sb.TotalBlocks))
	_, err = Format(dev, dataBlocks)
	require.NoError(t, err)

	v, err := Mount(dev)
	require.NoError(t, err)
	return v, dev
}

func remount(t *testing.T, v *Volume, dev *disk.Memory) *Volume {
	t.Helper()

	require.NoError(t, v.Unmount())
	dev.Reopen()

	v, err := Mount(dev)
	require.NoError(t, err)
	return v
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	rand.Read(b)
	return b
}

// writeFile creates name and fills it with data through a fresh descriptor.
func writeFile(t *testing.T, v *Volume, name string, data []byte) {
	t.Helper()

	require.NoError(t, v.Create(name))
	fd, err := v.Open(name)
	require.NoError(t, err)

	n, err := v.Write(fd, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, v.Close(fd))
}

func readFile(t *testing.T, v *Volume, name string) []byte {
	t.Helper()

	fd, err := v.Open(name)
	require.NoError(t, err)
	defer v.Close(fd)

	size, err := v.Stat(fd)
	require.NoError(t, err)

	buf := make([]byte, size+10)
	n, err := v.Read(fd, buf)
	require.NoError(t, err)
	require.Equal(t, int(size), n)
	return buf[:n]
}

var errInjected = errors.New("injected failure")

// faultyDevice fails reads of failRead and all writes once failWrites is set.
type faultyDevice struct {
	disk.Device
	failRead   int
	failWrites bool
}

func (d *faultyDevice) ReadBlock(idx int, buf []byte) error {
	if idx == d.failRead {
		return errInjected
	}
	return d.Device.ReadBlock(idx, buf)
}

func (d *faultyDevice) WriteBlock(idx int, buf []byte) error {
	if d.failWrites {
		return errInjected
	}
	return d.Device.WriteBlock(idx, buf)
}
