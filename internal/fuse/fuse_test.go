//go:build linux

package fuse

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"bazil.org/fuse"
	"github.com/ostafen/ecsfs/internal/disk"
	"github.com/ostafen/ecsfs/internal/ecsfs"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T, dataBlocks int) (*FS, *Dir) {
	t.Helper()

	sb, err := ecsfs.NewGeometry(dataBlocks)
	require.NoError(t, err)

	dev := disk.NewMemory(int(sb.TotalBlocks))
	_, err = ecsfs.Format(dev, dataBlocks)
	require.NoError(t, err)

	vol, err := ecsfs.Mount(dev)
	require.NoError(t, err)

	fsys := NewFS(vol, slog.New(slog.NewTextHandler(io.Discard, nil)))
	root, err := fsys.Root()
	require.NoError(t, err)
	return fsys, root.(*Dir)
}

func TestCreateWriteRead(t *testing.T) {
	ctx := context.Background()
	fsys, dir := newFS(t, 32)

	node, handle, err := dir.Create(ctx, &fuse.CreateRequest{Name: "hello.txt"}, &fuse.CreateResponse{})
	require.NoError(t, err)

	h := handle.(*Handle)
	var wresp fuse.WriteResponse
	require.NoError(t, h.Write(ctx, &fuse.WriteRequest{Offset: 0, Data: []byte("hello world")}, &wresp))
	require.Equal(t, 11, wresp.Size)

	var rresp fuse.ReadResponse
	require.NoError(t, h.Read(ctx, &fuse.ReadRequest{Offset: 6, Size: 100}, &rresp))
	require.Equal(t, []byte("world"), rresp.Data)

	require.NoError(t, h.Read(ctx, &fuse.ReadRequest{Offset: 50, Size: 10}, &rresp))
	require.Empty(t, rresp.Data)

	var attr fuse.Attr
	require.NoError(t, node.(*File).Attr(ctx, &attr))
	require.Equal(t, uint64(11), attr.Size)
	require.Equal(t, os.FileMode(0644), attr.Mode)

	require.NoError(t, h.Flush(ctx, &fuse.FlushRequest{}))
	require.NoError(t, h.Release(ctx, &fuse.ReleaseRequest{}))

	entries, err := dir.ReadDirAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "hello.txt", entries[0].Name)
	require.Equal(t, fuse.DT_File, entries[0].Type)

	require.NoError(t, fsys.vol.Check())
}

func TestWritePastEndFillsZeros(t *testing.T) {
	ctx := context.Background()
	_, dir := newFS(t, 32)

	_, handle, err := dir.Create(ctx, &fuse.CreateRequest{Name: "sparse"}, &fuse.CreateResponse{})
	require.NoError(t, err)
	h := handle.(*Handle)

	var wresp fuse.WriteResponse
	require.NoError(t, h.Write(ctx, &fuse.WriteRequest{Offset: 5000, Data: []byte("x")}, &wresp))

	var rresp fuse.ReadResponse
	require.NoError(t, h.Read(ctx, &fuse.ReadRequest{Offset: 0, Size: 6000}, &rresp))
	require.Len(t, rresp.Data, 5001)
	require.Equal(t, make([]byte, 5000), rresp.Data[:5000])
	require.Equal(t, byte('x'), rresp.Data[5000])
}

func TestLookupAndRemove(t *testing.T) {
	ctx := context.Background()
	_, dir := newFS(t, 32)

	_, err := dir.Lookup(ctx, "missing")
	require.Equal(t, fuse.ENOENT, err)

	_, handle, err := dir.Create(ctx, &fuse.CreateRequest{Name: "a"}, &fuse.CreateResponse{})
	require.NoError(t, err)

	_, _, err = dir.Create(ctx, &fuse.CreateRequest{Name: "a"}, &fuse.CreateResponse{})
	require.Equal(t, fuse.EEXIST, err)

	_, _, err = dir.Create(ctx, &fuse.CreateRequest{Name: "name-too-long-for-volume"}, &fuse.CreateResponse{})
	require.Equal(t, fuse.Errno(syscall.ENAMETOOLONG), err)

	node, err := dir.Lookup(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "a", node.(*File).name)

	require.Equal(t, fuse.Errno(syscall.EBUSY), dir.Remove(ctx, &fuse.RemoveRequest{Name: "a"}))
	require.NoError(t, handle.(*Handle).Release(ctx, &fuse.ReleaseRequest{}))
	require.NoError(t, dir.Remove(ctx, &fuse.RemoveRequest{Name: "a"}))
	require.Equal(t, fuse.ENOENT, dir.Remove(ctx, &fuse.RemoveRequest{Name: "a"}))
}

func TestSetattrSize(t *testing.T) {
	ctx := context.Background()
	_, dir := newFS(t, 32)

	node, handle, err := dir.Create(ctx, &fuse.CreateRequest{Name: "a"}, &fuse.CreateResponse{})
	require.NoError(t, err)
	require.NoError(t, handle.(*Handle).Release(ctx, &fuse.ReleaseRequest{}))
	f := node.(*File)

	var resp fuse.SetattrResponse
	require.NoError(t, f.Setattr(ctx, &fuse.SetattrRequest{Valid: fuse.SetattrSize, Size: 3 * ecsfs.BlockSize}, &resp))
	require.Equal(t, uint64(3*ecsfs.BlockSize), resp.Attr.Size)

	require.NoError(t, f.Setattr(ctx, &fuse.SetattrRequest{Valid: fuse.SetattrSize, Size: 10}, &resp))
	require.Equal(t, uint64(10), resp.Attr.Size)

	h, err := f.Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadWrite | fuse.OpenTruncate}, &fuse.OpenResponse{})
	require.NoError(t, err)

	var attr fuse.Attr
	require.NoError(t, f.Attr(ctx, &attr))
	require.Zero(t, attr.Size)
	require.NoError(t, h.(*Handle).Release(ctx, &fuse.ReleaseRequest{}))
}

func TestNoSpace(t *testing.T) {
	ctx := context.Background()
	_, dir := newFS(t, 3)

	_, handle, err := dir.Create(ctx, &fuse.CreateRequest{Name: "a"}, &fuse.CreateResponse{})
	require.NoError(t, err)
	h := handle.(*Handle)

	var wresp fuse.WriteResponse
	require.NoError(t, h.Write(ctx, &fuse.WriteRequest{Offset: 0, Data: make([]byte, 3*ecsfs.BlockSize)}, &wresp))
	require.Equal(t, 2*ecsfs.BlockSize, wresp.Size)

	err = h.Write(ctx, &fuse.WriteRequest{Offset: 2 * ecsfs.BlockSize, Data: []byte{1}}, &wresp)
	require.Equal(t, fuse.Errno(syscall.ENOSPC), err)
}

func TestPrepareMountpoint(t *testing.T) {
	base := t.TempDir()

	created, err := PrepareMountpoint(filepath.Join(base, "mnt"))
	require.NoError(t, err)
	require.True(t, created)

	created, err = PrepareMountpoint(filepath.Join(base, "mnt"))
	require.NoError(t, err)
	require.False(t, created)

	require.NoError(t, os.WriteFile(filepath.Join(base, "mnt", "f"), nil, 0644))
	_, err = PrepareMountpoint(filepath.Join(base, "mnt"))
	require.Error(t, err)

	_, err = PrepareMountpoint(filepath.Join(base, "mnt", "f"))
	require.Error(t, err)
}
