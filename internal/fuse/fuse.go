//go:build linux

// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package fuse

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/ostafen/ecsfs/internal/ecsfs"
)

// FS serves the root directory of a mounted volume. The volume is not safe
// for concurrent use, so every request holds mu for its whole duration.
type FS struct {
	mu  sync.Mutex
	vol *ecsfs.Volume
	log *slog.Logger
}

func NewFS(vol *ecsfs.Volume, log *slog.Logger) *FS {
	return &FS{vol: vol, log: log}
}

func (fsys *FS) Root() (fs.Node, error) {
	return &Dir{fs: fsys}, nil
}

// Dir implements fs.Node, fs.HandleReadDirAller and the create and remove
// operations of the flat root directory.
type Dir struct {
	fs *FS
}

func (*Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = 1
	a.Mode = os.ModeDir | 0755
	return nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if _, err := d.fs.vol.Lookup(name); err != nil {
		return nil, errno(err)
	}
	return &File{fs: d.fs, name: name}, nil
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	entries, err := d.fs.vol.List()
	if err != nil {
		return nil, errno(err)
	}

	dirEntries := make([]fuse.Dirent, len(entries))
	for i, e := range entries {
		dirEntries[i] = fuse.Dirent{
			Inode: inode(e),
			Name:  e.Name,
			Type:  fuse.DT_File,
		}
	}
	return dirEntries, nil
}

func (d *Dir) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fs.Node, fs.Handle, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if err := d.fs.vol.Create(req.Name); err != nil {
		return nil, nil, errno(err)
	}

	fd, err := d.fs.vol.Open(req.Name)
	if err != nil {
		return nil, nil, errno(err)
	}

	d.fs.log.Debug("created", "name", req.Name, "fd", fd)
	return &File{fs: d.fs, name: req.Name}, &Handle{fs: d.fs, fd: fd}, nil
}

func (d *Dir) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	if req.Dir {
		return fuse.Errno(syscall.ENOTDIR)
	}

	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	return errno(d.fs.vol.Delete(req.Name))
}

// File is a regular file of the root directory, identified by name.
type File struct {
	fs   *FS
	name string
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	e, err := f.fs.vol.Lookup(f.name)
	if err != nil {
		return errno(err)
	}

	a.Inode = inode(e)
	a.Mode = 0644
	a.Size = uint64(e.Size)
	a.Blocks = uint64((e.Size + 511) / 512)
	a.BlockSize = ecsfs.BlockSize
	return nil
}

func (f *File) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	fd, err := f.fs.vol.Open(f.name)
	if err != nil {
		return nil, errno(err)
	}

	if req.Flags&fuse.OpenTruncate != 0 {
		if err := f.fs.vol.Truncate(fd, 0); err != nil {
			f.fs.vol.Close(fd)
			return nil, errno(err)
		}
	}
	return &Handle{fs: f.fs, fd: fd}, nil
}

// Setattr only honors size changes. Growing a file fills the new range
// with zeros.
func (f *File) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	if req.Valid.Size() {
		if err := f.resize(int64(req.Size)); err != nil {
			return errno(err)
		}
	}
	return f.Attr(ctx, &resp.Attr)
}

func (f *File) resize(size int64) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	fd, err := f.fs.vol.Open(f.name)
	if err != nil {
		return err
	}
	defer f.fs.vol.Close(fd)

	cur, err := f.fs.vol.Stat(fd)
	if err != nil {
		return err
	}
	if size <= cur {
		return f.fs.vol.Truncate(fd, size)
	}
	return zeroFill(f.fs.vol, fd, cur, size)
}

func (f *File) Fsync(ctx context.Context, req *fuse.FsyncRequest) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	return errno(f.fs.vol.Sync())
}

// Handle wraps a volume descriptor. Each request positions the cursor at
// the requested offset before transferring.
type Handle struct {
	fs *FS
	fd ecsfs.FD
}

func (h *Handle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()

	size, err := h.fs.vol.Stat(h.fd)
	if err != nil {
		return errno(err)
	}
	if req.Offset >= size {
		resp.Data = []byte{}
		return nil
	}

	if err := h.fs.vol.Seek(h.fd, req.Offset); err != nil {
		return errno(err)
	}

	buf := make([]byte, req.Size)
	n, err := h.fs.vol.Read(h.fd, buf)
	if err != nil {
		return errno(err)
	}
	resp.Data = buf[:n]
	return nil
}

// Write stores req.Data at req.Offset. A write past the end of the file
// first fills the gap with zeros. A short write is reported as such and
// the kernel retries the remainder, which then fails with ENOSPC.
func (h *Handle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()

	size, err := h.fs.vol.Stat(h.fd)
	if err != nil {
		return errno(err)
	}
	if req.Offset > size {
		if err := zeroFill(h.fs.vol, h.fd, size, req.Offset); err != nil {
			return errno(err)
		}
	}

	if err := h.fs.vol.Seek(h.fd, req.Offset); err != nil {
		return errno(err)
	}

	n, err := h.fs.vol.Write(h.fd, req.Data)
	if err != nil && n == 0 {
		return errno(err)
	}
	resp.Size = n
	return nil
}

func (h *Handle) Flush(ctx context.Context, req *fuse.FlushRequest) error {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()

	return errno(h.fs.vol.Sync())
}

func (h *Handle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()

	return errno(h.fs.vol.Close(h.fd))
}

func zeroFill(vol *ecsfs.Volume, fd ecsfs.FD, from, to int64) error {
	if err := vol.Seek(fd, from); err != nil {
		return err
	}

	zeros := make([]byte, min(to-from, ecsfs.BlockSize))
	for pos := from; pos < to; {
		n, err := vol.Write(fd, zeros[:min(to-pos, int64(len(zeros)))])
		if err != nil {
			return err
		}
		pos += int64(n)
	}
	return nil
}

// inode derives a stable inode number from the first data block, which is
// unique among live files.
func inode(e ecsfs.FileEntry) uint64 {
	return uint64(e.FirstBlock) + 1
}

func errno(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ecsfs.ErrNameNotFound):
		return fuse.ENOENT
	case errors.Is(err, ecsfs.ErrDuplicateName):
		return fuse.EEXIST
	case errors.Is(err, ecsfs.ErrInvalidName):
		return fuse.Errno(syscall.ENAMETOOLONG)
	case errors.Is(err, ecsfs.ErrDirectoryFull), errors.Is(err, ecsfs.ErrNoFreeBlocks):
		return fuse.Errno(syscall.ENOSPC)
	case errors.Is(err, ecsfs.ErrMaxHandlesOpen):
		return fuse.Errno(syscall.EMFILE)
	case errors.Is(err, ecsfs.ErrFileInUse):
		return fuse.Errno(syscall.EBUSY)
	case errors.Is(err, ecsfs.ErrOffsetOutOfRange):
		return fuse.Errno(syscall.EINVAL)
	case errors.Is(err, ecsfs.ErrInvalidHandle), errors.Is(err, ecsfs.ErrHandleNotOpen):
		return fuse.Errno(syscall.EBADF)
	default:
		return fuse.Errno(syscall.EIO)
	}
}
