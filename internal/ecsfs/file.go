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
package ecsfs

import (
	"errors"
	"fmt"
	"io"
)

// File adapts a descriptor to the io interfaces.
type File struct {
	v  *Volume
	fd FD
}

// OpenFile opens name and wraps the descriptor in a File.
func (v *Volume) OpenFile(name string) (*File, error) {
	fd, err := v.Open(name)
	if err != nil {
		return nil, err
	}
	return &File{v: v, fd: fd}, nil
}

func (f *File) FD() FD { return f.fd }

// Read returns io.EOF once the cursor reaches the end of the file.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.v.Read(f.fd, p)
	if err == nil && n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, err
}

func (f *File) Write(p []byte) (int, error) {
	return f.v.Write(f.fd, p)
}

// Seek supports every whence, but the resulting offset must lie within
// the file.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		cur, err := f.v.Tell(f.fd)
		if err != nil {
			return -1, err
		}
		offset += cur
	case io.SeekEnd:
		size, err := f.v.Stat(f.fd)
		if err != nil {
			return -1, err
		}
		offset += size
	default:
		return -1, fmt.Errorf("File.Seek: invalid whence: %d", whence)
	}

	if err := f.v.Seek(f.fd, offset); err != nil {
		return -1, err
	}
	return offset, nil
}

func (f *File) Size() (int64, error) {
	return f.v.Stat(f.fd)
}

func (f *File) Truncate(size int64) error {
	return f.v.Truncate(f.fd, size)
}

func (f *File) Close() error {
	if f.fd < 0 {
		return errors.New("file already closed")
	}

	err := f.v.Close(f.fd)
	f.fd = -1
	return err
}
