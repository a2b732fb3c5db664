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

import "fmt"

// MaxOpenFiles is the size of the descriptor table.
const MaxOpenFiles = 32

// FD identifies an open file by its slot in the descriptor table.
type FD int

// A descriptor binds to a directory slot, not to a name, and carries its
// own cursor.
type descriptor struct {
	open   bool
	slot   int
	offset int64
}

type descriptorTable [MaxOpenFiles]descriptor

func (t *descriptorTable) refersTo(slot int) bool {
	for i := range t {
		if t[i].open && t[i].slot == slot {
			return true
		}
	}
	return false
}

// Open returns a new descriptor on name with its cursor at offset 0.
func (v *Volume) Open(name string) (FD, error) {
	if err := v.mounted(); err != nil {
		return -1, err
	}

	slot, err := v.resolve(name)
	if err != nil {
		return -1, err
	}

	for i := range v.fds {
		if !v.fds[i].open {
			v.fds[i] = descriptor{open: true, slot: slot}
			return FD(i), nil
		}
	}
	return -1, fmt.Errorf("%w: cannot open %s", ErrMaxHandlesOpen, name)
}

func (v *Volume) Close(fd FD) error {
	d, err := v.descriptor(fd)
	if err != nil {
		return err
	}
	*d = descriptor{}
	return nil
}

// Stat returns the current size of the file open on fd.
func (v *Volume) Stat(fd FD) (int64, error) {
	d, err := v.descriptor(fd)
	if err != nil {
		return -1, err
	}
	return int64(v.root[d.slot].Size), nil
}

// Seek moves the cursor of fd to offset, which may be at most the size of
// the file.
func (v *Volume) Seek(fd FD, offset int64) error {
	d, err := v.descriptor(fd)
	if err != nil {
		return err
	}

	if size := int64(v.root[d.slot].Size); offset < 0 || offset > size {
		return fmt.Errorf("%w: %d (file size is %d)", ErrOffsetOutOfRange, offset, size)
	}
	d.offset = offset
	return nil
}

// Tell returns the cursor of fd.
func (v *Volume) Tell(fd FD) (int64, error) {
	d, err := v.descriptor(fd)
	if err != nil {
		return -1, err
	}
	return d.offset, nil
}

func (v *Volume) descriptor(fd FD) (*descriptor, error) {
	if err := v.mounted(); err != nil {
		return nil, err
	}
	if fd < 0 || fd >= MaxOpenFiles {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, fd)
	}

	d := &v.fds[fd]
	if !d.open {
		return nil, fmt.Errorf("%w: %d", ErrHandleNotOpen, fd)
	}
	return d, nil
}
