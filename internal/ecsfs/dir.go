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
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// MaxFiles is the number of entries in the root directory.
	MaxFiles = 128

	// MaxNameLen is the longest file name; the on-disk field also holds
	// the terminating NUL.
	MaxNameLen = nameFieldLen - 1

	nameFieldLen = 16
)

// dirEntry is the on-disk layout of a root directory entry (32 bytes).
type dirEntry struct {
	Name       [nameFieldLen]byte // 0x00 NUL terminated, empty when free
	Size       uint32             // 0x10 file size in bytes
	FirstBlock uint16             // 0x14 first data block of the chain
	Padding    [10]byte           // 0x16 unused
}

type directory [MaxFiles]dirEntry

// FileEntry describes a file of the root directory.
type FileEntry struct {
	Name       string
	Size       int64
	FirstBlock uint16
}

func (e *dirEntry) isFree() bool { return e.Name[0] == 0 }

func (e *dirEntry) name() string {
	n := bytes.IndexByte(e.Name[:], 0)
	if n < 0 {
		n = len(e.Name)
	}
	return string(e.Name[:n])
}

func (e *dirEntry) setName(name string) {
	clear(e.Name[:])
	copy(e.Name[:], name)
}

func (e *dirEntry) entry() FileEntry {
	return FileEntry{
		Name:       e.name(),
		Size:       int64(e.Size),
		FirstBlock: e.FirstBlock,
	}
}

func (d *directory) decode(data []byte) error {
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, d)
}

func (d *directory) encode(data []byte) error {
	var buf bytes.Buffer
	buf.Grow(BlockSize)

	if err := binary.Write(&buf, binary.LittleEndian, d); err != nil {
		return fmt.Errorf("error writing root directory: %w", err)
	}
	copy(data, buf.Bytes())
	return nil
}

// lookup returns the slot of the first used entry named name.
func (d *directory) lookup(name string) (int, bool) {
	for i := range d {
		if !d[i].isFree() && d[i].name() == name {
			return i, true
		}
	}
	return -1, false
}

func (d *directory) freeSlot() (int, bool) {
	for i := range d {
		if d[i].isFree() {
			return i, true
		}
	}
	return -1, false
}

func (d *directory) free() int {
	n := 0
	for i := range d {
		if d[i].isFree() {
			n++
		}
	}
	return n
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidName, name, MaxNameLen)
	}
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidName, name)
	}
	return nil
}

// Create adds an empty file. The file is given its first data block
// immediately, so a created file always owns a chain.
func (v *Volume) Create(name string) error {
	if err := v.mounted(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}
	if _, found := v.root.lookup(name); found {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	slot, ok := v.root.freeSlot()
	if !ok {
		return fmt.Errorf("%w: cannot create %s", ErrDirectoryFull, name)
	}

	blk, err := v.fat.alloc()
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", name, err)
	}

	e := &v.root[slot]
	e.setName(name)
	e.Size = 0
	e.FirstBlock = blk

	v.log.Debug("file created", "name", name, "slot", slot, "block", blk)
	return nil
}

// Delete removes a file and frees its chain. A file cannot be deleted
// while a descriptor refers to it.
func (v *Volume) Delete(name string) error {
	if err := v.mounted(); err != nil {
		return err
	}

	slot, err := v.resolve(name)
	if err != nil {
		return err
	}
	if v.fds.refersTo(slot) {
		return fmt.Errorf("%w: %s", ErrFileInUse, name)
	}

	e := &v.root[slot]
	freed, err := v.fat.release(e.FirstBlock)
	if err != nil {
		return fmt.Errorf("cannot delete %s: %w", name, err)
	}
	clear(e.Name[:])

	v.log.Debug("file deleted", "name", name, "slot", slot, "freed_blocks", freed)
	return nil
}

// List returns the files of the root directory in slot order.
func (v *Volume) List() ([]FileEntry, error) {
	if err := v.mounted(); err != nil {
		return nil, err
	}

	var entries []FileEntry
	for i := range v.root {
		if !v.root[i].isFree() {
			entries = append(entries, v.root[i].entry())
		}
	}
	return entries, nil
}

// Lookup returns the directory entry of name.
func (v *Volume) Lookup(name string) (FileEntry, error) {
	if err := v.mounted(); err != nil {
		return FileEntry{}, err
	}

	slot, err := v.resolve(name)
	if err != nil {
		return FileEntry{}, err
	}
	return v.root[slot].entry(), nil
}

// Chain returns the data blocks of name in chain order.
func (v *Volume) Chain(name string) ([]uint16, error) {
	if err := v.mounted(); err != nil {
		return nil, err
	}

	slot, err := v.resolve(name)
	if err != nil {
		return nil, err
	}
	return v.fat.chain(v.root[slot].FirstBlock)
}

func (v *Volume) resolve(name string) (int, error) {
	if err := validateName(name); err != nil {
		return -1, err
	}

	slot, found := v.root.lookup(name)
	if !found {
		return -1, fmt.Errorf("%w: %s", ErrNameNotFound, name)
	}
	return slot, nil
}
