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
package disk

import (
	"fmt"

	"github.com/ostafen/ecsfs/internal/fs"
)

// Image is a Device backed by a regular file holding the raw volume.
type Image struct {
	path   string
	file   fs.File
	blocks int
}

// OpenImage opens an existing disk image. The file size must be a
// multiple of BlockSize.
func OpenImage(path string) (*Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat image %q: %w", path, err)
	}

	size := info.Size()
	if size%BlockSize != 0 {
		f.Close()
		return nil, fmt.Errorf("image %q: size %d is not a multiple of the block size (%d)", path, size, BlockSize)
	}

	return &Image{
		path:   path,
		file:   f,
		blocks: int(size / BlockSize),
	}, nil
}

// CreateImage creates a zero-filled image of the given number of blocks,
// failing if a file already exists at path.
func CreateImage(path string, blocks int) (*Image, error) {
	if blocks <= 0 {
		return nil, fmt.Errorf("invalid block count: %d", blocks)
	}

	f, err := fs.Create(path)
	if err != nil {
		return nil, err
	}

	if err := f.Truncate(int64(blocks) * BlockSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size image %q: %w", path, err)
	}

	return &Image{
		path:   path,
		file:   f,
		blocks: blocks,
	}, nil
}

func (img *Image) Path() string { return img.path }

func (img *Image) BlockCount() int { return img.blocks }

func (img *Image) ReadBlock(idx int, buf []byte) error {
	if img.file == nil {
		return ErrClosed
	}
	if err := checkTransfer(idx, img.blocks, buf); err != nil {
		return err
	}

	_, err := img.file.ReadAt(buf, int64(idx)*BlockSize)
	if err != nil {
		return fmt.Errorf("read block %d of %s: %w", idx, img.path, err)
	}
	return nil
}

func (img *Image) WriteBlock(idx int, buf []byte) error {
	if img.file == nil {
		return ErrClosed
	}
	if err := checkTransfer(idx, img.blocks, buf); err != nil {
		return err
	}

	_, err := img.file.WriteAt(buf, int64(idx)*BlockSize)
	if err != nil {
		return fmt.Errorf("write block %d of %s: %w", idx, img.path, err)
	}
	return nil
}

// Close flushes the image to stable storage and releases it.
func (img *Image) Close() error {
	if img.file == nil {
		return ErrClosed
	}

	f := img.file
	img.file = nil

	syncErr := f.Sync()
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close image %s: %w", img.path, err)
	}
	if syncErr != nil {
		return fmt.Errorf("failed to sync image %s: %w", img.path, syncErr)
	}
	return nil
}
