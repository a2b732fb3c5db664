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
	"fmt"

	"github.com/ostafen/ecsfs/internal/disk"
)

// Format writes an empty volume of dataBlocks data blocks to dev. The
// device must have exactly the number of blocks the geometry requires
// (see NewGeometry). Data blocks are left untouched.
func Format(dev disk.Device, dataBlocks int) (*Superblock, error) {
	sb, err := NewGeometry(dataBlocks)
	if err != nil {
		return nil, err
	}
	if n := dev.BlockCount(); n != int(sb.TotalBlocks) {
		return nil, fmt.Errorf("device has %d blocks, a volume of %d data blocks needs %d",
			n, dataBlocks, sb.TotalBlocks)
	}

	buf := make([]byte, BlockSize)
	if err := sb.encode(buf); err != nil {
		return nil, err
	}
	if err := dev.WriteBlock(0, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceIO, err)
	}

	for i := 0; i < int(sb.FATBlocks); i++ {
		clear(buf)
		if i == 0 {
			encodeFATBlock(buf, []uint16{fatEOC})
		}
		if err := dev.WriteBlock(1+i, buf); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeviceIO, err)
		}
	}

	clear(buf)
	if err := dev.WriteBlock(int(sb.RootIndex), buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceIO, err)
	}
	return sb, nil
}

// CreateImage creates a disk image at path sized for dataBlocks data
// blocks and formats it.
func CreateImage(path string, dataBlocks int) (*Superblock, error) {
	sb, err := NewGeometry(dataBlocks)
	if err != nil {
		return nil, err
	}

	img, err := disk.CreateImage(path, int(sb.TotalBlocks))
	if err != nil {
		return nil, err
	}

	if _, err := Format(img, dataBlocks); err != nil {
		img.Close()
		return nil, err
	}
	return sb, img.Close()
}
