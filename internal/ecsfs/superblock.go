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
	"math"

	"github.com/ostafen/ecsfs/internal/disk"
)

const (
	BlockSize = disk.BlockSize

	// Signature is the magic stored in the first 8 bytes of block 0.
	Signature = "ECS150FS"

	// MaxBlocks is the largest volume the 16-bit block count can describe.
	MaxBlocks = math.MaxUint16

	fatEntriesPerBlock = BlockSize / 2
)

// Superblock is the on-disk layout of block 0.
type Superblock struct {
	Signature   [8]byte    // 0x00 "ECS150FS"
	TotalBlocks uint16     // 0x08 total blocks of the volume
	RootIndex   uint16     // 0x0A root directory block
	DataIndex   uint16     // 0x0C first data block
	DataBlocks  uint16     // 0x0E number of data blocks
	FATBlocks   uint8      // 0x10 number of FAT blocks
	Padding     [4079]byte // 0x11 unused
}

// NewGeometry returns the superblock of a volume holding dataBlocks data
// blocks. The FAT needs one 2-byte entry per data block.
func NewGeometry(dataBlocks int) (*Superblock, error) {
	if dataBlocks < 1 {
		return nil, fmt.Errorf("invalid data block count: %d", dataBlocks)
	}

	fatBlocks := fatBlocksFor(dataBlocks)
	total := 2 + fatBlocks + dataBlocks
	if total > MaxBlocks || fatBlocks > math.MaxUint8 {
		return nil, fmt.Errorf("volume of %d data blocks needs %d blocks, max is %d", dataBlocks, total, MaxBlocks)
	}

	sb := &Superblock{
		TotalBlocks: uint16(total),
		RootIndex:   uint16(1 + fatBlocks),
		DataIndex:   uint16(2 + fatBlocks),
		DataBlocks:  uint16(dataBlocks),
		FATBlocks:   uint8(fatBlocks),
	}
	copy(sb.Signature[:], Signature)
	return sb, nil
}

// FitGeometry returns the largest geometry whose total block count does
// not exceed totalBlocks.
func FitGeometry(totalBlocks int) (*Superblock, error) {
	if totalBlocks > MaxBlocks {
		return nil, fmt.Errorf("volume of %d blocks exceeds the maximum of %d", totalBlocks, MaxBlocks)
	}

	dataBlocks := totalBlocks - 2 - fatBlocksFor(totalBlocks)
	for dataBlocks > 0 && 2+fatBlocksFor(dataBlocks+1)+dataBlocks+1 <= totalBlocks {
		dataBlocks++
	}
	return NewGeometry(dataBlocks)
}

func fatBlocksFor(dataBlocks int) int {
	return (dataBlocks*2 + BlockSize - 1) / BlockSize
}

func decodeSuperblock(data []byte) (*Superblock, error) {
	if len(data) != BlockSize {
		return nil, fmt.Errorf("superblock size mismatch: expected %d bytes, got %d bytes", BlockSize, len(data))
	}

	var sb Superblock
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &sb); err != nil {
		return nil, fmt.Errorf("error reading superblock: %w", err)
	}
	return &sb, nil
}

func (sb *Superblock) encode(data []byte) error {
	var buf bytes.Buffer
	buf.Grow(BlockSize)

	if err := binary.Write(&buf, binary.LittleEndian, sb); err != nil {
		return fmt.Errorf("error writing superblock: %w", err)
	}
	copy(data, buf.Bytes())
	return nil
}

// validate checks the superblock against itself and against the device
// it was read from.
func (sb *Superblock) validate(deviceBlocks int) error {
	if string(sb.Signature[:]) != Signature {
		return fmt.Errorf("%w: bad signature %q", ErrInvalidVolumeFormat, sb.Signature[:])
	}
	if int(sb.TotalBlocks) != deviceBlocks {
		return fmt.Errorf("%w: superblock reports %d blocks, device has %d",
			ErrInvalidVolumeFormat, sb.TotalBlocks, deviceBlocks)
	}
	if want := fatBlocksFor(int(sb.DataBlocks)); int(sb.FATBlocks) != want {
		return fmt.Errorf("%w: %d FAT blocks for %d data blocks, expected %d",
			ErrInvalidVolumeFormat, sb.FATBlocks, sb.DataBlocks, want)
	}
	if int(sb.RootIndex) != 1+int(sb.FATBlocks) {
		return fmt.Errorf("%w: root directory at block %d, expected %d",
			ErrInvalidVolumeFormat, sb.RootIndex, 1+int(sb.FATBlocks))
	}
	if int(sb.DataIndex) != 1+int(sb.RootIndex) {
		return fmt.Errorf("%w: data region at block %d, expected %d",
			ErrInvalidVolumeFormat, sb.DataIndex, 1+int(sb.RootIndex))
	}
	if int(sb.DataBlocks) != int(sb.TotalBlocks)-int(sb.DataIndex) {
		return fmt.Errorf("%w: %d data blocks, expected %d",
			ErrInvalidVolumeFormat, sb.DataBlocks, int(sb.TotalBlocks)-int(sb.DataIndex))
	}
	return nil
}
