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
	"log/slog"

	"github.com/ostafen/ecsfs/internal/disk"
)

// Volume is a mounted ECS150FS volume. It owns the in-memory superblock,
// FAT and root directory for as long as the volume stays mounted, along
// with the table of open file descriptors.
//
// A Volume is not safe for concurrent use.
type Volume struct {
	dev disk.Device
	sb  *Superblock

	fatTable []uint16 // every entry of the FAT blocks, written back verbatim
	fat      FAT      // fatTable[:DataBlocks]

	root directory
	fds  descriptorTable

	bounce [BlockSize]byte

	log *slog.Logger
}

type Option func(*Volume)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(v *Volume) {
		v.log = l
	}
}

// Info describes the geometry and occupancy of a mounted volume.
type Info struct {
	TotalBlocks int
	FATBlocks   int
	RootIndex   int
	DataIndex   int
	DataBlocks  int
	FreeBlocks  int // free FAT entries
	FreeEntries int // free root directory entries
}

// MountImage opens the disk image at path and mounts it.
func MountImage(path string, opts ...Option) (*Volume, error) {
	img, err := disk.OpenImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open disk %q: %w", path, err)
	}

	v, err := Mount(img, opts...)
	if err != nil {
		img.Close()
		return nil, err
	}
	return v, nil
}

// Mount reads and validates the superblock, FAT and root directory of
// dev. On success the volume takes ownership of dev and closes it on
// Unmount; on failure dev is left open.
func Mount(dev disk.Device, opts ...Option) (*Volume, error) {
	v := &Volume{
		dev: dev,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}

	if err := v.readBlock(0, v.bounce[:]); err != nil {
		return nil, err
	}

	sb, err := decodeSuperblock(v.bounce[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVolumeFormat, err)
	}
	if err := sb.validate(dev.BlockCount()); err != nil {
		return nil, err
	}
	v.sb = sb

	v.fatTable = make([]uint16, int(sb.FATBlocks)*fatEntriesPerBlock)
	for i := 0; i < int(sb.FATBlocks); i++ {
		if err := v.readBlock(1+i, v.bounce[:]); err != nil {
			return nil, err
		}
		decodeFATBlock(v.fatTable[i*fatEntriesPerBlock:(i+1)*fatEntriesPerBlock], v.bounce[:])
	}
	v.fat = FAT(v.fatTable[:sb.DataBlocks])

	if err := v.readBlock(int(sb.RootIndex), v.bounce[:]); err != nil {
		return nil, err
	}
	if err := v.root.decode(v.bounce[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVolumeFormat, err)
	}

	v.log.Debug("volume mounted",
		"blocks", sb.TotalBlocks,
		"fat_blocks", sb.FATBlocks,
		"data_blocks", sb.DataBlocks,
	)
	return v, nil
}

// Sync writes the superblock, the FAT and the root directory back to the
// device, in that order.
func (v *Volume) Sync() error {
	if err := v.mounted(); err != nil {
		return err
	}

	if err := v.sb.encode(v.bounce[:]); err != nil {
		return err
	}
	if err := v.writeBlock(0, v.bounce[:]); err != nil {
		return err
	}

	for i := 0; i < int(v.sb.FATBlocks); i++ {
		encodeFATBlock(v.bounce[:], v.fatTable[i*fatEntriesPerBlock:(i+1)*fatEntriesPerBlock])
		if err := v.writeBlock(1+i, v.bounce[:]); err != nil {
			return err
		}
	}

	if err := v.root.encode(v.bounce[:]); err != nil {
		return err
	}
	return v.writeBlock(int(v.sb.RootIndex), v.bounce[:])
}

// Unmount flushes the metadata, discards every open descriptor and closes
// the device. The in-memory state is released even when the flush fails,
// in which case the on-disk volume keeps whatever was written before the
// failing block.
func (v *Volume) Unmount() error {
	if err := v.mounted(); err != nil {
		return err
	}

	syncErr := v.Sync()
	closeErr := v.dev.Close()

	v.dev = nil
	v.sb = nil
	v.fatTable = nil
	v.fat = nil
	v.root = directory{}
	v.fds = descriptorTable{}

	v.log.Debug("volume unmounted", "err", errors.Join(syncErr, closeErr))

	if syncErr != nil {
		return syncErr
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %w", ErrDeviceIO, closeErr)
	}
	return nil
}

func (v *Volume) Info() (Info, error) {
	if err := v.mounted(); err != nil {
		return Info{}, err
	}

	return Info{
		TotalBlocks: int(v.sb.TotalBlocks),
		FATBlocks:   int(v.sb.FATBlocks),
		RootIndex:   int(v.sb.RootIndex),
		DataIndex:   int(v.sb.DataIndex),
		DataBlocks:  int(v.sb.DataBlocks),
		FreeBlocks:  v.fat.free(),
		FreeEntries: v.root.free(),
	}, nil
}

func (v *Volume) mounted() error {
	if v == nil || v.dev == nil {
		return ErrNotMounted
	}
	return nil
}

func (v *Volume) readBlock(idx int, buf []byte) error {
	if err := v.dev.ReadBlock(idx, buf); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceIO, err)
	}
	return nil
}

func (v *Volume) writeBlock(idx int, buf []byte) error {
	if err := v.dev.WriteBlock(idx, buf); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceIO, err)
	}
	return nil
}

// data blocks are addressed relative to the start of the data region.
func (v *Volume) readData(blk uint16, buf []byte) error {
	return v.readBlock(int(v.sb.DataIndex)+int(blk), buf)
}

func (v *Volume) writeData(blk uint16, buf []byte) error {
	return v.writeBlock(int(v.sb.DataIndex)+int(blk), buf)
}
