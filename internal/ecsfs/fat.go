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
	"encoding/binary"
	"fmt"
)

// FAT entry markers. Any other value links to the next data block.
const (
	fatFree uint16 = 0
	fatEOC  uint16 = 0xFFFF
)

// FAT holds one entry per data block. Allocated blocks form singly linked
// chains terminated by fatEOC.
//
// Entry 0 is never handed out: a link to data block 0 would be
// indistinguishable from a free entry. Format marks it as end-of-chain.
type FAT []uint16

// next returns the block that follows blk in its chain. ok is false when
// blk is the last block of the chain.
func (f FAT) next(blk uint16) (next uint16, ok bool, err error) {
	if int(blk) >= len(f) {
		return 0, false, fmt.Errorf("%w: chain references block %d outside the data region", ErrInvalidVolumeFormat, blk)
	}

	switch e := f[blk]; e {
	case fatEOC:
		return 0, false, nil
	case fatFree:
		return 0, false, fmt.Errorf("%w: free block %d linked into a chain", ErrInvalidVolumeFormat, blk)
	default:
		return e, true, nil
	}
}

// alloc takes the lowest numbered free block and marks it end-of-chain.
func (f FAT) alloc() (uint16, error) {
	for i := 1; i < len(f); i++ {
		if f[i] == fatFree {
			f[i] = fatEOC
			return uint16(i), nil
		}
	}
	return 0, ErrNoFreeBlocks
}

// extend allocates a block and links it after last, which must be the
// current tail of a chain.
func (f FAT) extend(last uint16) (uint16, error) {
	blk, err := f.alloc()
	if err != nil {
		return 0, err
	}
	f[last] = blk
	return blk, nil
}

// release frees every block of the chain starting at blk and returns the
// number of blocks freed.
func (f FAT) release(blk uint16) (int, error) {
	freed := 0
	for {
		next, ok, err := f.next(blk)
		if err != nil {
			return freed, err
		}

		f[blk] = fatFree
		freed++

		if !ok {
			return freed, nil
		}
		if freed >= len(f) {
			return freed, fmt.Errorf("%w: cycle in chain", ErrInvalidVolumeFormat)
		}
		blk = next
	}
}

// walk follows the chain from first and returns its length and last block.
func (f FAT) walk(first uint16) (length int, last uint16, err error) {
	blk := first
	for length = 1; ; length++ {
		next, ok, err := f.next(blk)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			return length, blk, nil
		}
		if length >= len(f) {
			return 0, 0, fmt.Errorf("%w: cycle in chain starting at block %d", ErrInvalidVolumeFormat, first)
		}
		blk = next
	}
}

// nth returns the n-th (0-based) block of the chain starting at first.
func (f FAT) nth(first uint16, n int) (uint16, error) {
	blk := first
	for i := 0; i < n; i++ {
		next, ok, err := f.next(blk)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: chain starting at block %d has only %d blocks, wanted block %d",
				ErrInvalidVolumeFormat, first, i+1, n)
		}
		blk = next
	}
	return blk, nil
}

// chain lists the blocks of the chain starting at first in order.
func (f FAT) chain(first uint16) ([]uint16, error) {
	blocks := []uint16{first}
	for blk := first; ; {
		next, ok, err := f.next(blk)
		if err != nil {
			return nil, err
		}
		if !ok {
			return blocks, nil
		}
		if len(blocks) >= len(f) {
			return nil, fmt.Errorf("%w: cycle in chain starting at block %d", ErrInvalidVolumeFormat, first)
		}
		blocks = append(blocks, next)
		blk = next
	}
}

// truncate keeps the first keep blocks (at least one) of the chain and
// releases the rest. It returns the number of blocks released.
func (f FAT) truncate(first uint16, keep int) (int, error) {
	tail, err := f.nth(first, max(keep, 1)-1)
	if err != nil {
		return 0, err
	}

	next, ok, err := f.next(tail)
	if err != nil || !ok {
		return 0, err
	}

	f[tail] = fatEOC
	return f.release(next)
}

func (f FAT) free() int {
	n := 0
	for i := range f {
		if f[i] == fatFree {
			n++
		}
	}
	return n
}

// blocksFor returns how many blocks a file of the given size occupies.
// Every file owns at least one block, even when empty.
func blocksFor(size int64) int {
	return max(1, int((size+BlockSize-1)/BlockSize))
}

func decodeFATBlock(dst []uint16, data []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
}

func encodeFATBlock(data []byte, src []uint16) {
	for i := range src {
		binary.LittleEndian.PutUint16(data[2*i:], src[i])
	}
}
