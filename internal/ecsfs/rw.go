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

// Read reads up to len(p) bytes from the cursor of fd, never past the end
// of the file, and advances the cursor. It returns 0 at end of file.
//
// Only the blocks spanned by the byte range are read. Whole blocks go
// straight into p; partial ones pass through the bounce buffer.
func (v *Volume) Read(fd FD, p []byte) (int, error) {
	d, err := v.descriptor(fd)
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	e := &v.root[d.slot]
	size := int64(e.Size)
	if d.offset >= size {
		return 0, nil
	}

	n := int(min(int64(len(p)), size-d.offset))

	blk, err := v.fat.nth(e.FirstBlock, int(d.offset/BlockSize))
	if err != nil {
		return 0, err
	}

	off := int(d.offset % BlockSize)
	done := 0
	for {
		chunk := min(BlockSize-off, n-done)
		dst := p[done : done+chunk]

		if chunk == BlockSize {
			err = v.readData(blk, dst)
		} else if err = v.readData(blk, v.bounce[:]); err == nil {
			copy(dst, v.bounce[off:off+chunk])
		}
		if err != nil {
			break
		}

		done += chunk
		if done == n {
			break
		}

		if blk, err = v.follow(blk); err != nil {
			break
		}
		off = 0
	}

	v.log.Debug("read", "fd", fd, "offset", d.offset, "count", len(p), "read", done)

	d.offset += int64(done)
	return done, err
}

// Write writes p at the cursor of fd, growing the file as needed, and
// advances the cursor. The chain is extended one block at a time; when the
// volume runs out of blocks the bytes that fit are written and the short
// count is returned together with an error wrapping ErrNoFreeBlocks.
//
// A block only partially covered by the write is first read into the
// bounce buffer so the bytes around the written range are preserved. A
// block that starts at or after the end of the file has nothing to
// preserve and is zero filled instead.
func (v *Volume) Write(fd FD, p []byte) (int, error) {
	d, err := v.descriptor(fd)
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	e := &v.root[d.slot]
	size := int64(e.Size)

	have, last, err := v.fat.walk(e.FirstBlock)
	if err != nil {
		return 0, err
	}

	var allocErr error
	for need := blocksFor(d.offset + int64(len(p))); have < need; have++ {
		blk, err := v.fat.extend(last)
		if err != nil {
			allocErr = err
			break
		}
		last = blk
	}

	n := int(min(int64(len(p)), int64(have)*BlockSize-d.offset))
	done := 0

	var ioErr error
	if n > 0 {
		done, ioErr = v.writeChunks(e.FirstBlock, d.offset, size, p[:n])
	}

	v.log.Debug("write", "fd", fd, "offset", d.offset, "count", len(p), "written", done, "blocks", have)

	d.offset += int64(done)
	if d.offset > size {
		e.Size = uint32(d.offset)
	}

	if err := v.fitChain(e, have); err != nil && ioErr == nil {
		ioErr = err
	}

	switch {
	case ioErr != nil:
		return done, ioErr
	case done < len(p):
		return done, fmt.Errorf("%w: wrote %d of %d bytes", allocErr, done, len(p))
	}
	return done, nil
}

func (v *Volume) writeChunks(first uint16, pos, size int64, p []byte) (int, error) {
	blk, err := v.fat.nth(first, int(pos/BlockSize))
	if err != nil {
		return 0, err
	}

	off := int(pos % BlockSize)
	done := 0
	for {
		chunk := min(BlockSize-off, len(p)-done)
		src := p[done : done+chunk]

		if chunk == BlockSize {
			err = v.writeData(blk, src)
		} else {
			if blockStart := pos + int64(done) - int64(off); blockStart >= size {
				clear(v.bounce[:])
			} else if err = v.readData(blk, v.bounce[:]); err != nil {
				return done, err
			}
			copy(v.bounce[off:], src)
			err = v.writeData(blk, v.bounce[:])
		}
		if err != nil {
			return done, err
		}

		done += chunk
		if done == len(p) {
			return done, nil
		}

		if blk, err = v.follow(blk); err != nil {
			return done, err
		}
		off = 0
	}
}

// Truncate shrinks the file open on fd to size bytes and releases the
// blocks past the new end. Every cursor on the file beyond size is moved
// back to size.
func (v *Volume) Truncate(fd FD, size int64) error {
	d, err := v.descriptor(fd)
	if err != nil {
		return err
	}

	e := &v.root[d.slot]
	if size < 0 || size > int64(e.Size) {
		return fmt.Errorf("%w: cannot truncate %d bytes file to %d", ErrOffsetOutOfRange, e.Size, size)
	}

	have, _, err := v.fat.walk(e.FirstBlock)
	if err != nil {
		return err
	}

	e.Size = uint32(size)
	for i := range v.fds {
		if v.fds[i].open && v.fds[i].slot == d.slot {
			v.fds[i].offset = min(v.fds[i].offset, size)
		}
	}
	return v.fitChain(e, have)
}

// fitChain releases the blocks of e's chain that its size does not need.
func (v *Volume) fitChain(e *dirEntry, have int) error {
	keep := blocksFor(int64(e.Size))
	if have <= keep {
		return nil
	}

	released, err := v.fat.truncate(e.FirstBlock, keep)
	if err != nil {
		return err
	}
	v.log.Debug("chain truncated", "name", e.name(), "kept", keep, "released", released)
	return nil
}

func (v *Volume) follow(blk uint16) (uint16, error) {
	next, ok, err := v.fat.next(blk)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: chain ends at block %d before the end of the file", ErrInvalidVolumeFormat, blk)
	}
	return next, nil
}
