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
)

// Check verifies that the file chains and the free entries of the FAT
// partition the data region: every block is either free, reserved
// (entry 0) or part of exactly one file's chain, and every chain is long
// enough for its file's size. All problems found are returned joined.
func (v *Volume) Check() error {
	if err := v.mounted(); err != nil {
		return err
	}

	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrInvalidVolumeFormat}, args...)...))
	}

	owner := make([]int, len(v.fat)) // slot+1, 0 when unowned
	for slot := range v.root {
		e := &v.root[slot]
		if e.isFree() {
			continue
		}
		name := e.name()

		length := 0
		for blk := e.FirstBlock; ; {
			if int(blk) >= len(v.fat) {
				report("%s: block %d is outside the data region", name, blk)
				break
			}
			if prev := owner[blk]; prev != 0 {
				if prev == slot+1 {
					report("%s: chain loops back to block %d", name, blk)
				} else {
					report("%s: block %d is also used by %s", name, blk, v.root[prev-1].name())
				}
				break
			}
			owner[blk] = slot + 1
			length++

			entry := v.fat[blk]
			if entry == fatFree {
				report("%s: block %d is part of the chain but marked free", name, blk)
				break
			}
			if entry == fatEOC {
				break
			}
			blk = entry
		}

		if want := blocksFor(int64(e.Size)); length < want {
			report("%s: %d bytes need %d blocks, chain has %d", name, e.Size, want, length)
		}
	}

	for blk := 1; blk < len(v.fat); blk++ {
		if v.fat[blk] != fatFree && owner[blk] == 0 {
			report("block %d is allocated but belongs to no file", blk)
		}
	}
	return errors.Join(problems...)
}
