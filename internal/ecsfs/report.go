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
	"io"
)

// WriteInfo prints the volume summary, one fact per line.
func WriteInfo(w io.Writer, info Info) error {
	_, err := fmt.Fprintf(w, "FS Info:\n"+
		"total_blk_count=%d\n"+
		"fat_blk_count=%d\n"+
		"rdir_blk=%d\n"+
		"data_blk=%d\n"+
		"data_blk_count=%d\n"+
		"fat_free_ratio=%d/%d\n"+
		"rdir_free_ratio=%d/%d\n",
		info.TotalBlocks,
		info.FATBlocks,
		info.RootIndex,
		info.DataIndex,
		info.DataBlocks,
		info.FreeBlocks, info.DataBlocks,
		info.FreeEntries, MaxFiles,
	)
	return err
}

// WriteListing prints one line per file, in directory order.
func WriteListing(w io.Writer, entries []FileEntry) error {
	if _, err := fmt.Fprintln(w, "FS Ls:"); err != nil {
		return err
	}

	for _, e := range entries {
		_, err := fmt.Fprintf(w, "file: %s, size: %d, data_blk: %d\n", e.Name, e.Size, e.FirstBlock)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteChains prints every file followed by the blocks of its chain.
func WriteChains(w io.Writer, v *Volume) error {
	entries, err := v.List()
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "FS Ls w/ blocks:"); err != nil {
		return err
	}

	for _, e := range entries {
		blocks, err := v.Chain(e.Name)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "file: %s, size: %d, data_blk: %d\n", e.Name, e.Size, e.FirstBlock); err != nil {
			return err
		}
		for i, blk := range blocks {
			if _, err := fmt.Fprintf(w, "\tBlock[%d]=%d\n", i+1, blk); err != nil {
				return err
			}
		}
	}
	return nil
}
