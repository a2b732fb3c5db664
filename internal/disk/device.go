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
	"errors"
	"fmt"
)

// BlockSize is the size in bytes of every block transfer.
const BlockSize = 4096

var (
	ErrBlockRange = errors.New("block index out of range")
	ErrBlockSize  = errors.New("buffer is not block sized")
	ErrClosed     = errors.New("device is closed")
)

// Device is a block addressable disk. Indices are 0-based and absolute;
// every transfer moves exactly BlockSize bytes.
type Device interface {
	BlockCount() int
	ReadBlock(idx int, buf []byte) error
	WriteBlock(idx int, buf []byte) error
	Close() error
}

func checkTransfer(idx, count int, buf []byte) error {
	if len(buf) != BlockSize {
		return fmt.Errorf("%w: got %d bytes", ErrBlockSize, len(buf))
	}
	if idx < 0 || idx >= count {
		return fmt.Errorf("%w: %d (device has %d blocks)", ErrBlockRange, idx, count)
	}
	return nil
}
