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

// Memory is a Device held entirely in memory.
type Memory struct {
	buf    []byte
	closed bool
}

func NewMemory(blocks int) *Memory {
	return &Memory{
		buf: make([]byte, blocks*BlockSize),
	}
}

// NewMemoryFrom wraps an existing raw image. len(data) must be a
// multiple of BlockSize; data is used in place.
func NewMemoryFrom(data []byte) *Memory {
	return &Memory{buf: data[:len(data)/BlockSize*BlockSize]}
}

func (m *Memory) BlockCount() int { return len(m.buf) / BlockSize }

func (m *Memory) ReadBlock(idx int, buf []byte) error {
	if m.closed {
		return ErrClosed
	}
	if err := checkTransfer(idx, m.BlockCount(), buf); err != nil {
		return err
	}
	copy(buf, m.buf[idx*BlockSize:(idx+1)*BlockSize])
	return nil
}

func (m *Memory) WriteBlock(idx int, buf []byte) error {
	if m.closed {
		return ErrClosed
	}
	if err := checkTransfer(idx, m.BlockCount(), buf); err != nil {
		return err
	}
	copy(m.buf[idx*BlockSize:(idx+1)*BlockSize], buf)
	return nil
}

func (m *Memory) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	return nil
}

// Bytes returns the raw contents of the device.
func (m *Memory) Bytes() []byte { return m.buf }

// Reopen makes a closed Memory usable again, simulating a fresh open of
// the same disk.
func (m *Memory) Reopen() { m.closed = false }
