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

import "errors"

var (
	ErrNotMounted          = errors.New("no volume mounted")
	ErrInvalidVolumeFormat = errors.New("invalid volume format")
	ErrDeviceIO            = errors.New("device i/o failure")
	ErrInvalidName         = errors.New("invalid file name")
	ErrNameNotFound        = errors.New("no such file")
	ErrDuplicateName       = errors.New("file exists")
	ErrDirectoryFull       = errors.New("root directory is full")
	ErrNoFreeBlocks        = errors.New("no space left on volume")
	ErrInvalidHandle       = errors.New("invalid file descriptor")
	ErrHandleNotOpen       = errors.New("file descriptor is not open")
	ErrMaxHandlesOpen      = errors.New("too many open files")
	ErrFileInUse           = errors.New("file is open")
	ErrOffsetOutOfRange    = errors.New("offset out of range")
)
