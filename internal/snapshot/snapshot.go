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
// Package snapshot saves a block device to a compressed, self-describing
// stream and restores it.
//
// A snapshot starts with the 8-byte magic "ECSSNAP1" and the little-endian
// uint32 length of a CBOR encoded Manifest. The manifest is followed by the
// device blocks, in order, compressed as a single stream with the codec the
// manifest names. The manifest carries the BLAKE3 digest of the raw blocks,
// which Restore checks once every block has been written.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/ostafen/ecsfs/internal/disk"
	"github.com/zeebo/blake3"
)

const (
	Magic   = "ECSSNAP1"
	Version = 1

	maxManifestSize = 1 << 16
)

var (
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrDigestMismatch  = errors.New("snapshot digest mismatch")
)

type Manifest struct {
	Version     int         `cbor:"1,keyasint"`
	BlockSize   int         `cbor:"2,keyasint"`
	BlockCount  int         `cbor:"3,keyasint"`
	Compression Compression `cbor:"4,keyasint"`
	Digest      []byte      `cbor:"5,keyasint"`
}

type Options struct {
	Compression Compression
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}
}

// Save writes a snapshot of every block of dev to w. The device is read
// twice: once to compute the digest stored in the manifest and once to
// produce the compressed body.
func Save(dev disk.Device, w io.Writer, opts Options) (*Manifest, error) {
	digest, err := digestDevice(dev)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Version:     Version,
		BlockSize:   disk.BlockSize,
		BlockCount:  dev.BlockCount(),
		Compression: opts.Compression,
		Digest:      digest,
	}

	data, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	header := make([]byte, len(Magic)+4)
	copy(header, Magic)
	binary.LittleEndian.PutUint32(header[len(Magic):], uint32(len(data)))

	if _, err := w.Write(header); err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	body, err := newCompressor(w, opts.Compression)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, disk.BlockSize)
	for i := 0; i < m.BlockCount; i++ {
		if err := dev.ReadBlock(i, buf); err != nil {
			body.Close()
			return nil, fmt.Errorf("failed to read block %d: %w", i, err)
		}
		if _, err := body.Write(buf); err != nil {
			body.Close()
			return nil, err
		}
	}
	return m, body.Close()
}

// Restore reads a snapshot from r, obtains a device of the recorded size
// from create and writes every block to it. The device is returned even
// when the digest does not match, so the caller can dispose of it.
func Restore(r io.Reader, create func(blocks int) (disk.Device, error)) (disk.Device, *Manifest, error) {
	m, err := ReadManifest(r)
	if err != nil {
		return nil, nil, err
	}

	dev, err := create(m.BlockCount)
	if err != nil {
		return nil, m, err
	}
	if n := dev.BlockCount(); n != m.BlockCount {
		return dev, m, fmt.Errorf("device has %d blocks, snapshot has %d", n, m.BlockCount)
	}

	body, done, err := newDecompressor(r, m.Compression)
	if err != nil {
		return dev, m, err
	}
	defer done()

	hasher := blake3.New()
	buf := make([]byte, disk.BlockSize)
	for i := 0; i < m.BlockCount; i++ {
		if _, err := io.ReadFull(body, buf); err != nil {
			return dev, m, fmt.Errorf("%w: block %d: %w", ErrInvalidSnapshot, i, err)
		}
		hasher.Write(buf)

		if err := dev.WriteBlock(i, buf); err != nil {
			return dev, m, fmt.Errorf("failed to write block %d: %w", i, err)
		}
	}

	if sum := hasher.Sum(nil); !bytes.Equal(sum, m.Digest) {
		return dev, m, fmt.Errorf("%w: expected %x, got %x", ErrDigestMismatch, m.Digest, sum)
	}
	return dev, m, nil
}

// ReadManifest consumes the header and manifest of a snapshot, leaving r
// positioned at the start of the compressed body.
func ReadManifest(r io.Reader) (*Manifest, error) {
	header := make([]byte, len(Magic)+4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if string(header[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidSnapshot, header[:len(Magic)])
	}

	size := binary.LittleEndian.Uint32(header[len(Magic):])
	if size > maxManifestSize {
		return nil, fmt.Errorf("%w: manifest of %d bytes", ErrInvalidSnapshot, size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	var m Manifest
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	switch {
	case m.Version != Version:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, m.Version)
	case m.BlockSize != disk.BlockSize:
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidSnapshot, m.BlockSize)
	case m.BlockCount < 1:
		return nil, fmt.Errorf("%w: block count %d", ErrInvalidSnapshot, m.BlockCount)
	case len(m.Digest) != 32:
		return nil, fmt.Errorf("%w: digest of %d bytes", ErrInvalidSnapshot, len(m.Digest))
	}
	return &m, nil
}

func digestDevice(dev disk.Device) ([]byte, error) {
	hasher := blake3.New()
	buf := make([]byte, disk.BlockSize)
	for i := 0; i < dev.BlockCount(); i++ {
		if err := dev.ReadBlock(i, buf); err != nil {
			return nil, fmt.Errorf("failed to read block %d: %w", i, err)
		}
		hasher.Write(buf)
	}
	return hasher.Sum(nil), nil
}
