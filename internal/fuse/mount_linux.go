//go:build linux

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
package fuse

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/ostafen/ecsfs/internal/ecsfs"
)

const maxUnmountRetries = 3

// Mount serves vol at mountpoint until SIGINT or SIGTERM is received and
// the mountpoint has been unmounted. The volume itself stays mounted; the
// caller unmounts it once Mount returns.
func Mount(mountpoint string, vol *ecsfs.Volume, log *slog.Logger) error {
	created, err := PrepareMountpoint(mountpoint)
	if err != nil {
		return err
	}
	if created {
		defer os.Remove(mountpoint)
	}

	c, err := fuse.Mount(mountpoint, fuse.FSName("ecsfs"), fuse.Subtype("ecsfs"))
	if err != nil {
		return err
	}
	defer c.Close()

	served := make(chan error, 1)
	go func() {
		srv := fusefs.New(c, nil)
		served <- srv.Serve(NewFS(vol, log))
	}()

	if err := waitForUmount(mountpoint, served, log); err != nil {
		return err
	}
	return <-served
}

func waitForUmount(mountpoint string, served <-chan error, log *slog.Logger) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	log.Info("waiting for termination signal", "mountpoint", mountpoint)

	unmountAttempts := 0
	for {
		select {
		case err := <-served:
			return fmt.Errorf("serve error: %w", err)
		case sig := <-sigc:
			log.Info("signal received", "signal", sig)

			if unmountAttempts >= maxUnmountRetries {
				return fmt.Errorf("maximum unmount retries (%d) exceeded, unable to unmount %s",
					maxUnmountRetries, mountpoint)
			}

			log.Info("attempting unmount", "mountpoint", mountpoint, "attempt", unmountAttempts+1, "max", maxUnmountRetries)
			err := fuse.Unmount(mountpoint)
			if err == nil {
				log.Info("unmounted successfully")
				return nil
			}

			unmountAttempts++
			log.Warn("unmount failed, waiting for another signal to retry",
				"err", err, "remaining", maxUnmountRetries-unmountAttempts)
		}
	}
}

// PrepareMountpoint ensures the given path is a valid, empty directory suitable for FUSE mounting.
// It creates the directory if it doesn't exist. Returns `true` if created, `false` otherwise,
// or an error if the path exists but isn't an empty directory.
func PrepareMountpoint(mountpoint string) (bool, error) {
	finfo, err := os.Stat(mountpoint)
	if errors.Is(err, os.ErrNotExist) {
		err := os.Mkdir(mountpoint, 0755)
		if err != nil {
			return false, fmt.Errorf("failed to create mountpoint %s: %w", mountpoint, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat mountpoint %s: %w", mountpoint, err)
	}

	if !finfo.IsDir() {
		return false, fmt.Errorf("mountpoint %s is not a directory", mountpoint)
	}

	empty, err := IsDirEmpty(mountpoint)
	if err != nil {
		return false, fmt.Errorf("failed to check if mountpoint %s is empty: %w", mountpoint, err)
	}

	if !empty {
		return false, fmt.Errorf("mountpoint %s is not empty", mountpoint)
	}
	return false, nil
}

// IsDirEmpty returns true if the directory at path is empty, false otherwise.
func IsDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
