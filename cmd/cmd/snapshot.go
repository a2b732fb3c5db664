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
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/ostafen/ecsfs/internal/disk"
	"github.com/ostafen/ecsfs/internal/ecsfs"
	"github.com/ostafen/ecsfs/internal/snapshot"
	"github.com/ostafen/ecsfs/pkg/pbar"
	"github.com/spf13/cobra"
)

func DefineSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, restore and inspect compressed volume snapshots",
	}

	save := &cobra.Command{
		Use:          "save <image_path> <snapshot_path>",
		Short:        "Write a compressed snapshot of a disk image",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunSnapshotSave,
	}
	save.Flags().StringP("compression", "c", "", "compression codec: zstd, lz4 or none (default from config, zstd)")
	save.Flags().Bool("progress", false, "show a progress bar")

	restore := &cobra.Command{
		Use:          "restore <snapshot_path> <image_path>",
		Short:        "Recreate a disk image from a snapshot",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunSnapshotRestore,
	}
	restore.Flags().Bool("progress", false, "show a progress bar")

	inspect := &cobra.Command{
		Use:          "inspect <snapshot_path>",
		Short:        "Print the manifest of a snapshot",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunSnapshotInspect,
	}

	cmd.AddCommand(save, restore, inspect)
	return cmd
}

func RunSnapshotSave(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	codec := s.cfg.Snapshot.Compression
	if f := cmd.Flags().Lookup("compression"); f.Changed {
		codec = f.Value.String()
	}
	compression, err := snapshot.ParseCompression(codec)
	if err != nil {
		return err
	}

	img, err := disk.OpenImage(args[0])
	if err != nil {
		return err
	}
	defer img.Close()

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	defer out.Close()

	var dev disk.Device = img
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		// the device is read once for the digest and once for the body
		bar := pbar.New(cmd.ErrOrStderr(), "saving", 2*int64(img.BlockCount())*disk.BlockSize)
		defer bar.Finish()
		dev = &progressDevice{Device: img, bar: bar}
	}

	w := bufio.NewWriter(out)
	m, err := snapshot.Save(dev, w, snapshot.Options{Compression: compression})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	st, err := out.Stat()
	if err != nil {
		return err
	}

	s.log.Info("snapshot saved",
		"image", args[0],
		"snapshot", args[1],
		"blocks", m.BlockCount,
		"compression", m.Compression,
		"size", st.Size(),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d blocks to %s (%s, %s)\n",
		m.BlockCount, args[1], m.Compression, humanize.IBytes(uint64(st.Size())))
	return out.Sync()
}

func RunSnapshotRestore(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	showProgress, _ := cmd.Flags().GetBool("progress")

	var img *disk.Image
	create := func(blocks int) (disk.Device, error) {
		created, err := disk.CreateImage(args[1], blocks)
		if err != nil {
			return nil, err
		}
		img = created

		if showProgress {
			bar := pbar.New(cmd.ErrOrStderr(), "restoring", int64(blocks)*disk.BlockSize)
			return &progressDevice{Device: img, bar: bar}, nil
		}
		return img, nil
	}

	dev, m, err := snapshot.Restore(bufio.NewReader(in), create)
	if dev != nil {
		if p, ok := dev.(*progressDevice); ok {
			p.bar.Finish()
		}
		if closeErr := img.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		if img != nil {
			os.Remove(args[1])
		}
		return err
	}

	// the restored image must mount
	v, err := ecsfs.MountImage(args[1], ecsfs.WithLogger(s.log))
	if err != nil {
		return fmt.Errorf("restored image is not a valid volume: %w", err)
	}
	info, err := v.Info()
	if err = errors.Join(err, v.Unmount()); err != nil {
		return err
	}

	s.log.Info("snapshot restored", "snapshot", args[0], "image", args[1], "blocks", m.BlockCount)
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %d blocks to %s (%d files)\n",
		m.BlockCount, args[1], ecsfs.MaxFiles-info.FreeEntries)
	return nil
}

func RunSnapshotInspect(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	m, err := snapshot.ReadManifest(bufio.NewReader(in))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "version: %d\n", m.Version)
	fmt.Fprintf(w, "block_size: %d\n", m.BlockSize)
	fmt.Fprintf(w, "block_count: %d (%s)\n", m.BlockCount, humanize.IBytes(uint64(m.BlockCount)*uint64(m.BlockSize)))
	fmt.Fprintf(w, "compression: %s\n", m.Compression)
	fmt.Fprintf(w, "blake3: %x\n", m.Digest)
	return nil
}

// progressDevice advances a progress bar on every block transferred.
type progressDevice struct {
	disk.Device
	bar *pbar.Bar
}

func (d *progressDevice) ReadBlock(idx int, buf []byte) error {
	err := d.Device.ReadBlock(idx, buf)
	d.bar.Add(int64(len(buf)))
	return err
}

func (d *progressDevice) WriteBlock(idx int, buf []byte) error {
	err := d.Device.WriteBlock(idx, buf)
	d.bar.Add(int64(len(buf)))
	return err
}
