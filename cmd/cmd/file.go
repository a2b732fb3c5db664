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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/ostafen/ecsfs/internal/ecsfs"
	"github.com/spf13/cobra"
)

func DefineAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "add <image_path> <file>",
		Short:        "Copy a host file into the volume",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunAdd,
	}

	cmd.Flags().StringP("name", "n", "", "name of the file in the volume (defaults to the base name of the host file)")
	return cmd
}

func RunAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = filepath.Base(args[1])
	}

	src, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer src.Close()

	return withVolume(cmd, args[0], func(s *session, v *ecsfs.Volume) error {
		if err := v.Create(name); err != nil {
			return err
		}

		f, err := v.OpenFile(name)
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := io.Copy(f, src)
		s.log.Info("file added", "name", name, "bytes", n, "err", err)
		if err != nil {
			return fmt.Errorf("copied %s of %s: %w", humanize.IBytes(uint64(n)), args[1], err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", name, humanize.IBytes(uint64(n)))
		return nil
	})
}

func DefineCatCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "cat <image_path> <name>",
		Short:        "Write the content of a file to standard output",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunCat,
	}
}

func RunCat(cmd *cobra.Command, args []string) error {
	return withVolume(cmd, args[0], func(_ *session, v *ecsfs.Volume) error {
		f, err := v.OpenFile(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(cmd.OutOrStdout(), f)
		return err
	})
}

func DefineRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "rm <image_path> <name>...",
		Short:        "Delete files from the volume",
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE:         RunRm,
	}
}

func RunRm(cmd *cobra.Command, args []string) error {
	return withVolume(cmd, args[0], func(s *session, v *ecsfs.Volume) error {
		for _, name := range args[1:] {
			if err := v.Delete(name); err != nil {
				return err
			}
			s.log.Info("file deleted", "name", name)
		}
		return nil
	})
}

func DefineStatCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "stat <image_path> <name>",
		Short:        "Print the size and placement of a file",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunStat,
	}
}

func RunStat(cmd *cobra.Command, args []string) error {
	return withVolume(cmd, args[0], func(_ *session, v *ecsfs.Volume) error {
		e, err := v.Lookup(args[1])
		if err != nil {
			return err
		}

		chain, err := v.Chain(args[1])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "file: %s\n", e.Name)
		fmt.Fprintf(w, "size: %d (%s)\n", e.Size, humanize.IBytes(uint64(e.Size)))
		fmt.Fprintf(w, "blocks: %d\n", len(chain))
		fmt.Fprintf(w, "data_blk: %d\n", e.FirstBlock)
		return nil
	})
}
