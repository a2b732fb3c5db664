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

	"github.com/dustin/go-humanize"
	"github.com/ostafen/ecsfs/internal/ecsfs"
	"github.com/spf13/cobra"
)

func DefineFormatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format <image_path>",
		Short: "Create and format a new disk image",
		Long: `The 'format' command creates a new disk image and writes an empty ECS150FS volume to it.
The size of the volume is given either as a number of data blocks (--data-blocks) or as the
maximum size of the image file (--size, e.g. 16MiB). The image must not already exist.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunFormat,
	}

	cmd.Flags().Int("data-blocks", 0, "number of data blocks of the volume")
	cmd.Flags().String("size", "", "maximum size of the image file")
	cmd.MarkFlagsMutuallyExclusive("data-blocks", "size")
	cmd.MarkFlagsOneRequired("data-blocks", "size")
	return cmd
}

func RunFormat(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	dataBlocks, err := requestedDataBlocks(cmd)
	if err != nil {
		return err
	}

	sb, err := ecsfs.CreateImage(args[0], dataBlocks)
	if err != nil {
		return err
	}

	s.log.Info("image formatted",
		"path", args[0],
		"blocks", sb.TotalBlocks,
		"data_blocks", sb.DataBlocks,
	)

	fmt.Fprintf(cmd.OutOrStdout(), "Formatted %s: %d data blocks (%s)\n",
		args[0], sb.DataBlocks, humanize.IBytes(uint64(sb.TotalBlocks)*ecsfs.BlockSize))
	return nil
}

func requestedDataBlocks(cmd *cobra.Command) (int, error) {
	if cmd.Flags().Changed("data-blocks") {
		return cmd.Flags().GetInt("data-blocks")
	}

	size, _ := cmd.Flags().GetString("size")
	bytes, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", size, err)
	}

	sb, err := ecsfs.FitGeometry(int(bytes / ecsfs.BlockSize))
	if err != nil {
		return 0, err
	}
	return int(sb.DataBlocks), nil
}
