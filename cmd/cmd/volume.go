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
	"os"

	"github.com/ostafen/ecsfs/internal/ecsfs"
	"github.com/ostafen/ecsfs/internal/env"
	"github.com/ostafen/ecsfs/pkg/dfxml"
	"github.com/spf13/cobra"
)

func DefineInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "info <image_path>",
		Short:        "Print the geometry and occupancy of a volume",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunInfo,
	}
}

func RunInfo(cmd *cobra.Command, args []string) error {
	return withVolume(cmd, args[0], func(_ *session, v *ecsfs.Volume) error {
		info, err := v.Info()
		if err != nil {
			return err
		}
		return ecsfs.WriteInfo(cmd.OutOrStdout(), info)
	})
}

func DefineLsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <image_path>",
		Short: "List the files of a volume",
		Long: `The 'ls' command lists every file of the root directory with its size and first data block.
With --blocks the full block chain of each file is printed as well. With --dfxml the layout of
every file is also exported as a DFXML report whose byte runs point into the image.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunLs,
	}

	cmd.Flags().BoolP("blocks", "b", false, "print the block chain of each file")
	cmd.Flags().String("dfxml", "", "write a DFXML report of the file layout to the specified path")
	return cmd
}

func RunLs(cmd *cobra.Command, args []string) error {
	showBlocks, _ := cmd.Flags().GetBool("blocks")
	reportPath, _ := cmd.Flags().GetString("dfxml")

	return withVolume(cmd, args[0], func(s *session, v *ecsfs.Volume) error {
		if reportPath != "" {
			if err := writeLayoutReport(reportPath, args[0], v); err != nil {
				return err
			}
			s.log.Info("layout report written", "path", reportPath)
		}

		if showBlocks {
			return ecsfs.WriteChains(cmd.OutOrStdout(), v)
		}

		entries, err := v.List()
		if err != nil {
			return err
		}
		return ecsfs.WriteListing(cmd.OutOrStdout(), entries)
	})
}

func writeLayoutReport(path, imagePath string, v *ecsfs.Volume) error {
	info, err := v.Info()
	if err != nil {
		return err
	}

	entries, err := v.List()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %q: %w", path, err)
	}
	defer f.Close()

	w := dfxml.NewWriter(f)
	err = w.WriteHeader(dfxml.Header{
		Metadata: dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: imagePath,
			SectorSize:    ecsfs.BlockSize,
			ImageSize:     uint64(info.TotalBlocks) * ecsfs.BlockSize,
		},
	})
	if err != nil {
		return err
	}

	for _, e := range entries {
		chain, err := v.Chain(e.Name)
		if err != nil {
			return err
		}
		if err := w.WriteFileObject(fileObject(e, chain, info.DataIndex)); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// fileObject maps the bytes of a file onto the image, one run per block,
// merging runs of physically consecutive blocks.
func fileObject(e ecsfs.FileEntry, chain []uint16, dataIndex int) dfxml.FileObject {
	var runs []dfxml.ByteRun

	remaining := e.Size
	for i, blk := range chain {
		if remaining <= 0 {
			break
		}

		n := min(remaining, ecsfs.BlockSize)
		runs = append(runs, dfxml.ByteRun{
			Offset:    uint64(i) * ecsfs.BlockSize,
			ImgOffset: uint64(dataIndex+int(blk)) * ecsfs.BlockSize,
			Length:    uint64(n),
		})
		remaining -= n
	}

	return dfxml.FileObject{
		Filename: e.Name,
		FileSize: uint64(e.Size),
		ByteRuns: dfxml.ByteRuns{Runs: dfxml.Coalesce(runs)},
	}
}

func DefineCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "check <image_path>",
		Short:        "Verify the consistency of the FAT and the root directory",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunCheck,
	}
}

func RunCheck(cmd *cobra.Command, args []string) error {
	return withVolume(cmd, args[0], func(s *session, v *ecsfs.Volume) error {
		if err := v.Check(); err != nil {
			s.log.Error("consistency check failed", "err", err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No problems found")
		return nil
	})
}
